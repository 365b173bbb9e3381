package task

import (
	"sync"
	"time"
)

// Cancel is a function that cancels a scheduled job.
type Cancel func()

// ScheduleDailyAtUTC schedules a task to start at the next occurrence of hour:minute:00 (UTC)
// and then repeats it every 24 hours.
//
// It returns a Cancel function that stops the pending first run (if it hasn't executed yet)
// and cancels the repeating job once it is registered.
func (tr *TaskRouter) ScheduleDailyAtUTC(hour, minute int, t Task) Cancel {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	if minute < 0 || minute > 59 {
		minute = 0
	}

	interval := 24 * time.Hour

	cancelCh := make(chan struct{})
	var once sync.Once

	var innerMu sync.Mutex
	var innerCancel Cancel

	cancel := func() {
		once.Do(func() {
			close(cancelCh)
			innerMu.Lock()
			if innerCancel != nil {
				innerCancel()
				innerCancel = nil
			}
			innerMu.Unlock()
		})
	}

	go func() {
		now := time.Now().UTC()
		target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
		if !now.Before(target) {
			target = target.Add(interval)
		}

		timer := time.NewTimer(time.Until(target))
		defer timer.Stop()

		select {
		case <-timer.C:
			// Register repeating job anchored on the first target run
			repeater := tr.ScheduleEvery(interval, t)
			innerMu.Lock()
			innerCancel = repeater
			innerMu.Unlock()

			<-cancelCh
			innerMu.Lock()
			if innerCancel != nil {
				innerCancel()
				innerCancel = nil
			}
			innerMu.Unlock()

		case <-cancelCh:
		}
	}()

	return cancel
}
