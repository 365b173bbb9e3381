package ui

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/studybot/quizcore/pkg/service"
	"github.com/studybot/quizcore/pkg/task"
)

// RecoveryPhase tracks the startup recovery state machine.
type RecoveryPhase int32

const (
	// PhaseCold means no recovery has been attempted; database-mode buttons
	// must not be assumed to work.
	PhaseCold RecoveryPhase = iota
	// PhaseScanning means durable records are being loaded.
	PhaseScanning
	// PhaseVerifying means owning messages are being re-fetched and checked.
	PhaseVerifying
	// PhaseReady means the recovery table is primed and the sweep task is
	// scheduled.
	PhaseReady
)

func (p RecoveryPhase) String() string {
	switch p {
	case PhaseCold:
		return "cold"
	case PhaseScanning:
		return "scanning"
	case PhaseVerifying:
		return "verifying"
	case PhaseReady:
		return "ready"
	}
	return "unknown"
}

// RecoveryStats summarizes one recovery pass for operational visibility.
type RecoveryStats struct {
	MessagesScanned   int           `json:"messages_scanned"`
	ButtonsRecovered  int           `json:"buttons_recovered"`
	MessagesRecovered int           `json:"messages_recovered"`
	Deactivated       int           `json:"deactivated"`
	Errors            int           `json:"errors"`
	SweptExpired      int64         `json:"swept_expired"`
	Duration          time.Duration `json:"duration"`
	LastRecovery      time.Time     `json:"last_recovery"`
}

const sweepTaskType = "ui.sweep_expired"

// DefaultSweepInterval is how often expired durable records are hard-deleted.
const DefaultSweepInterval = 6 * time.Hour

// RecoveryService reconstructs the in-memory recovery table at startup so
// buttons created before the last restart keep working, then keeps the
// durable store clean with a periodic sweep. It plugs into the service
// manager lifecycle.
type RecoveryService struct {
	manager *Manager
	fetcher MessageFetcher
	router  *task.TaskRouter

	sweepInterval time.Duration
	cancelSweep   task.Cancel

	phase   atomic.Int32
	running atomic.Bool
	started time.Time

	mu    sync.Mutex
	stats RecoveryStats
}

// NewRecoveryService builds a recovery service. router may be nil; the sweep
// is then not scheduled.
func NewRecoveryService(m *Manager, fetcher MessageFetcher, router *task.TaskRouter) *RecoveryService {
	return &RecoveryService{
		manager:       m,
		fetcher:       fetcher,
		router:        router,
		sweepInterval: DefaultSweepInterval,
	}
}

// SetSweepInterval overrides the sweep cadence. Call before Start.
func (rs *RecoveryService) SetSweepInterval(d time.Duration) {
	if d > 0 {
		rs.sweepInterval = d
	}
}

// Phase returns the current recovery phase.
func (rs *RecoveryService) Phase() RecoveryPhase {
	return RecoveryPhase(rs.phase.Load())
}

// LastStats returns a copy of the most recent pass statistics.
func (rs *RecoveryService) LastStats() RecoveryStats {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.stats
}

// PerformStartupRecovery runs one full recovery pass. A failure on one
// message never aborts the others; failures accumulate into the error count.
// Only a failure to read the durable store at all is returned as an error.
func (rs *RecoveryService) PerformStartupRecovery(ctx context.Context) (RecoveryStats, error) {
	logger := rs.manager.logger
	logger.Info("Starting persistent UI recovery...")
	start := time.Now()
	var stats RecoveryStats

	store := rs.manager.store
	if store == nil {
		rs.phase.Store(int32(PhaseReady))
		logger.Warn("No button store configured; skipping recovery")
		return stats, nil
	}

	rs.phase.Store(int32(PhaseScanning))
	records, err := store.LoadActiveButtons(ctx)
	if err != nil {
		rs.phase.Store(int32(PhaseCold))
		return stats, fmt.Errorf("load active buttons: %w", err)
	}

	byMessage := groupByMessage(records)
	stats.MessagesScanned = len(byMessage)

	rs.phase.Store(int32(PhaseVerifying))
	for messageID, group := range byMessage {
		recovered, err := rs.recoverMessage(ctx, messageID, group)
		if err != nil {
			stats.Errors++
			logger.Error("Failed to recover message buttons", "message_id", messageID, "err", err)
			continue
		}
		if recovered == 0 {
			stats.Deactivated++
			continue
		}
		stats.MessagesRecovered++
		stats.ButtonsRecovered += recovered
	}

	if swept, err := store.SweepExpired(ctx); err != nil {
		stats.Errors++
		logger.Error("Expired button sweep failed during recovery", "err", err)
	} else {
		stats.SweptExpired = swept
	}

	stats.Duration = time.Since(start)
	stats.LastRecovery = time.Now().UTC()

	rs.mu.Lock()
	rs.stats = stats
	rs.mu.Unlock()
	rs.phase.Store(int32(PhaseReady))

	logger.Info("Persistent UI recovery completed",
		"buttons_recovered", stats.ButtonsRecovered,
		"messages_scanned", stats.MessagesScanned,
		"deactivated", stats.Deactivated,
		"errors", stats.Errors,
		"duration", stats.Duration.String(),
	)
	return stats, nil
}

// recoverMessage verifies one message and inserts its button states into the
// recovery table. Returns the number of buttons recovered; zero means the
// message was stale and its records were deactivated.
func (rs *RecoveryService) recoverMessage(ctx context.Context, messageID int64, records []*ButtonRecord) (int, error) {
	channelID := records[0].ChannelID

	msg, err := rs.fetcher.FetchMessage(channelID, messageID)
	if err != nil {
		return 0, fmt.Errorf("fetch message: %w", err)
	}
	store := rs.manager.store

	if msg == nil {
		// Message deleted; its records are permanently stale.
		rs.manager.logger.Warn("Message not found during recovery, deactivating buttons", "message_id", messageID, "channel_id", channelID)
		if err := store.DeactivateMessage(ctx, messageID); err != nil {
			return 0, fmt.Errorf("deactivate message: %w", err)
		}
		return 0, nil
	}

	if len(msg.Components) == 0 {
		// Message survived but was edited away from its buttons.
		rs.manager.logger.Warn("Message has no components, deactivating buttons", "message_id", messageID)
		if err := store.DeactivateMessage(ctx, messageID); err != nil {
			return 0, fmt.Errorf("deactivate message: %w", err)
		}
		return 0, nil
	}

	recovered := 0
	for _, rec := range records {
		if _, err := ParseActionKind(rec.ButtonType); err != nil {
			rs.manager.logger.Error("Stored button has unknown action kind", "custom_id", rec.CustomID, "button_type", rec.ButtonType)
			continue
		}
		rs.manager.table.Put(rec.CustomID, TableEntry{State: rec.State(), HandlerName: rec.HandlerClass})
		recovered++
	}
	return recovered, nil
}

func groupByMessage(records []*ButtonRecord) map[int64][]*ButtonRecord {
	byMessage := make(map[int64][]*ButtonRecord)
	for _, rec := range records {
		byMessage[rec.MessageID] = append(byMessage[rec.MessageID], rec)
	}
	return byMessage
}

// sweepOnce hard-deletes expired rows, off the activation path.
func (rs *RecoveryService) sweepOnce(ctx context.Context) error {
	store := rs.manager.store
	if store == nil {
		return nil
	}
	swept, err := store.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if swept > 0 {
		rs.manager.logger.Info("Swept expired buttons", "count", swept)
	}
	return nil
}

// --- service.Service implementation ---

func (rs *RecoveryService) Name() string                      { return "ui-recovery" }
func (rs *RecoveryService) Type() service.ServiceType         { return service.TypeRecovery }
func (rs *RecoveryService) Priority() service.ServicePriority { return service.PriorityHigh }
func (rs *RecoveryService) Dependencies() []string            { return nil }
func (rs *RecoveryService) IsRunning() bool                   { return rs.running.Load() }

// Start runs the startup recovery pass and schedules the periodic sweep.
func (rs *RecoveryService) Start(ctx context.Context) error {
	if rs.running.Load() {
		return nil
	}
	if _, err := rs.PerformStartupRecovery(ctx); err != nil {
		return err
	}

	if rs.router != nil {
		rs.router.RegisterHandler(sweepTaskType, func(ctx context.Context, _ any) error {
			return rs.sweepOnce(ctx)
		})
		rs.cancelSweep = rs.router.ScheduleEvery(rs.sweepInterval, task.Task{
			Type:    sweepTaskType,
			Options: task.TaskOptions{IdempotencyKey: sweepTaskType},
		})
	}

	rs.started = time.Now()
	rs.running.Store(true)
	return nil
}

// Stop cancels the periodic sweep.
func (rs *RecoveryService) Stop(ctx context.Context) error {
	if rs.cancelSweep != nil {
		rs.cancelSweep()
		rs.cancelSweep = nil
	}
	rs.running.Store(false)
	return nil
}

func (rs *RecoveryService) HealthCheck(ctx context.Context) service.HealthStatus {
	healthy := rs.Phase() == PhaseReady
	msg := "recovery " + rs.Phase().String()
	return service.HealthStatus{
		Healthy:   healthy,
		Message:   msg,
		LastCheck: time.Now(),
		Details: map[string]interface{}{
			"table_entries": rs.manager.table.Len(),
		},
	}
}

func (rs *RecoveryService) Stats() service.ServiceStats {
	stats := rs.LastStats()
	return service.ServiceStats{
		StartTime:  rs.started,
		Uptime:     time.Since(rs.started),
		ErrorCount: stats.Errors,
		CustomMetrics: map[string]interface{}{
			"buttons_recovered": stats.ButtonsRecovered,
			"messages_scanned":  stats.MessagesScanned,
			"swept_expired":     stats.SweptExpired,
			"last_recovery":     stats.LastRecovery,
		},
	}
}
