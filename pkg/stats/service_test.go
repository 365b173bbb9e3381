package stats

import (
	"testing"
	"time"
)

func TestNextStreak(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if got := nextStreak(0, time.Time{}, today); got != 1 {
		t.Fatalf("first quiz ever: got %d, want 1", got)
	}
	if got := nextStreak(4, today, today); got != 4 {
		t.Fatalf("second quiz same day: got %d, want 4", got)
	}
	if got := nextStreak(0, today, today); got != 1 {
		t.Fatalf("same day with zero streak: got %d, want 1", got)
	}
	if got := nextStreak(4, today.AddDate(0, 0, -1), today); got != 5 {
		t.Fatalf("played yesterday: got %d, want 5", got)
	}
	if got := nextStreak(9, today.AddDate(0, 0, -3), today); got != 1 {
		t.Fatalf("gap breaks the streak: got %d, want 1", got)
	}
}
