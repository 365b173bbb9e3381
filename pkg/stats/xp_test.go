package stats

import "testing"

func TestBaseXP(t *testing.T) {
	cases := []struct {
		correct    int
		difficulty Difficulty
		want       int64
	}{
		{5, DifficultyEasy, 50},
		{5, DifficultyMedium, 75},
		{5, DifficultyHard, 100},
		{0, DifficultyHard, 0},
		{-3, DifficultyEasy, 0},
		{4, "unknown", 60}, // unknown difficulty falls back to medium
	}
	for _, tc := range cases {
		if got := BaseXP(tc.correct, tc.difficulty); got != tc.want {
			t.Errorf("BaseXP(%d, %s) = %d, want %d", tc.correct, tc.difficulty, got, tc.want)
		}
	}
}

func TestAccuracyBonusPercent(t *testing.T) {
	cases := []struct {
		correct, total int
		wantPct        int
	}{
		{10, 10, 50},
		{9, 10, 20},
		{8, 10, 10},
		{7, 10, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		pct, _ := AccuracyBonusPercent(tc.correct, tc.total)
		if pct != tc.wantPct {
			t.Errorf("AccuracyBonusPercent(%d, %d) = %d, want %d", tc.correct, tc.total, pct, tc.wantPct)
		}
	}
}

func TestStreakMultiplier(t *testing.T) {
	cases := []struct {
		streak int
		want   float64
	}{
		{0, 1.0},
		{2, 1.0},
		{3, 1.1},
		{7, 1.2},
		{14, 1.3},
		{29, 1.3},
		{30, 1.5},
		{365, 1.5},
	}
	for _, tc := range cases {
		if got := StreakMultiplier(tc.streak); got != tc.want {
			t.Errorf("StreakMultiplier(%d) = %v, want %v", tc.streak, got, tc.want)
		}
	}
}

func TestDetectStreakMilestone(t *testing.T) {
	if m, ok := DetectStreakMilestone(2, 3); !ok || m != 3 {
		t.Fatalf("expected milestone 3, got %d %v", m, ok)
	}
	if m, ok := DetectStreakMilestone(6, 8); !ok || m != 7 {
		t.Fatalf("expected milestone 7, got %d %v", m, ok)
	}
	if _, ok := DetectStreakMilestone(3, 4); ok {
		t.Fatalf("no milestone between 3 and 4")
	}
	if _, ok := DetectStreakMilestone(10, 10); ok {
		t.Fatalf("unchanged streak has no milestone")
	}
}

func TestCalculateXPPerfectQuiz(t *testing.T) {
	// 5/5 medium: base 75, accuracy +50% = 37, perfect +25% = 18.
	b := CalculateXP(5, 5, DifficultyMedium, 0, false, 0)
	if b.BaseXP != 75 {
		t.Fatalf("base = %d, want 75", b.BaseXP)
	}
	if b.AccuracyBonus != 37 {
		t.Fatalf("accuracy bonus = %d, want 37", b.AccuracyBonus)
	}
	if b.PerfectBonus != 18 {
		t.Fatalf("perfect bonus = %d, want 18", b.PerfectBonus)
	}
	if b.StreakBonus != 0 || b.TimeBonus != 0 || b.FirstTodayBonus != 0 {
		t.Fatalf("unexpected bonuses: %+v", b)
	}
	if b.TotalXP != 130 {
		t.Fatalf("total = %d, want 130", b.TotalXP)
	}
}

func TestCalculateXPStreakAppliesToSubtotal(t *testing.T) {
	// 4/5 easy: base 40, accuracy 80% +10% = 4, subtotal 44.
	// 7-day streak: +20% of 44 = 8.
	b := CalculateXP(4, 5, DifficultyEasy, 7, false, 0)
	if b.StreakBonus != 8 {
		t.Fatalf("streak bonus = %d, want 8", b.StreakBonus)
	}
	if b.TotalXP != 52 {
		t.Fatalf("total = %d, want 52", b.TotalXP)
	}
}

func TestCalculateXPFirstToday(t *testing.T) {
	// 2/5 easy: base 20, no accuracy bonus, first-today +15% = 3.
	b := CalculateXP(2, 5, DifficultyEasy, 0, true, 0)
	if b.FirstTodayBonus != 3 {
		t.Fatalf("first-today bonus = %d, want 3", b.FirstTodayBonus)
	}
	if b.TotalXP != 23 {
		t.Fatalf("total = %d, want 23", b.TotalXP)
	}
}

func TestLevelCurve(t *testing.T) {
	if got := XPForLevel(1); got != 0 {
		t.Fatalf("XPForLevel(1) = %d", got)
	}
	if got := XPForLevel(2); got != 50 {
		t.Fatalf("XPForLevel(2) = %d, want 50", got)
	}
	if got := XPForLevel(3); got != 150 {
		t.Fatalf("XPForLevel(3) = %d, want 150", got)
	}
	if got := XPForLevel(4); got != 300 {
		t.Fatalf("XPForLevel(4) = %d, want 300", got)
	}

	cases := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{49, 1},
		{50, 2},
		{149, 2},
		{150, 3},
		{-5, 1},
	}
	for _, tc := range cases {
		if got := LevelFromXP(tc.xp); got != tc.want {
			t.Errorf("LevelFromXP(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestProgressInLevel(t *testing.T) {
	level, inLevel, forNext := ProgressInLevel(170)
	if level != 3 || inLevel != 20 || forNext != 150 {
		t.Fatalf("ProgressInLevel(170) = %d %d %d, want 3 20 150", level, inLevel, forNext)
	}
}

func TestDetectLevelUp(t *testing.T) {
	if lvl, ok := DetectLevelUp(40, 60); !ok || lvl != 2 {
		t.Fatalf("expected level up to 2, got %d %v", lvl, ok)
	}
	if _, ok := DetectLevelUp(60, 80); ok {
		t.Fatalf("no level up within level 2")
	}
	// Crossing two levels at once reports the landing level.
	if lvl, ok := DetectLevelUp(0, 160); !ok || lvl != 3 {
		t.Fatalf("expected level up to 3, got %d %v", lvl, ok)
	}
}
