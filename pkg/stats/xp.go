// Package stats implements the XP and leveling arithmetic and the service
// that applies quiz results to durable user statistics.
package stats

import (
	"fmt"
	"strings"
)

// Difficulty scales base XP.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// BaseXPPerCorrect is awarded per correct answer before multipliers.
const BaseXPPerCorrect = 10

// FirstQuizOfDayBonus is the fractional bonus for the day's first quiz.
const FirstQuizOfDayBonus = 0.15

// PerfectQuizBonus is the fractional bonus for a flawless quiz.
const PerfectQuizBonus = 0.25

func difficultyMultiplier(d Difficulty) float64 {
	switch Difficulty(strings.ToLower(string(d))) {
	case DifficultyEasy:
		return 1.0
	case DifficultyHard:
		return 2.0
	default:
		return 1.5
	}
}

// accuracyBonuses holds thresholds in descending order; the first one met
// wins.
var accuracyBonuses = []struct {
	threshold float64
	bonus     float64
}{
	{100.0, 0.50},
	{90.0, 0.20},
	{80.0, 0.10},
}

// streakMultipliers holds day thresholds in descending order; the first one
// met wins.
var streakMultipliers = []struct {
	days       int
	multiplier float64
}{
	{30, 1.5},
	{14, 1.3},
	{7, 1.2},
	{3, 1.1},
}

// streakMilestones are celebrated once, when first crossed.
var streakMilestones = []int{3, 5, 7, 10, 14, 21, 30, 50, 75, 100}

// XPBreakdown itemizes one quiz's XP sources.
type XPBreakdown struct {
	BaseXP          int64   `json:"base_xp"`
	AccuracyBonus   int64   `json:"accuracy_bonus"`
	PerfectBonus    int64   `json:"perfect_bonus"`
	StreakBonus     int64   `json:"streak_bonus"`
	TimeBonus       int64   `json:"time_bonus"`
	FirstTodayBonus int64   `json:"first_today_bonus"`
	TotalXP         int64   `json:"total_xp"`
	Accuracy        float64 `json:"accuracy_percentage"`
}

// BaseXP computes the pre-bonus XP for a number of correct answers.
func BaseXP(correct int, difficulty Difficulty) int64 {
	if correct < 0 {
		return 0
	}
	return int64(float64(correct) * BaseXPPerCorrect * difficultyMultiplier(difficulty))
}

// AccuracyBonusPercent returns the bonus percentage for an accuracy ratio,
// plus the accuracy itself in percent.
func AccuracyBonusPercent(correct, total int) (int, float64) {
	if total <= 0 {
		return 0, 0
	}
	accuracy := float64(correct) / float64(total) * 100
	for _, b := range accuracyBonuses {
		if accuracy >= b.threshold {
			return int(b.bonus * 100), accuracy
		}
	}
	return 0, accuracy
}

// StreakMultiplier returns the XP multiplier for a consecutive-day streak.
func StreakMultiplier(streak int) float64 {
	for _, s := range streakMultipliers {
		if streak >= s.days {
			return s.multiplier
		}
	}
	return 1.0
}

// DetectStreakMilestone reports the milestone crossed between two streak
// values, if any.
func DetectStreakMilestone(oldStreak, newStreak int) (int, bool) {
	for _, m := range streakMilestones {
		if oldStreak < m && m <= newStreak {
			return m, true
		}
	}
	return 0, false
}

// CelebrationLevel maps a streak to a celebration intensity.
func CelebrationLevel(streak int) string {
	switch {
	case streak >= 50:
		return "legendary"
	case streak >= 21:
		return "amazing"
	case streak >= 10:
		return "impressive"
	default:
		return "basic"
	}
}

// CalculateXP computes the full XP breakdown for one finished quiz. The
// streak multiplier applies to everything earned, including the other
// bonuses.
func CalculateXP(correct, total int, difficulty Difficulty, currentStreak int, firstToday bool, timeBonusPercent int) XPBreakdown {
	base := BaseXP(correct, difficulty)

	accuracyPct, accuracy := AccuracyBonusPercent(correct, total)
	accuracyBonus := base * int64(accuracyPct) / 100

	var perfectBonus int64
	if total > 0 && correct == total {
		perfectBonus = int64(float64(base) * PerfectQuizBonus)
	}

	timeBonus := base * int64(timeBonusPercent) / 100

	var firstTodayBonus int64
	if firstToday {
		firstTodayBonus = int64(float64(base) * FirstQuizOfDayBonus)
	}

	subtotal := base + accuracyBonus + perfectBonus + timeBonus + firstTodayBonus
	streakBonus := int64(float64(subtotal) * (StreakMultiplier(currentStreak) - 1.0))

	return XPBreakdown{
		BaseXP:          base,
		AccuracyBonus:   accuracyBonus,
		PerfectBonus:    perfectBonus,
		StreakBonus:     streakBonus,
		TimeBonus:       timeBonus,
		FirstTodayBonus: firstTodayBonus,
		TotalXP:         subtotal + streakBonus,
		Accuracy:        accuracy,
	}
}

// Level progression: reaching level n+1 from n costs 50 + (n-1)*50 XP, up to
// MaxLevel.
const (
	baseXPRequirement = 50
	xpScalingFactor   = 50

	// MaxLevel caps progression.
	MaxLevel = 100
)

// XPForLevel returns the total XP needed to reach a level from zero.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	var total int64
	for l := 2; l <= level; l++ {
		total += int64(baseXPRequirement + (l-2)*xpScalingFactor)
	}
	return total
}

// LevelFromXP returns the 1-based level for an XP total.
func LevelFromXP(totalXP int64) int {
	if totalXP < 0 {
		return 1
	}
	level := 1
	var accumulated int64
	for l := 2; l <= MaxLevel; l++ {
		requirement := int64(baseXPRequirement + (l-2)*xpScalingFactor)
		if accumulated+requirement > totalXP {
			break
		}
		accumulated += requirement
		level = l
	}
	return level
}

// ProgressInLevel returns the current level, XP earned within it, and the
// XP needed for the next level. At MaxLevel the latter two are zero.
func ProgressInLevel(totalXP int64) (level int, inLevel, forNext int64) {
	level = LevelFromXP(totalXP)
	if level >= MaxLevel {
		return level, 0, 0
	}
	inLevel = totalXP - XPForLevel(level)
	forNext = int64(baseXPRequirement + (level-1)*xpScalingFactor)
	return level, inLevel, forNext
}

// DetectLevelUp reports the new level when an XP gain crosses a level
// boundary.
func DetectLevelUp(oldXP, newXP int64) (int, bool) {
	oldLevel := LevelFromXP(oldXP)
	newLevel := LevelFromXP(newXP)
	if newLevel > oldLevel {
		return newLevel, true
	}
	return 0, false
}

// FormatBreakdown renders an XP breakdown as Discord markdown.
func FormatBreakdown(b XPBreakdown, difficulty Difficulty) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 Base XP (%s): **%d**\n", difficulty, b.BaseXP)
	if b.AccuracyBonus > 0 {
		fmt.Fprintf(&sb, "🎯 Accuracy Bonus (%.1f%%): **+%d**\n", b.Accuracy, b.AccuracyBonus)
	}
	if b.PerfectBonus > 0 {
		fmt.Fprintf(&sb, "💯 Perfect Quiz Bonus: **+%d**\n", b.PerfectBonus)
	}
	if b.TimeBonus > 0 {
		fmt.Fprintf(&sb, "⚡ Speed Bonus: **+%d**\n", b.TimeBonus)
	}
	if b.FirstTodayBonus > 0 {
		fmt.Fprintf(&sb, "🌅 First Quiz Today: **+%d**\n", b.FirstTodayBonus)
	}
	if b.StreakBonus > 0 {
		fmt.Fprintf(&sb, "🔥 Streak Bonus: **+%d**\n", b.StreakBonus)
	}
	fmt.Fprintf(&sb, "\n**Total XP Earned: %d**", b.TotalXP)
	return sb.String()
}
