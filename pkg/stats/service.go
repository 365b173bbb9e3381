package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/studybot/quizcore/pkg/cache"
	"github.com/studybot/quizcore/pkg/log"
	"github.com/studybot/quizcore/pkg/service"
	"github.com/studybot/quizcore/pkg/storage"
	"github.com/studybot/quizcore/pkg/task"
)

const (
	userCacheSize = 1024
	userCacheTTL  = time.Minute

	refreshTaskType = "stats.refresh_leaderboard"

	// DefaultLeaderboardRefresh is how often the cached global board is
	// rebuilt from Postgres.
	DefaultLeaderboardRefresh = 5 * time.Minute
)

// QuizOutcome is everything a finished quiz changed for the user.
type QuizOutcome struct {
	Breakdown       XPBreakdown
	NewTotalXP      int64
	NewLevel        int
	LeveledUp       bool
	NewStreak       int
	StreakMilestone int // 0 when none crossed
	Celebration     string
}

// StatsService applies quiz results, serves stats reads through a small
// in-process LRU, and keeps leaderboards warm in Redis. The Redis cache may
// be nil; reads then always hit Postgres.
type StatsService struct {
	store  *storage.StatsStore
	boards *cache.LeaderboardCache
	users  *expirable.LRU[int64, *storage.UserStats]
	router *task.TaskRouter
	logger *slog.Logger

	cancelRefresh task.Cancel
	running       atomic.Bool
	started       time.Time
}

// NewStatsService builds the service. boards and router may be nil.
func NewStatsService(store *storage.StatsStore, boards *cache.LeaderboardCache, router *task.TaskRouter) *StatsService {
	return &StatsService{
		store:  store,
		boards: boards,
		users:  expirable.NewLRU[int64, *storage.UserStats](userCacheSize, nil, userCacheTTL),
		router: router,
		logger: log.ApplicationLogger(),
	}
}

// RecordQuizResult computes XP, streak and level for one finished quiz and
// persists the update.
func (s *StatsService) RecordQuizResult(ctx context.Context, userID, guildID int64, correct, total int, difficulty Difficulty) (*QuizOutcome, error) {
	prev, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	var (
		oldXP     int64
		oldStreak int
		lastQuiz  time.Time
	)
	if prev != nil {
		oldXP = prev.TotalXP
		oldStreak = prev.CurrentStreak
		lastQuiz = prev.LastQuizDate
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	firstToday := lastQuiz.IsZero() || lastQuiz.Before(today)
	newStreak := nextStreak(oldStreak, lastQuiz, today)

	breakdown := CalculateXP(correct, total, difficulty, newStreak, firstToday, 0)
	newXP := oldXP + breakdown.TotalXP
	newLevel := LevelFromXP(newXP)
	_, leveledUp := DetectLevelUp(oldXP, newXP)

	delta := storage.QuizResultDelta{
		XPGained:  breakdown.TotalXP,
		Questions: total,
		Correct:   correct,
		Perfect:   total > 0 && correct == total,
		NewLevel:  newLevel,
		NewStreak: newStreak,
		QuizDate:  today,
	}
	if err := s.store.ApplyQuizResult(ctx, userID, delta); err != nil {
		return nil, fmt.Errorf("apply quiz result: %w", err)
	}
	if err := s.store.TouchGuildMember(ctx, guildID, userID); err != nil {
		s.logger.Warn("Failed to record guild membership", "guild_id", guildID, "user_id", userID, "err", err)
	}

	s.users.Remove(userID)
	if s.boards != nil {
		s.boards.Invalidate(ctx, guildID)
	}

	outcome := &QuizOutcome{
		Breakdown:   breakdown,
		NewTotalXP:  newXP,
		NewLevel:    newLevel,
		LeveledUp:   leveledUp,
		NewStreak:   newStreak,
		Celebration: CelebrationLevel(newStreak),
	}
	if milestone, ok := DetectStreakMilestone(oldStreak, newStreak); ok {
		outcome.StreakMilestone = milestone
	}
	return outcome, nil
}

// nextStreak advances the consecutive-day counter: same day keeps it,
// yesterday extends it, anything older resets to one.
func nextStreak(oldStreak int, lastQuiz, today time.Time) int {
	if lastQuiz.IsZero() {
		return 1
	}
	last := lastQuiz.UTC().Truncate(24 * time.Hour)
	switch {
	case last.Equal(today):
		return max(oldStreak, 1)
	case last.Equal(today.AddDate(0, 0, -1)):
		return oldStreak + 1
	default:
		return 1
	}
}

// GetUserStats returns a user's stats, served from the LRU when fresh; a
// user who has never played gets nil, nil.
func (s *StatsService) GetUserStats(ctx context.Context, userID int64) (*storage.UserStats, error) {
	if cached, ok := s.users.Get(userID); ok {
		return cached, nil
	}
	st, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		s.users.Add(userID, st)
	}
	return st, nil
}

// Leaderboard returns the top users for a scope, preferring the Redis copy.
func (s *StatsService) Leaderboard(ctx context.Context, guildID int64, limit int) ([]storage.LeaderboardEntry, error) {
	if s.boards != nil {
		if entries, err := s.boards.Get(ctx, guildID, limit); err == nil && entries != nil {
			return entries, nil
		}
	}

	entries, err := s.store.Leaderboard(ctx, guildID, limit)
	if err != nil {
		return nil, err
	}
	if s.boards != nil && len(entries) > 0 {
		if err := s.boards.Set(ctx, guildID, entries); err != nil {
			s.logger.Warn("Failed to warm leaderboard cache", "guild_id", guildID, "err", err)
		}
	}
	return entries, nil
}

// UserRank returns the user's global rank, 0 when unranked.
func (s *StatsService) UserRank(ctx context.Context, userID int64) (int, error) {
	return s.store.UserRank(ctx, userID)
}

func (s *StatsService) refreshGlobalBoard(ctx context.Context) error {
	if s.boards == nil {
		return nil
	}
	entries, err := s.store.Leaderboard(ctx, 0, 25)
	if err != nil {
		return err
	}
	return s.boards.Set(ctx, 0, entries)
}

// --- service.Service implementation ---

func (s *StatsService) Name() string                      { return "stats" }
func (s *StatsService) Type() service.ServiceType         { return service.TypeStats }
func (s *StatsService) Priority() service.ServicePriority { return service.PriorityNormal }
func (s *StatsService) Dependencies() []string            { return nil }
func (s *StatsService) IsRunning() bool                   { return s.running.Load() }

// Start schedules the periodic leaderboard refresh.
func (s *StatsService) Start(ctx context.Context) error {
	if s.running.Load() {
		return nil
	}
	if s.router != nil && s.boards != nil {
		s.router.RegisterHandler(refreshTaskType, func(ctx context.Context, _ any) error {
			return s.refreshGlobalBoard(ctx)
		})
		s.cancelRefresh = s.router.ScheduleEvery(DefaultLeaderboardRefresh, task.Task{
			Type:    refreshTaskType,
			Options: task.TaskOptions{IdempotencyKey: refreshTaskType},
		})
	}
	s.started = time.Now()
	s.running.Store(true)
	return nil
}

func (s *StatsService) Stop(ctx context.Context) error {
	if s.cancelRefresh != nil {
		s.cancelRefresh()
		s.cancelRefresh = nil
	}
	s.running.Store(false)
	return nil
}

func (s *StatsService) HealthCheck(ctx context.Context) service.HealthStatus {
	return service.HealthStatus{
		Healthy:   s.running.Load(),
		Message:   "stats service",
		LastCheck: time.Now(),
		Details: map[string]interface{}{
			"user_cache_entries": s.users.Len(),
		},
	}
}

func (s *StatsService) Stats() service.ServiceStats {
	return service.ServiceStats{
		StartTime: s.started,
		Uptime:    time.Since(s.started),
		CustomMetrics: map[string]interface{}{
			"user_cache_entries": s.users.Len(),
		},
	}
}
