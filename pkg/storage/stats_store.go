package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UserStats is one row of accumulated quiz statistics.
type UserStats struct {
	UserID            int64
	TotalXP           int64
	Level             int
	QuizzesTaken      int
	QuestionsAnswered int
	CorrectAnswers    int
	PerfectQuizzes    int
	CurrentStreak     int
	LongestStreak     int
	LastQuizDate      time.Time // zero = never played
	UpdatedAt         time.Time
}

// QuizResultDelta is the additive update applied after one finished quiz.
// The caller computes XP, level and streak; the store only persists them.
type QuizResultDelta struct {
	XPGained  int64
	Questions int
	Correct   int
	Perfect   bool
	NewLevel  int
	NewStreak int
	QuizDate  time.Time
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank    int
	UserID  int64
	TotalXP int64
	Level   int
}

// StatsStore persists per-user quiz statistics in Postgres.
type StatsStore struct {
	db *sql.DB
}

// NewStatsStore wraps an open Postgres handle.
func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// GetUserStats returns the stats row for a user, or nil, nil when the user
// has never played.
func (s *StatsStore) GetUserStats(ctx context.Context, userID int64) (*UserStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, total_xp, level, quizzes_taken, questions_answered, correct_answers,
                perfect_quizzes, current_streak, longest_streak, last_quiz_date, updated_at
         FROM user_stats WHERE user_id = $1`,
		userID,
	)

	var (
		st       UserStats
		lastQuiz sql.NullTime
	)
	if err := row.Scan(
		&st.UserID, &st.TotalXP, &st.Level, &st.QuizzesTaken, &st.QuestionsAnswered,
		&st.CorrectAnswers, &st.PerfectQuizzes, &st.CurrentStreak, &st.LongestStreak,
		&lastQuiz, &st.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user stats %d: %w", userID, err)
	}
	if lastQuiz.Valid {
		st.LastQuizDate = lastQuiz.Time
	}
	return &st, nil
}

// ApplyQuizResult upserts one quiz's outcome onto the user's counters.
func (s *StatsStore) ApplyQuizResult(ctx context.Context, userID int64, delta QuizResultDelta) error {
	perfect := 0
	if delta.Perfect {
		perfect = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_stats
           (user_id, total_xp, level, quizzes_taken, questions_answered, correct_answers,
            perfect_quizzes, current_streak, longest_streak, last_quiz_date, updated_at)
         VALUES ($1, $2, $3, 1, $4, $5, $6, $7, $7, $8, NOW())
         ON CONFLICT (user_id) DO UPDATE SET
           total_xp           = user_stats.total_xp + EXCLUDED.total_xp,
           level              = EXCLUDED.level,
           quizzes_taken      = user_stats.quizzes_taken + 1,
           questions_answered = user_stats.questions_answered + EXCLUDED.questions_answered,
           correct_answers    = user_stats.correct_answers + EXCLUDED.correct_answers,
           perfect_quizzes    = user_stats.perfect_quizzes + EXCLUDED.perfect_quizzes,
           current_streak     = EXCLUDED.current_streak,
           longest_streak     = GREATEST(user_stats.longest_streak, EXCLUDED.current_streak),
           last_quiz_date     = EXCLUDED.last_quiz_date,
           updated_at         = NOW()`,
		userID, delta.XPGained, delta.NewLevel, delta.Questions, delta.Correct,
		perfect, delta.NewStreak, delta.QuizDate,
	)
	if err != nil {
		return fmt.Errorf("apply quiz result for %d: %w", userID, err)
	}
	return nil
}

// TouchGuildMember records that a user is active in a guild, so guild-scoped
// leaderboards know who belongs.
func (s *StatsStore) TouchGuildMember(ctx context.Context, guildID, userID int64) error {
	if guildID == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guild_members (guild_id, user_id) VALUES ($1, $2)
         ON CONFLICT (guild_id, user_id) DO NOTHING`,
		guildID, userID,
	)
	if err != nil {
		return fmt.Errorf("touch guild member %d/%d: %w", guildID, userID, err)
	}
	return nil
}

// Leaderboard returns the top users by XP. guildID 0 means global scope;
// otherwise only members recorded for that guild rank.
func (s *StatsStore) Leaderboard(ctx context.Context, guildID int64, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		rows *sql.Rows
		err  error
	)
	if guildID == 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT user_id, total_xp, level FROM user_stats
             ORDER BY total_xp DESC, user_id
             LIMIT $1`,
			limit,
		)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT us.user_id, us.total_xp, us.level
             FROM user_stats us
             JOIN guild_members gm ON gm.user_id = us.user_id AND gm.guild_id = $1
             ORDER BY us.total_xp DESC, us.user_id
             LIMIT $2`,
			guildID, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TotalXP, &e.Level); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return out, nil
}

// UserRank returns a user's 1-based global rank by XP, or 0 when the user
// has no stats row.
func (s *StatsStore) UserRank(ctx context.Context, userID int64) (int, error) {
	var rank sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT rank FROM (
           SELECT user_id, RANK() OVER (ORDER BY total_xp DESC) AS rank
           FROM user_stats
         ) ranked WHERE user_id = $1`,
		userID,
	).Scan(&rank)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("user rank %d: %w", userID, err)
	}
	return int(rank.Int64), nil
}
