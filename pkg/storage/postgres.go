// Package storage holds the durable stores: a Postgres side-table for
// database-mode buttons and user statistics, and an embedded SQLite store
// for interaction analytics.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/studybot/quizcore/pkg/log"
)

// OpenPostgres opens a pooled Postgres connection, verifies it and ensures
// the schema exists.
func OpenPostgres(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensurePostgresSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.DatabaseLogger().Info("Postgres connection established")
	return db, nil
}

func ensurePostgresSchema(db *sql.DB) error {
	const createButtons = `
CREATE TABLE IF NOT EXISTS persistent_buttons (
  id            BIGSERIAL PRIMARY KEY,
  custom_id     TEXT   NOT NULL,
  button_type   TEXT   NOT NULL,
  handler_class TEXT   NOT NULL,
  view_class    TEXT   NOT NULL,
  guild_id      BIGINT,
  channel_id    BIGINT NOT NULL,
  message_id    BIGINT NOT NULL,
  user_id       BIGINT NOT NULL,
  data          TEXT   NOT NULL DEFAULT '{}',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  expires_at    TIMESTAMPTZ,
  is_active     BOOLEAN NOT NULL DEFAULT TRUE,
  UNIQUE (custom_id, message_id)
);
CREATE INDEX IF NOT EXISTS idx_buttons_message ON persistent_buttons(message_id);
CREATE INDEX IF NOT EXISTS idx_buttons_active ON persistent_buttons(is_active);
CREATE INDEX IF NOT EXISTS idx_buttons_expires ON persistent_buttons(expires_at);`

	const createRegistry = `
CREATE TABLE IF NOT EXISTS ui_message_registry (
  message_id   BIGINT PRIMARY KEY,
  channel_id   BIGINT NOT NULL,
  guild_id     BIGINT,
  view_class   TEXT   NOT NULL,
  content_text TEXT,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  expires_at   TIMESTAMPTZ,
  is_active    BOOLEAN NOT NULL DEFAULT TRUE
);`

	const createUserStats = `
CREATE TABLE IF NOT EXISTS user_stats (
  user_id          BIGINT PRIMARY KEY,
  total_xp         BIGINT  NOT NULL DEFAULT 0,
  level            INTEGER NOT NULL DEFAULT 1,
  quizzes_taken    INTEGER NOT NULL DEFAULT 0,
  questions_answered INTEGER NOT NULL DEFAULT 0,
  correct_answers  INTEGER NOT NULL DEFAULT 0,
  perfect_quizzes  INTEGER NOT NULL DEFAULT 0,
  current_streak   INTEGER NOT NULL DEFAULT 0,
  longest_streak   INTEGER NOT NULL DEFAULT 0,
  last_quiz_date   DATE,
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_user_stats_xp ON user_stats(total_xp DESC);`

	const createGuildMembers = `
CREATE TABLE IF NOT EXISTS guild_members (
  guild_id  BIGINT NOT NULL,
  user_id   BIGINT NOT NULL,
  joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  PRIMARY KEY (guild_id, user_id)
);`

	for _, ddl := range []string{createButtons, createRegistry, createUserStats, createGuildMembers} {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("ensure postgres schema: %w", err)
		}
	}
	return nil
}

// nullableUnix converts a 0-means-never unix timestamp to a nullable column
// value.
func nullableUnix(unix int64) any {
	if unix == 0 {
		return nil
	}
	return time.Unix(unix, 0).UTC()
}

// unixFromNull converts a nullable timestamp column back to the 0-means-never
// form.
func unixFromNull(t sql.NullTime) int64 {
	if !t.Valid {
		return 0
	}
	return t.Time.Unix()
}
