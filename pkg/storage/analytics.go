package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/studybot/quizcore/pkg/log"
)

// AnalyticsStore records button interaction events in an embedded SQLite
// database. Analytics are advisory; a write failure is logged and dropped,
// never surfaced to the interaction path. modernc.org/sqlite keeps the
// build CGO-less.
type AnalyticsStore struct {
	dbPath string
	db     *sql.DB
}

// NewAnalyticsStore creates a store pointing to dbPath. Call Init() before
// using it.
func NewAnalyticsStore(dbPath string) *AnalyticsStore {
	return &AnalyticsStore{dbPath: dbPath}
}

// Init opens the SQLite database, configures pragmas, and ensures the schema
// exists.
func (s *AnalyticsStore) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return fmt.Errorf("set WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		_ = db.Close()
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL;`); err != nil {
		_ = db.Close()
		return fmt.Errorf("set synchronous: %w", err)
	}

	const createLogs = `
CREATE TABLE IF NOT EXISTS button_interaction_logs (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  custom_id        TEXT    NOT NULL,
  user_id          INTEGER NOT NULL,
  guild_id         INTEGER,
  interaction_type TEXT    NOT NULL,
  handler_class    TEXT    NOT NULL,
  success          INTEGER NOT NULL,
  error_message    TEXT,
  response_time_ms INTEGER NOT NULL,
  created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_handler ON button_interaction_logs(handler_class);
CREATE INDEX IF NOT EXISTS idx_logs_created ON button_interaction_logs(created_at);`

	if _, err := db.Exec(createLogs); err != nil {
		_ = db.Close()
		return fmt.Errorf("ensure analytics schema: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *AnalyticsStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LogButtonInteraction appends one interaction event. Failures are logged
// and swallowed.
func (s *AnalyticsStore) LogButtonInteraction(customID string, userID, guildID int64, interactionType, handlerClass string, success bool, errorMessage string, responseTime time.Duration) {
	if s.db == nil {
		return
	}

	var guild any
	if guildID != 0 {
		guild = guildID
	}
	successFlag := 0
	if success {
		successFlag = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO button_interaction_logs
           (custom_id, user_id, guild_id, interaction_type, handler_class, success, error_message, response_time_ms, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		customID, userID, guild, interactionType, handlerClass, successFlag,
		errorMessage, responseTime.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		log.DatabaseLogger().Warn("Failed to log button interaction", "custom_id", customID, "err", err)
	}
}

// InteractionCounts aggregates events per interaction type since a cutoff,
// for the admin status snapshot.
func (s *AnalyticsStore) InteractionCounts(since time.Time) (map[string]int64, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	rows, err := s.db.Query(
		`SELECT interaction_type, COUNT(*) FROM button_interaction_logs
         WHERE created_at >= ? GROUP BY interaction_type`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query interaction counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan interaction count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
