package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studybot/quizcore/pkg/ui"
)

// ButtonStore is the Postgres implementation of ui.ButtonStore. One row per
// (custom_id, message_id); re-registering the pair updates payload, expiry
// and active flag in place.
type ButtonStore struct {
	db *sql.DB
}

// NewButtonStore wraps an open Postgres handle.
func NewButtonStore(db *sql.DB) *ButtonStore {
	return &ButtonStore{db: db}
}

func (s *ButtonStore) StoreButton(ctx context.Context, rec *ui.ButtonRecord) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal button data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO persistent_buttons
           (custom_id, button_type, handler_class, view_class, guild_id, channel_id, message_id, user_id, data, created_at, expires_at, is_active)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
         ON CONFLICT (custom_id, message_id) DO UPDATE SET
           data       = EXCLUDED.data,
           expires_at = EXCLUDED.expires_at,
           is_active  = EXCLUDED.is_active`,
		rec.CustomID, rec.ButtonType, rec.HandlerClass, rec.ViewClass,
		nullableID(rec.GuildID), rec.ChannelID, rec.MessageID, rec.UserID,
		string(data), rec.CreatedAt.UTC(), nullableUnix(rec.ExpiresAt), rec.IsActive,
	)
	if err != nil {
		return fmt.Errorf("store button %s: %w", rec.CustomID, err)
	}
	return nil
}

func (s *ButtonStore) LoadButton(ctx context.Context, customID string, messageID int64) (*ui.ButtonRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT custom_id, button_type, handler_class, view_class, guild_id, channel_id, message_id, user_id, data, created_at, expires_at, is_active
         FROM persistent_buttons
         WHERE custom_id = $1 AND message_id = $2 AND is_active
           AND (expires_at IS NULL OR expires_at > NOW())`,
		customID, messageID,
	)
	rec, err := scanButton(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load button %s: %w", customID, err)
	}
	return rec, nil
}

func (s *ButtonStore) LoadActiveButtons(ctx context.Context) ([]*ui.ButtonRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT custom_id, button_type, handler_class, view_class, guild_id, channel_id, message_id, user_id, data, created_at, expires_at, is_active
         FROM persistent_buttons
         WHERE is_active AND (expires_at IS NULL OR expires_at > NOW())
         ORDER BY message_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("load active buttons: %w", err)
	}
	defer rows.Close()

	var out []*ui.ButtonRecord
	for rows.Next() {
		rec, err := scanButton(rows)
		if err != nil {
			return nil, fmt.Errorf("scan button: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buttons: %w", err)
	}
	return out, nil
}

func (s *ButtonStore) DeactivateMessage(ctx context.Context, messageID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE persistent_buttons SET is_active = FALSE WHERE message_id = $1`,
		messageID,
	); err != nil {
		return fmt.Errorf("deactivate buttons for message %d: %w", messageID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE ui_message_registry SET is_active = FALSE WHERE message_id = $1`,
		messageID,
	); err != nil {
		return fmt.Errorf("deactivate registry entry %d: %w", messageID, err)
	}
	return nil
}

func (s *ButtonStore) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM persistent_buttons
         WHERE NOT is_active OR (expires_at IS NOT NULL AND expires_at <= NOW())`,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep expired buttons: %w", err)
	}
	swept, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM ui_message_registry
         WHERE NOT is_active OR (expires_at IS NOT NULL AND expires_at <= NOW())`,
	); err != nil {
		return swept, fmt.Errorf("sweep registry: %w", err)
	}
	return swept, nil
}

func (s *ButtonStore) RegisterMessage(ctx context.Context, reg *ui.MessageRegistration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ui_message_registry
           (message_id, channel_id, guild_id, view_class, content_text, created_at, expires_at, is_active)
         VALUES ($1, $2, $3, $4, $5, NOW(), $6, TRUE)
         ON CONFLICT (message_id) DO UPDATE SET
           view_class   = EXCLUDED.view_class,
           content_text = EXCLUDED.content_text,
           expires_at   = EXCLUDED.expires_at,
           is_active    = TRUE`,
		reg.MessageID, reg.ChannelID, nullableID(reg.GuildID), reg.ViewClass,
		reg.Content, nullableUnix(reg.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("register message %d: %w", reg.MessageID, err)
	}
	return nil
}

// ActiveButtonCount returns how many rows are currently live, for the admin
// status snapshot.
func (s *ButtonStore) ActiveButtonCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM persistent_buttons
         WHERE is_active AND (expires_at IS NULL OR expires_at > NOW())`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active buttons: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanButton(row rowScanner) (*ui.ButtonRecord, error) {
	var (
		rec     ui.ButtonRecord
		guildID sql.NullInt64
		data    string
		created time.Time
		expires sql.NullTime
	)
	if err := row.Scan(
		&rec.CustomID, &rec.ButtonType, &rec.HandlerClass, &rec.ViewClass,
		&guildID, &rec.ChannelID, &rec.MessageID, &rec.UserID,
		&data, &created, &expires, &rec.IsActive,
	); err != nil {
		return nil, err
	}
	rec.GuildID = guildID.Int64
	rec.CreatedAt = created
	rec.ExpiresAt = unixFromNull(expires)

	if data != "" {
		if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
			return nil, fmt.Errorf("unmarshal button data: %w", err)
		}
	}
	return &rec, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
