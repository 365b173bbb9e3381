package ui

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ButtonRecord is the durable form of a database-mode button, keyed by
// (custom_id, message_id).
type ButtonRecord struct {
	CustomID     string
	ButtonType   string // ActionKind wire value
	HandlerClass string
	ViewClass    string
	GuildID      int64 // 0 = no guild (DM)
	ChannelID    int64
	MessageID    int64
	UserID       int64
	Data         Payload
	CreatedAt    time.Time
	ExpiresAt    int64 // unix seconds, 0 = never
	IsActive     bool
}

// State reconstructs the ButtonState held in this record.
func (r *ButtonRecord) State() *ButtonState {
	return &ButtonState{
		OwnerID: r.UserID,
		Action:  ActionKind(r.ButtonType),
		Data:    r.Data,
		GuildID: r.GuildID,
		Expires: r.ExpiresAt,
	}
}

// MessageRegistration describes a message holding persistent UI, tracked so
// recovery can rebuild embeds and audit which views are live.
type MessageRegistration struct {
	MessageID int64
	ChannelID int64
	GuildID   int64 // 0 = no guild
	ViewClass string
	Content   string
	ExpiresAt int64 // unix seconds, 0 = never
}

// ButtonStore is the durable side-table for database-mode buttons. All
// methods must be safe for concurrent use; the store sits behind a pooled
// connection.
type ButtonStore interface {
	// StoreButton upserts a record; re-registering the same
	// (custom_id, message_id) pair updates payload, expiry and active flag.
	StoreButton(ctx context.Context, rec *ButtonRecord) error

	// LoadButton returns the record only if it is active and unexpired;
	// returns nil, nil when not found.
	LoadButton(ctx context.Context, customID string, messageID int64) (*ButtonRecord, error)

	// LoadActiveButtons returns every active, unexpired record ordered by
	// message id, for the startup recovery pass.
	LoadActiveButtons(ctx context.Context) ([]*ButtonRecord, error)

	// DeactivateMessage soft-deletes every record for a message.
	DeactivateMessage(ctx context.Context, messageID int64) error

	// SweepExpired hard-deletes inactive or past-expiry rows, returning the
	// number removed. Runs on a periodic schedule, never in the activation
	// path.
	SweepExpired(ctx context.Context) (int64, error)

	// RegisterMessage upserts a message registry entry.
	RegisterMessage(ctx context.Context, reg *MessageRegistration) error
}

// MessageFetcher retrieves a message from the platform. Returns nil, nil
// when the message (or its channel) no longer exists, which recovery treats
// as "deactivate the durable records".
type MessageFetcher interface {
	FetchMessage(channelID, messageID int64) (*discordgo.Message, error)
}

// InteractionLogger records button activations for analytics. Logging
// failures must never affect the interaction itself.
type InteractionLogger interface {
	LogButtonInteraction(customID string, userID, guildID int64, interactionType, handlerClass string, success bool, errorMessage string, responseTime time.Duration)
}
