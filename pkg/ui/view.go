package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// PersistenceMode selects how a button's state survives.
type PersistenceMode string

const (
	// ModeInline encodes the full state inside the custom identifier.
	// Fast, zero storage, limited size.
	ModeInline PersistenceMode = "encoded"

	// ModeDatabase stores the state in the durable side-table and uses the
	// identifier as a lookup key. Unlimited size, survives restarts.
	ModeDatabase PersistenceMode = "database"

	// ModeMemory keeps the state only in the process recovery table.
	// Lost on restart.
	ModeMemory PersistenceMode = "memory"
)

// MaxButtonsPerView is the platform limit on interactive items per message.
const MaxButtonsPerView = 25

// buttonsPerRow is the platform limit on buttons per action row.
const buttonsPerRow = 5

// ErrTooManyButtons is returned when a view would exceed the platform item
// limit. The guard fails loudly; silently dropping buttons would hide them
// from the user.
var ErrTooManyButtons = errors.New("view exceeds maximum button count")

// ButtonOptions describes one button to add to a view.
type ButtonOptions struct {
	// HandlerName routes activations. Unknown names still render, with a
	// disabled fallback config.
	HandlerName string

	// OwnerID authorizes activations; 0 means public.
	OwnerID int64

	Action ActionKind
	Data   Payload

	// GuildID scopes the button; 0 means none.
	GuildID int64

	// ExpiresIn sets a relative expiry; 0 means never.
	ExpiresIn time.Duration

	// Mode overrides the view's default persistence mode when non-empty.
	Mode PersistenceMode
}

type builtButton struct {
	customID  string
	component discordgo.Button
}

type pendingRecord struct {
	customID    string
	handlerName string
	state       *ButtonState
}

// View composes persistent buttons into one interactive message attachment.
// Buttons are persisted independently; the view itself is never stored.
type View struct {
	manager     *Manager
	viewClass   string
	defaultMode PersistenceMode

	buttons []builtButton

	// pending holds database-mode buttons awaiting PersistButtons, which can
	// only run once the owning message exists and has an id.
	pending []pendingRecord
}

// NewView creates a view with the given class name (informational, stored
// alongside database-mode records) and default persistence mode.
func (m *Manager) NewView(viewClass string, defaultMode PersistenceMode) *View {
	if defaultMode == "" {
		defaultMode = ModeInline
	}
	return &View{
		manager:     m,
		viewClass:   viewClass,
		defaultMode: defaultMode,
	}
}

// AddButton creates a button, choosing the cheapest persistence mode that
// fits, and returns its custom identifier.
//
// Inline encoding is attempted first; a state too large for the identifier
// budget transparently falls back to database mode, and the state is
// registered in the in-memory recovery table immediately so the very next
// click works before any durable write completes.
func (v *View) AddButton(opts ButtonOptions) (string, error) {
	if len(v.buttons) >= MaxButtonsPerView {
		return "", fmt.Errorf("%w: %d", ErrTooManyButtons, MaxButtonsPerView)
	}

	var expires int64
	if opts.ExpiresIn > 0 {
		expires = time.Now().Add(opts.ExpiresIn).Unix()
	}

	state := &ButtonState{
		OwnerID: opts.OwnerID,
		Action:  opts.Action,
		Data:    opts.Data,
		GuildID: opts.GuildID,
		Expires: expires,
	}

	mode := opts.Mode
	if mode == "" {
		mode = v.defaultMode
	}

	customID, err := v.mintIdentifier(mode, opts.HandlerName, state)
	if err != nil {
		return "", err
	}

	cfg := v.manager.resolveConfig(opts.HandlerName, state)
	v.buttons = append(v.buttons, builtButton{
		customID:  customID,
		component: buildComponent(customID, cfg),
	})
	return customID, nil
}

// mintIdentifier produces the custom identifier for the requested mode,
// falling back from inline to database when the state does not fit.
func (v *View) mintIdentifier(mode PersistenceMode, handlerName string, state *ButtonState) (string, error) {
	switch mode {
	case ModeInline:
		encoded, err := state.Encode()
		if err == nil {
			return InlineCustomID(encoded, handlerName)
		}
		if !errors.Is(err, ErrStateTooComplex) {
			return "", err
		}
		// Expected fallback, not a failure.
		v.manager.logger.Debug("State exceeded inline budget, using database persistence", "handler", handlerName)
		return v.mintIdentifier(ModeDatabase, handlerName, state)

	case ModeDatabase:
		customID, err := DatabaseCustomID(handlerName, state.OwnerID)
		if err != nil {
			return "", err
		}
		v.manager.table.Put(customID, TableEntry{State: state, HandlerName: handlerName})
		v.pending = append(v.pending, pendingRecord{customID: customID, handlerName: handlerName, state: state})
		return customID, nil

	case ModeMemory:
		customID, err := MemoryCustomID(handlerName, state.OwnerID)
		if err != nil {
			return "", err
		}
		v.manager.table.Put(customID, TableEntry{State: state, HandlerName: handlerName})
		return customID, nil

	default:
		return "", fmt.Errorf("unknown persistence mode %q", mode)
	}
}

func buildComponent(customID string, cfg ButtonConfig) discordgo.Button {
	btn := discordgo.Button{
		CustomID: customID,
		Style:    cfg.Style,
		Label:    cfg.Label,
		Disabled: cfg.Disabled,
	}
	if cfg.Emoji != "" {
		btn.Emoji = &discordgo.ComponentEmoji{Name: cfg.Emoji}
	}
	return btn
}

// Components lays the buttons out into action rows, up to five per row.
func (v *View) Components() []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(v.buttons); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(v.buttons))
		row := discordgo.ActionsRow{}
		for _, b := range v.buttons[start:end] {
			btn := b.component
			row.Components = append(row.Components, btn)
		}
		rows = append(rows, row)
	}
	return rows
}

// ButtonCount returns the number of buttons added so far.
func (v *View) ButtonCount() int {
	return len(v.buttons)
}

// PendingCount returns the number of database-mode buttons awaiting a
// durable write.
func (v *View) PendingCount() int {
	return len(v.pending)
}

// PersistButtons writes the view's database-mode buttons to the durable
// store, bound to the message they were posted on. Call after the message
// has been sent. A persistence failure leaves the in-memory entries intact;
// the buttons keep working until the next restart.
func (v *View) PersistButtons(ctx context.Context, messageID, channelID, guildID int64, content string) error {
	if len(v.pending) == 0 {
		return nil
	}
	store := v.manager.store
	if store == nil {
		v.manager.logger.Warn("No button store configured; database-mode buttons will not survive restart", "view", v.viewClass)
		return nil
	}

	if err := store.RegisterMessage(ctx, &MessageRegistration{
		MessageID: messageID,
		ChannelID: channelID,
		GuildID:   guildID,
		ViewClass: v.viewClass,
		Content:   content,
	}); err != nil {
		return fmt.Errorf("register message %d: %w", messageID, err)
	}

	for _, p := range v.pending {
		rec := &ButtonRecord{
			CustomID:     p.customID,
			ButtonType:   string(p.state.Action),
			HandlerClass: p.handlerName,
			ViewClass:    v.viewClass,
			GuildID:      guildID,
			ChannelID:    channelID,
			MessageID:    messageID,
			UserID:       p.state.OwnerID,
			Data:         p.state.Data,
			CreatedAt:    time.Now().UTC(),
			ExpiresAt:    p.state.Expires,
			IsActive:     true,
		}
		if err := store.StoreButton(ctx, rec); err != nil {
			return fmt.Errorf("store button %s: %w", p.customID, err)
		}
	}

	v.manager.logger.Debug("Persisted database-mode buttons", "view", v.viewClass, "message_id", messageID, "count", len(v.pending))
	return nil
}
