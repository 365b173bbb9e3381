package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// User-facing messages for dispatch failures. Each is short, generic and
// never echoes internals beyond a truncated excerpt.
const (
	msgExpired        = "This button has expired."
	msgUnauthorized   = "You are not authorized to use this button."
	msgInvalid        = "This button is no longer valid."
	msgStateNotFound  = "Button state not found. It may have been lost during a restart."
	msgHandlerMissing = "Button handler not available. Please try again later."
	msgHandlerFailed  = "An error occurred while processing your request."
)

// errorExcerptLen bounds how much of a raw error may leak into a user
// message.
const errorExcerptLen = 100

// Dispatcher is the platform-invoked entry point for button activations. It
// decodes or looks up state, validates authorization and expiry, and invokes
// the matched handler. Every failure is terminal here; nothing propagates
// up to crash the process.
type Dispatcher struct {
	manager   *Manager
	responder Responder
}

// NewDispatcher builds a dispatcher over a manager. responder is typically
// a SessionResponder; tests inject a fake.
func NewDispatcher(m *Manager, responder Responder) *Dispatcher {
	return &Dispatcher{manager: m, responder: responder}
}

// Attach registers the dispatcher on a discordgo session. Call only after
// every handler has been registered; the dispatcher assumes a complete
// registry.
func (d *Dispatcher) Attach(session *discordgo.Session) {
	session.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		d.HandleInteractionCreate(ic)
	})
}

// HandleInteractionCreate processes one raw activation event. Events that do
// not carry a persistent UI identifier are ignored so other component
// systems can coexist.
func (d *Dispatcher) HandleInteractionCreate(ic *discordgo.InteractionCreate) {
	if ic.Type != discordgo.InteractionMessageComponent {
		return
	}
	customID := ic.MessageComponentData().CustomID
	id := ParseIdentifier(customID)
	if id.Kind == IdentifierUnknown {
		return
	}

	start := time.Now()
	interaction := newInteraction(ic, d.responder)

	state, ok := d.resolveState(customID, id, interaction)
	if !ok {
		d.logInteraction(customID, interaction, "error", id.Handler, false, "state unresolved", start)
		return
	}

	handler, ok := d.manager.handlers.Resolve(id.Handler)
	if !ok {
		// Registry miss after startup is a wiring defect, not user error.
		d.manager.logger.Error("No handler registered for activation", "handler", id.Handler, "custom_id", customID, "registered", d.manager.handlers.Names())
		d.respond(interaction, msgHandlerMissing)
		d.logInteraction(customID, interaction, "error", id.Handler, false, "handler not registered", start)
		return
	}

	if !d.validate(interaction, state) {
		d.logInteraction(customID, interaction, "rejected", id.Handler, false, "validation failed", start)
		return
	}

	err := d.invoke(handler, interaction, state)
	if err != nil {
		d.manager.logger.Error("Button handler failed",
			"handler", id.Handler,
			"custom_id", customID,
			"payload", state.Data,
			"err", err,
		)
		d.respond(interaction, fmt.Sprintf("%s\nError: %s", msgHandlerFailed, excerpt(err.Error())))
		d.logInteraction(customID, interaction, "error", id.Handler, false, excerpt(err.Error()), start)
		return
	}

	d.logInteraction(customID, interaction, "click", id.Handler, true, "", start)
}

// resolveState obtains the ButtonState for an activation: decoded from the
// identifier for inline mode, or from the in-memory recovery table for
// database and memory modes. The table is authoritative for this process; a
// database round-trip on the activation path is never attempted.
func (d *Dispatcher) resolveState(customID string, id Identifier, interaction *Interaction) (*ButtonState, bool) {
	switch id.Kind {
	case IdentifierInline:
		state, err := DecodeState(id.Encoded)
		if err != nil {
			// The raw identifier is logged for forensics; its contents are
			// not trusted.
			d.manager.logger.Warn("Malformed button state", "custom_id", customID, "err", err)
			d.respond(interaction, msgInvalid)
			return nil, false
		}
		return state, true

	case IdentifierDatabase, IdentifierMemory:
		entry, ok := d.manager.table.Get(customID)
		if !ok {
			d.manager.logger.Warn("Button state not in recovery table", "custom_id", customID)
			d.respond(interaction, msgStateNotFound)
			return nil, false
		}
		return entry.State, true
	}
	return nil, false
}

// validate applies the shared expiry and authorization checks. A failed
// check produces an ephemeral response and stops the activation; neither
// outcome is logged as an error, since both are expected user behavior.
func (d *Dispatcher) validate(interaction *Interaction, state *ButtonState) bool {
	if state.IsExpired() {
		d.respond(interaction, msgExpired)
		return false
	}
	if !state.IsAuthorized(interaction.UserID) {
		d.respond(interaction, msgUnauthorized)
		return false
	}
	return true
}

// invoke runs the handler with panic containment.
func (d *Dispatcher) invoke(handler Handler, interaction *Interaction, state *ButtonState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler.Handle(context.Background(), interaction, state)
}

func (d *Dispatcher) respond(interaction *Interaction, content string) {
	if err := d.responder.RespondEphemeral(interaction.Event, content); err != nil {
		d.manager.logger.Error("Failed to send interaction response", "err", err)
	}
}

func (d *Dispatcher) logInteraction(customID string, interaction *Interaction, kind, handlerClass string, success bool, errMsg string, start time.Time) {
	if d.manager.analytics == nil {
		return
	}
	d.manager.analytics.LogButtonInteraction(customID, interaction.UserID, interaction.GuildID, kind, handlerClass, success, errMsg, time.Since(start))
}

func excerpt(s string) string {
	if len(s) > errorExcerptLen {
		return s[:errorExcerptLen]
	}
	return s
}
