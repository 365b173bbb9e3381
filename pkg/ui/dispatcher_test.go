package ui

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestDispatcher(t *testing.T, handler Handler) (*Dispatcher, *Manager, *fakeResponder) {
	t.Helper()
	m := NewManager(newFakeStore())
	if handler != nil {
		if err := m.RegisterHandler("NavigationHandler", handler); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	responder := &fakeResponder{}
	return NewDispatcher(m, responder), m, responder
}

func inlineCustomID(t *testing.T, state *ButtonState, handlerName string) string {
	t.Helper()
	encoded, err := state.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	customID, err := InlineCustomID(encoded, handlerName)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return customID
}

func TestDispatchInvokesHandler(t *testing.T) {
	handler := &fakeHandler{}
	d, _, responder := newTestDispatcher(t, handler)

	customID := inlineCustomID(t, &ButtonState{
		OwnerID: 42,
		Action:  ActionNavigate,
		Data:    Payload{"direction": "next"},
	}, "NavigationHandler")

	d.HandleInteractionCreate(componentEvent(customID, 42))

	if handler.callCount() != 1 {
		t.Fatalf("expected handler invocation, got %d", handler.callCount())
	}
	if dir, _ := handler.lastVal.Data.String("direction"); dir != "next" {
		t.Fatalf("handler received wrong state: %+v", handler.lastVal)
	}
	if responder.lastEphemeral() != "" {
		t.Fatalf("unexpected error response: %q", responder.lastEphemeral())
	}
}

func TestDispatchRejectsUnauthorizedUser(t *testing.T) {
	handler := &fakeHandler{}
	d, _, responder := newTestDispatcher(t, handler)

	customID := inlineCustomID(t, &ButtonState{
		OwnerID: 42,
		Action:  ActionNavigate,
		Data:    Payload{"direction": "next"},
	}, "NavigationHandler")

	d.HandleInteractionCreate(componentEvent(customID, 99))

	if handler.callCount() != 0 {
		t.Fatalf("handler must not run for other users")
	}
	if got := responder.lastEphemeral(); got != msgUnauthorized {
		t.Fatalf("expected %q, got %q", msgUnauthorized, got)
	}
}

func TestDispatchPublicButtonAllowsAnyUser(t *testing.T) {
	handler := &fakeHandler{}
	d, _, _ := newTestDispatcher(t, handler)

	customID := inlineCustomID(t, &ButtonState{
		OwnerID: 0,
		Action:  ActionStatic,
		Data:    Payload{"action": "help"},
	}, "NavigationHandler")

	d.HandleInteractionCreate(componentEvent(customID, 99))

	if handler.callCount() != 1 {
		t.Fatalf("public button must allow any user")
	}
}

func TestDispatchRejectsExpiredBeforeAuthorization(t *testing.T) {
	handler := &fakeHandler{}
	d, _, responder := newTestDispatcher(t, handler)

	// Expired and owned by someone else; the expiry message must win.
	customID := inlineCustomID(t, &ButtonState{
		OwnerID: 42,
		Action:  ActionNavigate,
		Data:    Payload{"direction": "next"},
		Expires: time.Now().Add(-time.Hour).Unix(),
	}, "NavigationHandler")

	d.HandleInteractionCreate(componentEvent(customID, 99))

	if handler.callCount() != 0 {
		t.Fatalf("handler must not run for expired buttons")
	}
	if got := responder.lastEphemeral(); got != msgExpired {
		t.Fatalf("expected %q, got %q", msgExpired, got)
	}
}

func TestDispatchMalformedInlineState(t *testing.T) {
	handler := &fakeHandler{}
	d, _, responder := newTestDispatcher(t, handler)

	garbage := base64.URLEncoding.EncodeToString([]byte("not|valid|at|all|x"))
	d.HandleInteractionCreate(componentEvent("pui:"+garbage+":NavigationHandler", 42))

	if handler.callCount() != 0 {
		t.Fatalf("handler must not run on malformed state")
	}
	if got := responder.lastEphemeral(); got != msgInvalid {
		t.Fatalf("expected %q, got %q", msgInvalid, got)
	}
}

func TestDispatchDatabaseModeUsesTableOnly(t *testing.T) {
	handler := &fakeHandler{}
	d, m, responder := newTestDispatcher(t, handler)

	customID, err := DatabaseCustomID("NavigationHandler", 42)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	m.Table().Put(customID, TableEntry{
		State:       &ButtonState{OwnerID: 42, Action: ActionNavigate, Data: Payload{"page": int64(2)}},
		HandlerName: "NavigationHandler",
	})

	d.HandleInteractionCreate(componentEvent(customID, 42))

	if handler.callCount() != 1 {
		t.Fatalf("expected handler invocation via recovery table")
	}
	if page, _ := handler.lastVal.Data.Int("page"); page != 2 {
		t.Fatalf("wrong state from table: %+v", handler.lastVal)
	}
	if responder.lastEphemeral() != "" {
		t.Fatalf("unexpected response: %q", responder.lastEphemeral())
	}
}

func TestDispatchTableMissRespondsStateNotFound(t *testing.T) {
	handler := &fakeHandler{}
	d, _, responder := newTestDispatcher(t, handler)

	customID, err := DatabaseCustomID("NavigationHandler", 42)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	d.HandleInteractionCreate(componentEvent(customID, 42))

	if handler.callCount() != 0 {
		t.Fatalf("handler must not run without state")
	}
	if got := responder.lastEphemeral(); got != msgStateNotFound {
		t.Fatalf("expected %q, got %q", msgStateNotFound, got)
	}
}

func TestDispatchUnregisteredHandler(t *testing.T) {
	d, _, responder := newTestDispatcher(t, nil)

	customID := inlineCustomID(t, &ButtonState{
		Action: ActionStatic,
		Data:   Payload{"action": "help"},
	}, "GhostHandler")

	d.HandleInteractionCreate(componentEvent(customID, 42))

	if got := responder.lastEphemeral(); got != msgHandlerMissing {
		t.Fatalf("expected %q, got %q", msgHandlerMissing, got)
	}
}

func TestDispatchHandlerErrorExcerptIsBounded(t *testing.T) {
	handler := &fakeHandler{fail: errors.New(strings.Repeat("x", 500))}
	d, _, responder := newTestDispatcher(t, handler)

	customID := inlineCustomID(t, &ButtonState{
		Action: ActionStatic,
		Data:   Payload{"action": "help"},
	}, "NavigationHandler")

	d.HandleInteractionCreate(componentEvent(customID, 42))

	got := responder.lastEphemeral()
	if !strings.HasPrefix(got, msgHandlerFailed) {
		t.Fatalf("expected failure message, got %q", got)
	}
	if len(got) > len(msgHandlerFailed)+len("\nError: ")+errorExcerptLen {
		t.Fatalf("error excerpt not bounded: %d chars", len(got))
	}
}

func TestDispatchContainsHandlerPanic(t *testing.T) {
	d, m, responder := newTestDispatcher(t, nil)
	if err := m.RegisterHandler("NavigationHandler", panicHandler{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	customID := inlineCustomID(t, &ButtonState{
		Action: ActionStatic,
		Data:   Payload{"action": "help"},
	}, "NavigationHandler")

	d.HandleInteractionCreate(componentEvent(customID, 42))

	if got := responder.lastEphemeral(); !strings.HasPrefix(got, msgHandlerFailed) {
		t.Fatalf("panic must surface as a handled failure, got %q", got)
	}
}

func TestDispatchIgnoresForeignCustomIDs(t *testing.T) {
	handler := &fakeHandler{}
	d, _, responder := newTestDispatcher(t, handler)

	d.HandleInteractionCreate(componentEvent("music:play:track7", 42))

	if handler.callCount() != 0 || responder.lastEphemeral() != "" {
		t.Fatalf("foreign identifiers must be ignored")
	}
}

type panicHandler struct{}

func (panicHandler) Config(_ *ButtonState) ButtonConfig {
	return ButtonConfig{Label: "Boom"}
}

func (panicHandler) Handle(_ context.Context, _ *Interaction, _ *ButtonState) error {
	panic("boom")
}
