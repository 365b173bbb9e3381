package ui

import (
	"errors"
	"strings"
	"testing"
)

func TestInlineCustomIDFormat(t *testing.T) {
	state := &ButtonState{OwnerID: 42, Action: ActionNavigate, Data: Payload{"direction": "next"}}
	encoded, err := state.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	id, err := InlineCustomID(encoded, "NavigationHandler")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(id, "pui:") || !strings.HasSuffix(id, ":NavigationHandler") {
		t.Fatalf("unexpected identifier layout: %s", id)
	}
	if len(id) > CustomIDMaxLength {
		t.Fatalf("identifier too long: %d", len(id))
	}

	parsed := ParseIdentifier(id)
	if parsed.Kind != IdentifierInline {
		t.Fatalf("expected inline kind, got %v", parsed.Kind)
	}
	if parsed.Handler != "NavigationHandler" || parsed.Encoded != encoded {
		t.Fatalf("parse mismatch: %+v", parsed)
	}
}

func TestDatabaseCustomIDFormatAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := DatabaseCustomID("StatsNavigationHandler", 42)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if !strings.HasPrefix(id, "pui:db:StatsNavigationHandler:") {
			t.Fatalf("unexpected layout: %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate identifier produced: %s", id)
		}
		seen[id] = true

		parsed := ParseIdentifier(id)
		if parsed.Kind != IdentifierDatabase || parsed.Handler != "StatsNavigationHandler" || parsed.Suffix == "" {
			t.Fatalf("parse mismatch: %+v", parsed)
		}
	}
}

func TestMemoryCustomIDFormat(t *testing.T) {
	id, err := MemoryCustomID("HelpActionHandler", 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(id, "pui:mem:HelpActionHandler:") {
		t.Fatalf("unexpected layout: %s", id)
	}
	parsed := ParseIdentifier(id)
	if parsed.Kind != IdentifierMemory || parsed.Handler != "HelpActionHandler" {
		t.Fatalf("parse mismatch: %+v", parsed)
	}
}

func TestIdentifierLengthGuard(t *testing.T) {
	longHandler := strings.Repeat("H", 120)
	if _, err := DatabaseCustomID(longHandler, 1); !errors.Is(err, ErrIdentifierTooLong) {
		t.Fatalf("expected length guard to fire, got %v", err)
	}

	encoded := strings.Repeat("A", 90)
	if _, err := InlineCustomID(encoded, "NavigationHandler"); !errors.Is(err, ErrIdentifierTooLong) {
		t.Fatalf("expected length guard to fire, got %v", err)
	}
}

func TestParseIdentifierUnknown(t *testing.T) {
	for _, raw := range []string{"", "quiz_answer_1", "pui:", "pui:onlyonesegment", "other:db:Handler:x"} {
		parsed := ParseIdentifier(raw)
		if parsed.Kind != IdentifierUnknown {
			t.Fatalf("expected unknown for %q, got %+v", raw, parsed)
		}
	}
}
