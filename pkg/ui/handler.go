package ui

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// ButtonConfig is the visual configuration a handler derives from state.
// It must be a pure function of the state so it can be recomputed at
// recovery time without the original view object.
type ButtonConfig struct {
	Style    discordgo.ButtonStyle
	Label    string
	Emoji    string
	Disabled bool
}

// Handler is the polymorphic contract for one family of buttons.
type Handler interface {
	// Config derives the button's visual configuration from state. No I/O.
	Config(state *ButtonState) ButtonConfig

	// Handle reacts to an activation. The dispatcher has already validated
	// authorization and expiry before calling this.
	Handle(ctx context.Context, ic *Interaction, state *ButtonState) error
}

// fallbackConfig is used when no handler resolves for a button, so views can
// still render something instead of crashing.
func fallbackConfig() ButtonConfig {
	return ButtonConfig{
		Style:    discordgo.SecondaryButton,
		Label:    "Unavailable",
		Disabled: true,
	}
}

// HandlerRegistry maps handler names to handler implementations. It is
// populated once during boot, before the dispatcher is attached to the
// gateway, and read-only afterwards.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewHandlerRegistry returns an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]Handler)}
}

// Register binds a handler name to an implementation. Re-registering a name
// is a wiring defect and returns an error.
func (r *HandlerRegistry) Register(name string, h Handler) error {
	if name == "" || h == nil {
		return fmt.Errorf("invalid handler registration: name=%q handler=%v", name, h)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Resolve looks up a handler by name.
func (r *HandlerRegistry) Resolve(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered handler names, sorted.
func (r *HandlerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered handlers.
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
