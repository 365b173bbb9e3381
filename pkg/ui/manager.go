package ui

import (
	"log/slog"

	"github.com/studybot/quizcore/pkg/log"
)

// Manager owns the persistent UI runtime state: the handler registry, the
// in-memory recovery table, and the durable store. One Manager exists per
// process; it is passed explicitly to the view assembly, dispatcher and
// recovery service instead of living in package globals.
type Manager struct {
	handlers *HandlerRegistry
	table    *RecoveryTable
	store    ButtonStore
	logger   *slog.Logger

	// analytics may be nil; interaction logging is best-effort.
	analytics InteractionLogger
}

// NewManager builds a Manager. store may be nil when database persistence is
// unavailable; database-mode buttons then degrade to memory-only behavior
// (they still work until restart).
func NewManager(store ButtonStore) *Manager {
	return &Manager{
		handlers: NewHandlerRegistry(),
		table:    NewRecoveryTable(),
		store:    store,
		logger:   log.ApplicationLogger(),
	}
}

// SetAnalytics attaches an interaction logger. Call before the dispatcher is
// wired.
func (m *Manager) SetAnalytics(l InteractionLogger) {
	m.analytics = l
}

// Handlers exposes the handler registry for boot-time registration.
func (m *Manager) Handlers() *HandlerRegistry {
	return m.handlers
}

// Table exposes the in-memory recovery table.
func (m *Manager) Table() *RecoveryTable {
	return m.table
}

// Store exposes the durable button store; nil when persistence is disabled.
func (m *Manager) Store() ButtonStore {
	return m.store
}

// RegisterHandler binds a handler name to an implementation.
func (m *Manager) RegisterHandler(name string, h Handler) error {
	if err := m.handlers.Register(name, h); err != nil {
		return err
	}
	m.logger.Info("Registered button handler", "handler", name)
	return nil
}

// resolveConfig asks the named handler for its visual config, falling back
// to a safe disabled config when the handler is unknown or panics on bad
// state. Unknown handler names still produce a rendered button.
func (m *Manager) resolveConfig(handlerName string, state *ButtonState) ButtonConfig {
	h, ok := m.handlers.Resolve(handlerName)
	if !ok {
		m.logger.Warn("No handler registered for button config", "handler", handlerName)
		return fallbackConfig()
	}
	cfg := h.Config(state)
	if state.IsExpired() {
		cfg.Disabled = true
	}
	return cfg
}
