package ui

import "sync"

// TableEntry pairs a recovered state with the name of the handler that owns
// it.
type TableEntry struct {
	State       *ButtonState
	HandlerName string
}

// RecoveryTable is the in-memory dispatch table for database- and
// memory-mode buttons, keyed by custom identifier. It is populated by the
// recovery pass at startup and by every new database-mode button creation,
// and consulted by the dispatcher before any database round-trip. Entries
// are only ever inserted or removed, never mutated in place.
type RecoveryTable struct {
	mu      sync.RWMutex
	entries map[string]TableEntry
}

// NewRecoveryTable returns an empty table.
func NewRecoveryTable() *RecoveryTable {
	return &RecoveryTable{entries: make(map[string]TableEntry)}
}

// Put inserts or replaces the entry for a custom identifier.
func (t *RecoveryTable) Put(customID string, entry TableEntry) {
	t.mu.Lock()
	t.entries[customID] = entry
	t.mu.Unlock()
}

// Get looks up the entry for a custom identifier.
func (t *RecoveryTable) Get(customID string) (TableEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[customID]
	return entry, ok
}

// Delete removes the entry for a custom identifier, if present.
func (t *RecoveryTable) Delete(customID string) {
	t.mu.Lock()
	delete(t.entries, customID)
	t.mu.Unlock()
}

// Len returns the number of entries.
func (t *RecoveryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
