package ui

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func seedRecord(store *fakeStore, customID string, messageID int64, handlerClass string) {
	store.records[customID] = &ButtonRecord{
		CustomID:     customID,
		ButtonType:   string(ActionNavigate),
		HandlerClass: handlerClass,
		ViewClass:    "TestView",
		ChannelID:    6001,
		MessageID:    messageID,
		UserID:       42,
		Data:         Payload{"direction": "next"},
		CreatedAt:    time.Now().UTC(),
		IsActive:     true,
	}
}

func TestRecoveryPopulatesTableAndDeactivatesStale(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "pui:db:NavigationHandler:42_1_aaaaaaaa", 100, "NavigationHandler")
	seedRecord(store, "pui:db:NavigationHandler:42_2_bbbbbbbb", 100, "NavigationHandler")
	seedRecord(store, "pui:db:NavigationHandler:42_3_cccccccc", 200, "NavigationHandler")

	m := NewManager(store)
	fetcher := &fakeFetcher{
		messages: map[int64]*discordgo.Message{
			100: messageWithComponents(100),
			// 200 absent: the message was deleted.
		},
	}
	rs := NewRecoveryService(m, fetcher, nil)

	stats, err := rs.PerformStartupRecovery(context.Background())
	if err != nil {
		t.Fatalf("recovery: %v", err)
	}

	if stats.MessagesScanned != 2 {
		t.Fatalf("expected 2 messages scanned, got %d", stats.MessagesScanned)
	}
	if stats.ButtonsRecovered != 2 || stats.MessagesRecovered != 1 {
		t.Fatalf("expected 2 buttons on 1 message recovered, got %+v", stats)
	}
	if stats.Deactivated != 1 || stats.Errors != 0 {
		t.Fatalf("expected 1 stale message and no errors, got %+v", stats)
	}
	if m.Table().Len() != 2 {
		t.Fatalf("expected 2 table entries, got %d", m.Table().Len())
	}
	if store.activeCount(200) != 0 {
		t.Fatalf("stale records must be deactivated")
	}
	if rs.Phase() != PhaseReady {
		t.Fatalf("expected ready phase, got %s", rs.Phase())
	}
}

func TestRecoveryIsolatesPerMessageFailures(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "pui:db:NavigationHandler:42_1_aaaaaaaa", 100, "NavigationHandler")
	seedRecord(store, "pui:db:NavigationHandler:42_2_bbbbbbbb", 200, "NavigationHandler")
	seedRecord(store, "pui:db:NavigationHandler:42_3_cccccccc", 300, "NavigationHandler")

	m := NewManager(store)
	fetcher := &fakeFetcher{
		messages: map[int64]*discordgo.Message{
			100: messageWithComponents(100),
			300: messageWithComponents(300),
		},
		failFor: map[int64]bool{200: true},
	}
	rs := NewRecoveryService(m, fetcher, nil)

	stats, err := rs.PerformStartupRecovery(context.Background())
	if err != nil {
		t.Fatalf("one failing message must not abort recovery: %v", err)
	}

	if stats.Errors != 1 {
		t.Fatalf("expected exactly one error, got %d", stats.Errors)
	}
	if stats.ButtonsRecovered != 2 {
		t.Fatalf("expected the other two buttons recovered, got %d", stats.ButtonsRecovered)
	}
	// A transient fetch failure must not deactivate anything.
	if store.activeCount(200) != 1 {
		t.Fatalf("records behind a transient failure must stay active")
	}
	if rs.Phase() != PhaseReady {
		t.Fatalf("expected ready phase, got %s", rs.Phase())
	}
}

func TestRecoveryDeactivatesComponentlessMessage(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "pui:db:NavigationHandler:42_1_aaaaaaaa", 100, "NavigationHandler")

	m := NewManager(store)
	fetcher := &fakeFetcher{
		messages: map[int64]*discordgo.Message{
			100: {ID: FormatSnowflake(100)},
		},
	}
	rs := NewRecoveryService(m, fetcher, nil)

	stats, err := rs.PerformStartupRecovery(context.Background())
	if err != nil {
		t.Fatalf("recovery: %v", err)
	}
	if stats.Deactivated != 1 || stats.ButtonsRecovered != 0 {
		t.Fatalf("message without components must be deactivated, got %+v", stats)
	}
	if store.activeCount(100) != 0 {
		t.Fatalf("records must be deactivated in the store")
	}
}

func TestRecoverySkipsUnknownActionKind(t *testing.T) {
	store := newFakeStore()
	seedRecord(store, "pui:db:NavigationHandler:42_1_aaaaaaaa", 100, "NavigationHandler")
	store.records["pui:db:NavigationHandler:42_1_aaaaaaaa"].ButtonType = "bogus"

	m := NewManager(store)
	fetcher := &fakeFetcher{
		messages: map[int64]*discordgo.Message{100: messageWithComponents(100)},
	}
	rs := NewRecoveryService(m, fetcher, nil)

	stats, err := rs.PerformStartupRecovery(context.Background())
	if err != nil {
		t.Fatalf("recovery: %v", err)
	}
	if stats.ButtonsRecovered != 0 {
		t.Fatalf("corrupt records must not enter the table, got %+v", stats)
	}
	if m.Table().Len() != 0 {
		t.Fatalf("table must stay empty")
	}
}

func TestRecoveryStoreFailureStaysCold(t *testing.T) {
	store := newFakeStore()
	store.loadErr = context.DeadlineExceeded

	m := NewManager(store)
	rs := NewRecoveryService(m, &fakeFetcher{}, nil)

	if _, err := rs.PerformStartupRecovery(context.Background()); err == nil {
		t.Fatalf("expected error when the store is unreadable")
	}
	if rs.Phase() != PhaseCold {
		t.Fatalf("unreadable store must leave recovery cold, got %s", rs.Phase())
	}
}

// Buttons persisted before a restart keep working once a fresh process has
// run recovery.
func TestRecoveredButtonDispatches(t *testing.T) {
	store := newFakeStore()

	// First process: build and persist a database-mode view.
	first := NewManager(store)
	if err := first.RegisterHandler("NavigationHandler", &fakeHandler{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	view := first.NewView("TestView", ModeDatabase)
	customID, err := view.AddButton(ButtonOptions{
		HandlerName: "NavigationHandler",
		OwnerID:     42,
		Action:      ActionNavigate,
		Data:        Payload{"direction": "next", "page": int64(3)},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := view.PersistButtons(context.Background(), 7001, 6001, 5001, "quiz"); err != nil {
		t.Fatalf("persist: %v", err)
	}

	// Second process: empty table until recovery runs.
	handler := &fakeHandler{}
	second := NewManager(store)
	if err := second.RegisterHandler("NavigationHandler", handler); err != nil {
		t.Fatalf("register: %v", err)
	}
	fetcher := &fakeFetcher{
		messages: map[int64]*discordgo.Message{7001: messageWithComponents(7001)},
	}
	rs := NewRecoveryService(second, fetcher, nil)
	if _, err := rs.PerformStartupRecovery(context.Background()); err != nil {
		t.Fatalf("recovery: %v", err)
	}

	responder := &fakeResponder{}
	d := NewDispatcher(second, responder)
	d.HandleInteractionCreate(componentEvent(customID, 42))

	if handler.callCount() != 1 {
		t.Fatalf("recovered button must dispatch, response %q", responder.lastEphemeral())
	}
	if page, _ := handler.lastVal.Data.Int("page"); page != 3 {
		t.Fatalf("recovered state mismatch: %+v", handler.lastVal)
	}
}

func TestRecoveryServiceStartStop(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)
	rs := NewRecoveryService(m, &fakeFetcher{}, nil)

	if err := rs.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !rs.IsRunning() {
		t.Fatalf("service should report running")
	}
	if hs := rs.HealthCheck(context.Background()); !hs.Healthy {
		t.Fatalf("expected healthy after recovery: %+v", hs)
	}
	if err := rs.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if rs.IsRunning() {
		t.Fatalf("service should report stopped")
	}
}
