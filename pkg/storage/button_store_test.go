package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studybot/quizcore/pkg/ui"
)

// openTestPostgres skips unless QUIZCORE_TEST_DATABASE_URL points at a
// disposable database.
func openTestPostgres(t *testing.T) *ButtonStore {
	t.Helper()
	url := os.Getenv("QUIZCORE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("QUIZCORE_TEST_DATABASE_URL not set")
	}
	db, err := OpenPostgres(url)
	if err != nil {
		t.Fatalf("OpenPostgres() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewButtonStore(db)
}

func testRecord(messageID int64) *ui.ButtonRecord {
	return &ui.ButtonRecord{
		CustomID:     "pui:db:NavigationHandler:42_1_" + uuid.NewString()[:8],
		ButtonType:   "nav",
		HandlerClass: "NavigationHandler",
		ViewClass:    "TestView",
		GuildID:      5001,
		ChannelID:    6001,
		MessageID:    messageID,
		UserID:       42,
		Data:         ui.Payload{"direction": "next", "page": int64(2)},
		CreatedAt:    time.Now().UTC(),
		IsActive:     true,
	}
}

func TestStoreButtonUpsertIsIdempotent(t *testing.T) {
	store := openTestPostgres(t)
	ctx := context.Background()

	rec := testRecord(time.Now().UnixNano())
	if err := store.StoreButton(ctx, rec); err != nil {
		t.Fatalf("first store: %v", err)
	}

	// Same pair again with changed payload must update, not duplicate.
	rec.Data = ui.Payload{"direction": "prev", "page": int64(1)}
	if err := store.StoreButton(ctx, rec); err != nil {
		t.Fatalf("second store: %v", err)
	}

	got, err := store.LoadButton(ctx, rec.CustomID, rec.MessageID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatalf("record not found after upsert")
	}
	if dir, _ := got.Data.String("direction"); dir != "prev" {
		t.Fatalf("upsert did not replace payload: %+v", got.Data)
	}
	if page, _ := got.Data.Int("page"); page != 1 {
		t.Fatalf("payload numbers must come back as int64, got %+v", got.Data)
	}
}

func TestDeactivateMessageHidesButtons(t *testing.T) {
	store := openTestPostgres(t)
	ctx := context.Background()

	rec := testRecord(time.Now().UnixNano())
	if err := store.StoreButton(ctx, rec); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := store.DeactivateMessage(ctx, rec.MessageID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := store.LoadButton(ctx, rec.CustomID, rec.MessageID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("deactivated record must not load, got %+v", got)
	}
}

func TestSweepExpiredRemovesInactiveRows(t *testing.T) {
	store := openTestPostgres(t)
	ctx := context.Background()

	rec := testRecord(time.Now().UnixNano())
	rec.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	if err := store.StoreButton(ctx, rec); err != nil {
		t.Fatalf("store: %v", err)
	}

	swept, err := store.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept < 1 {
		t.Fatalf("expected at least one row swept, got %d", swept)
	}
}
