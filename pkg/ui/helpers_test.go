package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeResponder records responses instead of hitting the gateway.
type fakeResponder struct {
	mu        sync.Mutex
	ephemeral []string
	updates   int
}

func (f *fakeResponder) RespondEphemeral(_ *discordgo.InteractionCreate, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ephemeral = append(f.ephemeral, content)
	return nil
}

func (f *fakeResponder) UpdateMessage(_ *discordgo.InteractionCreate, _ string, _ []*discordgo.MessageEmbed, _ []discordgo.MessageComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return nil
}

func (f *fakeResponder) lastEphemeral() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ephemeral) == 0 {
		return ""
	}
	return f.ephemeral[len(f.ephemeral)-1]
}

// fakeHandler counts invocations.
type fakeHandler struct {
	mu      sync.Mutex
	calls   int
	lastVal *ButtonState
	fail    error
	config  ButtonConfig
}

func (f *fakeHandler) Config(_ *ButtonState) ButtonConfig {
	if f.config.Label != "" {
		return f.config
	}
	return ButtonConfig{Style: discordgo.PrimaryButton, Label: "Test"}
}

func (f *fakeHandler) Handle(_ context.Context, _ *Interaction, state *ButtonState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastVal = state
	return f.fail
}

func (f *fakeHandler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore is an in-memory ButtonStore.
type fakeStore struct {
	mu       sync.Mutex
	records  map[string]*ButtonRecord // customID -> record
	messages map[int64]*MessageRegistration
	storeErr error
	loadErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:  make(map[string]*ButtonRecord),
		messages: make(map[int64]*MessageRegistration),
	}
}

func (f *fakeStore) StoreButton(_ context.Context, rec *ButtonRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return f.storeErr
	}
	cp := *rec
	f.records[rec.CustomID] = &cp
	return nil
}

func (f *fakeStore) LoadButton(_ context.Context, customID string, messageID int64) (*ButtonRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[customID]
	if !ok || rec.MessageID != messageID || !rec.IsActive {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) LoadActiveButtons(_ context.Context) ([]*ButtonRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []*ButtonRecord
	for _, rec := range f.records {
		if rec.IsActive {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) DeactivateMessage(_ context.Context, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.MessageID == messageID {
			rec.IsActive = false
		}
	}
	return nil
}

func (f *fakeStore) SweepExpired(_ context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeStore) RegisterMessage(_ context.Context, reg *MessageRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *reg
	f.messages[reg.MessageID] = &cp
	return nil
}

func (f *fakeStore) activeCount(messageID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rec := range f.records {
		if rec.MessageID == messageID && rec.IsActive {
			n++
		}
	}
	return n
}

// fakeFetcher serves canned messages per message id.
type fakeFetcher struct {
	// messages maps message id to a message; nil value means "not found".
	messages map[int64]*discordgo.Message
	// failFor makes FetchMessage return an error for these message ids.
	failFor map[int64]bool
}

func (f *fakeFetcher) FetchMessage(_, messageID int64) (*discordgo.Message, error) {
	if f.failFor[messageID] {
		return nil, errors.New("transient fetch failure")
	}
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, nil
	}
	return msg, nil
}

func messageWithComponents(id int64) *discordgo.Message {
	return &discordgo.Message{
		ID: FormatSnowflake(id),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{CustomID: "x", Label: "x"},
			}},
		},
	}
}

func componentEvent(customID string, userID int64) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				CustomID:      customID,
				ComponentType: discordgo.ButtonComponent,
			},
			Member: &discordgo.Member{
				User: &discordgo.User{ID: fmt.Sprintf("%d", userID)},
			},
			GuildID:   "5001",
			ChannelID: "6001",
			Message:   &discordgo.Message{ID: "7001"},
		},
	}
}
