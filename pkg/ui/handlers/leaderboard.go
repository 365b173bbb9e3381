package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/stats"
	"github.com/studybot/quizcore/pkg/storage"
	"github.com/studybot/quizcore/pkg/ui"
)

const embedColor = 0x5865F2

const leaderboardLimit = 10

// Leaderboard scopes, carried under the short payload key "s" to keep the
// state within the inline budget.
const (
	ScopeGuild  = "guild"
	ScopeGlobal = "global"
)

// LeaderboardToggleHandler flips a leaderboard between server and global
// scope. Payload: "s" (current scope).
type LeaderboardToggleHandler struct {
	Stats   *stats.StatsService
	Manager *ui.Manager
}

func (h *LeaderboardToggleHandler) Config(state *ui.ButtonState) ui.ButtonConfig {
	scope, _ := state.Data.String("s")
	if scope == ScopeGlobal {
		return ui.ButtonConfig{Style: discordgo.PrimaryButton, Label: "Show server", Emoji: "🏠"}
	}
	return ui.ButtonConfig{Style: discordgo.PrimaryButton, Label: "Show global", Emoji: "🌍"}
}

func (h *LeaderboardToggleHandler) Handle(ctx context.Context, ic *ui.Interaction, state *ui.ButtonState) error {
	scope, _ := state.Data.String("s")
	newScope := ScopeGlobal
	if scope == ScopeGlobal {
		newScope = ScopeGuild
	}

	guildID := int64(0)
	if newScope == ScopeGuild {
		guildID = ic.GuildID
	}

	entries, err := h.Stats.Leaderboard(ctx, guildID, leaderboardLimit)
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}

	view, err := NewLeaderboardView(h.Manager, newScope, state.OwnerID)
	if err != nil {
		return fmt.Errorf("rebuild leaderboard view: %w", err)
	}
	embed := LeaderboardEmbed(entries, newScope)
	return ic.Responder.UpdateMessage(ic.Event, "", []*discordgo.MessageEmbed{embed}, view.Components())
}

// NewLeaderboardView builds the toggle button for a leaderboard message. The
// toggle is memory-mode: scope preference is not worth a database row and a
// stale toggle after restart just reverts to the default scope.
func NewLeaderboardView(m *ui.Manager, scope string, ownerID int64) (*ui.View, error) {
	view := m.NewView("LeaderboardView", ui.ModeMemory)
	_, err := view.AddButton(ui.ButtonOptions{
		HandlerName: NameLeaderboardToggle,
		OwnerID:     ownerID,
		Action:      ui.ActionToggle,
		Data:        ui.Payload{"s": scope},
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// LeaderboardEmbed renders a ranked list.
func LeaderboardEmbed(entries []storage.LeaderboardEntry, scope string) *discordgo.MessageEmbed {
	title := "Server Leaderboard"
	if scope == ScopeGlobal {
		title = "Global Leaderboard"
	}

	if len(entries) == 0 {
		return &discordgo.MessageEmbed{
			Title:       title,
			Color:       embedColor,
			Description: "No quiz results yet. Be the first with `/quiz`!",
		}
	}

	var sb strings.Builder
	for _, e := range entries {
		medal := fmt.Sprintf("%d.", e.Rank)
		switch e.Rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}
		fmt.Fprintf(&sb, "%s <@%d> · %d XP\n", medal, e.UserID, e.TotalXP)
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Color:       embedColor,
		Description: sb.String(),
	}
}
