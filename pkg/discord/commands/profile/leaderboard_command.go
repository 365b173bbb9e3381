package profile

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/discord/commands/core"
	"github.com/studybot/quizcore/pkg/stats"
	"github.com/studybot/quizcore/pkg/ui"
	"github.com/studybot/quizcore/pkg/ui/handlers"
)

const leaderboardLimit = 10

// LeaderboardCommand implements /leaderboard: the XP ranking with a
// server/global scope toggle.
type LeaderboardCommand struct {
	stats   *stats.StatsService
	manager *ui.Manager
}

// NewLeaderboardCommand wires the command to the stats service and UI
// manager.
func NewLeaderboardCommand(statsService *stats.StatsService, manager *ui.Manager) *LeaderboardCommand {
	return &LeaderboardCommand{stats: statsService, manager: manager}
}

func (c *LeaderboardCommand) Name() string        { return "leaderboard" }
func (c *LeaderboardCommand) Description() string { return "Show the quiz XP leaderboard" }
func (c *LeaderboardCommand) RequiresGuild() bool { return false }
func (c *LeaderboardCommand) RequiresAdmin() bool { return false }

func (c *LeaderboardCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *LeaderboardCommand) Handle(ctx *core.Context) error {
	scope := handlers.ScopeGuild
	guildID := ctx.GuildID
	if guildID == 0 {
		// DMs only have the global board.
		scope = handlers.ScopeGlobal
	}

	entries, err := c.stats.Leaderboard(context.Background(), guildID, leaderboardLimit)
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}

	view, err := handlers.NewLeaderboardView(c.manager, scope, ctx.UserID)
	if err != nil {
		return fmt.Errorf("build leaderboard view: %w", err)
	}

	embed := handlers.LeaderboardEmbed(entries, scope)
	return ctx.Responder.Respond(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, view.Components(), false)
}
