// Package profile implements the player-facing /stats, /leaderboard and
// /help commands.
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

// StatsCommand implements /stats: the invoker's stats card with section
// buttons.
type StatsCommand struct {
	stats   *stats.StatsService
	manager *ui.Manager
}

// NewStatsCommand wires the command to the stats service and UI manager.
func NewStatsCommand(statsService *stats.StatsService, manager *ui.Manager) *StatsCommand {
	return &StatsCommand{stats: statsService, manager: manager}
}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Description() string { return "Show your XP, level, accuracy and streak" }
func (c *StatsCommand) RequiresGuild() bool { return false }
func (c *StatsCommand) RequiresAdmin() bool { return false }

func (c *StatsCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *StatsCommand) Handle(ctx *core.Context) error {
	userStats, err := c.stats.GetUserStats(context.Background(), ctx.UserID)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	if userStats == nil {
		return ctx.Responder.Ephemeral(ctx.Interaction, "You haven't taken any quizzes yet. Try `/quiz` to get started!")
	}

	view, err := handlers.NewStatsView(c.manager, ctx.UserID)
	if err != nil {
		return fmt.Errorf("build stats view: %w", err)
	}

	embed := handlers.StatsEmbed(userStats, handlers.SectionOverview)
	return ctx.Responder.Respond(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, view.Components(), false)
}
