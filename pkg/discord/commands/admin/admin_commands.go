// Package admin implements the /admin command group: operational visibility
// into the persistent UI system and posting the persistent welcome message.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/discord/commands/core"
	"github.com/studybot/quizcore/pkg/storage"
	"github.com/studybot/quizcore/pkg/ui"
	"github.com/studybot/quizcore/pkg/ui/handlers"
)

const statusEmbedColor = 0x5865F2

// NewAdminCommand assembles the /admin group.
func NewAdminCommand(recovery *ui.RecoveryService, buttons *storage.ButtonStore, analytics *storage.AnalyticsStore, manager *ui.Manager) *core.GroupCommand {
	group := core.NewGroupCommand("admin", "Bot administration")
	group.AddSubCommand(&UIStatusCommand{
		recovery:  recovery,
		buttons:   buttons,
		analytics: analytics,
		manager:   manager,
	})
	group.AddSubCommand(&WelcomeCommand{manager: manager})
	return group
}

// UIStatusCommand implements /admin uistatus: a snapshot of the button
// recovery state, durable button counts and recent interaction volume.
type UIStatusCommand struct {
	recovery  *ui.RecoveryService
	buttons   *storage.ButtonStore
	analytics *storage.AnalyticsStore
	manager   *ui.Manager
}

func (c *UIStatusCommand) Name() string        { return "uistatus" }
func (c *UIStatusCommand) Description() string { return "Show persistent UI recovery status" }
func (c *UIStatusCommand) RequiresGuild() bool { return true }
func (c *UIStatusCommand) RequiresAdmin() bool { return true }

func (c *UIStatusCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *UIStatusCommand) Handle(ctx *core.Context) error {
	recoveryStats := c.recovery.LastStats()
	phase := c.recovery.Phase()

	embed := &discordgo.MessageEmbed{
		Title: "Persistent UI status",
		Color: statusEmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Recovery",
				Inline: true,
				Value: fmt.Sprintf("Phase: **%s**\nMessages scanned: %d\nButtons recovered: %d\nDeactivated: %d\nErrors: %d\nDuration: %s",
					phase,
					recoveryStats.MessagesScanned,
					recoveryStats.ButtonsRecovered,
					recoveryStats.Deactivated,
					recoveryStats.Errors,
					recoveryStats.Duration.Round(time.Millisecond)),
			},
			{
				Name:   "Runtime",
				Inline: true,
				Value: fmt.Sprintf("Recovery table: %d entries\nHandlers: %d registered",
					c.manager.Table().Len(),
					c.manager.Handlers().Len()),
			},
		},
	}

	if c.buttons != nil {
		count, err := c.buttons.ActiveButtonCount(context.Background())
		if err != nil {
			ctx.Logger.Warn("Failed to count active buttons", "error", err)
		} else {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   "Database",
				Inline: true,
				Value:  fmt.Sprintf("Active buttons: %d", count),
			})
		}
	}

	if c.analytics != nil {
		counts, err := c.analytics.InteractionCounts(time.Now().Add(-24 * time.Hour))
		if err != nil {
			ctx.Logger.Warn("Failed to read interaction counts", "error", err)
		} else {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   "Last 24h",
				Inline: true,
				Value: fmt.Sprintf("Clicks: %d\nRejected: %d\nErrors: %d",
					counts["click"], counts["rejected"], counts["error"]),
			})
		}
	}

	return ctx.Responder.Respond(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, nil, true)
}

const welcomeContent = "👋 **Welcome to the quiz bot!** Pick a button below to get started."

// WelcomeCommand implements /admin welcome: posts the public welcome message
// with database-mode buttons to the current channel.
type WelcomeCommand struct {
	manager *ui.Manager
}

func (c *WelcomeCommand) Name() string        { return "welcome" }
func (c *WelcomeCommand) Description() string { return "Post the persistent welcome message here" }
func (c *WelcomeCommand) RequiresGuild() bool { return true }
func (c *WelcomeCommand) RequiresAdmin() bool { return true }

func (c *WelcomeCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *WelcomeCommand) Handle(ctx *core.Context) error {
	view, err := handlers.NewWelcomeView(c.manager)
	if err != nil {
		return fmt.Errorf("build welcome view: %w", err)
	}

	msg, err := ctx.Session.ChannelMessageSendComplex(ctx.Interaction.ChannelID, &discordgo.MessageSend{
		Content:    welcomeContent,
		Components: view.Components(),
	})
	if err != nil {
		return fmt.Errorf("post welcome message: %w", err)
	}

	messageID := int64(0)
	if msg != nil {
		messageID = parseMessageID(msg.ID)
	}
	if err := view.PersistButtons(context.Background(), messageID, ctx.ChannelID, ctx.GuildID, welcomeContent); err != nil {
		// The message is up; its buttons just won't survive a restart.
		ctx.Logger.Error("Failed to persist welcome buttons", "message", messageID, "error", err)
		return ctx.Responder.Warning(ctx.Interaction, "Welcome message posted, but its buttons could not be persisted.")
	}

	return ctx.Responder.Ephemeral(ctx.Interaction, "Welcome message posted.")
}

func parseMessageID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
