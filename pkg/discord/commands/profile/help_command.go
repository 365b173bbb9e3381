package profile

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/discord/commands/core"
	"github.com/studybot/quizcore/pkg/ui"
	"github.com/studybot/quizcore/pkg/ui/handlers"
)

// HelpCommand implements /help: topic lookups, or the paged FAQ when no
// topic is given.
type HelpCommand struct {
	manager *ui.Manager
}

// NewHelpCommand wires the command to the UI manager.
func NewHelpCommand(manager *ui.Manager) *HelpCommand {
	return &HelpCommand{manager: manager}
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "How the quiz bot works" }
func (c *HelpCommand) RequiresGuild() bool { return false }
func (c *HelpCommand) RequiresAdmin() bool { return false }

func (c *HelpCommand) Options() []*discordgo.ApplicationCommandOption {
	names := handlers.HelpTopicNames()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "topic",
			Description: "A specific topic to explain",
			Choices:     choices,
		},
	}
}

func (c *HelpCommand) Handle(ctx *core.Context) error {
	ext := core.NewOptionExtractor(ctx.Interaction.ApplicationCommandData().Options)

	if topic := ext.String("topic"); topic != "" {
		text, ok := handlers.HelpTopic(topic)
		if !ok {
			return core.NewCommandError(fmt.Sprintf("No help available for %q.", topic), true)
		}
		return ctx.Responder.Ephemeral(ctx.Interaction, text)
	}

	view, err := handlers.NewFAQView(c.manager, 0)
	if err != nil {
		return fmt.Errorf("build faq view: %w", err)
	}

	embed := handlers.FAQEmbed(0)
	return ctx.Responder.Respond(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, view.Components(), false)
}
