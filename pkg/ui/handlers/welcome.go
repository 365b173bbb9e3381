package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/ui"
)

// Welcome actions, carried under the payload key "action".
const (
	ActionStartQuiz = "start_quiz"
	ActionViewStats = "view_stats"
	ActionShowHelp  = "help"
)

// WelcomeActionHandler serves the buttons on the public welcome message.
// All welcome buttons are public and database-mode so they survive restarts
// indefinitely.
type WelcomeActionHandler struct{}

func (h *WelcomeActionHandler) Config(state *ui.ButtonState) ui.ButtonConfig {
	action, _ := state.Data.String("action")
	switch action {
	case ActionStartQuiz:
		return ui.ButtonConfig{Style: discordgo.SuccessButton, Label: "Start a quiz", Emoji: "🎯"}
	case ActionViewStats:
		return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "My stats", Emoji: "📊"}
	default:
		return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "Help", Emoji: "❓"}
	}
}

func (h *WelcomeActionHandler) Handle(ctx context.Context, ic *ui.Interaction, state *ui.ButtonState) error {
	action, _ := state.Data.String("action")
	switch action {
	case ActionStartQuiz:
		return ic.Responder.RespondEphemeral(ic.Event, "Run `/quiz topic:<your topic>` to start a quiz on anything you like.")
	case ActionViewStats:
		return ic.Responder.RespondEphemeral(ic.Event, "Run `/stats` to see your XP, level and streak.")
	default:
		return ic.Responder.RespondEphemeral(ic.Event, "Commands: `/quiz` to play, `/stats` for your progress, `/leaderboard` for rankings, `/help` for details.")
	}
}

// NewWelcomeView builds the persistent welcome message buttons.
func NewWelcomeView(m *ui.Manager) (*ui.View, error) {
	view := m.NewView("WelcomeView", ui.ModeDatabase)
	for _, action := range []string{ActionStartQuiz, ActionViewStats, ActionShowHelp} {
		_, err := view.AddButton(ui.ButtonOptions{
			HandlerName: NameWelcomeAction,
			Action:      ui.ActionStatic,
			Data:        ui.Payload{"action": action},
		})
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}
