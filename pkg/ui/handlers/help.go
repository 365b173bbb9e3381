package handlers

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/ui"
)

var helpTopics = map[string]string{
	"quiz":        "**/quiz** starts a quiz. Options: `topic` (required), `count` (1-10), `difficulty` (easy/medium/hard), `type` (standard/trivia/educational).",
	"stats":       "**/stats** shows your XP, level, accuracy and streak. Use the section buttons to switch views.",
	"leaderboard": "**/leaderboard** ranks players by XP. The toggle button switches between this server and global.",
	"xp":          "You earn 10 XP per correct answer, scaled by difficulty. Accuracy, perfect quizzes, daily streaks and first-quiz-of-the-day all add bonuses.",
}

// HelpTopic returns the help text for a topic name.
func HelpTopic(name string) (string, bool) {
	text, ok := helpTopics[name]
	return text, ok
}

// HelpTopicNames lists the available help topics.
func HelpTopicNames() []string {
	return []string{"quiz", "stats", "leaderboard", "xp"}
}

// HelpActionHandler answers help topic buttons. Payload: "topic".
type HelpActionHandler struct{}

func (h *HelpActionHandler) Config(state *ui.ButtonState) ui.ButtonConfig {
	topic, _ := state.Data.String("topic")
	return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: topic}
}

func (h *HelpActionHandler) Handle(ctx context.Context, ic *ui.Interaction, state *ui.ButtonState) error {
	topic, _ := state.Data.String("topic")
	text, ok := helpTopics[topic]
	if !ok {
		return ic.Responder.RespondEphemeral(ic.Event, fmt.Sprintf("No help available for %q.", topic))
	}
	return ic.Responder.RespondEphemeral(ic.Event, text)
}

// FAQ entries shown by the paged FAQ view.
var faqPages = []struct {
	Question string
	Answer   string
}{
	{"How do streaks work?", "Complete at least one quiz per day. Missing a day resets the streak to one. Bonuses kick in at 3, 7, 14 and 30 days."},
	{"Why did my button stop working?", "Buttons can expire, or belong to another user. Buttons from before the last restart are recovered automatically; if one was lost, rerun the command."},
	{"Which topics can I quiz on?", "Anything. Questions are generated on demand, so niche topics work too, though very obscure ones may be less accurate."},
	{"How are levels calculated?", "Each level costs 50 XP more than the previous one. Level 2 needs 50 XP, level 3 another 100, and so on up to level 100."},
}

// FAQNavigationHandler pages through the FAQ. Payload: "direction", "page".
type FAQNavigationHandler struct {
	Manager *ui.Manager
}

func (h *FAQNavigationHandler) Config(state *ui.ButtonState) ui.ButtonConfig {
	dir, _ := state.Data.String("direction")
	if dir == "prev" {
		return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "Previous", Emoji: "◀️"}
	}
	return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "Next", Emoji: "▶️"}
}

func (h *FAQNavigationHandler) Handle(ctx context.Context, ic *ui.Interaction, state *ui.ButtonState) error {
	dir, _ := state.Data.String("direction")
	page, _ := state.Data.Int("page")

	switch dir {
	case "next":
		page++
	case "prev":
		page--
	}
	if page < 0 {
		page = 0
	}
	if page >= int64(len(faqPages)) {
		page = int64(len(faqPages)) - 1
	}

	view, err := NewFAQView(h.Manager, page)
	if err != nil {
		return fmt.Errorf("rebuild faq view: %w", err)
	}
	return ic.Responder.UpdateMessage(ic.Event, "", []*discordgo.MessageEmbed{FAQEmbed(page)}, view.Components())
}

// FAQEmbed renders one FAQ page.
func FAQEmbed(page int64) *discordgo.MessageEmbed {
	if page < 0 || page >= int64(len(faqPages)) {
		page = 0
	}
	entry := faqPages[page]
	return &discordgo.MessageEmbed{
		Title:       entry.Question,
		Description: entry.Answer,
		Color:       embedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("FAQ %d/%d", page+1, len(faqPages)),
		},
	}
}

// NewFAQView builds the FAQ pager buttons. Inline mode: the whole state is a
// page number, well within the identifier budget.
func NewFAQView(m *ui.Manager, page int64) (*ui.View, error) {
	view := m.NewView("FAQView", ui.ModeInline)
	for _, dir := range []string{"prev", "next"} {
		_, err := view.AddButton(ui.ButtonOptions{
			HandlerName: NameFAQNavigation,
			Action:      ui.ActionNavigate,
			Data:        ui.Payload{"direction": dir, "page": page},
		})
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}
