package handlers

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/stats"
	"github.com/studybot/quizcore/pkg/storage"
	"github.com/studybot/quizcore/pkg/ui"
)

// Stats view sections, in display order.
const (
	SectionOverview     = "overview"
	SectionProgress     = "progress"
	SectionAchievements = "achievements"
)

// StatsNavigationHandler switches between the sections of a user's stats
// card. Payload: "section".
type StatsNavigationHandler struct {
	Stats *stats.StatsService
}

func (h *StatsNavigationHandler) Config(state *ui.ButtonState) ui.ButtonConfig {
	section, _ := state.Data.String("section")
	switch section {
	case SectionProgress:
		return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "Progress", Emoji: "📈"}
	case SectionAchievements:
		return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "Achievements", Emoji: "🏆"}
	default:
		return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "Overview", Emoji: "📊"}
	}
}

func (h *StatsNavigationHandler) Handle(ctx context.Context, ic *ui.Interaction, state *ui.ButtonState) error {
	section, _ := state.Data.String("section")

	userStats, err := h.Stats.GetUserStats(ctx, ic.UserID)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	if userStats == nil {
		return ic.Responder.RespondEphemeral(ic.Event, "You haven't taken any quizzes yet. Try `/quiz` to get started!")
	}

	embed := StatsEmbed(userStats, section)
	return ic.Responder.UpdateMessage(ic.Event, "", []*discordgo.MessageEmbed{embed}, nil)
}

// NewStatsView builds the section buttons for a stats card. Inline mode:
// the state is a single short section name.
func NewStatsView(m *ui.Manager, ownerID int64) (*ui.View, error) {
	view := m.NewView("StatsView", ui.ModeInline)
	for _, section := range []string{SectionOverview, SectionProgress, SectionAchievements} {
		_, err := view.AddButton(ui.ButtonOptions{
			HandlerName: NameStatsNavigation,
			OwnerID:     ownerID,
			Action:      ui.ActionNavigate,
			Data:        ui.Payload{"section": section},
		})
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// StatsEmbed renders one section of a stats card.
func StatsEmbed(s *storage.UserStats, section string) *discordgo.MessageEmbed {
	switch section {
	case SectionProgress:
		level, inLevel, forNext := stats.ProgressInLevel(s.TotalXP)
		return &discordgo.MessageEmbed{
			Title: "Progress",
			Color: embedColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Level", Value: fmt.Sprintf("%d", level), Inline: true},
				{Name: "XP in level", Value: fmt.Sprintf("%d / %d", inLevel, forNext), Inline: true},
				{Name: "Total XP", Value: fmt.Sprintf("%d", s.TotalXP), Inline: true},
			},
		}
	case SectionAchievements:
		return &discordgo.MessageEmbed{
			Title: "Achievements",
			Color: embedColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Perfect quizzes", Value: fmt.Sprintf("%d", s.PerfectQuizzes), Inline: true},
				{Name: "Longest streak", Value: fmt.Sprintf("%d days", s.LongestStreak), Inline: true},
				{Name: "Streak level", Value: stats.CelebrationLevel(s.LongestStreak), Inline: true},
			},
		}
	default:
		accuracy := 0.0
		if s.QuestionsAnswered > 0 {
			accuracy = float64(s.CorrectAnswers) / float64(s.QuestionsAnswered) * 100
		}
		return &discordgo.MessageEmbed{
			Title: "Quiz Stats",
			Color: embedColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Quizzes", Value: fmt.Sprintf("%d", s.QuizzesTaken), Inline: true},
				{Name: "Accuracy", Value: fmt.Sprintf("%.1f%%", accuracy), Inline: true},
				{Name: "Current streak", Value: fmt.Sprintf("%d days", s.CurrentStreak), Inline: true},
				{Name: "Level", Value: fmt.Sprintf("%d", s.Level), Inline: true},
				{Name: "Total XP", Value: fmt.Sprintf("%d", s.TotalXP), Inline: true},
			},
		}
	}
}
