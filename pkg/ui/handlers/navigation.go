// Package handlers holds the named button handlers the dispatcher routes to
// and the view factories that mint their buttons. Handler names are wire
// identifiers; renaming one orphans every button persisted under the old
// name.
package handlers

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/ui"
)

// Handler name wire identifiers.
const (
	NameNavigation        = "NavigationHandler"
	NameStatsNavigation   = "StatsNavigationHandler"
	NameLeaderboardToggle = "LeaderboardToggleHandler"
	NameWelcomeAction     = "WelcomeActionHandler"
	NameHelpAction        = "HelpActionHandler"
	NameFAQNavigation     = "FAQNavigationHandler"
)

// PageRenderer produces the message content for one page of a paginated
// view. components should include fresh navigation buttons for the new page.
type PageRenderer func(ctx context.Context, ic *ui.Interaction, page, total int64) (content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent, err error)

// NavigationHandler pages through multi-page content. Payload: "direction"
// ("next"/"prev"), "page" (current, 0-based), "total".
type NavigationHandler struct {
	Render PageRenderer
}

func (h *NavigationHandler) Config(state *ui.ButtonState) ui.ButtonConfig {
	dir, _ := state.Data.String("direction")
	if dir == "prev" {
		return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "Previous", Emoji: "◀️"}
	}
	return ui.ButtonConfig{Style: discordgo.SecondaryButton, Label: "Next", Emoji: "▶️"}
}

func (h *NavigationHandler) Handle(ctx context.Context, ic *ui.Interaction, state *ui.ButtonState) error {
	dir, _ := state.Data.String("direction")
	page, _ := state.Data.Int("page")
	total, _ := state.Data.Int("total")

	target := page
	switch dir {
	case "next":
		target = page + 1
	case "prev":
		target = page - 1
	default:
		return fmt.Errorf("unknown navigation direction %q", dir)
	}
	if target < 0 {
		target = 0
	}
	if total > 0 && target >= total {
		target = total - 1
	}

	if h.Render == nil {
		return ic.Responder.RespondEphemeral(ic.Event, fmt.Sprintf("Page %d of %d", target+1, total))
	}
	content, embeds, components, err := h.Render(ctx, ic, target, total)
	if err != nil {
		return fmt.Errorf("render page %d: %w", target, err)
	}
	return ic.Responder.UpdateMessage(ic.Event, content, embeds, components)
}

// AddNavigationButtons mints a prev/next pair on a view. Buttons carry the
// current page so the handler can move relative to it.
func AddNavigationButtons(view *ui.View, ownerID, page, total int64, mode ui.PersistenceMode) error {
	for _, dir := range []string{"prev", "next"} {
		_, err := view.AddButton(ui.ButtonOptions{
			HandlerName: NameNavigation,
			OwnerID:     ownerID,
			Action:      ui.ActionNavigate,
			Data:        ui.Payload{"direction": dir, "page": page, "total": total},
			Mode:        mode,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
