package handlers

import (
	"github.com/studybot/quizcore/pkg/stats"
	"github.com/studybot/quizcore/pkg/ui"
)

// RegisterAll registers every named handler on the manager. Must complete
// before the dispatcher is attached to the gateway; the dispatcher treats a
// registry miss as a wiring defect.
func RegisterAll(m *ui.Manager, statsService *stats.StatsService) error {
	registrations := map[string]ui.Handler{
		NameNavigation:        &NavigationHandler{},
		NameStatsNavigation:   &StatsNavigationHandler{Stats: statsService},
		NameLeaderboardToggle: &LeaderboardToggleHandler{Stats: statsService, Manager: m},
		NameWelcomeAction:     &WelcomeActionHandler{},
		NameHelpAction:        &HelpActionHandler{},
		NameFAQNavigation:     &FAQNavigationHandler{Manager: m},
	}
	for name, h := range registrations {
		if err := m.RegisterHandler(name, h); err != nil {
			return err
		}
	}
	return nil
}
