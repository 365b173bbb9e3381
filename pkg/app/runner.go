// Package app bootstraps the bot: environment, logging, storage, the
// persistent UI runtime, Discord, and the service lifecycle.
package app

import (
	"fmt"
	"time"

	"github.com/studybot/quizcore/pkg/cache"
	"github.com/studybot/quizcore/pkg/discord/commands/admin"
	"github.com/studybot/quizcore/pkg/discord/commands/core"
	"github.com/studybot/quizcore/pkg/discord/commands/game"
	"github.com/studybot/quizcore/pkg/discord/commands/profile"
	"github.com/studybot/quizcore/pkg/discord/session"
	"github.com/studybot/quizcore/pkg/errors"
	"github.com/studybot/quizcore/pkg/llm"
	"github.com/studybot/quizcore/pkg/log"
	"github.com/studybot/quizcore/pkg/quiz"
	"github.com/studybot/quizcore/pkg/service"
	"github.com/studybot/quizcore/pkg/stats"
	"github.com/studybot/quizcore/pkg/storage"
	"github.com/studybot/quizcore/pkg/task"
	"github.com/studybot/quizcore/pkg/ui"
	"github.com/studybot/quizcore/pkg/ui/handlers"
	"github.com/studybot/quizcore/pkg/util"
)

// Run bootstraps the bot and blocks until shutdown. tokenEnv is the
// environment variable holding the bot token; it is read from the process
// environment first, then from the $HOME/.local/bin/.env fallback file.
func Run(appName, tokenEnv string) error {
	started := time.Now()

	token, loadErr := util.LoadEnvWithLocalBinFallback(tokenEnv)

	// Logger first so everything after can log meaningfully.
	if err := log.SetupLogger(); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer log.Sync()

	logger := log.ApplicationLogger()
	if loadErr != nil {
		logger.Warn("Environment fallback load failed", "error", loadErr)
	}
	if token == "" {
		return fmt.Errorf("%s not set in environment or .env file", tokenEnv)
	}

	logger.Info("🚀 Starting", "app", appName)

	// Postgres: buttons, messages, user stats.
	databaseURL := util.EnvString("DATABASE_URL", "")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	db, err := storage.OpenPostgres(databaseURL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	buttonStore := storage.NewButtonStore(db)
	statsStore := storage.NewStatsStore(db)

	// Embedded analytics store. Failure is tolerated; interaction logging
	// is best-effort.
	analytics := storage.NewAnalyticsStore(util.EnvString("ANALYTICS_DB_PATH", "data/analytics.db"))
	if err := analytics.Init(); err != nil {
		logger.Warn("Analytics store unavailable", "error", err)
		analytics = nil
	} else {
		defer analytics.Close()
	}

	// Redis leaderboard cache, optional.
	var boards *cache.LeaderboardCache
	if addr := util.EnvString("REDIS_ADDR", ""); addr != "" {
		boards, err = cache.NewLeaderboardCache(addr)
		if err != nil {
			logger.Warn("Leaderboard cache unavailable, reads will hit Postgres", "error", err)
			boards = nil
		} else {
			defer boards.Close()
		}
	}

	// Background task router: button sweep, leaderboard refresh.
	router := task.NewRouter(task.Defaults())
	defer router.Close()

	// Persistent UI runtime.
	manager := ui.NewManager(buttonStore)
	if analytics != nil {
		manager.SetAnalytics(analytics)
	}

	statsService := stats.NewStatsService(statsStore, boards, router)

	// Every handler must be registered before the dispatcher sees its
	// first interaction.
	if err := handlers.RegisterAll(manager, statsService); err != nil {
		return fmt.Errorf("register button handlers: %w", err)
	}

	generator := quiz.NewGenerator(llm.NewRegistryFromEnv())
	runner := game.NewRunner(manager, statsService)
	if err := runner.RegisterHandlers(); err != nil {
		return fmt.Errorf("register quiz handlers: %w", err)
	}

	// Discord.
	discordSession, err := session.New(token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	defer discordSession.Close()

	dispatcher := ui.NewDispatcher(manager, &ui.SessionResponder{Session: discordSession})
	dispatcher.Attach(discordSession)

	recovery := ui.NewRecoveryService(manager, &ui.SessionFetcher{Session: discordSession}, router)

	// Services: recovery runs first (PriorityHigh), then stats.
	serviceManager := service.NewServiceManager(errors.NewErrorHandler())
	if err := serviceManager.Register(recovery); err != nil {
		return fmt.Errorf("register recovery service: %w", err)
	}
	if err := serviceManager.Register(statsService); err != nil {
		return fmt.Errorf("register stats service: %w", err)
	}
	if err := serviceManager.StartAll(); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	// Slash commands.
	commandManager := core.NewCommandManager(discordSession)
	cmdRouter := commandManager.GetRouter()
	cmdRouter.RegisterCommand(game.NewQuizCommand(generator, runner))
	cmdRouter.RegisterCommand(profile.NewStatsCommand(statsService, manager))
	cmdRouter.RegisterCommand(profile.NewLeaderboardCommand(statsService, manager))
	cmdRouter.RegisterCommand(profile.NewHelpCommand(manager))
	cmdRouter.RegisterCommand(admin.NewAdminCommand(recovery, buttonStore, analytics, manager))
	if err := commandManager.SetupCommands(); err != nil {
		return fmt.Errorf("configure slash commands: %w", err)
	}

	logger.Info("🎯 Initialized", "app", appName, "took", time.Since(started).Round(time.Millisecond))
	logger.Info("🤖 Running. Press Ctrl+C to stop...")

	util.WaitForInterrupt()
	logger.Info("🛑 Stopping", "app", appName)

	if err := serviceManager.StopAll(); err != nil {
		log.ErrorLoggerRaw().Error("Some services failed to stop cleanly", "error", err)
	}
	return nil
}
