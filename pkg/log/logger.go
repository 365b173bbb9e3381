package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Category selects one of the dedicated log streams. Each category writes to
// its own rotating file in addition to the console, so Discord gateway noise
// can be inspected separately from database and application output.
type Category int

const (
	Application Category = iota
	DiscordEvents
	Database
)

const LogsDirPath = "logs"

type loggers struct {
	application *slog.Logger
	discord     *slog.Logger
	database    *slog.Logger
	errors      *slog.Logger

	rotators []*lumberjack.Logger
}

var (
	mu     sync.RWMutex
	global *loggers
)

// SetupLogger initializes the category loggers. Console output goes to
// stdout/stderr; file output goes to rotating logs under LogsDirPath.
// Safe to call more than once; later calls replace the previous loggers.
func SetupLogger() error {
	level := ParseLogLevel(os.Getenv("LOG_LEVEL"))

	if err := os.MkdirAll(LogsDirPath, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}

	newRotator := func(name string) *lumberjack.Logger {
		return &lumberjack.Logger{
			Filename:   filepath.Join(LogsDirPath, name),
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	appFile := newRotator("application.log")
	discordFile := newRotator("discord_events.log")
	dbFile := newRotator("database.log")
	errFile := newRotator("error.log")

	opts := &slog.HandlerOptions{Level: level}

	build := func(console io.Writer, file *lumberjack.Logger) *slog.Logger {
		return slog.New(slog.NewTextHandler(io.MultiWriter(console, file), opts))
	}

	l := &loggers{
		application: build(os.Stdout, appFile),
		discord:     build(os.Stdout, discordFile),
		database:    build(os.Stdout, dbFile),
		errors:      build(os.Stderr, errFile),
		rotators:    []*lumberjack.Logger{appFile, discordFile, dbFile, errFile},
	}

	mu.Lock()
	global = l
	mu.Unlock()
	return nil
}

// Sync closes the rotating file writers. Call on shutdown.
func Sync() {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		return
	}
	for _, r := range l.rotators {
		_ = r.Close()
	}
}

func get() *loggers {
	mu.RLock()
	l := global
	mu.RUnlock()
	return l
}

// ApplicationLogger returns the general application logger. Falls back to
// slog.Default() when SetupLogger has not run (early startup, tests).
func ApplicationLogger() *slog.Logger {
	if l := get(); l != nil {
		return l.application
	}
	return slog.Default()
}

// DiscordLogger returns the logger for Discord gateway and API events.
func DiscordLogger() *slog.Logger {
	if l := get(); l != nil {
		return l.discord
	}
	return slog.Default()
}

// DatabaseLogger returns the logger for store operations.
func DatabaseLogger() *slog.Logger {
	if l := get(); l != nil {
		return l.database
	}
	return slog.Default()
}

// ErrorLoggerRaw returns the error stream logger. "Raw" because it is the
// bare slog.Logger without any category routing on top.
func ErrorLoggerRaw() *slog.Logger {
	if l := get(); l != nil {
		return l.errors
	}
	return slog.Default()
}

// ForCategory returns the logger for an explicit category.
func ForCategory(c Category) *slog.Logger {
	switch c {
	case DiscordEvents:
		return DiscordLogger()
	case Database:
		return DatabaseLogger()
	default:
		return ApplicationLogger()
	}
}

// ParseLogLevel converts a string to a slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
