// Package core provides the slash-command plumbing: the Command interface,
// the registry and router, response helpers, and command synchronization
// against the Discord API.
package core

import (
	"log/slog"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// Command is one top-level slash command.
type Command interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Handle(ctx *Context) error
	RequiresGuild() bool
	RequiresAdmin() bool
}

// SubCommand mirrors Command for entries nested under a group command.
type SubCommand interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Handle(ctx *Context) error
	RequiresGuild() bool
	RequiresAdmin() bool
}

// Context carries everything a command handler needs for one invocation.
type Context struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Responder   *Responder
	Logger      *slog.Logger

	GuildID   int64 // 0 outside a guild
	ChannelID int64
	UserID    int64
}

// CommandError is an error whose message is safe to show to the user.
type CommandError struct {
	Message   string
	Ephemeral bool
}

func (e *CommandError) Error() string { return e.Message }

// NewCommandError creates a user-facing command error.
func NewCommandError(message string, ephemeral bool) *CommandError {
	return &CommandError{Message: message, Ephemeral: ephemeral}
}

func parseSnowflake(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
