package core

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/log"
)

// CommandRegistry holds registered commands and subcommands.
type CommandRegistry struct {
	commands    map[string]Command
	subcommands map[string]map[string]SubCommand
}

// NewCommandRegistry creates an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands:    make(map[string]Command),
		subcommands: make(map[string]map[string]SubCommand),
	}
}

// Register adds a command to the registry.
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// RegisterSubCommand adds a subcommand under a parent command name.
func (r *CommandRegistry) RegisterSubCommand(parentName string, subcmd SubCommand) {
	if r.subcommands[parentName] == nil {
		r.subcommands[parentName] = make(map[string]SubCommand)
	}
	r.subcommands[parentName][subcmd.Name()] = subcmd
}

// GetCommand looks up a command by name.
func (r *CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetSubCommand looks up a subcommand by parent and name.
func (r *CommandRegistry) GetSubCommand(parentName, subName string) (SubCommand, bool) {
	if subs, exists := r.subcommands[parentName]; exists {
		if sub, ok := subs[subName]; ok {
			return sub, true
		}
	}
	return nil, false
}

// GetAllCommands returns all registered commands.
func (r *CommandRegistry) GetAllCommands() map[string]Command {
	return r.commands
}

// CommandRouter routes slash-command interactions to registered commands.
// Component interactions are the button dispatcher's job, not the router's.
type CommandRouter struct {
	registry  *CommandRegistry
	responder *Responder
	session   *discordgo.Session
}

// NewCommandRouter creates a router bound to a session.
func NewCommandRouter(session *discordgo.Session) *CommandRouter {
	return &CommandRouter{
		registry:  NewCommandRegistry(),
		responder: NewResponder(session),
		session:   session,
	}
}

// RegisterCommand registers a command.
func (cr *CommandRouter) RegisterCommand(cmd Command) {
	cr.registry.Register(cmd)
}

// GetRegistry returns the command registry.
func (cr *CommandRouter) GetRegistry() *CommandRegistry {
	return cr.registry
}

// GetResponder returns the responder.
func (cr *CommandRouter) GetResponder() *Responder {
	return cr.responder
}

// HandleInteraction is the gateway handler for slash commands.
func (cr *CommandRouter) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !IsSlashCommand(i) {
		return
	}
	cr.handleSlashCommand(i)
}

func (cr *CommandRouter) handleSlashCommand(i *discordgo.InteractionCreate) {
	ctx := cr.buildContext(i)
	commandName := i.ApplicationCommandData().Name

	cmd, exists := cr.registry.GetCommand(commandName)
	if !exists {
		ctx.Logger.Error("Command not found", "command", commandName)
		cr.responder.Error(i, "Command not found.")
		return
	}

	if cmd.RequiresGuild() && ctx.GuildID == 0 {
		cr.responder.Error(i, "This command can only be used in a server.")
		return
	}

	if cmd.RequiresAdmin() && !HasAdminPermission(i) {
		ctx.Logger.Warn("User without permission tried to use command", "command", commandName, "user", ctx.UserID)
		cr.responder.Error(i, "You do not have permission to use this command.")
		return
	}

	if err := cmd.Handle(ctx); err != nil {
		ctx.Logger.Error("Command execution failed", "command", commandName, "error", err)

		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			if cmdErr.Ephemeral {
				cr.responder.Ephemeral(i, cmdErr.Message)
			} else {
				cr.responder.Error(i, cmdErr.Message)
			}
			return
		}
		cr.responder.Error(i, "An error occurred while executing the command.")
	}
}

func (cr *CommandRouter) buildContext(i *discordgo.InteractionCreate) *Context {
	var userID int64
	if i.Member != nil && i.Member.User != nil {
		userID = parseSnowflake(i.Member.User.ID)
	} else if i.User != nil {
		userID = parseSnowflake(i.User.ID)
	}

	return &Context{
		Session:     cr.session,
		Interaction: i,
		Responder:   cr.responder,
		Logger:      log.DiscordLogger(),
		GuildID:     parseSnowflake(i.GuildID),
		ChannelID:   parseSnowflake(i.ChannelID),
		UserID:      userID,
	}
}

// CommandManager owns the router and keeps the commands registered on
// Discord in sync with the commands registered in code.
type CommandManager struct {
	session *discordgo.Session
	router  *CommandRouter
}

// NewCommandManager creates a command manager for a session.
func NewCommandManager(session *discordgo.Session) *CommandManager {
	return &CommandManager{
		session: session,
		router:  NewCommandRouter(session),
	}
}

// GetRouter returns the command router.
func (cm *CommandManager) GetRouter() *CommandRouter {
	return cm.router
}

// SetupCommands attaches the interaction handler and synchronizes commands
// incrementally: unchanged commands are skipped, changed ones edited, new
// ones created and orphans deleted.
func (cm *CommandManager) SetupCommands() error {
	logger := log.DiscordLogger()

	cm.session.AddHandler(cm.router.HandleInteraction)

	registered, err := cm.session.ApplicationCommands(cm.session.State.User.ID, "")
	if err != nil {
		return fmt.Errorf("fetch registered commands: %w", err)
	}

	regByName := make(map[string]*discordgo.ApplicationCommand, len(registered))
	for _, rc := range registered {
		regByName[rc.Name] = rc
	}

	codeCommands := cm.router.registry.GetAllCommands()

	created, updated, unchanged := 0, 0, 0
	for name, cmd := range codeCommands {
		desired := &discordgo.ApplicationCommand{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Options:     cmd.Options(),
		}

		if existing, ok := regByName[name]; ok {
			if CompareCommands(existing, desired) {
				unchanged++
				continue
			}
			if _, err := cm.session.ApplicationCommandEdit(cm.session.State.User.ID, "", existing.ID, desired); err != nil {
				return fmt.Errorf("update command %q: %w", name, err)
			}
			logger.Info("Command updated", "command", name)
			updated++
		} else {
			if _, err := cm.session.ApplicationCommandCreate(cm.session.State.User.ID, "", desired); err != nil {
				return fmt.Errorf("create command %q: %w", name, err)
			}
			logger.Info("Command created", "command", name)
			created++
		}
	}

	deleted := 0
	for _, rc := range registered {
		if _, exists := codeCommands[rc.Name]; !exists {
			if err := cm.session.ApplicationCommandDelete(cm.session.State.User.ID, "", rc.ID); err != nil {
				logger.Warn("Error removing orphan command", "command", rc.Name, "error", err)
				continue
			}
			logger.Info("Orphan command removed", "command", rc.Name)
			deleted++
		}
	}

	logger.Info("Command synchronization completed",
		"created", created,
		"updated", updated,
		"deleted", deleted,
		"unchanged", unchanged,
		"total", len(codeCommands))
	return nil
}

// GroupCommand is a command whose work is done by subcommands.
type GroupCommand struct {
	name        string
	description string
	subcommands map[string]SubCommand
}

// NewGroupCommand creates an empty group command.
func NewGroupCommand(name, description string) *GroupCommand {
	return &GroupCommand{
		name:        name,
		description: description,
		subcommands: make(map[string]SubCommand),
	}
}

// AddSubCommand adds a subcommand to the group.
func (gc *GroupCommand) AddSubCommand(subcmd SubCommand) {
	gc.subcommands[subcmd.Name()] = subcmd
}

func (gc *GroupCommand) Name() string        { return gc.name }
func (gc *GroupCommand) Description() string { return gc.description }

// Options builds the command options from the subcommands.
func (gc *GroupCommand) Options() []*discordgo.ApplicationCommandOption {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(gc.subcommands))
	for _, subcmd := range gc.subcommands {
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        subcmd.Name(),
			Description: subcmd.Description(),
			Options:     subcmd.Options(),
		})
	}
	return options
}

// RequiresGuild reports whether any subcommand requires a guild.
func (gc *GroupCommand) RequiresGuild() bool {
	for _, subcmd := range gc.subcommands {
		if subcmd.RequiresGuild() {
			return true
		}
	}
	return false
}

// RequiresAdmin reports whether any subcommand requires admin permission.
func (gc *GroupCommand) RequiresAdmin() bool {
	for _, subcmd := range gc.subcommands {
		if subcmd.RequiresAdmin() {
			return true
		}
	}
	return false
}

// Handle routes to the invoked subcommand.
func (gc *GroupCommand) Handle(ctx *Context) error {
	subName := SubCommandName(ctx.Interaction)
	if subName == "" {
		return NewCommandError("No subcommand specified.", true)
	}

	subcmd, exists := gc.subcommands[subName]
	if !exists {
		return NewCommandError("Unknown subcommand.", true)
	}

	if subcmd.RequiresGuild() && ctx.GuildID == 0 {
		return NewCommandError("This subcommand can only be used in a server.", true)
	}
	if subcmd.RequiresAdmin() && !HasAdminPermission(ctx.Interaction) {
		return NewCommandError("You don't have permission to use this subcommand.", true)
	}

	return subcmd.Handle(ctx)
}
