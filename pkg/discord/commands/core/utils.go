package core

import (
	"encoding/json"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// OptionExtractor simplifies reading slash-command option values.
type OptionExtractor struct {
	options []*discordgo.ApplicationCommandInteractionDataOption
}

// NewOptionExtractor wraps a set of interaction options.
func NewOptionExtractor(options []*discordgo.ApplicationCommandInteractionDataOption) *OptionExtractor {
	return &OptionExtractor{options: options}
}

// String extracts a string option by name; "" when absent.
func (e *OptionExtractor) String(name string) string {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return strings.TrimSpace(opt.StringValue())
		}
	}
	return ""
}

// Int extracts an integer option by name; 0 when absent.
func (e *OptionExtractor) Int(name string) int64 {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return opt.IntValue()
		}
	}
	return 0
}

// Bool extracts a boolean option by name; false when absent.
func (e *OptionExtractor) Bool(name string) bool {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionBoolean {
			return opt.BoolValue()
		}
	}
	return false
}

// Has reports whether an option is present.
func (e *OptionExtractor) Has(name string) bool {
	for _, opt := range e.options {
		if opt.Name == name {
			return true
		}
	}
	return false
}

// IsSlashCommand reports whether an interaction is a slash-command
// invocation.
func IsSlashCommand(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionApplicationCommand
}

// SubCommandName returns the invoked subcommand name, or "" when the
// interaction does not target a subcommand.
func SubCommandName(i *discordgo.InteractionCreate) string {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return ""
	}
	opt := data.Options[0]
	if opt.Type != discordgo.ApplicationCommandOptionSubCommand {
		return ""
	}
	return opt.Name
}

// SubCommandOptions returns the options of the invoked subcommand.
func SubCommandOptions(i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return nil
	}
	opt := data.Options[0]
	if opt.Type != discordgo.ApplicationCommandOptionSubCommand {
		return nil
	}
	return opt.Options
}

// HasAdminPermission reports whether the invoking member has the
// Administrator permission. Always false outside a guild.
func HasAdminPermission(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// CompareCommands reports whether two application commands are semantically
// equal for synchronization purposes.
func CompareCommands(a, b *discordgo.ApplicationCommand) bool {
	ca := struct {
		Name        string                                `json:"name"`
		Description string                                `json:"description"`
		Options     []*discordgo.ApplicationCommandOption `json:"options"`
	}{a.Name, a.Description, a.Options}
	cb := struct {
		Name        string                                `json:"name"`
		Description string                                `json:"description"`
		Options     []*discordgo.ApplicationCommandOption `json:"options"`
	}{b.Name, b.Description, b.Options}
	ba, _ := json.Marshal(ca)
	bb, _ := json.Marshal(cb)
	return string(ba) == string(bb)
}
