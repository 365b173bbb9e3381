package ui

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// Responder sends interaction responses back to the platform. It exists as
// an interface so handler and dispatcher tests can observe responses without
// a live gateway connection.
type Responder interface {
	// RespondEphemeral sends a message only the interacting user can see.
	RespondEphemeral(ic *discordgo.InteractionCreate, content string) error

	// UpdateMessage edits the message the component lives on in place.
	UpdateMessage(ic *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error
}

// Interaction bundles everything a handler needs to react to an activation.
type Interaction struct {
	Event     *discordgo.InteractionCreate
	Responder Responder

	UserID    int64
	GuildID   int64
	ChannelID int64
	MessageID int64
}

// newInteraction extracts typed ids from a raw activation event.
func newInteraction(ic *discordgo.InteractionCreate, responder Responder) *Interaction {
	out := &Interaction{Event: ic, Responder: responder}

	if ic.Member != nil && ic.Member.User != nil {
		out.UserID = parseSnowflake(ic.Member.User.ID)
	} else if ic.User != nil {
		out.UserID = parseSnowflake(ic.User.ID)
	}
	out.GuildID = parseSnowflake(ic.GuildID)
	out.ChannelID = parseSnowflake(ic.ChannelID)
	if ic.Message != nil {
		out.MessageID = parseSnowflake(ic.Message.ID)
	}
	return out
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

// FormatSnowflake renders an id the way Discord's API expects it.
func FormatSnowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}

// SessionResponder implements Responder on a live discordgo session.
type SessionResponder struct {
	Session *discordgo.Session
}

func (r *SessionResponder) RespondEphemeral(ic *discordgo.InteractionCreate, content string) error {
	return r.Session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func (r *SessionResponder) UpdateMessage(ic *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	data := &discordgo.InteractionResponseData{
		Embeds:     embeds,
		Components: components,
	}
	if content != "" {
		data.Content = content
	}
	return r.Session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
}

// SessionFetcher implements MessageFetcher on a live discordgo session,
// mapping 404s to nil, nil.
type SessionFetcher struct {
	Session *discordgo.Session
}

func (f *SessionFetcher) FetchMessage(channelID, messageID int64) (*discordgo.Message, error) {
	msg, err := f.Session.ChannelMessage(FormatSnowflake(channelID), FormatSnowflake(messageID))
	if err != nil {
		if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil && restErr.Response.StatusCode == 404 {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}
