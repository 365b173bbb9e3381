package core

import (
	"github.com/bwmarrin/discordgo"
)

// Responder sends interaction responses for slash commands. Component
// responses go through the button dispatcher's responder instead.
type Responder struct {
	session *discordgo.Session
}

// NewResponder creates a responder bound to a session.
func NewResponder(session *discordgo.Session) *Responder {
	return &Responder{session: session}
}

// Success sends a public success message.
func (r *Responder) Success(i *discordgo.InteractionCreate, message string) error {
	return r.respondText(i, "✅ "+message, false)
}

// Error sends an ephemeral error message.
func (r *Responder) Error(i *discordgo.InteractionCreate, message string) error {
	return r.respondText(i, "❌ "+message, true)
}

// Warning sends an ephemeral warning message.
func (r *Responder) Warning(i *discordgo.InteractionCreate, message string) error {
	return r.respondText(i, "⚠️ "+message, true)
}

// Info sends a public informational message.
func (r *Responder) Info(i *discordgo.InteractionCreate, message string) error {
	return r.respondText(i, message, false)
}

// Ephemeral sends a message only the invoking user can see.
func (r *Responder) Ephemeral(i *discordgo.InteractionCreate, message string) error {
	return r.respondText(i, message, true)
}

func (r *Responder) respondText(i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

// Respond sends a full response with embeds and components.
func (r *Responder) Respond(i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Components: components,
			Flags:      flags,
		},
	})
}

// Defer acknowledges the interaction so a slow handler can edit the response
// later. Discord enforces a 3 second initial deadline.
func (r *Responder) Defer(i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
}

// EditResponse replaces the content of a deferred or sent response.
func (r *Responder) EditResponse(i *discordgo.InteractionCreate, content string) error {
	_, err := r.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

// EditComplex replaces a deferred or sent response with embeds and
// components.
func (r *Responder) EditComplex(i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	_, err := r.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}

// FollowUp sends an additional message after the initial response.
func (r *Responder) FollowUp(i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_, err := r.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   flags,
	})
	return err
}

// ResponseMessage fetches the message created by the initial response. Needed
// when buttons on the response must be persisted under its message id.
func (r *Responder) ResponseMessage(i *discordgo.InteractionCreate) (*discordgo.Message, error) {
	return r.session.InteractionResponse(i.Interaction)
}
