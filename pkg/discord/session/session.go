// Package session creates and opens the Discord gateway connection.
package session

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/log"
)

// New creates a Discord session and opens the gateway connection. The bot
// lives on slash commands and component interactions, so only guild and
// message intents are requested; privileged intents are not needed.
func New(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("connect to discord: %w", err)
	}

	log.DiscordLogger().Info("Connected to Discord",
		"user", s.State.User.Username,
		"id", s.State.User.ID)
	return s, nil
}
