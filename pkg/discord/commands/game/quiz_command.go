package game

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/discord/commands/core"
	"github.com/studybot/quizcore/pkg/quiz"
)

const (
	defaultQuestionCount = 5
	maxQuestionCount     = 10

	// generateTimeout bounds LLM generation, including the simplified
	// retry.
	generateTimeout = 2 * time.Minute
)

// QuizCommand implements /quiz: generate a question set and start an
// interactive session on the response message.
type QuizCommand struct {
	generator *quiz.Generator
	runner    *Runner
}

// NewQuizCommand wires the command to the generator and session runner.
func NewQuizCommand(generator *quiz.Generator, runner *Runner) *QuizCommand {
	return &QuizCommand{generator: generator, runner: runner}
}

func (c *QuizCommand) Name() string        { return "quiz" }
func (c *QuizCommand) Description() string { return "Start a quiz on any topic" }
func (c *QuizCommand) RequiresGuild() bool { return false }
func (c *QuizCommand) RequiresAdmin() bool { return false }

func (c *QuizCommand) Options() []*discordgo.ApplicationCommandOption {
	minCount := float64(1)
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "topic",
			Description: "What the quiz should be about",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "count",
			Description: "Number of questions (1-10, default 5)",
			MinValue:    &minCount,
			MaxValue:    maxQuestionCount,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "difficulty",
			Description: "Question difficulty (default medium)",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Easy", Value: "easy"},
				{Name: "Medium", Value: "medium"},
				{Name: "Hard", Value: "hard"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "style",
			Description: "Question style (default standard)",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Standard", Value: string(quiz.QuizStandard)},
				{Name: "Trivia", Value: string(quiz.QuizTrivia)},
				{Name: "Educational", Value: string(quiz.QuizEducational)},
			},
		},
	}
}

func (c *QuizCommand) Handle(ctx *core.Context) error {
	ext := core.NewOptionExtractor(ctx.Interaction.ApplicationCommandData().Options)

	topic := ext.String("topic")
	if topic == "" {
		return core.NewCommandError("Please give the quiz a topic.", true)
	}

	count := int(ext.Int("count"))
	if count <= 0 {
		count = defaultQuestionCount
	}
	if count > maxQuestionCount {
		count = maxQuestionCount
	}

	difficulty := ext.String("difficulty")
	if difficulty == "" {
		difficulty = "medium"
	}

	style := quiz.QuizType(ext.String("style"))
	if style == "" {
		style = quiz.QuizStandard
	}

	// Generation is far slower than the interaction deadline.
	if err := ctx.Responder.Defer(ctx.Interaction, false); err != nil {
		return fmt.Errorf("defer response: %w", err)
	}

	genCtx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	questions, err := c.generator.GenerateQuiz(genCtx, quiz.GenerateOptions{
		Topic:      topic,
		Count:      count,
		Difficulty: difficulty,
		QuizType:   style,
	})
	if err != nil {
		ctx.Logger.Error("Quiz generation failed", "topic", topic, "error", err)
		return ctx.Responder.EditResponse(ctx.Interaction, "❌ Could not generate a quiz right now. Try again in a moment.")
	}

	session := c.runner.startSession(ctx.UserID, ctx.GuildID, topic, difficulty, questions)

	view, err := c.runner.questionView(session)
	if err != nil {
		return fmt.Errorf("build question view: %w", err)
	}

	embed := questionEmbed(session)
	return ctx.Responder.EditComplex(ctx.Interaction, "", []*discordgo.MessageEmbed{embed}, view.Components())
}
