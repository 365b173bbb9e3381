package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/studybot/quizcore/pkg/llm"
	"github.com/studybot/quizcore/pkg/log"
)

// GenerateOptions describes one quiz generation request.
type GenerateOptions struct {
	Topic        string
	Count        int
	Difficulty   string
	QuizType     QuizType
	QuestionType QuestionType
	Provider     string // empty = registry preference order
}

// Generator turns topics into question sets. Generation never returns an
// empty set: when everything fails it returns a single placeholder question
// explaining the failure.
type Generator struct {
	registry *llm.Registry
	logger   *slog.Logger
}

// NewGenerator builds a generator over the provider registry.
func NewGenerator(registry *llm.Registry) *Generator {
	return &Generator{
		registry: registry,
		logger:   log.ApplicationLogger(),
	}
}

// GenerateQuiz produces up to opts.Count questions. A parse failure triggers
// one simplified single-question retry before the placeholder.
func (g *Generator) GenerateQuiz(ctx context.Context, opts GenerateOptions) ([]Question, error) {
	if opts.Topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}
	if opts.Count <= 0 {
		opts.Count = 5
	}
	if opts.Difficulty == "" {
		opts.Difficulty = "medium"
	}
	if opts.QuizType == "" {
		opts.QuizType = QuizStandard
	}
	if opts.QuestionType == "" {
		opts.QuestionType = MultipleChoice
	}

	prompt := buildPrompt(opts.QuizType, opts.QuestionType, opts.Topic, opts.Difficulty, opts.Count)
	response, err := g.registry.GenerateText(ctx, prompt, opts.Provider)
	if err != nil {
		g.logger.Error("Quiz generation request failed", "topic", opts.Topic, "err", err)
		return g.handleGenerationFailure(ctx, opts, err.Error()), nil
	}

	questions := ParseTaggedQuestions(response, opts.Difficulty, opts.QuestionType, opts.Topic)
	if len(questions) == 0 {
		g.logger.Warn("No questions parsed from response", "topic", opts.Topic)
		return g.handleGenerationFailure(ctx, opts, "response could not be parsed"), nil
	}

	rand.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	if len(questions) > opts.Count {
		questions = questions[:opts.Count]
	}
	for i := range questions {
		questions[i].ID = i
	}
	g.logger.Info("Quiz generated", "topic", opts.Topic, "questions", len(questions))
	return questions, nil
}

// handleGenerationFailure makes one final attempt with the simplest possible
// single-question prompt, then falls back to a placeholder.
func (g *Generator) handleGenerationFailure(ctx context.Context, opts GenerateOptions, reason string) []Question {
	g.logger.Error("Quiz generation failed, attempting simplified retry", "topic", opts.Topic, "reason", reason)

	response, err := g.registry.GenerateText(ctx, buildSimplifiedPrompt(opts.Topic, opts.Difficulty), opts.Provider)
	if err == nil && response != "" {
		if parsed := ParseTaggedQuestions(response, opts.Difficulty, MultipleChoice, opts.Topic); len(parsed) > 0 {
			g.logger.Info("Simplified retry produced a question", "topic", opts.Topic)
			return parsed[:1]
		}
		g.logger.Warn("Could not parse simplified retry response", "topic", opts.Topic)
	}

	g.logger.Error("All generation attempts failed, returning placeholder", "topic", opts.Topic)
	return []Question{{
		Text:        fmt.Sprintf("Failed to generate quiz question for %s. (Reason: %s)", opts.Topic, reason),
		Options:     []string{"Error", "-", "-", "-"},
		Answer:      "Error",
		Explanation: fmt.Sprintf("Quiz generation failed due to: %s. Please try again later or contact an admin.", reason),
		Difficulty:  opts.Difficulty,
		Category:    opts.Topic,
		Type:        MultipleChoice,
	}}
}
