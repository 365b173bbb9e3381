package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studybot/quizcore/pkg/llm"
)

// scriptedProvider returns canned responses in sequence.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) GenerateText(_ context.Context, _ string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no more scripted responses")
}

func TestGenerateQuizSuccess(t *testing.T) {
	provider := &scriptedProvider{responses: []string{sampleResponse}}
	g := NewGenerator(llm.NewRegistry(provider))

	questions, err := g.GenerateQuiz(context.Background(), GenerateOptions{
		Topic:      "France",
		Count:      2,
		Difficulty: "easy",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if provider.calls != 1 {
		t.Fatalf("expected a single LLM call, got %d", provider.calls)
	}
}

func TestGenerateQuizSimplifiedRetry(t *testing.T) {
	single := `<QUESTION>Retry question?</QUESTION>
<OPTION_A>Yes</OPTION_A>
<OPTION_B>No</OPTION_B>
<OPTION_C>Maybe</OPTION_C>
<OPTION_D>Never</OPTION_D>
<CORRECT>A</CORRECT>
<EXPLANATION>The retry worked.</EXPLANATION>`

	// First response is unparseable; the simplified retry succeeds.
	provider := &scriptedProvider{responses: []string{"garbage with no tags whatsoever", single}}
	g := NewGenerator(llm.NewRegistry(provider))

	questions, err := g.GenerateQuiz(context.Background(), GenerateOptions{Topic: "retries"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected exactly the retry question, got %d", len(questions))
	}
	if questions[0].Answer != "Yes" {
		t.Fatalf("wrong question: %+v", questions[0])
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 LLM calls, got %d", provider.calls)
	}
}

func TestGenerateQuizPlaceholderOnTotalFailure(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("down"), errors.New("still down")}}
	g := NewGenerator(llm.NewRegistry(provider))

	questions, err := g.GenerateQuiz(context.Background(), GenerateOptions{Topic: "outage"})
	if err != nil {
		t.Fatalf("placeholder path must not error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected single placeholder, got %d", len(questions))
	}
	if questions[0].Answer != "Error" || !strings.Contains(questions[0].Text, "outage") {
		t.Fatalf("unexpected placeholder: %+v", questions[0])
	}
}

func TestGenerateQuizRequiresTopic(t *testing.T) {
	g := NewGenerator(llm.NewRegistry(&scriptedProvider{}))
	if _, err := g.GenerateQuiz(context.Background(), GenerateOptions{}); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}
