package game

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/studybot/quizcore/pkg/quiz"
	"github.com/studybot/quizcore/pkg/stats"
	"github.com/studybot/quizcore/pkg/ui"
)

type fakeRecorder struct {
	calls   int
	correct int
	total   int
	outcome *stats.QuizOutcome
	err     error
}

func (f *fakeRecorder) RecordQuizResult(_ context.Context, _, _ int64, correct, total int, _ stats.Difficulty) (*stats.QuizOutcome, error) {
	f.calls++
	f.correct = correct
	f.total = total
	return f.outcome, f.err
}

type captureResponder struct {
	ephemeral  []string
	content    string
	embeds     []*discordgo.MessageEmbed
	components []discordgo.MessageComponent
	updates    int
}

func (r *captureResponder) RespondEphemeral(_ *discordgo.InteractionCreate, content string) error {
	r.ephemeral = append(r.ephemeral, content)
	return nil
}

func (r *captureResponder) UpdateMessage(_ *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	r.updates++
	r.content = content
	r.embeds = embeds
	r.components = components
	return nil
}

func testQuestions() []quiz.Question {
	return []quiz.Question{
		{
			ID:      1,
			Text:    "What is the capital of France?",
			Options: []string{"Paris", "London", "Berlin", "Madrid"},
			Answer:  "Paris",
		},
		{
			ID:          2,
			Text:        "Which river flows through Paris?",
			Options:     []string{"Thames", "Seine", "Rhine", "Danube"},
			Answer:      "Seine",
			Explanation: "The Seine crosses Paris from east to west.",
		},
	}
}

func newTestRunner(t *testing.T) (*Runner, *fakeRecorder) {
	t.Helper()
	recorder := &fakeRecorder{outcome: &stats.QuizOutcome{NewStreak: 1}}
	runner := NewRunner(ui.NewManager(nil), recorder)
	if err := runner.RegisterHandlers(); err != nil {
		t.Fatalf("register handlers: %v", err)
	}
	return runner, recorder
}

func answerState(s *quizSession, question, choice int64) *ui.ButtonState {
	return &ui.ButtonState{
		OwnerID: s.ownerID,
		Action:  ui.ActionStatic,
		Data:    ui.Payload{"s": s.token, "q": question, "c": choice},
	}
}

func testClick(runner *Runner, responder *captureResponder, state *ui.ButtonState) error {
	h := &answerHandler{runner: runner}
	ic := &ui.Interaction{
		Event:     &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}},
		Responder: responder,
		UserID:    state.OwnerID,
	}
	return h.Handle(context.Background(), ic, state)
}

func TestQuizSessionProgression(t *testing.T) {
	runner, recorder := newTestRunner(t)
	session := runner.startSession(42, 5001, "France", "medium", testQuestions())

	responder := &captureResponder{}

	// Correct answer to question 1 advances to question 2.
	if err := testClick(runner, responder, answerState(session, 0, 0)); err != nil {
		t.Fatalf("answer 1: %v", err)
	}
	if responder.updates != 1 || len(responder.embeds) != 1 {
		t.Fatalf("expected an in-place update with one embed")
	}
	if len(responder.components) == 0 {
		t.Fatalf("next question should carry answer buttons")
	}
	if recorder.calls != 0 {
		t.Fatalf("result recorded before the quiz ended")
	}

	// Wrong answer to question 2 finishes the quiz.
	if err := testClick(runner, responder, answerState(session, 1, 0)); err != nil {
		t.Fatalf("answer 2: %v", err)
	}
	if recorder.calls != 1 {
		t.Fatalf("recorder called %d times, want 1", recorder.calls)
	}
	if recorder.correct != 1 || recorder.total != 2 {
		t.Fatalf("recorded %d/%d, want 1/2", recorder.correct, recorder.total)
	}
	if len(responder.components) != 0 {
		t.Fatalf("finished quiz must drop its buttons")
	}
	if runner.ActiveSessions() != 0 {
		t.Fatalf("finished session still tracked")
	}
}

func TestQuizStaleQuestionClick(t *testing.T) {
	runner, recorder := newTestRunner(t)
	session := runner.startSession(42, 0, "France", "easy", testQuestions())

	responder := &captureResponder{}
	if err := testClick(runner, responder, answerState(session, 0, 0)); err != nil {
		t.Fatalf("answer: %v", err)
	}

	// Second click on the already-answered question.
	if err := testClick(runner, responder, answerState(session, 0, 1)); err != nil {
		t.Fatalf("stale click: %v", err)
	}
	if len(responder.ephemeral) != 1 {
		t.Fatalf("stale click should get an ephemeral reply")
	}
	if recorder.calls != 0 {
		t.Fatalf("stale click must not record anything")
	}
}

func TestQuizUnknownSession(t *testing.T) {
	runner, recorder := newTestRunner(t)

	responder := &captureResponder{}
	state := &ui.ButtonState{OwnerID: 42, Action: ui.ActionStatic, Data: ui.Payload{"s": "gone1234", "q": int64(0), "c": int64(0)}}
	if err := testClick(runner, responder, state); err != nil {
		t.Fatalf("click: %v", err)
	}
	if len(responder.ephemeral) != 1 {
		t.Fatalf("unknown session should get an ephemeral reply")
	}
	if recorder.calls != 0 {
		t.Fatalf("unknown session must not record anything")
	}
}

func TestQuizFinishedSessionCannotDoubleRecord(t *testing.T) {
	runner, recorder := newTestRunner(t)
	questions := testQuestions()[:1]
	session := runner.startSession(42, 0, "France", "hard", questions)

	responder := &captureResponder{}
	if err := testClick(runner, responder, answerState(session, 0, 0)); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := testClick(runner, responder, answerState(session, 0, 0)); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if recorder.calls != 1 {
		t.Fatalf("recorder called %d times, want 1", recorder.calls)
	}
}

func TestQuestionViewUsesMemoryMode(t *testing.T) {
	runner, _ := newTestRunner(t)
	session := runner.startSession(42, 0, "France", "medium", testQuestions())

	view, err := runner.questionView(session)
	if err != nil {
		t.Fatalf("question view: %v", err)
	}
	if view.ButtonCount() != 4 {
		t.Fatalf("got %d buttons, want 4", view.ButtonCount())
	}
	if view.PendingCount() != 0 {
		t.Fatalf("memory-mode buttons must not wait on a durable write")
	}
	if runner.manager.Table().Len() != 4 {
		t.Fatalf("memory-mode buttons missing from the recovery table")
	}
}

func TestResultEmbedShowsProgress(t *testing.T) {
	session := &quizSession{topic: "France", difficulty: "medium", questions: testQuestions()}
	outcome := &stats.QuizOutcome{
		Breakdown:       stats.XPBreakdown{TotalXP: 52},
		NewLevel:        2,
		LeveledUp:       true,
		NewStreak:       3,
		StreakMilestone: 3,
		Celebration:     "basic",
	}

	embed := resultEmbed(session, 2, outcome)
	if len(embed.Fields) != 2 {
		t.Fatalf("got %d fields, want XP and progress", len(embed.Fields))
	}

	plain := resultEmbed(session, 2, nil)
	if len(plain.Fields) != 0 {
		t.Fatalf("stats failure should fall back to a score-only embed")
	}
}
