// Package game implements the /quiz command and the in-flight quiz session
// runtime behind its answer buttons.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/studybot/quizcore/pkg/log"
	"github.com/studybot/quizcore/pkg/quiz"
	"github.com/studybot/quizcore/pkg/stats"
	"github.com/studybot/quizcore/pkg/ui"
)

// NameQuizAnswer is the wire identifier of the answer button handler.
const NameQuizAnswer = "QuizAnswerHandler"

// sessionTTL bounds how long an unanswered quiz stays alive. Answer buttons
// expire together with the session.
const sessionTTL = 15 * time.Minute

const answerLetters = "ABCD"

// resultRecorder is the slice of the stats service the runner needs.
type resultRecorder interface {
	RecordQuizResult(ctx context.Context, userID, guildID int64, correct, total int, difficulty stats.Difficulty) (*stats.QuizOutcome, error)
}

type quizSession struct {
	token      string
	ownerID    int64
	guildID    int64
	topic      string
	difficulty string
	questions  []quiz.Question
	index      int
	correct    int
	createdAt  time.Time
}

// Runner owns active quiz sessions and the button handler that advances
// them. Sessions are process-local: answer buttons are memory-mode, so a
// restart ends in-flight quizzes and the user starts over.
type Runner struct {
	manager  *ui.Manager
	recorder resultRecorder
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*quizSession
}

// NewRunner creates a quiz runner.
func NewRunner(m *ui.Manager, recorder resultRecorder) *Runner {
	return &Runner{
		manager:  m,
		recorder: recorder,
		logger:   log.ApplicationLogger(),
		sessions: make(map[string]*quizSession),
	}
}

// RegisterHandlers binds the answer handler. Must run during boot, before
// the dispatcher is attached to the gateway.
func (r *Runner) RegisterHandlers() error {
	return r.manager.RegisterHandler(NameQuizAnswer, &answerHandler{runner: r})
}

// ActiveSessions returns the number of in-flight quizzes.
func (r *Runner) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Runner) startSession(ownerID, guildID int64, topic, difficulty string, questions []quiz.Question) *quizSession {
	s := &quizSession{
		token:      uuid.NewString()[:8],
		ownerID:    ownerID,
		guildID:    guildID,
		topic:      topic,
		difficulty: difficulty,
		questions:  questions,
		createdAt:  time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for token, old := range r.sessions {
		if time.Since(old.createdAt) > sessionTTL {
			delete(r.sessions, token)
		}
	}
	r.sessions[s.token] = s
	return s
}

// answerOutcome is the immutable result of applying one answer.
type answerOutcome struct {
	known         bool
	stale         bool
	wasCorrect    bool
	correctAnswer string
	explanation   string
	finished      bool
	correctTotal  int
	session       *quizSession
}

// applyAnswer advances a session by one answer under the runner lock. A
// finished session is removed before the lock is released, so a double click
// on the last question cannot record the quiz twice.
func (r *Runner) applyAnswer(token string, questionIdx, choiceIdx int64) answerOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return answerOutcome{}
	}
	if int(questionIdx) != s.index {
		return answerOutcome{known: true, stale: true, session: s}
	}

	q := s.questions[s.index]
	out := answerOutcome{
		known:         true,
		correctAnswer: q.Answer,
		explanation:   q.Explanation,
		session:       s,
	}
	if choiceIdx >= 0 && int(choiceIdx) < len(q.Options) && q.Options[choiceIdx] == q.Answer {
		out.wasCorrect = true
		s.correct++
	}

	s.index++
	if s.index >= len(s.questions) {
		out.finished = true
		out.correctTotal = s.correct
		delete(r.sessions, token)
	}
	return out
}

// questionView mints the answer buttons for the session's current question.
func (r *Runner) questionView(s *quizSession) (*ui.View, error) {
	view := r.manager.NewView("QuizQuestionView", ui.ModeMemory)
	q := s.questions[s.index]
	for idx := range q.Options {
		_, err := view.AddButton(ui.ButtonOptions{
			HandlerName: NameQuizAnswer,
			OwnerID:     s.ownerID,
			GuildID:     s.guildID,
			Action:      ui.ActionStatic,
			ExpiresIn:   sessionTTL,
			Data: ui.Payload{
				"s": s.token,
				"q": int64(s.index),
				"c": int64(idx),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("add answer button %d: %w", idx, err)
		}
	}
	return view, nil
}

// answerHandler reacts to answer button clicks.
type answerHandler struct {
	runner *Runner
}

func (h *answerHandler) Config(state *ui.ButtonState) ui.ButtonConfig {
	choice, _ := state.Data.Int("c")
	label := "?"
	if choice >= 0 && int(choice) < len(answerLetters) {
		label = string(answerLetters[choice])
	}
	return ui.ButtonConfig{Style: discordgo.PrimaryButton, Label: label}
}

func (h *answerHandler) Handle(ctx context.Context, ic *ui.Interaction, state *ui.ButtonState) error {
	token, _ := state.Data.String("s")
	questionIdx, _ := state.Data.Int("q")
	choiceIdx, _ := state.Data.Int("c")

	out := h.runner.applyAnswer(token, questionIdx, choiceIdx)
	if !out.known {
		return ic.Responder.RespondEphemeral(ic.Event, "This quiz has ended. Start a new one with `/quiz`.")
	}
	if out.stale {
		return ic.Responder.RespondEphemeral(ic.Event, "That question was already answered.")
	}

	feedback := answerFeedback(out)

	if !out.finished {
		view, err := h.runner.questionView(out.session)
		if err != nil {
			return fmt.Errorf("build next question: %w", err)
		}
		embed := questionEmbed(out.session)
		return ic.Responder.UpdateMessage(ic.Event, feedback, []*discordgo.MessageEmbed{embed}, view.Components())
	}

	embed := h.finishQuiz(ctx, out)
	return ic.Responder.UpdateMessage(ic.Event, feedback, []*discordgo.MessageEmbed{embed}, []discordgo.MessageComponent{})
}

// finishQuiz records the result and builds the final embed. A stats failure
// still shows the score; XP is dropped, not retried, and the error is
// logged.
func (h *answerHandler) finishQuiz(ctx context.Context, out answerOutcome) *discordgo.MessageEmbed {
	s := out.session
	total := len(s.questions)

	outcome, err := h.runner.recorder.RecordQuizResult(ctx, s.ownerID, s.guildID, out.correctTotal, total, stats.Difficulty(s.difficulty))
	if err != nil {
		h.runner.logger.Error("Failed to record quiz result",
			"user", s.ownerID,
			"topic", s.topic,
			"error", err)
		return resultEmbed(s, out.correctTotal, nil)
	}
	return resultEmbed(s, out.correctTotal, outcome)
}

func answerFeedback(out answerOutcome) string {
	if out.wasCorrect {
		if out.explanation != "" {
			return "✅ Correct! " + out.explanation
		}
		return "✅ Correct!"
	}
	feedback := fmt.Sprintf("❌ Wrong. The answer was **%s**.", out.correctAnswer)
	if out.explanation != "" {
		feedback += " " + out.explanation
	}
	return feedback
}

const quizEmbedColor = 0x5865F2

func questionEmbed(s *quizSession) *discordgo.MessageEmbed {
	q := s.questions[s.index]

	var sb strings.Builder
	for idx, opt := range q.Options {
		if idx < len(answerLetters) {
			fmt.Fprintf(&sb, "**%c.** %s\n", answerLetters[idx], opt)
		}
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Question %d of %d", s.index+1, len(s.questions)),
		Description: q.Text + "\n\n" + sb.String(),
		Color:       quizEmbedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s · %s", s.topic, s.difficulty),
		},
	}
}

func resultEmbed(s *quizSession, correct int, outcome *stats.QuizOutcome) *discordgo.MessageEmbed {
	total := len(s.questions)
	embed := &discordgo.MessageEmbed{
		Title: "Quiz complete! 🎉",
		Color: quizEmbedColor,
		Description: fmt.Sprintf("You scored **%d/%d** on %s.", correct, total, s.topic),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s · %s", s.topic, s.difficulty),
		},
	}
	if outcome == nil {
		return embed
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "XP earned",
		Value: stats.FormatBreakdown(outcome.Breakdown, stats.Difficulty(s.difficulty)),
	})

	var lines []string
	if outcome.LeveledUp {
		lines = append(lines, fmt.Sprintf("🎖️ Level up! You reached **level %d**.", outcome.NewLevel))
	}
	if outcome.StreakMilestone > 0 {
		lines = append(lines, fmt.Sprintf("🔥 %d-day streak milestone! (%s)", outcome.StreakMilestone, outcome.Celebration))
	} else if outcome.NewStreak > 1 {
		lines = append(lines, fmt.Sprintf("🔥 %d-day streak.", outcome.NewStreak))
	}
	if len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Progress",
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}
