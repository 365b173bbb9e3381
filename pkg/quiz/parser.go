package quiz

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/studybot/quizcore/pkg/log"
)

var (
	questionRe    = regexp.MustCompile(`(?s)<QUESTION>(.*?)</QUESTION>`)
	correctRe     = regexp.MustCompile(`(?s)<CORRECT>(.*?)</CORRECT>`)
	explanationRe = regexp.MustCompile(`(?s)<EXPLANATION>(.*?)</EXPLANATION>`)
)

var optionRes = map[string]*regexp.Regexp{
	"A": regexp.MustCompile(`(?s)<OPTION_A>(.*?)</OPTION_A>`),
	"B": regexp.MustCompile(`(?s)<OPTION_B>(.*?)</OPTION_B>`),
	"C": regexp.MustCompile(`(?s)<OPTION_C>(.*?)</OPTION_C>`),
	"D": regexp.MustCompile(`(?s)<OPTION_D>(.*?)</OPTION_D>`),
}

// ParseTaggedQuestions extracts questions from the XML-like tag format.
// Malformed blocks are skipped, not fatal; the correct answer's position is
// randomized within the returned options.
func ParseTaggedQuestions(responseText, difficulty string, questionType QuestionType, category string) []Question {
	logger := log.ApplicationLogger()

	if len(responseText) < 20 {
		logger.Error("Response too short or empty to parse")
		return nil
	}

	var questions []Question
	for _, block := range splitQuestionBlocks(responseText) {
		q, err := parseBlock(block, difficulty, questionType, category)
		if err != nil {
			logger.Warn("Skipping malformed question block", "err", err)
			continue
		}
		q.ID = len(questions)
		questions = append(questions, q)
	}
	return questions
}

// splitQuestionBlocks splits on <QUESTION> markers, keeping the marker with
// its block.
func splitQuestionBlocks(text string) []string {
	parts := strings.Split(text, "<QUESTION>")
	var blocks []string
	for _, p := range parts[1:] {
		blocks = append(blocks, "<QUESTION>"+p)
	}
	return blocks
}

func parseBlock(block, difficulty string, questionType QuestionType, category string) (Question, error) {
	questionMatch := questionRe.FindStringSubmatch(block)
	if questionMatch == nil {
		return Question{}, fmt.Errorf("missing question text")
	}
	questionText := strings.TrimSpace(questionMatch[1])

	correctMatch := correctRe.FindStringSubmatch(block)
	if correctMatch == nil {
		return Question{}, fmt.Errorf("missing correct answer marker in %q", truncate(questionText, 50))
	}
	correctIndicator := strings.TrimSpace(correctMatch[1])

	var (
		options []string
		answer  string
	)
	switch questionType {
	case TrueFalse:
		answer = strings.ToUpper(correctIndicator)
		if answer != "TRUE" && answer != "FALSE" {
			return Question{}, fmt.Errorf("invalid true/false value %q", correctIndicator)
		}
		options = []string{"TRUE", "FALSE"}

	case MultipleChoice:
		found := make(map[string]string)
		for letter, re := range optionRes {
			if m := re.FindStringSubmatch(block); m != nil {
				found[letter] = strings.TrimSpace(m[1])
			}
		}
		var ok bool
		answer, ok = found[correctIndicator]
		if !ok {
			return Question{}, fmt.Errorf("correct marker %q matches no option in %q", correctIndicator, truncate(questionText, 50))
		}
		options = shuffleOptions(found, answer)

	default:
		return Question{}, fmt.Errorf("unsupported question type %q", questionType)
	}

	explanation := ""
	if m := explanationRe.FindStringSubmatch(block); m != nil {
		explanation = strings.TrimSpace(m[1])
	}

	for i := range options {
		options[i] = truncate(options[i], maxChoiceLen)
	}
	return Question{
		Text:        truncate(questionText, maxQuestionLen),
		Options:     options,
		Answer:      truncate(answer, maxChoiceLen),
		Explanation: truncate(explanation, maxExplanationLen),
		Difficulty:  difficulty,
		Category:    category,
		Type:        questionType,
	}, nil
}

// shuffleOptions randomizes where the correct answer lands, pads to four
// entries, and never drops the correct answer.
func shuffleOptions(found map[string]string, answer string) []string {
	var rest []string
	for _, opt := range found {
		if opt != answer {
			rest = append(rest, opt)
		}
	}
	rand.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	pos := rand.Intn(min(len(rest), 3) + 1)
	options := make([]string, 0, 4)
	options = append(options, rest[:pos]...)
	options = append(options, answer)
	options = append(options, rest[pos:]...)

	if len(options) > 4 {
		options = options[:4]
		if !contains(options, answer) {
			options[3] = answer
		}
	}
	for len(options) < 4 {
		options = append(options, fmt.Sprintf("Missing option %d", len(options)+1))
	}
	return options
}

func contains(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}
