// Package quiz generates multiple-choice and true/false questions with an
// LLM, parses the tagged response format, and degrades gracefully when
// generation fails.
package quiz

// QuestionType selects the answer structure.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
)

// Content length limits, applied after parsing. Discord embeds truncate
// silently past these.
const (
	maxQuestionLen    = 256
	maxChoiceLen      = 100
	maxExplanationLen = 500
)

// Question is one generated quiz item. Answer holds the correct option's
// text, already positioned randomly within Options.
type Question struct {
	ID          int          `json:"id"`
	Text        string       `json:"question"`
	Options     []string     `json:"options"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation"`
	Difficulty  string       `json:"difficulty"`
	Category    string       `json:"category"`
	Type        QuestionType `json:"question_type"`
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
