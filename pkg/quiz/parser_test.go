package quiz

import (
	"strings"
	"testing"
)

const sampleResponse = `<QUESTION>What is the capital of France?</QUESTION>
<OPTION_A>Paris</OPTION_A>
<OPTION_B>Lyon</OPTION_B>
<OPTION_C>Marseille</OPTION_C>
<OPTION_D>Nice</OPTION_D>
<CORRECT>A</CORRECT>
<EXPLANATION>Paris has been the capital since 987.</EXPLANATION>

<QUESTION>Which river runs through Paris?</QUESTION>
<OPTION_A>The Seine</OPTION_A>
<OPTION_B>The Loire</OPTION_B>
<OPTION_C>The Rhone</OPTION_C>
<OPTION_D>The Garonne</OPTION_D>
<CORRECT>A</CORRECT>
<EXPLANATION>The Seine crosses the city east to west.</EXPLANATION>`

func TestParseTaggedQuestions(t *testing.T) {
	questions := ParseTaggedQuestions(sampleResponse, "easy", MultipleChoice, "geography")
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	q := questions[0]
	if q.Text != "What is the capital of France?" {
		t.Fatalf("wrong question text: %q", q.Text)
	}
	if q.Answer != "Paris" {
		t.Fatalf("wrong answer: %q", q.Answer)
	}
	if len(q.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(q.Options))
	}
	found := false
	for _, opt := range q.Options {
		if opt == q.Answer {
			found = true
		}
	}
	if !found {
		t.Fatalf("answer not present in options: %v", q.Options)
	}
	if q.Explanation == "" || q.Difficulty != "easy" || q.Category != "geography" {
		t.Fatalf("metadata lost: %+v", q)
	}
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	response := `<QUESTION>Broken block with no correct marker?</QUESTION>
<OPTION_A>Something</OPTION_A>

<QUESTION>Valid one?</QUESTION>
<OPTION_A>Yes</OPTION_A>
<OPTION_B>No</OPTION_B>
<OPTION_C>Maybe</OPTION_C>
<OPTION_D>Never</OPTION_D>
<CORRECT>A</CORRECT>
<EXPLANATION>It is valid.</EXPLANATION>`

	questions := ParseTaggedQuestions(response, "medium", MultipleChoice, "test")
	if len(questions) != 1 {
		t.Fatalf("expected the malformed block skipped, got %d questions", len(questions))
	}
	if questions[0].Answer != "Yes" {
		t.Fatalf("wrong surviving question: %+v", questions[0])
	}
}

func TestParseCorrectMarkerOtherThanA(t *testing.T) {
	response := `<QUESTION>Pick B?</QUESTION>
<OPTION_A>Wrong</OPTION_A>
<OPTION_B>Right</OPTION_B>
<OPTION_C>Also wrong</OPTION_C>
<OPTION_D>Still wrong</OPTION_D>
<CORRECT>B</CORRECT>
<EXPLANATION>B it is.</EXPLANATION>`

	questions := ParseTaggedQuestions(response, "medium", MultipleChoice, "test")
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if questions[0].Answer != "Right" {
		t.Fatalf("answer should follow the marker, got %q", questions[0].Answer)
	}
}

func TestParseTrueFalse(t *testing.T) {
	response := `<QUESTION>The Earth orbits the Sun.</QUESTION>
<CORRECT>TRUE</CORRECT>
<EXPLANATION>Heliocentrism.</EXPLANATION>

<QUESTION>Water boils at 50C at sea level.</QUESTION>
<CORRECT>maybe</CORRECT>
<EXPLANATION>Nope.</EXPLANATION>`

	questions := ParseTaggedQuestions(response, "easy", TrueFalse, "science")
	if len(questions) != 1 {
		t.Fatalf("invalid TRUE/FALSE values must be skipped, got %d", len(questions))
	}
	if questions[0].Answer != "TRUE" {
		t.Fatalf("wrong answer: %q", questions[0].Answer)
	}
	if len(questions[0].Options) != 2 {
		t.Fatalf("true/false needs 2 options, got %v", questions[0].Options)
	}
}

func TestParseEmptyResponse(t *testing.T) {
	if got := ParseTaggedQuestions("", "easy", MultipleChoice, "x"); got != nil {
		t.Fatalf("expected nil for empty response, got %v", got)
	}
	if got := ParseTaggedQuestions("short", "easy", MultipleChoice, "x"); got != nil {
		t.Fatalf("expected nil for tiny response, got %v", got)
	}
}

func TestParseTruncatesLongExplanations(t *testing.T) {
	long := strings.Repeat("e", 900)
	response := `<QUESTION>Q?</QUESTION>
<OPTION_A>A1</OPTION_A>
<OPTION_B>B1</OPTION_B>
<OPTION_C>C1</OPTION_C>
<OPTION_D>D1</OPTION_D>
<CORRECT>A</CORRECT>
<EXPLANATION>` + long + `</EXPLANATION>`

	questions := ParseTaggedQuestions(response, "hard", MultipleChoice, "test")
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if len(questions[0].Explanation) > maxExplanationLen {
		t.Fatalf("explanation not truncated: %d chars", len(questions[0].Explanation))
	}
	if !strings.HasSuffix(questions[0].Explanation, "...") {
		t.Fatalf("expected ellipsis suffix")
	}
}
