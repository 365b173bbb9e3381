package quiz

import "fmt"

// QuizType selects a prompt style.
type QuizType string

const (
	QuizStandard    QuizType = "standard"
	QuizTrivia      QuizType = "trivia"
	QuizEducational QuizType = "educational"
)

const standardPrompt = `You are an expert quiz master. Create %d multiple-choice questions about '%s' at %s difficulty.

ANSWER OPTION RULES (HIGHEST PRIORITY):
- All options must have similar length and structure
- No revealing information like dates in parentheses
- No placeholder HTML, Markdown, or code elements
- No nested or malformed XML tags

FORMAT REQUIREMENTS:
- Use the exact XML-like tags below
- NO text outside the tags
- OPTION_A is ALWAYS correct
- Provide four distinct options (A-D)
- B, C, D must be plausible but wrong
- Maintain precise opening/closing tags
- DO NOT nest tags or use incomplete tags
- DO NOT add attributes to tags

REQUIRED FORMAT:
<QUESTION>Clear, specific question about %s</QUESTION>
<OPTION_A>The correct answer</OPTION_A>
<OPTION_B>Plausible but incorrect</OPTION_B>
<OPTION_C>Plausible but incorrect</OPTION_C>
<OPTION_D>Plausible but incorrect</OPTION_D>
<CORRECT>A</CORRECT>
<EXPLANATION>Why A is correct and others are wrong</EXPLANATION>

Repeat for all %d questions.`

const triviaPrompt = `You are a trivia expert with encyclopedic knowledge. Create %d engaging trivia questions about '%s' at %s level.

TRIVIA GUIDELINES:
- Use verified facts from authoritative sources
- Include fascinating details that surprise and educate
- Make questions specific with one clear answer

FORMAT REQUIREMENTS:
- Use the exact XML-like tags below
- NO text outside the tags
- OPTION_A is ALWAYS correct
- B, C, D must be plausible but wrong

REQUIRED FORMAT:
<QUESTION>Engaging trivia question about %s</QUESTION>
<OPTION_A>The correct answer - factual and verifiable</OPTION_A>
<OPTION_B>Plausible but incorrect - common misconception</OPTION_B>
<OPTION_C>Related but wrong - factual error</OPTION_C>
<OPTION_D>Reasonable but incorrect - distinct option</OPTION_D>
<CORRECT>A</CORRECT>
<EXPLANATION>Why A is correct, interesting context, brief note on wrong answers</EXPLANATION>

Repeat for all %d questions.`

const educationalPrompt = `You are a patient teacher. Create %d educational questions testing understanding of '%s' at %s level.

FORMAT REQUIREMENTS:
- Use the exact XML-like tags below
- NO text outside the tags
- OPTION_A is ALWAYS correct

REQUIRED FORMAT:
<QUESTION>Educational question testing understanding of %s</QUESTION>
<OPTION_A>Correct answer showing complete understanding</OPTION_A>
<OPTION_B>Common misconception or partial understanding</OPTION_B>
<OPTION_C>Different misconception or incomplete grasp</OPTION_C>
<OPTION_D>Another typical error students make</OPTION_D>
<CORRECT>A</CORRECT>
<EXPLANATION>Mini-lesson explaining the concept, why A is right, addressing misconceptions</EXPLANATION>

Repeat for all %d questions.`

const trueFalsePrompt = `Create %d true/false statements about '%s' at %s difficulty.

RULES:
- <CORRECT> must contain ONLY "TRUE" or "FALSE"
- NO text outside the tags

REQUIRED FORMAT:
<QUESTION>Clear, unambiguous statement about %s</QUESTION>
<CORRECT>TRUE or FALSE only</CORRECT>
<EXPLANATION>Why the statement is true/false, supporting evidence, correct information if false</EXPLANATION>

Repeat for all %d statements.`

// simplifiedPrompt is the last-ditch single-question retry used when the
// full generation could not be parsed.
const simplifiedPrompt = `Create EXACTLY ONE simple multiple-choice question about '%s'.
Use difficulty: %s.

FOLLOW THIS EXACT FORMAT, with tags:

<QUESTION>
Write one clear, specific question about %s?
</QUESTION>

<OPTION_A>
First option (make this the correct answer - accurate and factual)
</OPTION_A>

<OPTION_B>
Second option (make this plausible but incorrect)
</OPTION_B>

<OPTION_C>
Third option (make this plausible but incorrect)
</OPTION_C>

<OPTION_D>
Fourth option (make this plausible but incorrect)
</OPTION_D>

<CORRECT>A</CORRECT>

<EXPLANATION>
Brief explanation why the correct answer is right
</EXPLANATION>

IMPORTANT RULES:
- OPTION_A must be the correct answer
- All options must have similar length and structure
- No revealing information like dates in parentheses
- Use exact tags as shown - correct closing tags are essential

The answer will be randomized when presented to the user.`

// buildPrompt formats the generation prompt for a quiz style.
func buildPrompt(quizType QuizType, questionType QuestionType, topic, difficulty string, count int) string {
	if questionType == TrueFalse {
		return fmt.Sprintf(trueFalsePrompt, count, topic, difficulty, topic, count)
	}
	template := standardPrompt
	switch quizType {
	case QuizTrivia:
		template = triviaPrompt
	case QuizEducational:
		template = educationalPrompt
	}
	return fmt.Sprintf(template, count, topic, difficulty, topic, count)
}

func buildSimplifiedPrompt(topic, difficulty string) string {
	return fmt.Sprintf(simplifiedPrompt, topic, difficulty, topic)
}
