// Package prompt renders practice context into generation requests.
//
// Every builder is pure. Topic and answer text are embedded verbatim.
package prompt

import (
	"fmt"
	"strings"

	"github.com/rbright/rehearse/internal/generation"
	"github.com/rbright/rehearse/internal/interpret"
	"github.com/rbright/rehearse/internal/locale"
)

const (
	// ConversationQuestionLimit caps a conversational interview.
	ConversationQuestionLimit = 5
	// DefaultQuestionCount is used when a caller asks for zero questions.
	DefaultQuestionCount = 5
	// QuizOptionCount is the fixed number of options per quiz question.
	QuizOptionCount = 4

	// KickoffMessage opens a conversational interview.
	KickoffMessage = "Let's start the interview."
)

// SystemInstruction returns the conversational interview-coach instruction.
func SystemInstruction(topic string, lang locale.Language) string {
	name := lang.Name
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert-level interview coach for a candidate applying for a %s position.\n", topic)
	fmt.Fprintf(&b, "Your role is to conduct a realistic job interview in %s. All your questions and feedback must be in %s.\n", name, name)
	fmt.Fprintf(&b, "- Start the interview with a standard opening question in %s.\n", name)
	b.WriteString("- Ask one question at a time.\n")
	b.WriteString("- After the user answers a question, provide constructive feedback based on the STAR method (Situation, Task, Action, Result), clarity, and conciseness. Format the feedback in markdown.\n")
	fmt.Fprintf(&b, "- After providing feedback, ask the next logical interview question on a new paragraph that begins with %q.\n", interpret.NextQuestionLabel)
	fmt.Fprintf(&b, "- Keep the interview to %d questions. After the feedback for question %d, conclude the interview by saying %q (or its equivalent in %s) and then write %s on its own line.\n",
		ConversationQuestionLimit, ConversationQuestionLimit, interpret.Sentinel, name, interpret.EndMarker)
	b.WriteString("- Your tone should be professional, encouraging, and helpful.\n")
	return b.String()
}

// ConversationStart returns the request that produces the first question.
func ConversationStart(topic string, lang locale.Language) generation.Request {
	return generation.UserText(SystemInstruction(topic, lang), KickoffMessage, nil)
}

// FeedbackTurn returns the user message asking for feedback and the next question.
func FeedbackTurn(question string, answer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user was asked: \"%s\"\n", question)
	fmt.Fprintf(&b, "They responded: \"%s\"\n\n", answer)
	b.WriteString("Please provide feedback on their response. Analyze it for clarity, conciseness, and effective use of the STAR method where applicable.\n")
	b.WriteString("Format your feedback in markdown with these headings:\n")
	b.WriteString("- **Clarity**\n- **Conciseness**\n- **STAR Method**\n\n")
	fmt.Fprintf(&b, "After the feedback, present the next interview question prefixed with %q. ", interpret.NextQuestionLabel)
	fmt.Fprintf(&b, "If you have asked %d questions, conclude the interview instead.\n", ConversationQuestionLimit)
	return b.String()
}

// ConversationTurn returns the request for one answered conversational turn.
// history holds every committed turn starting with the kickoff message.
func ConversationTurn(topic string, lang locale.Language, history []generation.Turn, question string, answer string) generation.Request {
	turns := make([]generation.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, generation.Turn{Role: generation.RoleUser, Text: FeedbackTurn(question, answer)})
	return generation.Request{System: SystemInstruction(topic, lang), Turns: turns}
}

// Quiz returns the request for a multiple-choice quiz.
func Quiz(topic string, lang locale.Language, count int) generation.Request {
	count = questionCount(count)
	text := fmt.Sprintf(
		"Create a multiple-choice quiz with %d questions to help a candidate practice for a %s interview. "+
			"Write every question, option, and explanation in %s. "+
			"Each question must have exactly %d options, exactly one correct option, "+
			"the zero-based index of that option, and a one or two sentence explanation of the correct answer.",
		count, topic, lang.Name, QuizOptionCount,
	)
	return generation.UserText("", text, QuizSchema())
}

// InterviewQuestions returns the request for open-ended interview questions.
func InterviewQuestions(topic string, lang locale.Language, count int) generation.Request {
	count = questionCount(count)
	text := fmt.Sprintf(
		"Generate %d realistic interview questions for a candidate applying for a %s position. "+
			"Mix behavioral and technical questions and order them as an interviewer would. "+
			"Write every question in %s.",
		count, topic, lang.Name,
	)
	return generation.UserText("", text, QuestionsSchema())
}

// Feedback returns the request for feedback on one open-interview answer.
func Feedback(topic string, lang locale.Language, question string, answer string) generation.Request {
	text := fmt.Sprintf(
		"You are an interview coach for a %s position. The candidate was asked: \"%s\"\nThey responded: \"%s\"\n\n"+
			"Give concise, constructive feedback in %s covering clarity, conciseness, and use of the STAR method "+
			"(Situation, Task, Action, Result). Format the feedback in markdown.",
		topic, question, answer, lang.Name,
	)
	return generation.UserText("", text, FeedbackSchema())
}

// Summary returns the request for an end-of-interview performance summary.
func Summary(lang locale.Language, transcript string) generation.Request {
	text := fmt.Sprintf(
		"Based on the following interview transcript, please provide a comprehensive summary of the candidate's performance. "+
			"Analyze the candidate's tone (e.g., confident, hesitant, professional). Highlight strengths and areas for improvement. "+
			"Provide an overall score out of 10 and a brief summary paragraph. Write the summary in %s.\n\nTranscript:\n%s",
		lang.Name, transcript,
	)
	return generation.UserText("", text, SummarySchema())
}

func questionCount(count int) int {
	if count <= 0 {
		return DefaultQuestionCount
	}
	return count
}
