package prompt

import "github.com/rbright/rehearse/internal/generation"

// QuizSchema describes a list of multiple-choice questions.
func QuizSchema() *generation.Schema {
	return generation.ArrayOf("The quiz questions.", generation.Object("",
		generation.Field("question", generation.String("The question text.")),
		generation.Field("options", generation.ArrayOf("Exactly four answer options.", generation.String("")).
			WithItemCount(QuizOptionCount, QuizOptionCount)),
		generation.Field("correctAnswerIndex", generation.Integer("Zero-based index of the correct option.").
			WithRange(0, QuizOptionCount-1)),
		generation.Field("explanation", generation.String("Why the correct option is correct.")),
	))
}

// QuestionsSchema describes a list of open-ended interview questions.
func QuestionsSchema() *generation.Schema {
	return generation.ArrayOf("The interview questions.", generation.Object("",
		generation.Field("question", generation.String("The question text.")),
	))
}

// FeedbackSchema describes feedback for one answer.
func FeedbackSchema() *generation.Schema {
	return generation.Object("",
		generation.Field("feedback", generation.String("Markdown feedback on the answer.")),
	)
}

// SummarySchema describes an interview performance summary.
func SummarySchema() *generation.Schema {
	return generation.Object("",
		generation.Field("strengths", generation.ArrayOf("A list of the candidate's key strengths.", generation.String(""))),
		generation.Field("areasForImprovement", generation.ArrayOf("A list of areas where the candidate can improve.", generation.String(""))),
		generation.Field("overallScore", generation.Number("An overall performance score out of 10.").WithRange(0, 10)),
		generation.Field("summary", generation.String("A brief summary paragraph of the overall performance.")),
		generation.OptionalField("toneAnalysis", generation.String("A brief analysis of the candidate's tone throughout the interview (e.g., confident, hesitant, professional).")),
	)
}
