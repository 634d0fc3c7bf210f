package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/generation"
	"github.com/rbright/rehearse/internal/interpret"
	"github.com/rbright/rehearse/internal/locale"
)

// Kind selects the practice mode.
type Kind string

const (
	KindQuiz         Kind = "quiz"
	KindInterview    Kind = "interview"
	KindConversation Kind = "conversation"
)

// ParseKind resolves a mode name, accepting a few aliases.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "quiz":
		return KindQuiz, nil
	case "interview", "open", "open-interview":
		return KindInterview, nil
	case "conversation", "conversational", "chat", "voice":
		return KindConversation, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected quiz, interview, or conversation)", raw)
	}
}

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	// ErrBusy indicates another request for the session is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrStaleResponse indicates a response arrived for a discarded session.
	ErrStaleResponse = errors.New("response belongs to a discarded session")
	// ErrNoQuestions indicates the service produced an empty question set.
	ErrNoQuestions = errors.New("no questions generated")
	// ErrNotActive indicates the action requires an active session.
	ErrNotActive = errors.New("no active practice session")
	// ErrWrongMode indicates the action does not apply to the session mode.
	ErrWrongMode = errors.New("action not available in this mode")
	// ErrOptionOutOfRange indicates a quiz choice outside the option list.
	ErrOptionOutOfRange = errors.New("option out of range")
	// ErrAlreadyAnswered indicates the current question already has an answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered indicates advance was requested before answering.
	ErrNotAnswered = errors.New("current question has not been answered")
	// ErrEmptyAnswer indicates a blank answer submission.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrNoSummary indicates the session has not produced a summary yet.
	ErrNoSummary = errors.New("session summary not available")
)

// StartOptions describes a new practice session.
type StartOptions struct {
	Kind     Kind   `validate:"required,oneof=quiz interview conversation"`
	Topic    string `validate:"required,max=200"`
	Language string
}

// AnswerRecord is the candidate's response to one question.
type AnswerRecord struct {
	QuestionIndex  int       `json:"questionIndex"`
	SelectedOption *int      `json:"selectedOption,omitempty"`
	Text           string    `json:"text,omitempty"`
	IsCorrect      *bool     `json:"isCorrect,omitempty"`
	Feedback       string    `json:"feedback,omitempty"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

// TranscriptTurn is one message of a conversational interview.
type TranscriptTurn struct {
	Role     Role   `json:"role"`
	Text     string `json:"text"`
	Feedback string `json:"feedback,omitempty"`
}

// Summary is the immutable end-of-session result.
type Summary struct {
	Kind           Kind                        `json:"kind"`
	Score          int                         `json:"score,omitempty"`
	TotalQuestions int                         `json:"totalQuestions,omitempty"`
	Results        []AnswerRecord              `json:"results,omitempty"`
	Questions      []interpret.QuizQuestion    `json:"questions,omitempty"`
	Interview      *interpret.InterviewSummary `json:"interview,omitempty"`
	CompletedAt    time.Time                   `json:"completedAt"`
}

func (s *Summary) clone() Summary {
	out := *s
	out.Results = slices.Clone(s.Results)
	out.Questions = slices.Clone(s.Questions)
	return out
}

// Snapshot is a read-only view of the controller for presentation.
type Snapshot struct {
	SessionID      string        `json:"sessionId,omitempty"`
	Kind           Kind          `json:"kind,omitempty"`
	Topic          string        `json:"topic,omitempty"`
	Language       string        `json:"language,omitempty"`
	State          fsm.State     `json:"state"`
	QuestionIndex  int           `json:"questionIndex"`
	TotalQuestions int           `json:"totalQuestions,omitempty"`
	Question       string        `json:"question,omitempty"`
	Options        []string      `json:"options,omitempty"`
	Answer         *AnswerRecord `json:"answer,omitempty"`
	Explanation    string        `json:"explanation,omitempty"`
	CorrectOption  *int          `json:"correctOption,omitempty"`
	Pending        bool          `json:"pending,omitempty"`
	Listening      bool          `json:"listening,omitempty"`
	Error          string        `json:"error,omitempty"`
	Summary        *Summary      `json:"summary,omitempty"`
}

// Report is the full session record used for export.
type Report struct {
	Snapshot
	StartedAt  time.Time                     `json:"startedAt"`
	Quiz       []interpret.QuizQuestion      `json:"quiz,omitempty"`
	Questions  []interpret.InterviewQuestion `json:"questions,omitempty"`
	Answers    []AnswerRecord                `json:"answers,omitempty"`
	Transcript []TranscriptTurn              `json:"transcript,omitempty"`
}

// practice is the mutable state of one session. It is replaced, never
// reset, so in-flight requests can detect that they are stale.
type practice struct {
	id        string
	kind      Kind
	topic     string
	lang      locale.Language
	startedAt time.Time

	quiz      []interpret.QuizQuestion
	questions []interpret.InterviewQuestion
	index     int
	answers   []AnswerRecord

	transcript []TranscriptTurn
	history    []generation.Turn

	pending bool
	summary *Summary
}

func (p *practice) total() int {
	switch p.kind {
	case KindQuiz:
		return len(p.quiz)
	case KindInterview:
		return len(p.questions)
	default:
		return 0
	}
}

func (p *practice) currentQuestion() string {
	switch p.kind {
	case KindQuiz:
		if p.index < len(p.quiz) {
			return p.quiz[p.index].Question
		}
	case KindInterview:
		if p.index < len(p.questions) {
			return p.questions[p.index].Question
		}
	case KindConversation:
		for i := len(p.transcript) - 1; i >= 0; i-- {
			if p.transcript[i].Role == RoleAssistant {
				return p.transcript[i].Text
			}
		}
	}
	return ""
}

func (p *practice) answerFor(index int) *AnswerRecord {
	return findAnswer(p.answers, index)
}

func findAnswer(answers []AnswerRecord, index int) *AnswerRecord {
	for i := range answers {
		if answers[i].QuestionIndex == index {
			return &answers[i]
		}
	}
	return nil
}

func (p *practice) conversationQuestions() int {
	count := 0
	for _, turn := range p.transcript {
		if turn.Role == RoleAssistant {
			count++
		}
	}
	return count
}
