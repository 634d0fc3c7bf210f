// Package interpret turns raw generation output into typed practice data.
//
// Structured responses are decoded as JSON after light recovery (code fences,
// surrounding prose, single-key wrappers) and checked with struct tags.
// Conversational turns are split by SplitTurn, which never fails.
package interpret

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// InterviewQuestion is one open-ended interview question.
type InterviewQuestion struct {
	Question string `json:"question"`
}

// InterviewSummary is the end-of-interview performance report.
type InterviewSummary struct {
	OverallScore        float64  `json:"overallScore"`
	Summary             string   `json:"summary"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	ToneAnalysis        string   `json:"toneAnalysis,omitempty"`
}

type quizWire struct {
	Question           string   `json:"question" validate:"required"`
	Options            []string `json:"options" validate:"len=4,dive,required"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex" validate:"required,gte=0,lte=3"`
	Explanation        string   `json:"explanation"`
}

type questionWire struct {
	Question string `json:"question" validate:"required"`
}

type feedbackWire struct {
	Feedback string `json:"feedback" validate:"required"`
}

type summaryWire struct {
	Strengths           []string `json:"strengths" validate:"required"`
	AreasForImprovement []string `json:"areasForImprovement" validate:"required"`
	OverallScore        *float64 `json:"overallScore" validate:"required,gte=0,lte=10"`
	Summary             string   `json:"summary" validate:"required"`
	ToneAnalysis        string   `json:"toneAnalysis"`
}

// ParseQuiz decodes a quiz question list. An empty list is not an error.
func ParseQuiz(raw string) ([]QuizQuestion, error) {
	items, err := parseList[quizWire]("quiz", raw)
	if err != nil {
		return nil, err
	}
	out := make([]QuizQuestion, 0, len(items))
	for _, item := range items {
		out = append(out, QuizQuestion{
			Question:           strings.TrimSpace(item.Question),
			Options:            item.Options,
			CorrectAnswerIndex: *item.CorrectAnswerIndex,
			Explanation:        strings.TrimSpace(item.Explanation),
		})
	}
	return out, nil
}

// ParseQuestions decodes an interview question list. A bare array of
// strings is accepted as well.
func ParseQuestions(raw string) ([]InterviewQuestion, error) {
	items, err := parseList[questionWire]("questions", raw)
	if err != nil {
		plain, plainErr := parseList[string]("questions", raw)
		if plainErr != nil || !allNonEmpty(plain) {
			return nil, err
		}
		items = make([]questionWire, 0, len(plain))
		for _, q := range plain {
			items = append(items, questionWire{Question: q})
		}
	}
	out := make([]InterviewQuestion, 0, len(items))
	for _, item := range items {
		out = append(out, InterviewQuestion{Question: strings.TrimSpace(item.Question)})
	}
	return out, nil
}

// ParseFeedback decodes single-answer feedback.
func ParseFeedback(raw string) (string, error) {
	wire, err := parseObject[feedbackWire]("feedback", raw, "feedback")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(wire.Feedback), nil
}

// ParseSummary decodes an interview summary.
func ParseSummary(raw string) (InterviewSummary, error) {
	wire, err := parseObject[summaryWire]("summary", raw, "strengths", "areasForImprovement", "overallScore", "summary")
	if err != nil {
		return InterviewSummary{}, err
	}
	return InterviewSummary{
		OverallScore:        *wire.OverallScore,
		Summary:             strings.TrimSpace(wire.Summary),
		Strengths:           wire.Strengths,
		AreasForImprovement: wire.AreasForImprovement,
		ToneAnalysis:        strings.TrimSpace(wire.ToneAnalysis),
	}, nil
}

func parseList[T any](target string, raw string) ([]T, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, emptyResponse(target)
	}

	var lastErr error
	for _, text := range candidates(raw) {
		items, err := decodeList[T](text)
		if err != nil {
			if lastErr == nil {
				lastErr = err
			}
			continue
		}
		if err := validateEach(items); err != nil {
			lastErr = err
			continue
		}
		return items, nil
	}
	return nil, malformed(target, lastErr)
}

func parseObject[T any](target string, raw string, fields ...string) (T, error) {
	var zero T
	if strings.TrimSpace(raw) == "" {
		return zero, emptyResponse(target)
	}

	var lastErr error
	for _, text := range candidates(raw) {
		out, err := decodeObject[T](text, fields...)
		if err != nil {
			if lastErr == nil {
				lastErr = err
			}
			continue
		}
		if err := validate.Struct(out); err != nil {
			lastErr = err
			continue
		}
		return out, nil
	}
	return zero, malformed(target, lastErr)
}

func validateEach[T any](items []T) error {
	for i := range items {
		if err := validateValue(items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func validateValue(v any) error {
	switch v.(type) {
	case string:
		return nil
	default:
		return validate.Struct(v)
	}
}

func allNonEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
