// Package session owns the single active practice session and sequences
// prompt building, generation calls, and response interpretation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rbright/rehearse/internal/export"
	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/generation"
	"github.com/rbright/rehearse/internal/interpret"
	"github.com/rbright/rehearse/internal/locale"
	"github.com/rbright/rehearse/internal/prompt"
)

// ErrGeneratorUnavailable indicates no generation backend is wired.
var ErrGeneratorUnavailable = errors.New("generation backend not configured")

var validate = validator.New()

// Options tunes question counts and defaults.
type Options struct {
	QuizQuestions      int
	InterviewQuestions int
	DefaultLanguage    string
}

// Controller orchestrates session state transitions and service calls.
// All state is guarded by mu; service calls run without holding it.
type Controller struct {
	logger    *slog.Logger
	generator generation.Generator
	dictation Dictation
	opts      Options
	now       func() time.Time

	mu      sync.RWMutex
	state   fsm.State
	current *practice
	lastErr error
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	generator generation.Generator,
	dictation Dictation,
	opts Options,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if generator == nil {
		generator = generation.GeneratorFunc(func(context.Context, generation.Request) (generation.Response, error) {
			return generation.Response{}, ErrGeneratorUnavailable
		})
	}
	if dictation == nil {
		dictation = noopDictation{}
	}
	if opts.QuizQuestions <= 0 {
		opts.QuizQuestions = prompt.DefaultQuestionCount
	}
	if opts.InterviewQuestions <= 0 {
		opts.InterviewQuestions = prompt.DefaultQuestionCount
	}
	if strings.TrimSpace(opts.DefaultLanguage) == "" {
		opts.DefaultLanguage = string(locale.DefaultCode)
	}

	return &Controller{
		logger:    logger,
		generator: generator,
		dictation: dictation,
		opts:      opts,
		now:       time.Now,
		state:     fsm.StateIdle,
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transitionLocked applies one FSM event to the controller state.
func (c *Controller) transitionLocked(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Start discards any current session and loads a new one.
func (c *Controller) Start(ctx context.Context, opts StartOptions) (Snapshot, error) {
	started := time.Now()

	opts.Topic = strings.TrimSpace(opts.Topic)
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = c.opts.DefaultLanguage
	}
	if err := validate.Struct(opts); err != nil {
		return c.Snapshot(), fmt.Errorf("invalid start options: %w", err)
	}
	lang, err := locale.Lookup(opts.Language)
	if err != nil {
		return c.Snapshot(), err
	}

	p := &practice{
		id:        uuid.NewString(),
		kind:      opts.Kind,
		topic:     opts.Topic,
		lang:      lang,
		startedAt: c.now(),
		pending:   true,
	}

	c.stopDictation()
	c.mu.Lock()
	c.discardLocked()
	if err := c.transitionLocked(fsm.EventStart); err != nil {
		c.mu.Unlock()
		return c.Snapshot(), err
	}
	c.current = p
	c.lastErr = nil
	c.mu.Unlock()

	loaded, err := c.fetchInitial(ctx, p)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != p {
		return c.snapshotLocked(), c.stale(p, "start")
	}
	p.pending = false

	if err == nil && loaded.empty(p.kind) {
		err = ErrNoQuestions
	}
	if err != nil {
		c.current = nil
		c.lastErr = err
		_ = c.transitionLocked(fsm.EventLoadFailed)
		c.logAction("start", p, started, err)
		return c.snapshotLocked(), err
	}

	p.quiz = loaded.quiz
	p.questions = loaded.questions
	if p.kind == KindConversation {
		p.history = loaded.history
		p.transcript = []TranscriptTurn{{Role: RoleAssistant, Text: loaded.first}}
	}
	_ = c.transitionLocked(fsm.EventLoaded)
	c.logAction("start", p, started, nil)
	return c.snapshotLocked(), nil
}

type initialSet struct {
	quiz      []interpret.QuizQuestion
	questions []interpret.InterviewQuestion
	first     string
	history   []generation.Turn
}

func (s initialSet) empty(kind Kind) bool {
	switch kind {
	case KindQuiz:
		return len(s.quiz) == 0
	case KindInterview:
		return len(s.questions) == 0
	default:
		return strings.TrimSpace(s.first) == ""
	}
}

// fetchInitial runs without the lock; p's identity fields are immutable.
func (c *Controller) fetchInitial(ctx context.Context, p *practice) (initialSet, error) {
	switch p.kind {
	case KindQuiz:
		text, err := c.generate(ctx, prompt.Quiz(p.topic, p.lang, c.opts.QuizQuestions))
		if err != nil {
			return initialSet{}, err
		}
		quiz, err := interpret.ParseQuiz(text)
		return initialSet{quiz: quiz}, err
	case KindInterview:
		text, err := c.generate(ctx, prompt.InterviewQuestions(p.topic, p.lang, c.opts.InterviewQuestions))
		if err != nil {
			return initialSet{}, err
		}
		questions, err := interpret.ParseQuestions(text)
		return initialSet{questions: questions}, err
	default:
		req := prompt.ConversationStart(p.topic, p.lang)
		text, err := c.generate(ctx, req)
		if err != nil {
			return initialSet{}, err
		}
		first := strings.TrimSpace(text)
		history := append(slices.Clone(req.Turns), generation.Turn{Role: generation.RoleModel, Text: text})
		return initialSet{first: first, history: history}, nil
	}
}

// SubmitChoice records a zero-based quiz option for the current question.
func (c *Controller) SubmitChoice(choice int) (Snapshot, error) {
	started := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.activeLocked(KindQuiz)
	if err != nil {
		return c.snapshotLocked(), err
	}
	if p.answerFor(p.index) != nil {
		return c.snapshotLocked(), ErrAlreadyAnswered
	}
	question := p.quiz[p.index]
	if choice < 0 || choice >= len(question.Options) {
		return c.snapshotLocked(), fmt.Errorf("%w: choose 1-%d", ErrOptionOutOfRange, len(question.Options))
	}

	correct := choice == question.CorrectAnswerIndex
	p.answers = append(p.answers, AnswerRecord{
		QuestionIndex:  p.index,
		SelectedOption: &choice,
		Text:           question.Options[choice],
		IsCorrect:      &correct,
		AnsweredAt:     c.now(),
	})
	c.lastErr = nil
	c.logAction("choose", p, started, nil)
	return c.snapshotLocked(), nil
}

// SubmitAnswer records a free-text answer. Quiz sessions accept an option
// number or letter.
func (c *Controller) SubmitAnswer(ctx context.Context, text string) (Snapshot, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return c.Snapshot(), ErrEmptyAnswer
	}

	c.mu.Lock()
	p, err := c.activeLocked(KindQuiz, KindInterview, KindConversation)
	if err != nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), err
	}

	switch p.kind {
	case KindQuiz:
		c.mu.Unlock()
		choice, err := ParseChoice(text)
		if err != nil {
			return c.Snapshot(), err
		}
		return c.SubmitChoice(choice)
	case KindInterview:
		if p.answerFor(p.index) != nil {
			defer c.mu.Unlock()
			return c.snapshotLocked(), ErrAlreadyAnswered
		}
		index, question := p.index, p.questions[p.index].Question
		p.pending = true
		c.mu.Unlock()
		return c.interviewFeedback(ctx, p, index, question, text)
	default:
		question := p.currentQuestion()
		history := slices.Clone(p.history)
		p.pending = true
		c.mu.Unlock()
		return c.conversationTurn(ctx, p, history, question, text)
	}
}

func (c *Controller) interviewFeedback(ctx context.Context, p *practice, index int, question string, answer string) (Snapshot, error) {
	started := time.Now()

	text, err := c.generate(ctx, prompt.Feedback(p.topic, p.lang, question, answer))
	var feedback string
	if err == nil {
		feedback, err = interpret.ParseFeedback(text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != p {
		return c.snapshotLocked(), c.stale(p, "answer")
	}
	p.pending = false
	if err != nil {
		c.lastErr = err
		c.logAction("answer", p, started, err)
		return c.snapshotLocked(), err
	}

	c.lastErr = nil
	p.answers = append(p.answers, AnswerRecord{
		QuestionIndex: index,
		Text:          answer,
		Feedback:      feedback,
		AnsweredAt:    c.now(),
	})
	c.logAction("answer", p, started, nil)
	return c.snapshotLocked(), nil
}

func (c *Controller) conversationTurn(ctx context.Context, p *practice, history []generation.Turn, question string, answer string) (Snapshot, error) {
	started := time.Now()

	req := prompt.ConversationTurn(p.topic, p.lang, history, question, answer)
	text, err := c.generate(ctx, req)
	var turn interpret.Turn
	if err == nil && strings.TrimSpace(text) == "" {
		err = &interpret.ParseError{Kind: interpret.KindEmptyResponse, Target: "turn"}
	}
	if err == nil {
		turn = interpret.SplitTurn(text)
		if !turn.Concluded && turn.NextQuestion == "" {
			err = &interpret.ParseError{
				Kind:   interpret.KindMalformedResponse,
				Target: "turn",
				Err:    errors.New("next question is empty"),
			}
		}
	}

	c.mu.Lock()
	if c.current != p {
		defer c.mu.Unlock()
		return c.snapshotLocked(), c.stale(p, "answer")
	}
	p.pending = false
	if err != nil {
		defer c.mu.Unlock()
		c.lastErr = err
		c.logAction("answer", p, started, err)
		return c.snapshotLocked(), err
	}

	c.lastErr = nil
	p.transcript = append(p.transcript, TranscriptTurn{Role: RoleUser, Text: answer, Feedback: turn.Feedback})
	p.history = append(p.history,
		req.Turns[len(req.Turns)-1],
		generation.Turn{Role: generation.RoleModel, Text: text},
	)

	if turn.Concluded || interpret.IsConclusion(turn.NextQuestion) {
		c.logAction("answer", p, started, nil)
		return c.beginSummaryLocked(ctx, p)
	}

	p.transcript = append(p.transcript, TranscriptTurn{Role: RoleAssistant, Text: turn.NextQuestion})
	defer c.mu.Unlock()
	c.logAction("answer", p, started, nil)
	return c.snapshotLocked(), nil
}

// Advance moves to the next question, or to the summary after the last one.
func (c *Controller) Advance(ctx context.Context) (Snapshot, error) {
	started := time.Now()

	c.mu.Lock()
	p, err := c.activeLocked(KindQuiz, KindInterview)
	if err != nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), err
	}
	if p.answerFor(p.index) == nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrNotAnswered
	}

	if p.index+1 < p.total() {
		defer c.mu.Unlock()
		p.index++
		c.logAction("next", p, started, nil)
		return c.snapshotLocked(), nil
	}

	if p.kind == KindQuiz {
		defer c.mu.Unlock()
		if err := c.transitionLocked(fsm.EventFinish); err != nil {
			return c.snapshotLocked(), err
		}
		p.summary = c.quizSummary(p)
		_ = c.transitionLocked(fsm.EventSummarized)
		c.logAction("next", p, started, nil)
		return c.snapshotLocked(), nil
	}
	return c.beginSummaryLocked(ctx, p)
}

// End closes a conversational interview and requests its summary.
func (c *Controller) End(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	p, err := c.activeLocked(KindConversation)
	if err != nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), err
	}
	return c.beginSummaryLocked(ctx, p)
}

// beginSummaryLocked must be called with mu held; it releases mu.
func (c *Controller) beginSummaryLocked(ctx context.Context, p *practice) (Snapshot, error) {
	if err := c.transitionLocked(fsm.EventFinish); err != nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), err
	}
	p.pending = true
	entries := transcriptEntries(p)
	c.mu.Unlock()

	return c.summarize(ctx, p, entries)
}

func (c *Controller) summarize(ctx context.Context, p *practice, entries []export.Entry) (Snapshot, error) {
	started := time.Now()

	text, err := c.generate(ctx, prompt.Summary(p.lang, export.Transcript(entries)))
	var summary interpret.InterviewSummary
	if err == nil {
		summary, err = interpret.ParseSummary(text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != p {
		return c.snapshotLocked(), c.stale(p, "summary")
	}
	p.pending = false
	if err != nil {
		c.lastErr = err
		_ = c.transitionLocked(fsm.EventFail)
		c.logAction("summary", p, started, err)
		return c.snapshotLocked(), err
	}

	c.lastErr = nil
	p.summary = &Summary{Kind: p.kind, Interview: &summary, CompletedAt: c.now()}
	_ = c.transitionLocked(fsm.EventSummarized)
	c.logAction("summary", p, started, nil)
	return c.snapshotLocked(), nil
}

// Restart discards the current session unconditionally.
func (c *Controller) Restart() Snapshot {
	c.stopDictation()
	c.mu.Lock()
	defer c.mu.Unlock()

	if p := c.current; p != nil {
		c.logger.Info("session restart", "session_id", p.id, "kind", string(p.kind), "state", string(c.state))
	}
	c.discardLocked()
	c.lastErr = nil
	return c.snapshotLocked()
}

// stopDictation must be called without mu; Stop can wait for recognition
// to drain.
func (c *Controller) stopDictation() {
	if c.dictation.Listening() {
		c.dictation.Stop()
	}
}

func (c *Controller) discardLocked() {
	c.dictation.ResetTranscript()
	switch c.state {
	case fsm.StateIdle:
	case fsm.StateActive:
		_ = c.transitionLocked(fsm.EventAbort)
	default:
		_ = c.transitionLocked(fsm.EventRestart)
	}
	c.current = nil
}

// Snapshot returns the presentation view of the controller.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Summary returns the finished session summary.
func (c *Controller) Summary() (Summary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || c.current.summary == nil {
		return Summary{}, ErrNoSummary
	}
	return c.current.summary.clone(), nil
}

// Report returns a copy of the full session record.
func (c *Controller) Report() (Report, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.current
	if p == nil {
		return Report{}, ErrNotActive
	}
	return Report{
		Snapshot:   c.snapshotLocked(),
		StartedAt:  p.startedAt,
		Quiz:       slices.Clone(p.quiz),
		Questions:  slices.Clone(p.questions),
		Answers:    slices.Clone(p.answers),
		Transcript: slices.Clone(p.transcript),
	}, nil
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{State: c.state, Listening: c.dictation.Listening()}
	if c.lastErr != nil {
		s.Error = UserMessage(c.lastErr)
	}

	p := c.current
	if p == nil {
		return s
	}
	s.SessionID = p.id
	s.Kind = p.kind
	s.Topic = p.topic
	s.Language = string(p.lang.Code)
	s.Pending = p.pending
	s.QuestionIndex = p.index
	s.TotalQuestions = p.total()
	if p.kind == KindConversation {
		s.QuestionIndex = max(p.conversationQuestions()-1, 0)
		s.TotalQuestions = prompt.ConversationQuestionLimit
	}
	if p.summary != nil {
		summary := p.summary.clone()
		s.Summary = &summary
	}
	if c.state != fsm.StateActive {
		return s
	}

	s.Question = p.currentQuestion()
	if p.kind == KindQuiz && p.index < len(p.quiz) {
		s.Options = slices.Clone(p.quiz[p.index].Options)
	}
	if answer := p.answerFor(p.index); answer != nil {
		record := *answer
		s.Answer = &record
		if p.kind == KindQuiz {
			correct := p.quiz[p.index].CorrectAnswerIndex
			s.CorrectOption = &correct
			s.Explanation = p.quiz[p.index].Explanation
		}
	}
	return s
}

// activeLocked returns the current session when an action of one of kinds
// may run now.
func (c *Controller) activeLocked(kinds ...Kind) (*practice, error) {
	p := c.current
	if p == nil || c.state != fsm.StateActive {
		return nil, fmt.Errorf("%w (state %s)", ErrNotActive, c.state)
	}
	if !slices.Contains(kinds, p.kind) {
		return nil, fmt.Errorf("%w: %s", ErrWrongMode, p.kind)
	}
	if p.pending {
		return nil, ErrBusy
	}
	return p, nil
}

func (c *Controller) generate(ctx context.Context, req generation.Request) (string, error) {
	resp, err := c.generator.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, ErrGeneratorUnavailable) {
			return "", err
		}
		return "", generation.Classify(err)
	}
	return resp.Text, nil
}

func (c *Controller) quizSummary(p *practice) *Summary {
	score := 0
	for _, answer := range p.answers {
		if answer.IsCorrect != nil && *answer.IsCorrect {
			score++
		}
	}
	return &Summary{
		Kind:           KindQuiz,
		Score:          score,
		TotalQuestions: len(p.quiz),
		Results:        slices.Clone(p.answers),
		Questions:      slices.Clone(p.quiz),
		CompletedAt:    c.now(),
	}
}

func (c *Controller) stale(p *practice, action string) error {
	c.logger.Warn("dropping stale response", "action", action, "session_id", p.id, "kind", string(p.kind))
	return ErrStaleResponse
}

// logAction must be called with mu held.
func (c *Controller) logAction(action string, p *practice, started time.Time, err error) {
	attrs := []any{
		"action", action,
		"session_id", p.id,
		"kind", string(p.kind),
		"state", string(c.state),
		"question_index", p.index,
		"duration_ms", time.Since(started).Milliseconds(),
	}
	if err != nil {
		c.logger.Warn("session action failed", append(attrs, "error", err.Error())...)
		return
	}
	c.logger.Info("session action", attrs...)
}

func transcriptEntries(p *practice) []export.Entry {
	return entriesFor(p.kind, p.transcript, p.questions, p.answers)
}

func entriesFor(kind Kind, transcript []TranscriptTurn, questions []interpret.InterviewQuestion, answers []AnswerRecord) []export.Entry {
	var entries []export.Entry
	switch kind {
	case KindConversation:
		for _, turn := range transcript {
			speaker := export.SpeakerCandidate
			if turn.Role == RoleAssistant {
				speaker = export.SpeakerInterviewer
			}
			entries = append(entries, export.Entry{Speaker: speaker, Text: turn.Text})
		}
	case KindInterview:
		for i, q := range questions {
			entries = append(entries, export.Entry{Speaker: export.SpeakerInterviewer, Text: q.Question})
			if answer := findAnswer(answers, i); answer != nil {
				entries = append(entries, export.Entry{Speaker: export.SpeakerCandidate, Text: answer.Text})
			}
		}
	}
	return entries
}
