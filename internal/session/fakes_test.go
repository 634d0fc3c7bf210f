package session

import (
	"context"
	"sync"

	"github.com/rbright/rehearse/internal/generation"
)

type reply struct {
	text string
	err  error
	// wait blocks the call until closed.
	wait chan struct{}
}

// scriptedGenerator answers calls in order and records every request.
type scriptedGenerator struct {
	mu       sync.Mutex
	replies  []reply
	requests []generation.Request
	entered  chan struct{}
}

func newScripted(replies ...reply) *scriptedGenerator {
	return &scriptedGenerator{replies: replies, entered: make(chan struct{}, 16)}
}

func (g *scriptedGenerator) Generate(ctx context.Context, req generation.Request) (generation.Response, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	if len(g.replies) == 0 {
		g.mu.Unlock()
		return generation.Response{}, &generation.Error{Kind: generation.ErrService, Message: "no scripted reply"}
	}
	next := g.replies[0]
	g.replies = g.replies[1:]
	g.mu.Unlock()

	g.entered <- struct{}{}
	if next.wait != nil {
		select {
		case <-next.wait:
		case <-ctx.Done():
			return generation.Response{}, ctx.Err()
		}
	}
	if next.err != nil {
		return generation.Response{}, next.err
	}
	return generation.Response{Text: next.text}, nil
}

func (g *scriptedGenerator) calls() []generation.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]generation.Request(nil), g.requests...)
}

type fakeDictation struct {
	mu         sync.Mutex
	listening  bool
	transcript string
	tags       []string
	startErr   error
}

func (d *fakeDictation) HasSupport() bool { return true }

func (d *fakeDictation) Start(_ context.Context, tag string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.listening = true
	d.tags = append(d.tags, tag)
	return nil
}

func (d *fakeDictation) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listening = false
}

func (d *fakeDictation) Listening() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listening
}

func (d *fakeDictation) Transcript() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transcript
}

func (d *fakeDictation) ResetTranscript() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transcript = ""
}

func (d *fakeDictation) hear(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transcript = text
}

const threeQuestionQuiz = `[
 {"question":"Q1","options":["a","b","c","d"],"correctAnswerIndex":0,"explanation":"e1"},
 {"question":"Q2","options":["a","b","c","d"],"correctAnswerIndex":1,"explanation":"e2"},
 {"question":"Q3","options":["a","b","c","d"],"correctAnswerIndex":2,"explanation":"e3"}
]`

const twoInterviewQuestions = `[{"question":"Tell me about yourself."},{"question":"Describe a failure."}]`

const summaryJSON = `{"strengths":["clear"],"areasForImprovement":["metrics"],"overallScore":7,"summary":"Good.","toneAnalysis":"Calm"}`

// slowStopDictation blocks Stop until release is closed.
type slowStopDictation struct {
	*fakeDictation
	stopping chan struct{}
	release  chan struct{}
}

func (d *slowStopDictation) Stop() {
	d.stopping <- struct{}{}
	<-d.release
	d.fakeDictation.Stop()
}
