// Package asr streams PCM audio to a Google Cloud Speech compatible
// StreamingRecognize endpoint and merges interim and final results.
package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc"
)

const (
	// SampleRateHertz is the PCM rate the stream is configured for.
	SampleRateHertz = 16000

	defaultDialTimeout = 3 * time.Second
	defaultOpenTimeout = 5 * time.Second
	updateBuffer       = 64
)

// Phrase is one vocabulary boost phrase in request-ready form.
type Phrase struct {
	Phrase string
	Boost  float32
}

// StreamConfig controls connection setup and recognition behavior.
type StreamConfig struct {
	Endpoint              string
	TLS                   bool
	Auth                  string
	LanguageCode          string
	Model                 string
	AutomaticPunctuation  bool
	Phrases               []Phrase
	DialTimeout           time.Duration
	OpenTimeout           time.Duration
	DebugResponseSinkJSON io.Writer
}

// Update is one recognition change. Final updates carry only text that was
// not committed before; interim updates carry the full pending hypothesis.
type Update struct {
	Text  string
	Final bool
}

// Stream wraps one active StreamingRecognize RPC lifecycle.
type Stream struct {
	conn   *grpc.ClientConn
	stream speechpb.Speech_StreamingRecognizeClient

	updates  chan Update
	recvDone chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	mu                   sync.Mutex
	segments             []string
	lastInterim          string
	lastInterimStability float32
	recvErr              error
	closedSend           bool
	debugSinkJSON        io.Writer
}

// DialStream connects, sends the streaming config, and starts the receive loop.
func DialStream(ctx context.Context, cfg StreamConfig) (*Stream, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("speech endpoint is empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = "en-US"
	}

	conn, err := dial(ctx, endpoint, cfg)
	if err != nil {
		return nil, err
	}

	client := speechpb.NewSpeechClient(conn)
	stream, err := openRecognizeWithTimeout(ctx, cfg.OpenTimeout, func() (speechpb.Speech_StreamingRecognizeClient, error) {
		return client.StreamingRecognize(ctx)
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open streaming recognizer: %w", err)
	}

	req := streamingConfigRequest(cfg)
	if err := runWithTimeout(ctx, cfg.OpenTimeout, func() error { return stream.Send(req) }); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send initial streaming config: %w", err)
	}

	s := &Stream{
		conn:          conn,
		stream:        stream,
		updates:       make(chan Update, updateBuffer),
		recvDone:      make(chan struct{}),
		stop:          make(chan struct{}),
		debugSinkJSON: cfg.DebugResponseSinkJSON,
	}
	go s.recvLoop()
	return s, nil
}

func streamingConfigRequest(cfg StreamConfig) *speechpb.StreamingRecognizeRequest {
	recognition := &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz:            SampleRateHertz,
		AudioChannelCount:          1,
		LanguageCode:               cfg.LanguageCode,
		EnableAutomaticPunctuation: cfg.AutomaticPunctuation,
		Model:                      strings.TrimSpace(cfg.Model),
	}
	for _, phrase := range cfg.Phrases {
		text := strings.TrimSpace(phrase.Phrase)
		if text == "" {
			continue
		}
		recognition.SpeechContexts = append(recognition.SpeechContexts, &speechpb.SpeechContext{
			Phrases: []string{text},
			Boost:   phrase.Boost,
		})
	}

	return &speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:         recognition,
				InterimResults: true,
			},
		},
	}
}

// Updates delivers recognition changes. It is closed when the receive loop ends.
func (s *Stream) Updates() <-chan Update {
	return s.updates
}

// Err returns the receive loop failure, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recvErr
}

// SendAudio sends one chunk of PCM audio over the active stream.
func (s *Stream) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.mu.Lock()
	closed := s.closedSend
	recvErr := s.recvErr
	s.mu.Unlock()

	if closed {
		return errors.New("stream already closed for sending")
	}
	if recvErr != nil {
		return fmt.Errorf("stream receive loop failed: %w", recvErr)
	}

	return s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: chunk},
	})
}

// CloseAndCollect closes send-side audio, waits for the server to finish,
// and returns the merged transcript segments.
func (s *Stream) CloseAndCollect(ctx context.Context) ([]string, time.Duration, error) {
	closedAt := time.Now()
	s.closeSend()

	select {
	case <-s.recvDone:
	case <-ctx.Done():
		_ = s.Cancel()
		return nil, 0, ctx.Err()
	}
	latency := time.Since(closedAt)
	defer func() { _ = s.conn.Close() }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recvErr != nil {
		return nil, latency, s.recvErr
	}
	return append([]string(nil), s.segments...), latency, nil
}

// Cancel aborts stream processing and closes the underlying connection.
func (s *Stream) Cancel() error {
	s.closeSend()
	s.stopOnce.Do(func() { close(s.stop) })
	return s.conn.Close()
}

func (s *Stream) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closedSend {
		s.closedSend = true
		_ = s.stream.CloseSend()
	}
}
