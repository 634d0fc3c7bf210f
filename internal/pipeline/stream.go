package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rbright/rehearse/internal/speech"
)

// stream is one running capture -> recognition session.
type stream struct {
	logger      *slog.Logger
	capture     captureSource
	recognition recognitionStream
	device      string

	debugFile *os.File
	dumpAudio bool

	results   chan speech.Result
	sendErrCh chan error
	closeOnce sync.Once

	mu      sync.Mutex
	sendErr error
}

func newStream(logger *slog.Logger, capture captureSource, recognition recognitionStream, device string) *stream {
	return &stream{
		logger:      logger,
		capture:     capture,
		recognition: recognition,
		device:      device,
		results:     make(chan speech.Result, 64),
		sendErrCh:   make(chan error, 1),
	}
}

func (s *stream) run(ctx context.Context) {
	go s.sendLoop()
	go s.forward(ctx)
}

func (s *stream) Results() <-chan speech.Result {
	return s.results
}

// Err reports the terminal recognition error. Cancellation is not an error.
func (s *stream) Err() error {
	if err := classifyRecognitionErr(normalize(s.recognition.Err())); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendErr
}

// Close stops capture and half-closes the recognizer. Results keeps
// delivering what the service flushes and closes once it is done.
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		go s.shutdown()
	})
	return nil
}

func (s *stream) shutdown() {
	_ = s.capture.Stop()

	if err := <-s.sendErrCh; err != nil {
		s.mu.Lock()
		s.sendErr = classifyRecognitionErr(normalize(fmt.Errorf("send audio stream: %w", err)))
		s.mu.Unlock()
		_ = s.recognition.Cancel()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		segments, latency, err := s.recognition.CloseAndCollect(ctx)
		cancel()
		if err != nil && normalize(err) != nil {
			s.logger.Warn("speech stream closed with error", "error", err)
		} else {
			s.logger.Debug("speech stream closed",
				"segments", len(segments),
				"grpc_latency_ms", latency.Milliseconds(),
			)
		}
	}

	s.logger.Debug("speech capture finished",
		"device", s.device,
		"bytes_captured", s.capture.BytesCaptured(),
	)
	s.writeDebugAudio(s.capture.RawPCM())
	closeFile(s.debugFile)
}

// sendLoop forwards capture chunks to the recognizer, reports the first
// send failure exactly once, and shuts the stream down when capture ends.
func (s *stream) sendLoop() {
	var sendErr error
	defer func() { s.sendErrCh <- sendErr }()

	for chunk := range s.capture.Chunks() {
		if len(chunk) == 0 || sendErr != nil {
			continue
		}
		if err := s.recognition.SendAudio(chunk); err != nil {
			sendErr = err
			_ = s.capture.Stop()
		}
	}
	// Capture also ends on its own at the recording duration cap.
	_ = s.Close()
}

// forward republishes recognizer updates until the recognizer closes them
// or ctx is done.
func (s *stream) forward(ctx context.Context) {
	defer close(s.results)

	updates := s.recognition.Updates()
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			select {
			case s.results <- speech.Result{Text: update.Text, Final: update.Final}:
			case <-ctx.Done():
				s.abort()
				return
			}
		case <-ctx.Done():
			s.abort()
			return
		}
	}
}

func (s *stream) abort() {
	_ = s.capture.Stop()
	_ = s.recognition.Cancel()
	_ = s.Close()
}

// writeDebugAudio writes raw PCM to WAV when debug.audio_dump is enabled.
func (s *stream) writeDebugAudio(rawPCM []byte) {
	if !s.dumpAudio || len(rawPCM) == 0 {
		return
	}

	file, err := openDump("audio", "wav")
	if err != nil {
		s.logger.Warn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}
	defer file.Close()

	if err := writeWAV(file, rawPCM); err != nil {
		s.logger.Warn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}

// normalize drops cancellation, which is how stopped streams end.
func normalize(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	if status.Code(err) == codes.Canceled {
		return nil
	}
	return err
}

var _ speech.Stream = (*stream)(nil)
