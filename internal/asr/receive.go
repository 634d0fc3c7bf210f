package asr

import (
	"errors"
	"io"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
)

// stableInterimThreshold is the stability at which a replaced interim
// hypothesis is committed instead of dropped.
const stableInterimThreshold = 0.8

// recvLoop receives recognition responses until the stream closes or fails.
// A clean end commits the trailing interim before Updates is closed.
func (s *Stream) recvLoop() {
	defer close(s.recvDone)
	defer close(s.updates)

	for {
		resp, err := s.stream.Recv()
		if err == nil {
			updates, respErr := s.recordResponse(resp)
			s.emit(updates)
			if respErr != nil {
				s.fail(respErr)
				return
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			s.emit(s.commitTrailing())
			return
		}
		s.fail(err)
		return
	}
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recvErr = err
}

func (s *Stream) emit(updates []Update) {
	for _, update := range updates {
		select {
		case s.updates <- update:
		case <-s.stop:
			return
		}
	}
}

// recordResponse merges final and interim results into stream state and
// returns the updates to publish.
func (s *Stream) recordResponse(resp *speechpb.StreamingRecognizeResponse) ([]Update, error) {
	if sink := s.debugSinkJSON; sink != nil {
		if b, err := protojson.Marshal(resp); err == nil {
			_, _ = sink.Write(append(b, '\n'))
		}
	}
	if st := resp.GetError(); st != nil && st.GetCode() != 0 {
		return nil, status.ErrorProto(st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updates []Update
	commit := func(text string) {
		var delta string
		s.segments, delta = mergeSegment(s.segments, text)
		if delta != "" {
			updates = append(updates, Update{Text: delta, Final: true})
		}
	}

	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		transcript := cleanSegment(alternatives[0].GetTranscript())
		if transcript == "" {
			continue
		}
		if result.GetIsFinal() {
			commit(transcript)
			s.lastInterim = ""
			s.lastInterimStability = 0
			continue
		}

		if shouldCommitPriorInterim(s.lastInterim, s.lastInterimStability, transcript) {
			commit(s.lastInterim)
		}
		s.lastInterim = transcript
		s.lastInterimStability = result.GetStability()
		updates = append(updates, Update{Text: transcript})
	}
	return updates, nil
}

func (s *Stream) commitTrailing() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	interim := s.lastInterim
	s.lastInterim = ""
	s.lastInterimStability = 0
	var delta string
	s.segments, delta = mergeSegment(s.segments, interim)
	if delta == "" {
		return nil
	}
	return []Update{{Text: delta, Final: true}}
}

// shouldCommitPriorInterim keeps a stable hypothesis the recognizer
// abandoned without finalizing.
func shouldCommitPriorInterim(previous string, stability float32, current string) bool {
	if cleanSegment(previous) == "" {
		return false
	}
	if isInterimContinuation(previous, current) {
		return false
	}
	return stability >= stableInterimThreshold
}
