package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	sampleRate     = 16000
	bytesPerSecond = sampleRate * 2 // mono s16
	frameBytes     = bytesPerSecond / 50

	// DefaultMaxDuration keeps one answer under the streaming
	// recognizer's per-stream audio limit.
	DefaultMaxDuration = 290 * time.Second
)

// CaptureOptions tunes one recording.
type CaptureOptions struct {
	// KeepPCM retains every captured byte for RawPCM.
	KeepPCM bool
	// MaxDuration ends the capture once this much audio has been read.
	// Zero means DefaultMaxDuration.
	MaxDuration time.Duration
}

func (o CaptureOptions) byteLimit() int64 {
	limit := o.MaxDuration
	if limit <= 0 {
		limit = DefaultMaxDuration
	}
	return int64(limit) * bytesPerSecond / int64(time.Second)
}

// framer cuts an arbitrary PCM byte stream into fixed-size frames.
type framer struct {
	size    int
	pending []byte
}

func (f *framer) push(b []byte) [][]byte {
	f.pending = append(f.pending, b...)
	var frames [][]byte
	for len(f.pending) >= f.size {
		frames = append(frames, append([]byte(nil), f.pending[:f.size]...))
		f.pending = f.pending[f.size:]
	}
	return frames
}

// rest returns and clears the partial trailing frame.
func (f *framer) rest() []byte {
	if len(f.pending) == 0 {
		return nil
	}
	out := append([]byte(nil), f.pending...)
	f.pending = nil
	return out
}

// Capture records one answer from a Pulse source and delivers it as
// 20ms frames on Chunks.
type Capture struct {
	device Device
	opts   CaptureOptions
	limit  int64

	client *pulse.Client
	stream *pulse.RecordStream

	chunks chan []byte
	done   chan struct{}

	mu      sync.Mutex
	frames  framer
	raw     []byte
	stopped bool
	writers sync.WaitGroup

	total atomic.Int64
}

func newCapture(device Device, opts CaptureOptions, buffer int) *Capture {
	return &Capture{
		device: device,
		opts:   opts,
		limit:  opts.byteLimit(),
		chunks: make(chan []byte, buffer),
		done:   make(chan struct{}),
		frames: framer{size: frameBytes},
	}
}

// StartCapture begins recording from device. Recording ends on Stop, when
// ctx is done, or once opts.MaxDuration of audio has been read.
func StartCapture(ctx context.Context, device Device, opts CaptureOptions) (*Capture, error) {
	client, err := dial()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, tagDenied(fmt.Errorf("resolve source %q: %w", device.ID, err))
	}

	c := newCapture(device, opts, 128)
	c.client = client

	stream, err := client.NewRecord(
		pulse.NewWriter(writerFunc(c.write), pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(frameBytes),
		pulse.RecordMediaName("rehearse answer dictation"),
	)
	if err != nil {
		_ = c.Stop()
		return nil, tagDenied(fmt.Errorf("create pulse record stream: %w", err))
	}
	c.stream = stream
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.done:
		}
	}()
	return c, nil
}

// Device returns the source being recorded.
func (c *Capture) Device() Device {
	return c.device
}

// Chunks delivers PCM frames and is closed after Stop.
func (c *Capture) Chunks() <-chan []byte {
	return c.chunks
}

// BytesCaptured reports how much PCM has been accepted so far.
func (c *Capture) BytesCaptured() int64 {
	return c.total.Load()
}

// RawPCM returns a copy of the recording. It is empty unless KeepPCM was set.
func (c *Capture) RawPCM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.raw...)
}

// Stop ends the recording, delivers any partial frame, and closes Chunks.
// It is safe to call more than once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.done)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
	c.writers.Wait()

	c.mu.Lock()
	tail := c.frames.rest()
	c.mu.Unlock()
	if tail != nil {
		select {
		case c.chunks <- tail:
		default:
		}
	}
	close(c.chunks)
	return nil
}

// write is the Pulse record callback.
func (c *Capture) write(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	c.writers.Add(1)
	defer c.writers.Done()

	accepted := buf
	full := false
	if room := c.limit - c.total.Load(); int64(len(accepted)) >= room {
		accepted = accepted[:max(room, 0)]
		full = true
	}
	if c.opts.KeepPCM {
		c.raw = append(c.raw, accepted...)
	}
	frames := c.frames.push(accepted)
	c.total.Add(int64(len(accepted)))
	c.mu.Unlock()

	for _, frame := range frames {
		select {
		case c.chunks <- frame:
		case <-c.done:
			return 0, io.EOF
		}
	}

	if full {
		// Stop waits on writers, so it cannot run on this goroutine.
		go func() { _ = c.Stop() }()
		return len(accepted), io.EOF
	}
	return len(buf), nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
