// Package capture accumulates audio chunks from a device into a single blob
// per recording cycle.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrPermissionDenied  = errors.New("audio device permission denied")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrNotRecording      = errors.New("not recording")
)

// DefaultContentType matches what browsers' MediaRecorder emits.
const DefaultContentType = "audio/webm"

type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Blob is the finalized audio of one recording cycle.
type Blob struct {
	Data        []byte
	ContentType string
}

// Device opens an exclusive audio stream.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream delivers chunks until it is closed or runs out. Close releases the
// underlying device and must be safe to call after the stream has ended.
type Stream interface {
	Chunks() <-chan []byte
	Close() error
}

// Controller drives one recording cycle at a time: idle -> recording -> idle.
type Controller struct {
	device      Device
	contentType string
	onComplete  func(Blob)

	mu       sync.Mutex
	state    State
	stopping bool
	stream   Stream
	chunks   [][]byte
	stop     chan struct{}
	done     chan struct{}
	drained  chan struct{}
}

// NewController creates a controller. onComplete, if non-nil, is invoked
// with every finalized blob.
func NewController(device Device, contentType string, onComplete func(Blob)) *Controller {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &Controller{
		device:      device,
		contentType: contentType,
		onComplete:  onComplete,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Drained is closed once the current stream has delivered its last chunk.
// It returns nil while idle.
func (c *Controller) Drained() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drained
}

// Start acquires the device and begins accumulating chunks. On error the
// controller stays idle.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRecording {
		return ErrAlreadyRecording
	}

	stream, err := c.device.Open(ctx)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}

	c.stream = stream
	c.chunks = nil
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.drained = make(chan struct{})
	c.state = StateRecording

	go c.accumulate(stream, c.stop, c.done, c.drained)

	slog.Debug("recording started")
	return nil
}

func (c *Controller) accumulate(stream Stream, stop <-chan struct{}, done, drained chan struct{}) {
	defer close(done)
	in := stream.Chunks()
	for {
		select {
		case <-stop:
			return
		case chunk, ok := <-in:
			if !ok {
				close(drained)
				return
			}
			if len(chunk) == 0 {
				continue
			}
			c.mu.Lock()
			c.chunks = append(c.chunks, chunk)
			c.mu.Unlock()
		}
	}
}

// Stop ends the cycle, releases the device and returns the chunks
// concatenated in arrival order.
func (c *Controller) Stop() (Blob, error) {
	c.mu.Lock()
	if c.state != StateRecording || c.stopping {
		c.mu.Unlock()
		return Blob{}, ErrNotRecording
	}
	c.stopping = true
	stream, stop, done := c.stream, c.stop, c.done
	c.mu.Unlock()

	close(stop)
	<-done

	closeErr := stream.Close()
	if closeErr != nil {
		slog.Warn("release audio device", "error", closeErr)
	}

	c.mu.Lock()
	blob := Blob{
		Data:        bytes.Join(c.chunks, nil),
		ContentType: c.contentType,
	}
	chunkCount := len(c.chunks)
	c.chunks = nil
	c.stream = nil
	c.drained = nil
	c.stopping = false
	c.state = StateIdle
	c.mu.Unlock()

	slog.Debug("recording stopped", "chunks", chunkCount, "bytes", len(blob.Data))

	if c.onComplete != nil {
		c.onComplete(blob)
	}
	return blob, nil
}
