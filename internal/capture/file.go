package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

const defaultFileChunkSize = 16 * 1024

// FileDevice replays a recorded audio file as a stream of chunks, standing in
// for a microphone on machines without one.
type FileDevice struct {
	Path      string
	ChunkSize int           // default: 16 KiB
	Interval  time.Duration // delay between chunks, zero for none
}

func (d *FileDevice) Open(ctx context.Context) (Stream, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, d.Path)
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, d.Path)
		default:
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
	}

	size := d.ChunkSize
	if size <= 0 {
		size = defaultFileChunkSize
	}

	return newReaderStream(ctx, f, size, d.Interval), nil
}

type readerStream struct {
	rc     io.ReadCloser
	ch     chan []byte
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newReaderStream(ctx context.Context, rc io.ReadCloser, chunkSize int, interval time.Duration) *readerStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &readerStream{
		rc:     rc,
		ch:     make(chan []byte),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.pump(ctx, chunkSize, interval)
	return s
}

func (s *readerStream) pump(ctx context.Context, chunkSize int, interval time.Duration) {
	defer close(s.done)
	defer close(s.ch)

	for {
		buf := make([]byte, chunkSize)
		n, err := io.ReadFull(s.rc, buf)
		if n > 0 {
			select {
			case s.ch <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && ctx.Err() == nil {
				slog.Warn("audio stream read failed", "error", err)
			}
			return
		}
		if interval > 0 {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *readerStream) Chunks() <-chan []byte { return s.ch }

func (s *readerStream) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		err = s.rc.Close()
	})
	return err
}
