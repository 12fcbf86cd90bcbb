// Package camera abstracts the video source a liveness session holds.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

var (
	ErrUnavailable = errors.New("camera unavailable")
	ErrClosed      = errors.New("camera stream closed")
)

// Camera hands out exclusive streams of frames
type Camera interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera. Frame returns the most recent frame, or nil
// when none has arrived yet. It is safe to call from several goroutines.
type Stream interface {
	Frame() image.Image
	Close() error
}

// Still is a Camera that serves one fixed image. Used in development and tests.
type Still struct {
	img image.Image

	mu   sync.Mutex
	open bool
}

func NewStill(img image.Image) *Still {
	return &Still{img: img}
}

// LoadStill decodes a JPEG or PNG file into a Still camera
func LoadStill(path string) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open still image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode still image: %w", err)
	}
	return NewStill(img), nil
}

func (s *Still) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil, fmt.Errorf("%w: already in use", ErrUnavailable)
	}
	s.open = true
	return &stillStream{owner: s}, nil
}

// InUse reports whether a stream is currently held
func (s *Still) InUse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

type stillStream struct {
	owner *Still
	once  sync.Once
	mu    sync.RWMutex
	done  bool
}

func (s *stillStream) Frame() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return nil
	}
	return s.owner.img
}

func (s *stillStream) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()

		s.owner.mu.Lock()
		s.owner.open = false
		s.owner.mu.Unlock()
	})
	return nil
}
