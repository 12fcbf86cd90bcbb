package camera

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrSourceEnded is returned by a FrameSource that can no longer deliver
// frames, e.g. an unplugged device or a finished stream.
var ErrSourceEnded = errors.New("camera source ended")

// FrameSource is a blocking frame reader. Read returns a nil image with a nil
// error for a frame that should be skipped, and a non-nil error once the
// source is unusable.
type FrameSource interface {
	Read() (image.Image, error)
	Close() error
}

type frameSlot struct {
	img image.Image
}

// LiveStream keeps the latest frame of a FrameSource. Once the source fails
// Frame returns nil for the rest of the stream's life, so a dead device never
// keeps serving its last picture.
type LiveStream struct {
	source FrameSource
	logger *slog.Logger
	latest atomic.Pointer[frameSlot]
	failed atomic.Bool

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewLiveStream starts reading src in its own goroutine
func NewLiveStream(src FrameSource, logger *slog.Logger) *LiveStream {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LiveStream{
		source: src,
		logger: logger,
		stop:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.readLoop()
	return s
}

func (s *LiveStream) readLoop() {
	defer s.wg.Done()
	defer s.latest.Store(nil)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		img, err := s.source.Read()
		if err != nil {
			s.failed.Store(true)
			s.logger.Warn("camera read failed, stopping reader", "error", err)
			return
		}
		if img == nil {
			continue
		}
		s.latest.Store(&frameSlot{img: img})
	}
}

func (s *LiveStream) Frame() image.Image {
	slot := s.latest.Load()
	if slot == nil {
		return nil
	}
	return slot.img
}

// Failed reports whether the source stopped delivering frames
func (s *LiveStream) Failed() bool {
	return s.failed.Load()
}

// Close stops the reader and releases the source. Safe to call more than once.
func (s *LiveStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.closeErr = s.source.Close()
	})
	return s.closeErr
}
