package liveness

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/vivo/internal/camera"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

const (
	frameW = 64
	frameH = 48
)

type fakeStream struct {
	frames func(call int) image.Image
	calls  atomic.Int32
	closed atomic.Int32
}

func (s *fakeStream) Frame() image.Image {
	call := int(s.calls.Add(1))
	if s.closed.Load() > 0 {
		return nil
	}
	if s.frames != nil {
		return s.frames(call)
	}
	return image.NewRGBA(image.Rect(0, 0, frameW, frameH))
}

func (s *fakeStream) Close() error {
	s.closed.Add(1)
	return nil
}

type fakeCamera struct {
	err    error
	frames func(call int) image.Image

	mu      sync.Mutex
	streams []*fakeStream
}

func (c *fakeCamera) Acquire(ctx context.Context) (camera.Stream, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &fakeStream{frames: c.frames}
	c.streams = append(c.streams, s)
	return s, nil
}

func (c *fakeCamera) acquired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}

func (c *fakeCamera) stream(i int) *fakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[i]
}

// fakeDetector reports a face when centered/present say so
type fakeDetector struct {
	present  atomic.Bool
	centered atomic.Bool
	closed   atomic.Int32
}

func newFakeDetector(present, centered bool) *fakeDetector {
	d := &fakeDetector{}
	d.present.Store(present)
	d.centered.Store(centered)
	return d
}

func (d *fakeDetector) Name() string { return "fake" }

func (d *fakeDetector) Detect(ctx context.Context, frame image.Image) (*provider.BoundingBox, bool) {
	if frame == nil || !d.present.Load() {
		return nil, false
	}
	if d.centered.Load() {
		return &provider.BoundingBox{X: 22, Y: 14, Width: 20, Height: 20}, true
	}
	return &provider.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, true
}

func (d *fakeDetector) Close() error {
	d.closed.Add(1)
	return nil
}

func factoryFor(d *fakeDetector) DetectorFactory {
	return func(ctx context.Context) (Detector, error) {
		return d, nil
	}
}

type fakeVerifier struct {
	result *domain.VerificationResult
	err    error
	block  bool

	mu        sync.Mutex
	calls     int
	userID    string
	artifacts []domain.FrameArtifact
}

func (v *fakeVerifier) Submit(ctx context.Context, userID string, artifacts []domain.FrameArtifact) (*domain.VerificationResult, error) {
	v.mu.Lock()
	v.calls++
	v.userID = userID
	v.artifacts = append([]domain.FrameArtifact(nil), artifacts...)
	v.mu.Unlock()

	if v.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if v.err != nil {
		return nil, v.err
	}
	res := *v.result
	return &res, nil
}

func (v *fakeVerifier) snapshot() (int, string, []domain.FrameArtifact) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls, v.userID, v.artifacts
}

var errVerifierDown = errors.New("verifier returned status 500")
