package liveness

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/vivo/internal/camera"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/imaging"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

// Detector is the fault-free detection seam the presence loop polls
type Detector interface {
	Name() string
	Detect(ctx context.Context, frame image.Image) (*provider.BoundingBox, bool)
	Close() error
}

// presenceLoop polls the detector on every tick and keeps the latest snapshot.
// Ticks that arrive while a detection is still running are dropped.
type presenceLoop struct {
	stream    camera.Stream
	detector  Detector
	interval  time.Duration
	tolerance float64
	onChange  func(domain.Snapshot)

	latest       atomic.Pointer[domain.Snapshot]
	centered     chan struct{}
	centeredOnce sync.Once
	done         chan struct{}
}

func newPresenceLoop(stream camera.Stream, detector Detector, interval time.Duration, tolerance float64, onChange func(domain.Snapshot)) *presenceLoop {
	p := &presenceLoop{
		stream:    stream,
		detector:  detector,
		interval:  interval,
		tolerance: tolerance,
		onChange:  onChange,
		centered:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	p.latest.Store(&domain.Snapshot{})
	return p
}

// Centered is closed the first time a centered face is seen
func (p *presenceLoop) Centered() <-chan struct{} {
	return p.centered
}

// Done is closed once run returns
func (p *presenceLoop) Done() <-chan struct{} {
	return p.done
}

func (p *presenceLoop) Latest() domain.Snapshot {
	return *p.latest.Load()
}

func (p *presenceLoop) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *presenceLoop) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	frame := p.stream.Frame()
	box, ok := p.detector.Detect(ctx, frame)
	// a result that lands after stop is discarded
	if ctx.Err() != nil {
		return
	}
	if !ok {
		box = nil
	}

	var width, height int
	if frame != nil {
		width, height = imaging.Size(frame)
	}
	snap := Evaluate(box, width, height, p.tolerance, time.Now())

	prev := p.latest.Swap(&snap)
	if snap.Centered {
		p.centeredOnce.Do(func() { close(p.centered) })
	}
	if p.onChange != nil && (prev.Present != snap.Present || prev.Centered != snap.Centered) {
		p.onChange(snap)
	}
}
