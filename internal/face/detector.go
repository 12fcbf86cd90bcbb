package face

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

// Detector adapts a backend to the "face or no face" contract the presence
// loop needs. Backend errors and panics are reported as no face.
type Detector struct {
	backend provider.FaceDetector
	logger  *slog.Logger
}

// Wrap adapts an already built backend
func Wrap(backend provider.FaceDetector, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		backend: backend,
		logger:  logger.With("component", "detector", "backend", backend.Name()),
	}
}

// Name of the backend in use
func (d *Detector) Name() string {
	return d.backend.Name()
}

// Detect returns the largest face in frame, or ok=false when there is none
// or detection failed.
func (d *Detector) Detect(ctx context.Context, frame image.Image) (box *provider.BoundingBox, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("detector panic recovered", "panic", fmt.Sprint(r))
			box, ok = nil, false
		}
	}()

	if frame == nil {
		return nil, false
	}

	found, err := d.backend.DetectFace(ctx, frame)
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Debug("face detection failed", "error", err)
		}
		return nil, false
	}
	if found == nil || found.Width <= 0 || found.Height <= 0 {
		return nil, false
	}

	return found, true
}

// Close releases backend resources, if the backend holds any
func (d *Detector) Close() error {
	if closer, ok := d.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
