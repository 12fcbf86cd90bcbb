package liveness

import (
	"math"
	"time"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

const (
	DefaultFrameWidth      = 640
	DefaultFrameHeight     = 480
	DefaultCenterTolerance = 0.22

	// keeps a face sitting exactly on the tolerance boundary centered
	centerSlack = 1e-9
)

// Evaluate turns a detection result into a presence snapshot. A face is
// centered when its box center lies within tolerance of the frame center on
// both axes. Zero frame dimensions fall back to 640x480.
func Evaluate(box *provider.BoundingBox, width, height int, tolerance float64, at time.Time) domain.Snapshot {
	snap := domain.Snapshot{At: at}
	if box == nil {
		return snap
	}

	if width <= 0 || height <= 0 {
		width, height = DefaultFrameWidth, DefaultFrameHeight
	}

	snap.Present = true
	snap.HasCenter = true
	snap.NX = (box.X + box.Width/2) / float64(width)
	snap.NY = (box.Y + box.Height/2) / float64(height)
	snap.Centered = math.Abs(snap.NX-0.5) <= tolerance+centerSlack &&
		math.Abs(snap.NY-0.5) <= tolerance+centerSlack

	return snap
}
