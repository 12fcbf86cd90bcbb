package provider

import (
	"context"
	"image"
)

// FaceDetector is implemented by every face detection backend.
// A nil box with a nil error means no face was found in the frame.
type FaceDetector interface {
	// Name identifies the backend in logs and audit events
	Name() string

	// DetectFace returns the bounding box of the most prominent face, in frame pixels
	DetectFace(ctx context.Context, frame image.Image) (*BoundingBox, error)
}

// Loader is implemented by backends that need a one-time model or client load
// before the first DetectFace call.
type Loader interface {
	Load(ctx context.Context) error
}

// BoundingBox represents the face area in the frame, in pixels
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box area in pixels²
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Largest returns the box with the biggest area, or nil for an empty slice
func Largest(boxes []BoundingBox) *BoundingBox {
	var best *BoundingBox
	for i := range boxes {
		if best == nil || boxes[i].Area() > best.Area() {
			best = &boxes[i]
		}
	}
	return best
}
