// Package opencv implements native face detection with a Haar cascade.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

var (
	ErrCascadeNotFound = errors.New("haar cascade file not found")
	ErrCascadeInvalid  = errors.New("haar cascade file could not be loaded")
)

const cascadeFile = "haarcascade_frontalface_default.xml"

// fallbackCascadeDirs lists the usual install locations of OpenCV data files
var fallbackCascadeDirs = []string{
	".",
	"./models",
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv4/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// ResolveCascadePath returns the first readable cascade, starting with path
func ResolveCascadePath(path string) (string, error) {
	candidates := make([]string, 0, len(fallbackCascadeDirs)+1)
	if path != "" {
		candidates = append(candidates, path)
	}
	for _, dir := range fallbackCascadeDirs {
		candidates = append(candidates, filepath.Join(dir, cascadeFile))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrCascadeNotFound, candidates)
}

// Available reports whether the native backend can run on this host
func Available(path string) bool {
	_, err := ResolveCascadePath(path)
	return err == nil
}

// Provider implements provider.FaceDetector with an OpenCV cascade classifier.
// The classifier is not safe for concurrent use, so detection is serialized.
type Provider struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	path       string
}

var _ provider.FaceDetector = (*Provider)(nil)

// NewProvider loads the cascade found by ResolveCascadePath
func NewProvider(path string) (*Provider, error) {
	resolved, err := ResolveCascadePath(path)
	if err != nil {
		return nil, err
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(resolved) {
		_ = classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeInvalid, resolved)
	}

	return &Provider{classifier: classifier, path: resolved}, nil
}

func (p *Provider) Name() string {
	return "opencv"
}

// Path is the cascade file in use
func (p *Provider) Path() string {
	return p.path
}

// DetectFace runs the cascade on an equalized grayscale copy of frame
func (p *Provider) DetectFace(ctx context.Context, frame image.Image) (*provider.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	p.mu.Lock()
	faces := p.classifier.DetectMultiScaleWithParams(
		equalized,
		1.1,                       // scale factor
		4,                         // min neighbors
		0,                         // flags
		image.Point{X: 60, Y: 60}, // min size
		image.Point{},             // no max size
	)
	p.mu.Unlock()

	boxes := make([]provider.BoundingBox, 0, len(faces))
	for _, face := range faces {
		boxes = append(boxes, provider.BoundingBox{
			X:      float64(face.Min.X),
			Y:      float64(face.Min.Y),
			Width:  float64(face.Dx()),
			Height: float64(face.Dy()),
		})
	}

	return provider.Largest(boxes), nil
}

// Close releases the classifier
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.classifier.Close()
}
