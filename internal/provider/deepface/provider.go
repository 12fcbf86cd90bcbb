package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/vivo/internal/imaging"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

// detectionQuality keeps per-tick uploads small; stills use the full quality
const detectionQuality = 70

// Provider implements provider.FaceDetector using the DeepFace REST API.
// It is the polyfill backend: Load must succeed before DetectFace is used.
type Provider struct {
	client *Client
	config Config
	loaded atomic.Bool
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
		config: config,
	}
}

// Name identifies the backend
func (p *Provider) Name() string {
	return "deepface"
}

// Load checks the API is reachable and forces the detector model to build
func (p *Provider) Load(ctx context.Context) error {
	if p.loaded.Load() {
		return nil
	}

	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("load deepface detector: %w", err)
	}

	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	uri, err := toDataURI(blank)
	if err != nil {
		return fmt.Errorf("load deepface detector: %w", err)
	}
	if err := p.client.WarmUp(ctx, uri); err != nil {
		return fmt.Errorf("load deepface detector: %w", err)
	}

	p.loaded.Store(true)
	return nil
}

// DetectFace sends the frame to /analyze and returns the largest confident region
func (p *Provider) DetectFace(ctx context.Context, frame image.Image) (*provider.BoundingBox, error) {
	if !p.loaded.Load() {
		return nil, ErrModelNotLoaded
	}

	uri, err := toDataURI(frame)
	if err != nil {
		return nil, fmt.Errorf("detect face: %w", err)
	}

	resp, err := p.client.Analyze(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("detect face: %w", err)
	}

	boxes := make([]provider.BoundingBox, 0, len(resp.Results))
	for _, result := range resp.Results {
		// enforce_detection=false reports the whole frame with zero confidence when no face is found
		if result.FaceConfidence < p.config.MinConfidence {
			continue
		}
		if result.Region.W <= 0 || result.Region.H <= 0 {
			continue
		}
		boxes = append(boxes, provider.BoundingBox{
			X:      float64(result.Region.X),
			Y:      float64(result.Region.Y),
			Width:  float64(result.Region.W),
			Height: float64(result.Region.H),
		})
	}

	return provider.Largest(boxes), nil
}

func toDataURI(frame image.Image) (string, error) {
	data, err := imaging.EncodeJPEG(frame, detectionQuality)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

var (
	_ provider.FaceDetector = (*Provider)(nil)
	_ provider.Loader       = (*Provider)(nil)
)
