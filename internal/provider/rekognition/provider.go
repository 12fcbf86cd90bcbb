package rekognition

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/vivo/internal/imaging"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

// detectionQuality keeps request bodies well under the 5MB inline limit
const detectionQuality = 75

// Provider implements provider.FaceDetector using AWS Rekognition DetectFaces
type Provider struct {
	config Config

	mu     sync.RWMutex
	client DetectFacesAPI
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithClient injects a pre-built API client, skipping AWS config resolution on Load
func WithClient(client DetectFacesAPI) ProviderOption {
	return func(p *Provider) {
		p.client = client
	}
}

var (
	_ provider.FaceDetector = (*Provider)(nil)
	_ provider.Loader       = (*Provider)(nil)
)

// NewProvider creates a Rekognition detector. No AWS call is made until Load.
func NewProvider(cfg Config, opts ...ProviderOption) *Provider {
	p := &Provider{config: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "rekognition"
}

// Load resolves AWS credentials and region
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return nil
	}

	client, err := NewClient(ctx, p.config)
	if err != nil {
		return fmt.Errorf("load rekognition detector: %w", err)
	}
	p.client = client
	return nil
}

// DetectFace returns the largest face above MinConfidence in frame pixels
func (p *Provider) DetectFace(ctx context.Context, frame image.Image) (*provider.BoundingBox, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()

	if client == nil {
		return nil, ErrNotLoaded
	}

	data, err := imaging.EncodeJPEG(frame, detectionQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	out, err := client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: data},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, mapError(err)
	}

	width, height := imaging.Size(frame)
	boxes := make([]provider.BoundingBox, 0, len(out.FaceDetails))
	for _, detail := range out.FaceDetails {
		if detail.BoundingBox == nil || aws.ToFloat32(detail.Confidence) < p.config.MinConfidence {
			continue
		}
		boxes = append(boxes, toPixels(detail.BoundingBox, width, height))
	}

	return provider.Largest(boxes), nil
}

// toPixels scales a ratio-based Rekognition box to frame coordinates
func toPixels(box *types.BoundingBox, width, height int) provider.BoundingBox {
	return provider.BoundingBox{
		X:      float64(aws.ToFloat32(box.Left)) * float64(width),
		Y:      float64(aws.ToFloat32(box.Top)) * float64(height),
		Width:  float64(aws.ToFloat32(box.Width)) * float64(width),
		Height: float64(aws.ToFloat32(box.Height)) * float64(height),
	}
}
