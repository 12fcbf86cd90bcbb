package mock

import (
	"context"
	"image"
	"sync"

	"github.com/saturnino-fabrica-de-software/vivo/internal/imaging"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

// Provider implementa provider.FaceDetector para testes e desenvolvimento.
// Each DetectFace call consumes one scripted step; the last step repeats.
type Provider struct {
	mu      sync.Mutex
	steps   []Step
	calls   int
	loads   int
	loadErr error
}

// Step is one scripted detection outcome. A nil Box means no face.
// Box coordinates are fractions of the frame size.
type Step struct {
	Box   *provider.BoundingBox
	Err   error
	Panic bool
}

// New cria uma nova instância do MockProvider
func New(steps ...Step) *Provider {
	return &Provider{steps: steps}
}

// Centered returns a detector that always sees a face in the middle of the frame
func Centered() *Provider {
	return New(Step{Box: CenteredBox()})
}

// Absent returns a detector that never sees a face
func Absent() *Provider {
	return New(Step{})
}

// Failing returns a detector whose every call errors
func Failing(err error) *Provider {
	return New(Step{Err: err})
}

// CenteredBox is a face covering the middle half of the frame
func CenteredBox() *provider.BoundingBox {
	return &provider.BoundingBox{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}
}

// OffCenterBox is a face pushed against the left edge
func OffCenterBox() *provider.BoundingBox {
	return &provider.BoundingBox{X: 0, Y: 0.25, Width: 0.2, Height: 0.5}
}

// WithLoadError makes Load fail
func (p *Provider) WithLoadError(err error) *Provider {
	p.loadErr = err
	return p
}

func (p *Provider) Name() string {
	return "mock"
}

// Load simula o carregamento do modelo
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads++
	return p.loadErr
}

// DetectFace returns the next scripted step scaled to the frame size
func (p *Provider) DetectFace(ctx context.Context, frame image.Image) (*provider.BoundingBox, error) {
	p.mu.Lock()
	step := Step{}
	if len(p.steps) > 0 {
		idx := p.calls
		if idx >= len(p.steps) {
			idx = len(p.steps) - 1
		}
		step = p.steps[idx]
	}
	p.calls++
	p.mu.Unlock()

	if step.Panic {
		panic("mock detector panic")
	}
	if step.Err != nil {
		return nil, step.Err
	}
	if step.Box == nil {
		return nil, nil
	}

	w, h := imaging.Size(frame)
	return &provider.BoundingBox{
		X:      step.Box.X * float64(w),
		Y:      step.Box.Y * float64(h),
		Width:  step.Box.Width * float64(w),
		Height: step.Box.Height * float64(h),
	}, nil
}

// Calls returns how many detections ran
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Loads returns how many times Load was called
func (p *Provider) Loads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads
}

var (
	_ provider.FaceDetector = (*Provider)(nil)
	_ provider.Loader       = (*Provider)(nil)
)
