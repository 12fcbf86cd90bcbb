package face

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
	"github.com/saturnino-fabrica-de-software/vivo/internal/provider/mock"
)

func TestDetector_Detect(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	ctx := context.Background()

	tests := []struct {
		name    string
		backend *mock.Provider
		wantOK  bool
	}{
		{"face found", mock.Centered(), true},
		{"no face", mock.Absent(), false},
		{"backend error becomes no face", mock.Failing(errors.New("service down")), false},
		{"backend panic becomes no face", mock.New(mock.Step{Panic: true}), false},
		{"degenerate box becomes no face", mock.New(mock.Step{Box: &provider.BoundingBox{Width: 0, Height: 0.5}}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Wrap(tt.backend, nil)

			box, ok := d.Detect(ctx, frame)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, box)
				assert.Equal(t, 320.0, box.Width)
			} else {
				assert.Nil(t, box)
			}
		})
	}
}

func TestDetector_DetectNilFrame(t *testing.T) {
	backend := mock.Centered()
	d := Wrap(backend, nil)

	_, ok := d.Detect(context.Background(), nil)

	assert.False(t, ok)
	assert.Equal(t, 0, backend.Calls())
}

func TestDetector_CloseWithoutCloser(t *testing.T) {
	d := Wrap(mock.Absent(), nil)

	assert.NoError(t, d.Close())
	assert.Equal(t, "mock", d.Name())
}
