package liveness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/vivo/internal/provider"
)

func TestEvaluate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name         string
		box          *provider.BoundingBox
		width        int
		height       int
		wantPresent  bool
		wantCentered bool
		wantNX       float64
		wantNY       float64
	}{
		{
			name:         "no face",
			box:          nil,
			width:        640,
			height:       480,
			wantPresent:  false,
			wantCentered: false,
			wantNX:       0,
			wantNY:       0,
		},
		{
			name:         "face in the middle",
			box:          &provider.BoundingBox{X: 220, Y: 140, Width: 200, Height: 200},
			width:        640,
			height:       480,
			wantPresent:  true,
			wantCentered: true,
			wantNX:       0.5,
			wantNY:       0.5,
		},
		{
			name:         "face against the left edge",
			box:          &provider.BoundingBox{X: 0, Y: 140, Width: 100, Height: 200},
			width:        640,
			height:       480,
			wantPresent:  true,
			wantCentered: false,
			wantNX:       50.0 / 640,
			wantNY:       0.5,
		},
		{
			name:         "horizontal offset exactly at tolerance",
			box:          &provider.BoundingBox{X: 62, Y: 40, Width: 20, Height: 20},
			width:        100,
			height:       100,
			wantPresent:  true,
			wantCentered: true,
			wantNX:       0.72,
			wantNY:       0.5,
		},
		{
			name:         "vertical offset just past tolerance",
			box:          &provider.BoundingBox{X: 40, Y: 63, Width: 20, Height: 20},
			width:        100,
			height:       100,
			wantPresent:  true,
			wantCentered: false,
			wantNX:       0.5,
			wantNY:       0.73,
		},
		{
			name:         "zero frame size falls back to 640x480",
			box:          &provider.BoundingBox{X: 220, Y: 140, Width: 200, Height: 200},
			width:        0,
			height:       0,
			wantPresent:  true,
			wantCentered: true,
			wantNX:       0.5,
			wantNY:       0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Evaluate(tt.box, tt.width, tt.height, DefaultCenterTolerance, now)

			assert.Equal(t, tt.wantPresent, snap.Present)
			assert.Equal(t, tt.wantCentered, snap.Centered)
			assert.Equal(t, tt.wantPresent, snap.HasCenter)
			assert.InDelta(t, tt.wantNX, snap.NX, 1e-9)
			assert.InDelta(t, tt.wantNY, snap.NY, 1e-9)
			assert.Equal(t, now, snap.At)
		})
	}
}

func TestEvaluate_CenteredImpliesPresent(t *testing.T) {
	for x := 0.0; x <= 600; x += 25 {
		snap := Evaluate(&provider.BoundingBox{X: x, Y: 100, Width: 40, Height: 40}, 640, 480, DefaultCenterTolerance, time.Now())
		if snap.Centered {
			assert.True(t, snap.Present)
		}
	}
}
