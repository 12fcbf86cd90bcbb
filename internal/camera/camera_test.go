package camera

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStill_AcquireIsExclusive(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	cam := NewStill(img)

	stream, err := cam.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, img, stream.Frame())
	assert.True(t, cam.InUse())

	_, err = cam.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close(), "close is idempotent")
	assert.Nil(t, stream.Frame())
	assert.False(t, cam.InUse())

	again, err := cam.Acquire(context.Background())
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}

func TestStill_AcquireCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStill(image.NewRGBA(image.Rect(0, 0, 1, 1))).Acquire(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadStill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.png")
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cam, err := LoadStill(path)
	require.NoError(t, err)

	stream, err := cam.Acquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = stream.Close() }()
	assert.Equal(t, image.Rect(0, 0, 3, 2), stream.Frame().Bounds())
}

func TestLoadStill_Missing(t *testing.T) {
	_, err := LoadStill(filepath.Join(t.TempDir(), "missing.png"))

	assert.Error(t, err)
}
