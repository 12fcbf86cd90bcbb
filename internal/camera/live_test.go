package camera

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource delivers frames from a channel; closing the channel or
// sending an error ends the source.
type scriptedSource struct {
	reads  chan func() (image.Image, error)
	closed atomic.Int32
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{reads: make(chan func() (image.Image, error))}
}

func (s *scriptedSource) Read() (image.Image, error) {
	next, ok := <-s.reads
	if !ok {
		return nil, ErrSourceEnded
	}
	return next()
}

func (s *scriptedSource) Close() error {
	s.closed.Add(1)
	return nil
}

func (s *scriptedSource) push(img image.Image, err error) {
	s.reads <- func() (image.Image, error) { return img, err }
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLiveStream_KeepsLatestFrame(t *testing.T) {
	src := newScriptedSource()
	stream := NewLiveStream(src, quietLogger())
	defer stream.Close()

	assert.Nil(t, stream.Frame())

	first := image.NewRGBA(image.Rect(0, 0, 2, 2))
	second := image.NewRGBA(image.Rect(0, 0, 3, 3))
	src.push(first, nil)
	src.push(nil, nil) // skipped frame keeps the previous one
	require.Eventually(t, func() bool { return stream.Frame() == image.Image(first) }, time.Second, time.Millisecond)

	src.push(second, nil)
	require.Eventually(t, func() bool { return stream.Frame() == image.Image(second) }, time.Second, time.Millisecond)
	assert.False(t, stream.Failed())
}

func TestLiveStream_FailedSourceStopsServingFrames(t *testing.T) {
	tests := []struct {
		name string
		end  func(src *scriptedSource)
	}{
		{"read error", func(src *scriptedSource) { src.push(nil, errors.New("device unplugged")) }},
		{"source ended", func(src *scriptedSource) { close(src.reads) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newScriptedSource()
			stream := NewLiveStream(src, quietLogger())
			defer stream.Close()

			src.push(image.NewRGBA(image.Rect(0, 0, 2, 2)), nil)
			require.Eventually(t, func() bool { return stream.Frame() != nil }, time.Second, time.Millisecond)

			tt.end(src)

			require.Eventually(t, func() bool { return stream.Frame() == nil }, time.Second, time.Millisecond,
				"a dead source must not keep serving its last frame")
			assert.True(t, stream.Failed())
		})
	}
}

func TestLiveStream_CloseIsIdempotent(t *testing.T) {
	src := newScriptedSource()
	stream := NewLiveStream(src, quietLogger())

	src.push(image.NewRGBA(image.Rect(0, 0, 2, 2)), nil)
	require.Eventually(t, func() bool { return stream.Frame() != nil }, time.Second, time.Millisecond)

	// the reader is blocked in Read; ending the source lets Close finish
	close(src.reads)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	assert.Nil(t, stream.Frame())
	assert.Equal(t, int32(1), src.closed.Load())
}
