// Package opencv captures frames from a local video device through gocv.
package opencv

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/vivo/internal/camera"
)

// Device opens a webcam by index or a stream by URL
type Device struct {
	ID     string
	Width  int
	Height int
	Logger *slog.Logger
}

var _ camera.Camera = (*Device)(nil)

// Acquire opens the device and starts a reader goroutine that keeps the
// latest decoded frame available to Frame.
func (d *Device) Acquire(ctx context.Context) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var source interface{} = d.ID
	if idx, err := strconv.Atoi(d.ID); err == nil {
		source = idx
	}

	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrUnavailable, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("%w: device %s did not open", camera.ErrUnavailable, d.ID)
	}

	if d.Width > 0 && d.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(d.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(d.Height))
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "camera", "device", d.ID)

	return camera.NewLiveStream(&captureSource{
		capture: capture,
		mat:     gocv.NewMat(),
		logger:  logger,
	}, logger), nil
}

// captureSource adapts a gocv capture to camera.FrameSource. Read and Close
// are only called from the LiveStream, Close after the reader has exited.
type captureSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	logger  *slog.Logger
}

func (c *captureSource) Read() (image.Image, error) {
	if ok := c.capture.Read(&c.mat); !ok {
		return nil, camera.ErrSourceEnded
	}
	if c.mat.Empty() {
		return nil, nil
	}

	img, err := c.mat.ToImage()
	if err != nil {
		c.logger.Debug("frame conversion failed", "error", err)
		return nil, nil
	}
	return img, nil
}

func (c *captureSource) Close() error {
	_ = c.mat.Close()
	return c.capture.Close()
}
