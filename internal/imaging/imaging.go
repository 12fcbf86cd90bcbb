// Package imaging holds the small pixel operations the capture pipeline needs:
// horizontal mirroring and JPEG encoding of camera frames.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
)

// DefaultQuality matches the 0.9 quality used for captured stills
const DefaultQuality = 90

var ErrEmptyFrame = errors.New("empty frame")

// Mirror returns a horizontally flipped copy of frame, undoing the natural
// mirroring of a front-facing camera.
func Mirror(frame image.Image) (*image.RGBA, error) {
	if frame == nil {
		return nil, ErrEmptyFrame
	}
	b := frame.Bounds()
	if b.Empty() {
		return nil, ErrEmptyFrame
	}

	src := toRGBA(frame)
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	width := b.Dx()

	for y := 0; y < b.Dy(); y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+width*4]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		for x := 0; x < width; x++ {
			copy(dstRow[(width-1-x)*4:(width-x)*4], srcRow[x*4:x*4+4])
		}
	}

	return dst, nil
}

// EncodeJPEG compresses frame at the given quality (1-100)
func EncodeJPEG(frame image.Image, quality int) ([]byte, error) {
	if frame == nil || frame.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyFrame
	}
	return buf.Bytes(), nil
}

// Size returns the frame dimensions, zero for a nil frame
func Size(frame image.Image) (width, height int) {
	if frame == nil {
		return 0, 0
	}
	b := frame.Bounds()
	return b.Dx(), b.Dy()
}

func toRGBA(frame image.Image) *image.RGBA {
	b := frame.Bounds()
	if rgba, ok := frame.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), frame, b.Min, draw.Src)
	return rgba
}
