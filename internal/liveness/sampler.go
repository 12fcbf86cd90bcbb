package liveness

import (
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/vivo/internal/camera"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/imaging"
)

// sampler turns the stream's current frame into a mirrored JPEG artifact
type sampler struct {
	stream  camera.Stream
	quality int
}

func (s sampler) capture(challenge string, index int, at time.Time) (domain.FrameArtifact, error) {
	frame := s.stream.Frame()
	if frame == nil {
		return domain.FrameArtifact{}, fmt.Errorf("capture %s/%d: %w", challenge, index, imaging.ErrEmptyFrame)
	}

	mirrored, err := imaging.Mirror(frame)
	if err != nil {
		return domain.FrameArtifact{}, fmt.Errorf("capture %s/%d: %w", challenge, index, err)
	}

	data, err := imaging.EncodeJPEG(mirrored, s.quality)
	if err != nil {
		return domain.FrameArtifact{}, fmt.Errorf("capture %s/%d: %w", challenge, index, err)
	}

	return domain.FrameArtifact{
		Challenge:   challenge,
		Index:       index,
		CapturedAt:  at,
		ContentType: domain.ContentTypeJPEG,
		Data:        data,
	}, nil
}
