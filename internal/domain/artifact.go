package domain

import (
	"fmt"
	"time"
)

const ContentTypeJPEG = "image/jpeg"

// FrameArtifact is one captured, mirrored, encoded still tagged with its challenge
type FrameArtifact struct {
	Challenge   string    `json:"challenge"`
	Index       int       `json:"index"`
	CapturedAt  time.Time `json:"captured_at"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
}

// Filename follows frame_<CHALLENGE>_<index>_<unix-ms>.jpg
func (a FrameArtifact) Filename() string {
	return fmt.Sprintf("frame_%s_%d_%d.jpg", a.Challenge, a.Index, a.CapturedAt.UnixMilli())
}

// VerificationResult is the payload returned by the verification service.
// Passed mirrors same_person_batch; the rest is informational.
type VerificationResult struct {
	Status            string  `json:"status"`
	Passed            bool    `json:"same_person_batch"`
	MatchingRatio     float64 `json:"matching_ratio"`
	AverageSimilarity float64 `json:"average_similarity"`
	ProcessingTime    float64 `json:"processing_time"`
	BatchMessage      string  `json:"batch_message,omitempty"`
	Message           string  `json:"message,omitempty"`
	FramesSubmitted   int     `json:"frames_submitted"`
}
