package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a liveness session
type Status string

const (
	StatusIdle           Status = "idle"
	StatusAwaitingCenter Status = "awaiting_center"
	StatusCapturing      Status = "capturing"
	StatusSubmitting     Status = "submitting"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusStopped        Status = "stopped"
)

// Terminal reports whether no further transition can happen without a new session
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	}
	return false
}

// Active reports whether the session currently owns the camera
func (s Status) Active() bool {
	switch s {
	case StatusAwaitingCenter, StatusCapturing, StatusSubmitting:
		return true
	}
	return false
}

// Hint tells the presentation layer which message to render
type Hint string

const (
	HintNone            Hint = ""
	HintNoFace          Hint = "no_face"
	HintCenterFace      Hint = "center_face"
	HintMove            Hint = "move"
	HintValidating      Hint = "validating"
	HintPassed          Hint = "passed"
	HintRejected        Hint = "rejected"
	HintSubmissionError Hint = "submission_error"
	HintCameraError     Hint = "camera_error"
	HintStopped         Hint = "stopped"
)

// Challenge is one directional movement the subject must perform
type Challenge struct {
	Name          string        `json:"name"`
	FramesPerMove int           `json:"frames_per_move"`
	FrameInterval time.Duration `json:"frame_interval"`
}

// Snapshot is the latest presence/centering reading; only the newest one matters
type Snapshot struct {
	Present   bool      `json:"present"`
	Centered  bool      `json:"centered"`
	HasCenter bool      `json:"-"`
	NX        float64   `json:"nx,omitempty"`
	NY        float64   `json:"ny,omitempty"`
	At        time.Time `json:"at"`
}

// Update is one element of the caller-facing state stream
type Update struct {
	SessionID       uuid.UUID           `json:"session_id"`
	UserID          string              `json:"user_id,omitempty"`
	Status          Status              `json:"status"`
	Present         bool                `json:"present"`
	Centered        bool                `json:"centered"`
	Challenge       string              `json:"challenge,omitempty"`
	ChallengeStep   int                 `json:"challenge_step"`
	ChallengeCount  int                 `json:"challenge_count"`
	SampleProgress  int                 `json:"sample_progress"`
	SamplesRequired int                 `json:"samples_required"`
	Captured        int                 `json:"captured"`
	Hint            Hint                `json:"hint,omitempty"`
	Result          *VerificationResult `json:"result,omitempty"`
	Error           string              `json:"error,omitempty"`
	Timestamp       time.Time           `json:"timestamp"`
}

// DeriveHint picks the message class for the update's current state
func (u Update) DeriveHint() Hint {
	switch u.Status {
	case StatusIdle:
		if u.Error != "" {
			return HintCameraError
		}
		return HintNone
	case StatusStopped:
		return HintStopped
	case StatusFailed:
		return HintSubmissionError
	case StatusCompleted:
		if u.Result != nil && u.Result.Passed {
			return HintPassed
		}
		return HintRejected
	case StatusSubmitting:
		return HintValidating
	}

	if !u.Present {
		return HintNoFace
	}
	if u.Status == StatusCapturing {
		return HintMove
	}
	if !u.Centered {
		return HintCenterFace
	}
	return HintNone
}
