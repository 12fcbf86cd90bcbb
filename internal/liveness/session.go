package liveness

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vivo/internal/audit"
	"github.com/saturnino-fabrica-de-software/vivo/internal/camera"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// session is one liveness attempt. The artifacts slice is owned by the
// sequencer goroutine; everything visible to callers goes through the
// manager's state under its mutex.
type session struct {
	id         uuid.UUID
	userID     string
	challenges []domain.Challenge

	ctx    context.Context
	cancel context.CancelFunc

	stream   camera.Stream
	detector Detector
	presence *presenceLoop
	sampler  sampler

	artifacts []domain.FrameArtifact

	releaseOnce sync.Once
	done        chan struct{}
}

// release tears the session down exactly once, whichever exit path gets here first
func (s *session) release() {
	s.releaseOnce.Do(func() {
		s.cancel()
		<-s.presence.Done()
		_ = s.stream.Close()
		_ = s.detector.Close()
	})
}

// discard frees the resources of a session whose loops never started
func (s *session) discard() {
	s.releaseOnce.Do(func() {
		s.cancel()
		_ = s.stream.Close()
		_ = s.detector.Close()
		close(s.done)
	})
}

// run drives the challenge sequence: wait for a centered face, capture every
// challenge in order, submit once, then release.
func (m *Manager) run(s *session) {
	defer func() {
		s.artifacts = nil
		close(s.done)
	}()

	select {
	case <-s.ctx.Done():
		return
	case <-s.presence.Centered():
	}

	m.audit(s, audit.Event{EventType: audit.EventCaptureStarted, Success: true})

	for step, ch := range s.challenges {
		if !m.apply(s, func(u *domain.Update) {
			u.Status = domain.StatusCapturing
			u.Challenge = ch.Name
			u.ChallengeStep = step + 1
			u.SampleProgress = 0
			u.SamplesRequired = ch.FramesPerMove
		}) {
			return
		}

		for index := 0; index < ch.FramesPerMove; index++ {
			artifact, err := s.sampler.capture(ch.Name, index, time.Now())
			if err != nil {
				m.logger.Debug("sample skipped", "session_id", s.id, "error", err)
			} else {
				s.artifacts = append(s.artifacts, artifact)
			}

			captured := len(s.artifacts)
			progress := index + 1
			if !m.apply(s, func(u *domain.Update) {
				u.SampleProgress = progress
				u.Captured = captured
			}) {
				return
			}

			if !sleep(s.ctx, ch.FrameInterval) {
				return
			}
		}
	}

	if !m.apply(s, func(u *domain.Update) {
		u.Status = domain.StatusSubmitting
	}) {
		return
	}

	frames := len(s.artifacts)
	result, err := m.verifier.Submit(s.ctx, s.userID, s.artifacts)
	s.artifacts = nil

	if s.ctx.Err() != nil {
		return
	}

	if err != nil {
		if m.apply(s, func(u *domain.Update) {
			u.Status = domain.StatusFailed
			u.Error = err.Error()
		}) {
			m.logger.Warn("liveness submission failed", "session_id", s.id, "error", err)
			m.audit(s, audit.Event{
				EventType: audit.EventSessionFailed,
				Frames:    frames,
				Error:     err.Error(),
			})
		}
	} else {
		if result == nil {
			result = &domain.VerificationResult{}
		}
		result.FramesSubmitted = frames
		if m.apply(s, func(u *domain.Update) {
			u.Status = domain.StatusCompleted
			u.Result = result
		}) {
			m.logger.Info("liveness session completed",
				"session_id", s.id,
				"passed", result.Passed,
				"frames", frames,
			)
			m.audit(s, audit.Event{
				EventType: audit.EventSessionSubmitted,
				Frames:    frames,
				Success:   result.Passed,
				Metadata: map[string]string{
					"status":         result.Status,
					"matching_ratio": strconv.FormatFloat(result.MatchingRatio, 'f', 4, 64),
				},
			})
		}
	}

	s.release()
}

// sleep waits d or until ctx is cancelled; false means cancelled
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
