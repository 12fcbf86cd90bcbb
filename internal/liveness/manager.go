// Package liveness runs the capture pipeline: presence detection, the
// challenge sequence, frame sampling and the single verification submission.
package liveness

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vivo/internal/audit"
	"github.com/saturnino-fabrica-de-software/vivo/internal/camera"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/imaging"
)

// subscriberBuffer bounds how far a slow subscriber may lag before updates are dropped for it
const subscriberBuffer = 32

// Verifier submits a complete capture for verification, once
type Verifier interface {
	Submit(ctx context.Context, userID string, artifacts []domain.FrameArtifact) (*domain.VerificationResult, error)
}

// DetectorFactory builds the detector a new session will own
type DetectorFactory func(ctx context.Context) (Detector, error)

// Config holds the pipeline parameters shared by every session
type Config struct {
	Challenges       []domain.Challenge
	CenterTolerance  float64
	PresenceInterval time.Duration
	JPEGQuality      int
}

// DefaultConfig returns the LEFT, RIGHT sequence with 10 frames every 400ms
func DefaultConfig() Config {
	return Config{
		Challenges: []domain.Challenge{
			{Name: "LEFT", FramesPerMove: 10, FrameInterval: 400 * time.Millisecond},
			{Name: "RIGHT", FramesPerMove: 10, FrameInterval: 400 * time.Millisecond},
		},
		CenterTolerance:  DefaultCenterTolerance,
		PresenceInterval: 16 * time.Millisecond,
		JPEGQuality:      imaging.DefaultQuality,
	}
}

// Manager owns the camera and runs at most one session on it at a time
type Manager struct {
	config      Config
	camera      camera.Camera
	newDetector DetectorFactory
	verifier    Verifier
	auditLogger audit.Logger
	logger      *slog.Logger

	mu          sync.Mutex
	current     *session
	state       domain.Update
	starting    bool
	closed      bool
	subscribers map[int]chan domain.Update
	nextSubID   int
}

// Option defines optional configuration for Manager
type Option func(*Manager)

// WithAuditLogger sets the audit logger for session events
func WithAuditLogger(logger audit.Logger) Option {
	return func(m *Manager) {
		m.auditLogger = logger
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(cfg Config, cam camera.Camera, newDetector DetectorFactory, verifier Verifier, opts ...Option) *Manager {
	m := &Manager{
		config:      cfg,
		camera:      cam,
		newDetector: newDetector,
		verifier:    verifier,
		auditLogger: &audit.NoOpLogger{},
		logger:      slog.Default(),
		subscribers: make(map[int]chan domain.Update),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "liveness")
	m.state = domain.Update{
		Status:         domain.StatusIdle,
		ChallengeCount: len(cfg.Challenges),
		Timestamp:      time.Now().UTC(),
	}
	return m
}

// Start acquires the camera for userID and begins waiting for a centered face.
// The ctx bounds detector and camera acquisition only; the session itself runs
// until it completes, fails or is stopped.
func (m *Manager) Start(ctx context.Context, userID string) (*domain.Update, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}

	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return nil, domain.ErrCameraUnavailable.WithError(errors.New("manager closed"))
	case m.starting, m.current != nil && !m.state.Status.Terminal():
		m.mu.Unlock()
		return nil, domain.ErrSessionActive
	}
	m.starting = true
	prev := m.current
	m.mu.Unlock()

	// a finished session may still be releasing the camera
	if prev != nil {
		<-prev.done
	}

	s, err := m.open(ctx, userID)

	m.mu.Lock()
	m.starting = false
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if m.closed {
		m.mu.Unlock()
		s.discard()
		return nil, domain.ErrCameraUnavailable.WithError(errors.New("manager closed"))
	}

	m.current = s
	m.state = domain.Update{
		SessionID:       s.id,
		UserID:          s.userID,
		Status:          domain.StatusAwaitingCenter,
		ChallengeCount:  len(s.challenges),
		SamplesRequired: s.challenges[0].FramesPerMove,
	}
	update := m.commitLocked()
	m.mu.Unlock()

	go s.presence.run(s.ctx)
	go m.run(s)

	m.logger.Info("liveness session started", "session_id", s.id, "detector", s.detector.Name())
	m.audit(s, audit.Event{EventType: audit.EventSessionStarted, Success: true})

	return &update, nil
}

// open builds the detector and acquires the camera for a new session
func (m *Manager) open(ctx context.Context, userID string) (*session, error) {
	if len(m.config.Challenges) == 0 {
		return nil, domain.ErrInternal.WithError(errors.New("empty challenge sequence"))
	}

	detector, err := m.newDetector(ctx)
	if err != nil {
		m.logger.Error("detector unavailable", "error", err)
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, domain.ErrDetectorUnavailable.WithError(err)
	}

	stream, err := m.camera.Acquire(ctx)
	if err != nil {
		_ = detector.Close()
		m.cameraFailed(userID, detector.Name(), err)
		return nil, domain.ErrCameraUnavailable.WithError(err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:         uuid.New(),
		userID:     userID,
		challenges: m.config.Challenges,
		ctx:        sessionCtx,
		cancel:     cancel,
		stream:     stream,
		detector:   detector,
		sampler:    sampler{stream: stream, quality: m.config.JPEGQuality},
		done:       make(chan struct{}),
	}
	s.presence = newPresenceLoop(stream, detector, m.config.PresenceInterval, m.config.CenterTolerance,
		func(snap domain.Snapshot) {
			m.apply(s, func(u *domain.Update) {
				u.Present = snap.Present
				u.Centered = snap.Centered
			})
		})

	return s, nil
}

// cameraFailed reports an acquisition error once and leaves the manager idle
func (m *Manager) cameraFailed(userID, detector string, err error) {
	m.logger.Error("camera acquisition failed", "user_id", userID, "error", err)

	m.mu.Lock()
	m.current = nil
	m.state = domain.Update{
		UserID:         userID,
		Status:         domain.StatusIdle,
		ChallengeCount: len(m.config.Challenges),
		Error:          err.Error(),
	}
	m.commitLocked()
	m.mu.Unlock()

	_ = m.auditLogger.Log(context.Background(), audit.Event{
		EventType: audit.EventCameraFailed,
		UserID:    userID,
		Detector:  detector,
		Error:     err.Error(),
	})
}

// Stop cancels the current session from any state and releases the camera.
// Calling it again, or with no session, has no effect.
func (m *Manager) Stop() {
	m.mu.Lock()
	s := m.current
	if s == nil || m.state.Status == domain.StatusStopped {
		m.mu.Unlock()
		return
	}
	m.state.Status = domain.StatusStopped
	m.state.Result = nil
	m.state.Error = ""
	m.commitLocked()
	m.mu.Unlock()

	s.release()
	<-s.done

	m.logger.Info("liveness session stopped", "session_id", s.id)
	m.audit(s, audit.Event{EventType: audit.EventSessionStopped, Success: true})
}

// Current returns the latest state
func (m *Manager) Current() domain.Update {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Ready reports whether a session could be started on this manager
func (m *Manager) Ready(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrCameraUnavailable.WithError(errors.New("manager closed"))
	}
	return nil
}

// Subscribe streams every state change. Slow subscribers miss progress
// updates rather than stall the pipeline; terminal updates are always
// queued. The returned func unsubscribes.
func (m *Manager) Subscribe() (<-chan domain.Update, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan domain.Update, subscriberBuffer)
	if m.closed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub, ok := m.subscribers[id]; ok {
				delete(m.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops any running session and ends every subscription
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.Stop()

	m.mu.Lock()
	for id, ch := range m.subscribers {
		delete(m.subscribers, id)
		close(ch)
	}
	m.mu.Unlock()
}

// apply mutates the state on behalf of s. It refuses when s is no longer the
// current session or already terminal, which discards late results.
func (m *Manager) apply(s *session, mutate func(*domain.Update)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != s || m.state.Status.Terminal() {
		return false
	}
	mutate(&m.state)
	m.commitLocked()
	return true
}

// commitLocked stamps the state and fans it out. Caller holds m.mu.
func (m *Manager) commitLocked() domain.Update {
	m.state.Timestamp = time.Now().UTC()
	m.state.Hint = m.state.DeriveHint()

	update := m.state
	for _, ch := range m.subscribers {
		deliver(ch, update)
	}
	return update
}

// deliver never blocks. A full buffer drops a progress update, but a
// terminal update evicts the oldest queued one instead so outcome consumers
// always see it. Callers hold m.mu, the only sender.
func deliver(ch chan domain.Update, update domain.Update) {
	select {
	case ch <- update:
		return
	default:
	}
	if !update.Status.Terminal() {
		return
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- update:
	default:
	}
}

func (m *Manager) audit(s *session, event audit.Event) {
	event.SessionID = s.id
	event.UserID = s.userID
	event.Detector = s.detector.Name()
	if err := m.auditLogger.Log(context.Background(), event); err != nil {
		m.logger.Warn("audit log failed", "event_type", event.EventType, "error", err)
	}
}
