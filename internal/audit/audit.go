package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventSessionStarted   EventType = "SESSION_STARTED"
	EventCaptureStarted   EventType = "CAPTURE_STARTED"
	EventSessionSubmitted EventType = "SESSION_SUBMITTED"
	EventSessionFailed    EventType = "SESSION_FAILED"
	EventSessionStopped   EventType = "SESSION_STOPPED"
	EventCameraFailed     EventType = "CAMERA_FAILED"
)

// Event represents an audit event in the life of a liveness session
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	SessionID uuid.UUID         `json:"session_id"`
	EventType EventType         `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Detector  string            `json:"detector,omitempty"`
	Frames    int               `json:"frames,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event. Failures are logged at warn level so they
// surface without an audit-specific filter.
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.Time("occurred_at", event.Timestamp),
		slog.Bool("success", event.Success),
	}
	if event.SessionID != uuid.Nil {
		attrs = append(attrs, slog.String("session_id", event.SessionID.String()))
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Detector != "" {
		attrs = append(attrs, slog.String("detector", event.Detector))
	}
	if event.Frames > 0 {
		attrs = append(attrs, slog.Int("frames", event.Frames))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata))
		for k, v := range event.Metadata {
			meta = append(meta, slog.String(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "audit_event", attrs...)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
