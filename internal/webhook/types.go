package webhook

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSessionCompleted = "liveness.completed"
	EventSessionFailed    = "liveness.failed"
	EventSessionStopped   = "liveness.stopped"
)

// Webhook is the configured outcome receiver
type Webhook struct {
	URL    string `json:"url"`
	Secret string `json:"-"`
}

// Job is one pending delivery
type Job struct {
	ID          uuid.UUID `json:"id"`
	EventType   string    `json:"event_type"`
	Payload     []byte    `json:"payload"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	NextRetryAt time.Time `json:"next_retry_at"`
	LastError   string    `json:"last_error,omitempty"`
}

type EventPayload struct {
	ID        uuid.UUID   `json:"id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	SessionID uuid.UUID   `json:"session_id"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
}
