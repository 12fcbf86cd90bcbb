package ws

import (
	"time"
)

type EventType string

const (
	EventSessionUpdate EventType = "liveness.update"
	EventSessionResult EventType = "liveness.result"
)

type Event struct {
	UserID    string      `json:"-"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
