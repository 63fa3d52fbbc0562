package models

import (
	"time"

	"github.com/google/uuid"
)

// EventLog represents a device lifecycle event recorded during a run
type EventLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	RunID  uuid.UUID `json:"runId" db:"run_id"`
	Zone   string    `json:"zone" db:"zone"`
	Device string    `json:"device" db:"device"`

	Type        EventType  `json:"type" db:"type"`
	Level       EventLevel `json:"level" db:"level"`
	Description string     `json:"description" db:"description"`

	Details Fields `json:"details,omitempty" db:"details"`
}

// EventType represents event types
type EventType string

const (
	EventTypeLoaded        EventType = "LOADED"
	EventTypeConnected     EventType = "CONNECTED"
	EventTypeConnectFailed EventType = "CONNECT_FAILED"
	EventTypeAborted       EventType = "ABORTED"
	EventTypeSkipped       EventType = "SKIPPED"
	EventTypePublishFailed EventType = "PUBLISH_FAILED"
)

// EventLevel represents event severity levels
type EventLevel string

const (
	EventLevelDebug   EventLevel = "DEBUG"
	EventLevelInfo    EventLevel = "INFO"
	EventLevelWarning EventLevel = "WARNING"
	EventLevelError   EventLevel = "ERROR"
)
