package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/xzhiot/telemetry-replayer/internal/models"
)

// Common errors
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidData = errors.New("invalid data")
)

// Store persists replay lifecycle events
type Store interface {
	CreateEventLog(ctx context.Context, event *models.EventLog) error
	ListEventLogs(ctx context.Context, filters EventLogFilters, limit, offset int) ([]*models.EventLog, int64, error)
	Close() error
}

// EventLogFilters represents filters for event logs. Zero values match
// everything.
type EventLogFilters struct {
	RunID     *uuid.UUID
	Zone      string
	Device    string
	Type      *models.EventType
	Level     *models.EventLevel
	StartTime *time.Time
	EndTime   *time.Time
}

// prepare fills the generated fields of a new event.
func prepare(event *models.EventLog) error {
	if event.Zone == "" || event.Type == "" {
		return ErrInvalidData
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = models.EventLevelInfo
	}
	return nil
}
