package storage

import (
	"context"
	"sync"

	"github.com/xzhiot/telemetry-replayer/internal/models"
)

// DefaultMemoryCapacity is the number of events a MemoryStore keeps.
const DefaultMemoryCapacity = 10000

// MemoryStore keeps the newest events in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	events   []*models.EventLog
}

// NewMemoryStore creates a store bounded to capacity events
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// CreateEventLog appends an event, evicting the oldest when full
func (s *MemoryStore) CreateEventLog(ctx context.Context, event *models.EventLog) error {
	if err := prepare(event); err != nil {
		return err
	}

	stored := *event
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.capacity {
		drop := len(s.events) - s.capacity + 1
		s.events = append(s.events[:0], s.events[drop:]...)
	}
	s.events = append(s.events, &stored)
	return nil
}

// ListEventLogs lists matching events, newest first
func (s *MemoryStore) ListEventLogs(ctx context.Context, filters EventLogFilters, limit, offset int) ([]*models.EventLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.EventLog
	for i := len(s.events) - 1; i >= 0; i-- {
		if e := s.events[i]; matches(e, &filters) {
			matched = append(matched, e)
		}
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*models.EventLog, len(matched))
	for i, e := range matched {
		c := *e
		out[i] = &c
	}
	return out, total, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func matches(e *models.EventLog, f *EventLogFilters) bool {
	switch {
	case f.RunID != nil && e.RunID != *f.RunID:
		return false
	case f.Zone != "" && e.Zone != f.Zone:
		return false
	case f.Device != "" && e.Device != f.Device:
		return false
	case f.Type != nil && e.Type != *f.Type:
		return false
	case f.Level != nil && e.Level != *f.Level:
		return false
	case f.StartTime != nil && e.CreatedAt.Before(*f.StartTime):
		return false
	case f.EndTime != nil && e.CreatedAt.After(*f.EndTime):
		return false
	}
	return true
}
