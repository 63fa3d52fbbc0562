package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/xzhiot/telemetry-replayer/internal/models"
)

// CreateEventLog creates an event log entry
func (s *PostgresStore) CreateEventLog(ctx context.Context, event *models.EventLog) error {
	if err := prepare(event); err != nil {
		return err
	}

	query := `INSERT INTO replay_events (id, created_at, run_id, zone, device, type, level, description, details) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.getDB().ExecContext(ctx, query,
		event.ID, event.CreatedAt, event.RunID, event.Zone, event.Device,
		string(event.Type), string(event.Level), event.Description, event.Details,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEventLogs lists event logs with filters, newest first
func (s *PostgresStore) ListEventLogs(ctx context.Context, filters EventLogFilters, limit, offset int) ([]*models.EventLog, int64, error) {
	query := "SELECT COUNT(*) FROM replay_events WHERE 1=1"
	args := []interface{}{}
	argCount := 0

	if filters.RunID != nil {
		argCount++
		query += fmt.Sprintf(" AND run_id = $%d", argCount)
		args = append(args, *filters.RunID)
	}

	if filters.Zone != "" {
		argCount++
		query += fmt.Sprintf(" AND zone = $%d", argCount)
		args = append(args, filters.Zone)
	}

	if filters.Device != "" {
		argCount++
		query += fmt.Sprintf(" AND device = $%d", argCount)
		args = append(args, filters.Device)
	}

	if filters.Type != nil {
		argCount++
		query += fmt.Sprintf(" AND type = $%d", argCount)
		args = append(args, string(*filters.Type))
	}

	if filters.Level != nil {
		argCount++
		query += fmt.Sprintf(" AND level = $%d", argCount)
		args = append(args, string(*filters.Level))
	}

	if filters.StartTime != nil {
		argCount++
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filters.StartTime)
	}

	if filters.EndTime != nil {
		argCount++
		query += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, *filters.EndTime)
	}

	// Get count
	var count int64
	if err := s.getDB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	// Get rows
	selectQuery := strings.Replace(query, "SELECT COUNT(*)",
		"SELECT id, created_at, run_id, zone, device, type, level, description, details", 1)

	argCount++
	selectQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCount)
	args = append(args, limit)

	argCount++
	selectQuery += fmt.Sprintf(" OFFSET $%d", argCount)
	args = append(args, offset)

	rows, err := s.getDB().QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*models.EventLog
	for rows.Next() {
		event := &models.EventLog{}
		err := rows.Scan(
			&event.ID, &event.CreatedAt, &event.RunID, &event.Zone, &event.Device,
			&event.Type, &event.Level, &event.Description, &event.Details,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	return events, count, nil
}
