package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzhiot/telemetry-replayer/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStoreWithDB(db), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS replay_events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS replay_events_device_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS replay_events_run_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MigrateRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS replay_events").WillReturnError(fmt.Errorf("permission denied"))
	mock.ExpectRollback()

	err := store.Migrate(context.Background())
	assert.ErrorContains(t, err, "permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateEventLog(t *testing.T) {
	store, mock := newMockStore(t)
	runID := uuid.New()

	event := &models.EventLog{
		RunID:       runID,
		Zone:        "office",
		Device:      "Temperature-1",
		Type:        models.EventTypeConnectFailed,
		Level:       models.EventLevelWarning,
		Description: "connection refused",
		Details:     models.Fields{"attempt": 1},
	}

	mock.ExpectExec("INSERT INTO replay_events").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), runID, "office", "Temperature-1",
			"CONNECT_FAILED", "WARNING", "connection refused", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.CreateEventLog(context.Background(), event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateEventLogInvalid(t *testing.T) {
	store, mock := newMockStore(t)

	err := store.CreateEventLog(context.Background(), &models.EventLog{Type: models.EventTypeLoaded})
	assert.ErrorIs(t, err, ErrInvalidData)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEventLogs(t *testing.T) {
	store, mock := newMockStore(t)
	eventType := models.EventTypeAborted
	id, runID := uuid.New(), uuid.New()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM replay_events WHERE 1=1 AND zone = \$1 AND type = \$2`).
		WithArgs("storage", "ABORTED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`SELECT id, created_at, run_id, zone, device, type, level, description, details FROM replay_events WHERE 1=1 AND zone = \$1 AND type = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("storage", "ABORTED", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "run_id", "zone", "device", "type", "level", "description", "details"}).
			AddRow(id.String(), now, runID.String(), "storage", "Camera", "ABORTED", "ERROR", "no rows", []byte(`{"source":"MotionMQTTset.csv"}`)))

	events, total, err := store.ListEventLogs(context.Background(), EventLogFilters{Zone: "storage", Type: &eventType}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, runID, e.RunID)
	assert.Equal(t, "Camera", e.Device)
	assert.Equal(t, models.EventTypeAborted, e.Type)
	assert.Equal(t, models.EventLevelError, e.Level)
	assert.Equal(t, models.Fields{"source": "MotionMQTTset.csv"}, e.Details)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEventLogsCountError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM replay_events WHERE 1=1`).WillReturnError(fmt.Errorf("db down"))

	_, _, err := store.ListEventLogs(context.Background(), EventLogFilters{}, 10, 0)
	assert.ErrorContains(t, err, "count events: db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		zone := "office"
		if i%2 == 1 {
			zone = "storage"
		}
		require.NoError(t, store.CreateEventLog(ctx, &models.EventLog{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Zone:      zone,
			Device:    fmt.Sprintf("dev-%d", i),
			Type:      models.EventTypeConnected,
		}))
	}

	all, total, err := store.ListEventLogs(ctx, EventLogFilters{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "oldest events are evicted")
	require.Len(t, all, 3)
	assert.Equal(t, "dev-4", all[0].Device)
	assert.Equal(t, "dev-2", all[2].Device)
	assert.Equal(t, models.EventLevelInfo, all[0].Level)

	office, total, err := store.ListEventLogs(ctx, EventLogFilters{Zone: "office"}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, office, 1)
	assert.Equal(t, "dev-4", office[0].Device)

	page, _, err := store.ListEventLogs(ctx, EventLogFilters{Zone: "office"}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "dev-2", page[0].Device)

	since := base.Add(3 * time.Minute)
	recent, total, err := store.ListEventLogs(ctx, EventLogFilters{StartTime: &since}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, recent, 2)

	empty, total, err := store.ListEventLogs(ctx, EventLogFilters{}, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, empty)

	assert.ErrorIs(t, store.CreateEventLog(ctx, &models.EventLog{}), ErrInvalidData)
	assert.NoError(t, store.Close())
}
