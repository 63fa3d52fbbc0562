package fleet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/xzhiot/telemetry-replayer/internal/models"
	"github.com/xzhiot/telemetry-replayer/internal/replay"
	"github.com/xzhiot/telemetry-replayer/internal/transport"
)

// StateSkipped marks devices that were never started.
const StateSkipped = "skipped"

// eventTimeout bounds a single event write.
var eventTimeout = 5 * time.Second

// Options configure a fleet. Replay is the template for every device; the
// fleet fills in the run ID and a per-device seed.
type Options struct {
	Replay  replay.Options
	Factory transport.Factory
}

// Fleet runs one independent replay loop per device.
type Fleet struct {
	descs []*models.Device
	opts  Options
	runID uuid.UUID

	mu      sync.RWMutex
	devices []*replay.Device
	skipped []models.DeviceStatus

	wg sync.WaitGroup
}

// New creates a fleet for devices. Nothing starts until Run.
func New(devices []*models.Device, opts Options) *Fleet {
	runID := opts.Replay.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return &Fleet{descs: devices, opts: opts, runID: runID}
}

// RunID identifies this process run in recorded events.
func (f *Fleet) RunID() uuid.UUID {
	return f.runID
}

// Run starts every device whose data source exists and blocks until ctx is
// done. Devices stop at their next wait; use Wait to join them.
func (f *Fleet) Run(ctx context.Context) error {
	if f.opts.Factory == nil {
		return errors.New("fleet: no transport factory")
	}

	seed := f.opts.Replay.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	started := 0
	for i, desc := range f.descs {
		if _, err := os.Stat(desc.DataSource); err != nil {
			f.skip(ctx, desc, fmt.Errorf("missing data source %s: %w", desc.DataSource, err))
			continue
		}

		client, err := f.opts.Factory(desc)
		if err != nil {
			f.skip(ctx, desc, fmt.Errorf("create client: %w", err))
			continue
		}

		opts := f.opts.Replay
		opts.RunID = f.runID
		opts.Seed = seed + int64(i)
		d := replay.NewDevice(desc, client, opts)

		f.mu.Lock()
		f.devices = append(f.devices, d)
		f.mu.Unlock()

		f.wg.Add(1)
		go f.run(ctx, d)
		started++

		log.Info().
			Str("zone", desc.Zone).
			Str("device", desc.Name).
			Str("topic", desc.Topic()).
			Str("file", desc.SourceName()).
			Msg("Started device")
	}

	if started == 0 {
		log.Warn().Msg("No devices started")
	} else {
		log.Info().Int("devices", started).Int("skipped", len(f.descs)-started).Str("run_id", f.runID.String()).Msg("Fleet running")
	}

	<-ctx.Done()
	return nil
}

func (f *Fleet) run(ctx context.Context, d *replay.Device) {
	defer f.wg.Done()

	err := d.Run(ctx)
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		// Already logged by the device.
		errors.Is(err, replay.ErrSourceUnavailable):
		return
	}

	desc := d.Descriptor()
	log.Error().Err(err).Str("zone", desc.Zone).Str("device", desc.Name).Msg("Device stopped")
}

func (f *Fleet) skip(ctx context.Context, desc *models.Device, reason error) {
	log.Warn().Err(reason).Str("zone", desc.Zone).Str("device", desc.Name).Msg("Skipping device")

	f.mu.Lock()
	f.skipped = append(f.skipped, models.DeviceStatus{
		Name:       desc.Name,
		Zone:       desc.Zone,
		Kind:       desc.Kind,
		Topic:      desc.Topic(),
		DataSource: desc.SourceName(),
		State:      StateSkipped,
		LastError:  reason.Error(),
	})
	f.mu.Unlock()

	if f.opts.Replay.Events == nil {
		return
	}
	event := &models.EventLog{
		RunID:       f.runID,
		Zone:        desc.Zone,
		Device:      desc.Name,
		Type:        models.EventTypeSkipped,
		Level:       models.EventLevelWarning,
		Description: reason.Error(),
		Details:     models.Fields{"data_source": desc.DataSource},
	}

	// Record the skip even when the run is already being cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	if err := f.opts.Replay.Events.CreateEventLog(ctx, event); err != nil {
		log.Warn().Err(err).Msg("Failed to record event")
	}
}

// Wait blocks until every device loop has returned or timeout elapses. It
// reports whether all loops stopped.
func (f *Fleet) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Status returns a snapshot of every device, started ones first.
func (f *Fleet) Status() []models.DeviceStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.DeviceStatus, 0, len(f.devices)+len(f.skipped))
	for _, d := range f.devices {
		out = append(out, d.Status())
	}
	return append(out, f.skipped...)
}

// Lookup returns the status of one device.
func (f *Fleet) Lookup(zone, name string) (models.DeviceStatus, bool) {
	for _, s := range f.Status() {
		if s.Zone == zone && s.Name == name {
			return s, true
		}
	}
	return models.DeviceStatus{}, false
}
