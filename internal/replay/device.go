package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xzhiot/telemetry-replayer/internal/clock"
	"github.com/xzhiot/telemetry-replayer/internal/dataset"
	"github.com/xzhiot/telemetry-replayer/internal/models"
	"github.com/xzhiot/telemetry-replayer/internal/timing"
	"github.com/xzhiot/telemetry-replayer/internal/transport"
)

// ErrSourceUnavailable is returned by Run when the data source cannot be
// loaded. It is the only condition that ends a replay loop on its own.
var ErrSourceUnavailable = errors.New("data source unavailable")

const (
	DefaultRetryInterval = 5 * time.Second
	eventTimeout         = 5 * time.Second
)

// Observer receives replay counters. Implementations must be safe for
// concurrent use by many devices.
type Observer interface {
	ConnectAttempt(zone, device string)
	ConnectFailed(zone, device string)
	Published(zone, device string, took time.Duration)
	Skipped(zone, device string)
	PublishFailed(zone, device string)
	Started(zone, device string)
	Stopped(zone, device string, aborted bool)
}

// EventSink records lifecycle events.
type EventSink interface {
	CreateEventLog(ctx context.Context, event *models.EventLog) error
}

// Options tune a replay loop.
type Options struct {
	SpeedFactor float64
	// MinInterval floors every row delay, in seconds.
	MinInterval   float64
	RetryInterval time.Duration
	Seed          int64
	RunID         uuid.UUID

	Clock    clock.Clock
	Observer Observer
	Events   EventSink
}

// Device replays one data source through its own transport client.
type Device struct {
	desc   *models.Device
	client transport.Client
	opts   Options
	synth  *Synthesizer
	topic  string
	log    zerolog.Logger

	// Set once by load, before any status reader can observe rows > 0.
	table  *dataset.Table
	plan   timing.Plan
	msgCol int

	state     atomic.Int32
	rows      atomic.Int64
	cursor    atomic.Int64
	published atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
	attempts  atomic.Uint64

	// Nil when no sink is configured.
	events *eventWriter

	mu      sync.Mutex
	lastErr string
}

// NewDevice creates the replay loop for desc. It does not connect.
func NewDevice(desc *models.Device, client transport.Client, opts Options) *Device {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}

	d := &Device{
		desc:   desc,
		client: client,
		opts:   opts,
		synth:  NewSynthesizer(desc.Kind, opts.Seed),
		topic:  desc.Topic(),
		log:    log.With().Str("zone", desc.Zone).Str("device", desc.Name).Logger(),
		msgCol: -1,
	}
	if opts.Events != nil {
		d.events = newEventWriter(opts.Events, d.log)
	}
	return d
}

// Descriptor returns the device description.
func (d *Device) Descriptor() *models.Device {
	return d.desc
}

// Run connects, loads the data source and replays it until ctx is done.
// It returns ctx.Err() on cancellation or an error wrapping
// ErrSourceUnavailable when the source cannot be loaded.
func (d *Device) Run(ctx context.Context) error {
	zone, name := d.desc.Zone, d.desc.Name
	d.opts.Observer.Started(zone, name)

	if d.events != nil {
		go d.events.run(context.WithoutCancel(ctx))
		defer d.events.close(eventTimeout)
	}

	aborted := false
	defer func() {
		d.client.Disconnect()
		if !aborted {
			d.setState(StateStopped)
		}
		d.opts.Observer.Stopped(zone, name, aborted)
	}()

	if err := d.connect(ctx); err != nil {
		return err
	}

	if d.plan == nil {
		if err := d.load(); err != nil {
			aborted = true
			d.setState(StateAborted)
			d.setLastError(err)
			d.log.Error().Err(err).Msg("Error loading data source, stopping device")
			d.record(models.EventTypeAborted, models.EventLevelError, err.Error(), nil)
			return fmt.Errorf("%s/%s: %w: %w", zone, name, ErrSourceUnavailable, err)
		}
	}

	return d.replay(ctx)
}

func (d *Device) connect(ctx context.Context) error {
	zone, name := d.desc.Zone, d.desc.Name
	failures := 0

	for {
		d.setState(StateConnecting)
		attempt := d.attempts.Add(1)
		d.opts.Observer.ConnectAttempt(zone, name)

		err := d.client.Connect(ctx)
		if err == nil {
			d.setState(StateConnected)
			d.log.Info().Uint64("attempt", attempt).Msg("Connected")
			d.record(models.EventTypeConnected, models.EventLevelInfo, "connected",
				models.Fields{"attempts": attempt, "topic": d.topic})
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		failures++
		d.setState(StateDisconnected)
		d.setLastError(err)
		d.opts.Observer.ConnectFailed(zone, name)
		d.log.Warn().
			Err(err).
			Uint64("attempt", attempt).
			Dur("retry_in", d.opts.RetryInterval).
			Msg("Connection failed, retrying")

		// One event per failure streak.
		if failures == 1 {
			d.record(models.EventTypeConnectFailed, models.EventLevelWarning, err.Error(),
				models.Fields{"attempt": attempt})
		}

		if err := d.sleep(ctx, d.opts.RetryInterval); err != nil {
			return err
		}
	}
}

func (d *Device) load() error {
	table, err := dataset.Load(d.desc.DataSource)
	if err != nil {
		return err
	}

	roles := table.Resolve()
	var column []string
	if roles.HasTimestamp() {
		column = table.Column(roles.Timestamp)
	} else {
		d.log.Info().Msg("No timestamp column found, using default interval")
	}
	if roles.HasMessageType() {
		d.msgCol = table.Index(roles.MessageType)
	}

	d.table = table
	d.plan = timing.Build(table.Len(), column, d.opts.SpeedFactor, d.opts.MinInterval)
	d.rows.Store(int64(table.Len()))

	d.log.Info().
		Int("rows", table.Len()).
		Str("timestamp_column", roles.Timestamp).
		Str("msgtype_column", roles.MessageType).
		Dur("cycle", d.plan.Total()).
		Msg("Loaded data source")
	d.record(models.EventTypeLoaded, models.EventLevelInfo, "loaded "+d.desc.SourceName(),
		models.Fields{"rows": table.Len(), "timestamp_column": roles.Timestamp, "msgtype_column": roles.MessageType})
	return nil
}

func (d *Device) replay(ctx context.Context) error {
	n := d.table.Len()
	i := int(d.cursor.Load())

	for {
		d.step(ctx, i, n)

		if err := d.sleep(ctx, d.plan.At(i)); err != nil {
			return err
		}
		i = NextRow(i, n)
		d.cursor.Store(int64(i))
	}
}

// step handles one row: filter, synthesize, publish.
func (d *Device) step(ctx context.Context, i, n int) {
	zone, name := d.desc.Zone, d.desc.Name

	present := d.msgCol >= 0
	if !IsPublish(d.table.Cell(i, d.msgCol), present) {
		d.skipped.Add(1)
		d.opts.Observer.Skipped(zone, name)
		d.log.Debug().Int("row", i+1).Int("rows", n).Msg("Row skipped (msgtype not publish)")
		return
	}

	payload := NewPayload(d.opts.Clock.Now(), d.synth.Next(), d.desc.ClientID, zone)
	body, err := payload.Marshal()
	if err == nil {
		start := time.Now()
		err = d.client.Publish(ctx, d.topic, body)
		if err == nil {
			d.published.Add(1)
			d.opts.Observer.Published(zone, name, time.Since(start))
			d.log.Debug().
				Int("row", i+1).
				Int("rows", n).
				Float64("value", payload.Value).
				Msg("Published")
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	d.failed.Add(1)
	d.setLastError(err)
	d.opts.Observer.PublishFailed(zone, name)
	d.log.Warn().Err(err).Int("row", i+1).Msg("Publish error")
	d.record(models.EventTypePublishFailed, models.EventLevelWarning, err.Error(),
		models.Fields{"row": i + 1})
}

// NextRow advances the cursor, wrapping to the first row after the last.
func NextRow(i, n int) int {
	return (i + 1) % n
}

func (d *Device) sleep(ctx context.Context, wait time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.opts.Clock.After(wait):
		return nil
	}
}

// record queues an event for the device's writer. It never blocks the loop.
func (d *Device) record(typ models.EventType, level models.EventLevel, desc string, details models.Fields) {
	if d.events == nil {
		return
	}

	d.events.enqueue(&models.EventLog{
		RunID:       d.opts.RunID,
		Zone:        d.desc.Zone,
		Device:      d.desc.Name,
		Type:        typ,
		Level:       level,
		Description: desc,
		Details:     details,
	})
}

func (d *Device) setState(s State) {
	d.state.Store(int32(s))
}

// State returns the current connection state.
func (d *Device) State() State {
	return State(d.state.Load())
}

func (d *Device) setLastError(err error) {
	d.mu.Lock()
	d.lastErr = err.Error()
	d.mu.Unlock()
}

// Status returns a snapshot safe to take from any goroutine.
func (d *Device) Status() models.DeviceStatus {
	d.mu.Lock()
	lastErr := d.lastErr
	d.mu.Unlock()

	return models.DeviceStatus{
		Name:            d.desc.Name,
		Zone:            d.desc.Zone,
		Kind:            d.desc.Kind,
		Topic:           d.topic,
		DataSource:      d.desc.SourceName(),
		State:           d.State().String(),
		Rows:            int(d.rows.Load()),
		Cursor:          int(d.cursor.Load()),
		Published:       d.published.Load(),
		Skipped:         d.skipped.Load(),
		Failed:          d.failed.Load(),
		ConnectAttempts: d.attempts.Load(),
		DroppedEvents:   d.droppedEvents(),
		LastError:       lastErr,
	}
}

func (d *Device) droppedEvents() uint64 {
	if d.events == nil {
		return 0
	}
	return d.events.dropped.Load()
}

type nopObserver struct{}

func (nopObserver) ConnectAttempt(string, string) {}
func (nopObserver) ConnectFailed(string, string) {}
func (nopObserver) Published(string, string, time.Duration) {}
func (nopObserver) Skipped(string, string) {}
func (nopObserver) PublishFailed(string, string) {}
func (nopObserver) Started(string, string) {}
func (nopObserver) Stopped(string, string, bool) {}
