package replay

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/xzhiot/telemetry-replayer/internal/models"
)

const eventQueueSize = 64

// eventWriter drains a device's events into the sink on its own goroutine
// so a slow store never delays a row. Events that do not fit the queue are
// dropped and counted.
type eventWriter struct {
	sink    EventSink
	log     zerolog.Logger
	queue   chan *models.EventLog
	done    chan struct{}
	dropped atomic.Uint64
}

func newEventWriter(sink EventSink, logger zerolog.Logger) *eventWriter {
	return &eventWriter{
		sink:  sink,
		log:   logger,
		queue: make(chan *models.EventLog, eventQueueSize),
		done:  make(chan struct{}),
	}
}

// enqueue reports whether the event was accepted.
func (w *eventWriter) enqueue(event *models.EventLog) bool {
	select {
	case w.queue <- event:
		return true
	default:
	}

	n := w.dropped.Add(1)
	if n == 1 || n%100 == 0 {
		w.log.Warn().Uint64("dropped", n).Str("event", string(event.Type)).Msg("Event queue full, dropping event")
	}
	return false
}

func (w *eventWriter) run(ctx context.Context) {
	defer close(w.done)

	for event := range w.queue {
		w.write(ctx, event)
	}
}

func (w *eventWriter) write(ctx context.Context, event *models.EventLog) {
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	if err := w.sink.CreateEventLog(ctx, event); err != nil {
		w.log.Warn().Err(err).Str("event", string(event.Type)).Msg("Failed to record event")
	}
}

// close stops accepting events and waits up to timeout for the queue to
// drain.
func (w *eventWriter) close(timeout time.Duration) {
	close(w.queue)

	select {
	case <-w.done:
	case <-time.After(timeout):
		w.log.Warn().Int("pending", len(w.queue)).Msg("Event writer did not drain before shutdown")
	}
}
