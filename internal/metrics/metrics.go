package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the replay counters, labelled by zone and device.
type Metrics struct {
	published       *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	publishLatency  *prometheus.HistogramVec
	connectAttempts *prometheus.CounterVec
	connectFailures *prometheus.CounterVec
	running         *prometheus.GaugeVec
	aborted         *prometheus.CounterVec
}

// New creates the replay metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	labels := []string{"zone", "device"}

	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replayer_rows_published_total",
			Help: "Rows replayed as telemetry messages.",
		}, labels),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replayer_rows_skipped_total",
			Help: "Rows not eligible for publishing.",
		}, labels),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replayer_publish_failures_total",
			Help: "Eligible rows whose publish failed.",
		}, labels),
		publishLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "replayer_publish_duration_seconds",
			Help:    "Time from publish call to broker acknowledgement.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"zone"}),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replayer_connect_attempts_total",
			Help: "Broker connection attempts.",
		}, labels),
		connectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replayer_connect_failures_total",
			Help: "Failed broker connection attempts.",
		}, labels),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "replayer_devices_running",
			Help: "Device replay loops currently running.",
		}, []string{"zone"}),
		aborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replayer_devices_aborted_total",
			Help: "Device replay loops stopped by a data source failure.",
		}, labels),
	}

	reg.MustRegister(
		m.published,
		m.skipped,
		m.publishFailures,
		m.publishLatency,
		m.connectAttempts,
		m.connectFailures,
		m.running,
		m.aborted,
	)
	return m
}

func (m *Metrics) ConnectAttempt(zone, device string) {
	m.connectAttempts.WithLabelValues(zone, device).Inc()
}

func (m *Metrics) ConnectFailed(zone, device string) {
	m.connectFailures.WithLabelValues(zone, device).Inc()
}

func (m *Metrics) Published(zone, device string, took time.Duration) {
	m.published.WithLabelValues(zone, device).Inc()
	m.publishLatency.WithLabelValues(zone).Observe(took.Seconds())
}

func (m *Metrics) Skipped(zone, device string) {
	m.skipped.WithLabelValues(zone, device).Inc()
}

func (m *Metrics) PublishFailed(zone, device string) {
	m.publishFailures.WithLabelValues(zone, device).Inc()
}

func (m *Metrics) Started(zone, device string) {
	m.running.WithLabelValues(zone).Inc()
}

func (m *Metrics) Stopped(zone, device string, aborted bool) {
	m.running.WithLabelValues(zone).Dec()
	if aborted {
		m.aborted.WithLabelValues(zone, device).Inc()
	}
}
