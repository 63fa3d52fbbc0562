package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ConnectAttempt("office", "Temperature-1")
	m.ConnectFailed("office", "Temperature-1")
	m.ConnectAttempt("office", "Temperature-1")
	m.Started("office", "Temperature-1")
	m.Started("office", "Humidity-1")

	m.Published("office", "Temperature-1", 3*time.Millisecond)
	m.Published("office", "Temperature-1", 5*time.Millisecond)
	m.Skipped("office", "Temperature-1")
	m.PublishFailed("office", "Temperature-1")
	m.Stopped("office", "Humidity-1", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.connectAttempts.WithLabelValues("office", "Temperature-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectFailures.WithLabelValues("office", "Temperature-1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.published.WithLabelValues("office", "Temperature-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("office", "Temperature-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishFailures.WithLabelValues("office", "Temperature-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.running.WithLabelValues("office")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aborted.WithLabelValues("office", "Humidity-1")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.publishLatency))

	expected := `
# HELP replayer_devices_running Device replay loops currently running.
# TYPE replayer_devices_running gauge
replayer_devices_running{zone="office"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "replayer_devices_running"))
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
