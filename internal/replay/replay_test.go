package replay

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPublish(t *testing.T) {
	tests := []struct {
		cell    string
		present bool
		want    bool
	}{
		{"8", false, true},
		{"", true, true},
		{"NaN", true, true},
		{"3", true, true},
		{"3.0", true, true},
		{" 3 ", true, true},
		{"8", true, false},
		{"0", true, false},
		{"PUBLISH", true, true},
		{"Publish Message", true, true},
		{"publish_command", true, false},
		{"Publish Request", true, false},
		{"CONNECT", true, false},
		{"subscribe", true, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPublish(tt.cell, tt.present), "cell=%q present=%v", tt.cell, tt.present)
	}
}

func TestRange_Precision(t *testing.T) {
	tests := []struct {
		kind string
		want int
	}{
		{"sensor_ph", 3},
		{"sensor_cooler", 3},
		{"sensor_door", 3},
		{"sensor_predictive", 3},
		{"sensor_temp", 2},
		{"sensor_sound", 2},
		{"unknown", 2},
		{"sensor_light", 1},
		{"sensor_fanspeed", 1},
		{"sensor_air", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RangeFor(tt.kind).Precision(), tt.kind)
	}
	assert.Equal(t, DefaultRange, RangeFor("sensor_unknown"))
}

func TestSynthesizer(t *testing.T) {
	for kind, r := range Ranges {
		s := NewSynthesizer(kind, 42)
		p := math.Pow(10, float64(r.Precision()))
		for i := 0; i < 200; i++ {
			v := s.Next()
			assert.GreaterOrEqual(t, v, r.Lo, kind)
			assert.LessOrEqual(t, v, r.Hi, kind)
			assert.InDelta(t, math.Round(v*p), v*p, 1e-6, "%s value %v has too many decimals", kind, v)
		}
	}

	a, b := NewSynthesizer("sensor_temp", 7), NewSynthesizer("sensor_temp", 7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestPayload(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 123456789, time.FixedZone("CET", 3600))
	body, err := NewPayload(now, 21.5, "office-sensortemp1-replayer", "office").Marshal()
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, map[string]interface{}{
		"timestamp": "2024-03-01T09:30:00.123456Z",
		"value":     21.5,
		"client_id": "office-sensortemp1-replayer",
		"zone":      "office",
	}, got)
}

func TestNextRow(t *testing.T) {
	assert.Equal(t, 1, NextRow(0, 3))
	assert.Equal(t, 0, NextRow(2, 3))
	assert.Equal(t, 0, NextRow(0, 1))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "unknown", State(99).String())
}
