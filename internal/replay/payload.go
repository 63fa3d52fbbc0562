package replay

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"
)

// Range is the closed interval synthetic values are drawn from.
type Range struct {
	Lo, Hi float64
}

// DefaultRange applies to device kinds without an entry in Ranges.
var DefaultRange = Range{0, 100}

// Ranges maps a device kind to its plausible value interval.
var Ranges = map[string]Range{
	"sensor_temp":       {15, 40},
	"sensor_light":      {0, 2000},
	"sensor_hum":        {20, 90},
	"sensor_motion":     {0, 1},
	"sensor_co":         {0, 50},
	"sensor_smoke":      {0, 10},
	"sensor_fanspeed":   {500, 3000},
	"sensor_door":       {0, 1},
	"sensor_fan":        {500, 2500},
	"sensor_air":        {0, 150},
	"sensor_cooler":     {0.5, 5},
	"sensor_distance":   {1, 400},
	"sensor_flame":      {0, 1},
	"sensor_ph":         {5.5, 8.5},
	"sensor_soil":       {5, 60},
	"sensor_sound":      {30, 100},
	"sensor_water":      {0, 300},
	"sensor_hydraulic":  {50, 250},
	"sensor_predictive": {0, 1},
}

// RangeFor returns the value range of a device kind.
func RangeFor(kind string) Range {
	if r, ok := Ranges[kind]; ok {
		return r
	}
	return DefaultRange
}

// Precision is the number of decimals kept for values in r: narrow and
// unit ranges get 3, ranges up to 100 get 2, wider ranges 1.
func (r Range) Precision() int {
	switch {
	case r.Hi-r.Lo <= 5 || (r.Lo == 0 && r.Hi <= 1):
		return 3
	case r.Hi <= 100:
		return 2
	default:
		return 1
	}
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Synthesizer draws values for one device. It is not safe for concurrent
// use; every replay loop owns its own.
type Synthesizer struct {
	rng      *rand.Rand
	bounds   Range
	decimals int
}

// NewSynthesizer creates a generator for kind seeded with seed.
func NewSynthesizer(kind string, seed int64) *Synthesizer {
	r := RangeFor(kind)
	return &Synthesizer{
		rng:      rand.New(rand.NewSource(seed)),
		bounds:   r,
		decimals: r.Precision(),
	}
}

// Next returns a uniform sample from the device range, rounded.
func (s *Synthesizer) Next() float64 {
	v := s.bounds.Lo + s.rng.Float64()*(s.bounds.Hi-s.bounds.Lo)
	return round(v, s.decimals)
}

// payloadTimeLayout is ISO 8601 with microseconds.
const payloadTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Payload is the JSON body of one telemetry message.
type Payload struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
	ClientID  string  `json:"client_id"`
	Zone      string  `json:"zone"`
}

// NewPayload builds a message stamped with now in UTC.
func NewPayload(now time.Time, value float64, clientID, zone string) Payload {
	return Payload{
		Timestamp: now.UTC().Format(payloadTimeLayout),
		Value:     value,
		ClientID:  clientID,
		Zone:      zone,
	}
}

// Marshal encodes the payload as JSON.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
