package timing

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xzhiot/telemetry-replayer/internal/dataset"
)

const (
	// DefaultInterval is the base cadence in seconds used when a source has
	// no usable timestamps.
	DefaultInterval = 1.0

	// MillisThreshold is the median epoch magnitude above which a numeric
	// column is read as milliseconds.
	MillisThreshold = 1e12

	minSpeedFactor = 1e-6

	// maxDelay keeps every delay representable as a time.Duration.
	maxDelay = 1e9
)

// Plan is the per-row replay delay sequence of one device. Plan[i] is the
// wait after row i; the last entry also covers the wrap back to row 0.
type Plan []time.Duration

// At returns the delay for row i, wrapping modulo the plan length.
func (p Plan) At(i int) time.Duration {
	return p[i%len(p)]
}

// Total is the duration of one full pass over the rows.
func (p Plan) Total() time.Duration {
	var total time.Duration
	for _, d := range p {
		total += d
	}
	return total
}

// Build computes the plan for rows rows. column holds the raw timestamp
// cells or is nil when the source has no timestamp column. speedFactor
// divides every delay and minInterval (seconds) floors it.
func Build(rows int, column []string, speedFactor, minInterval float64) Plan {
	if rows <= 0 {
		return Plan{}
	}

	var seconds []float64
	base := DefaultInterval
	if column != nil {
		seconds = ParseSeconds(column)
		if allUndefined(seconds) {
			seconds = nil
		} else {
			base = BaseInterval(seconds)
		}
	}
	if seconds == nil {
		seconds = make([]float64, rows)
		for i := range seconds {
			seconds[i] = float64(i)
		}
	}

	speed := speedFactor
	if !(speed > minSpeedFactor) {
		speed = minSpeedFactor
	}
	floor := minInterval
	if !(floor > 0) {
		floor = 0
	}

	at := func(i int) float64 {
		if i < len(seconds) {
			return seconds[i]
		}
		return math.NaN()
	}

	plan := make(Plan, rows)
	for i := range plan {
		raw := base
		if i < rows-1 {
			cur, next := at(i), at(i+1)
			if !math.IsNaN(cur) && !math.IsNaN(next) {
				raw = next - cur
			}
		}
		if !(raw > 0) {
			raw = base
		}

		delay := math.Min(math.Max(raw/speed, floor), maxDelay)
		plan[i] = time.Duration(delay * float64(time.Second))
	}
	return plan
}

// ParseSeconds converts a timestamp column to seconds since the epoch.
// Undefined or unparseable cells become NaN.
func ParseSeconds(column []string) []float64 {
	if values, ok := parseNumeric(column); ok {
		if magnitude(values) > MillisThreshold {
			for i := range values {
				values[i] /= 1000
			}
		}
		return values
	}

	out := make([]float64, len(column))
	for i, cell := range column {
		out[i] = math.NaN()
		if dataset.IsMissing(cell) {
			continue
		}
		if t, ok := parseDateTime(cell); ok {
			out[i] = float64(t.UnixNano()) / float64(time.Second)
		}
	}
	return out
}

// parseNumeric succeeds when every defined cell is a number.
func parseNumeric(column []string) ([]float64, bool) {
	out := make([]float64, len(column))
	for i, cell := range column {
		if dataset.IsMissing(cell) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, false
		}
		if math.IsInf(v, 0) {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, true
}

// Median of the defined values; NaN if there are none.
func Median(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN()
	}

	sort.Float64s(defined)
	mid := len(defined) / 2
	if len(defined)%2 == 1 {
		return defined[mid]
	}
	return (defined[mid-1] + defined[mid]) / 2
}

// magnitude is the median of the absolute values, so pre-1970 epochs in
// milliseconds scale like positive ones.
func magnitude(values []float64) float64 {
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	return Median(abs)
}

// BaseInterval is the median of the strictly positive successive
// differences, or DefaultInterval if there are none.
func BaseInterval(seconds []float64) float64 {
	diffs := make([]float64, 0, len(seconds))
	for i := 1; i < len(seconds); i++ {
		d := seconds[i] - seconds[i-1]
		if d > 0 {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return DefaultInterval
	}
	return Median(diffs)
}

func allUndefined(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
