package timing

import (
	"strings"
	"time"
)

// layouts accepted for non-numeric timestamp columns, tried in order.
// Values without a zone are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05.999999999",
	"01/02/2006 15:04:05.999999999",
	"01/02/2006 15:04",
	"2006-01-02",
	"Jan _2, 2006 15:04:05.999999999 MST",
	"Jan _2, 2006 15:04:05.999999999",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
}

func parseDateTime(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
