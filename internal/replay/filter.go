package replay

import (
	"strconv"
	"strings"

	"github.com/xzhiot/telemetry-replayer/internal/dataset"
)

// publishMessageType is the numeric MQTT control packet type of PUBLISH.
const publishMessageType = 3

// IsPublish reports whether a row with the given message-type cell should
// be replayed. present is false when the source has no message-type column.
func IsPublish(cell string, present bool) bool {
	if !present || dataset.IsMissing(cell) {
		return true
	}

	s := strings.TrimSpace(cell)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v == publishMessageType
	}

	s = strings.ToLower(s)
	return strings.Contains(s, "publish") &&
		!strings.Contains(s, "command") &&
		!strings.Contains(s, "req")
}
