package dataset

// TimestampCandidates lists timestamp column names in priority order.
var TimestampCandidates = []string{
	"timestamp", "ts", "time", "frame.time_epoch", "frame.time_relative",
	"Time", "SniffTimestamp",
}

// MessageTypeCandidates lists message-type column names in priority order.
var MessageTypeCandidates = []string{
	"mqtt.msgtype", "msg_type", "message_type", "packet_type", "mqtt.msgtype_str",
}

// ResolveColumn returns the first candidate present in columns.
func ResolveColumn(columns, candidates []string) (string, bool) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	for _, c := range candidates {
		if _, ok := present[c]; ok {
			return c, true
		}
	}
	return "", false
}

// Roles holds the resolved canonical columns of a table. An empty name
// means the role is absent.
type Roles struct {
	Timestamp   string
	MessageType string
}

func (r Roles) HasTimestamp() bool   { return r.Timestamp != "" }
func (r Roles) HasMessageType() bool { return r.MessageType != "" }

// Resolve maps the table schema onto the canonical roles.
func (t *Table) Resolve() Roles {
	var roles Roles
	roles.Timestamp, _ = ResolveColumn(t.Columns, TimestampCandidates)
	roles.MessageType, _ = ResolveColumn(t.Columns, MessageTypeCandidates)
	return roles
}
