package models

// DeviceStatus is a point-in-time view of one replay loop
type DeviceStatus struct {
	Name            string `json:"name"`
	Zone            string `json:"zone"`
	Kind            string `json:"kind"`
	Topic           string `json:"topic"`
	DataSource      string `json:"dataSource"`
	State           string `json:"state"`
	Rows            int    `json:"rows"`
	Cursor          int    `json:"cursor"`
	Published       uint64 `json:"published"`
	Skipped         uint64 `json:"skipped"`
	Failed          uint64 `json:"failed"`
	ConnectAttempts uint64 `json:"connectAttempts"`
	DroppedEvents   uint64 `json:"droppedEvents,omitempty"`
	LastError       string `json:"lastError,omitempty"`
}
