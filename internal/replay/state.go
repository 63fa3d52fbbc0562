package replay

// State is the connection state of a replay loop.
type State int32

const (
	StateIdle State = iota
	StateDisconnected
	StateConnecting
	StateConnected
	StateAborted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAborted:
		return "aborted"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
