package live

// Status is the connection lifecycle state of a Controller.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Active reports whether a session attempt is in flight.
func (s Status) Active() bool {
	return s == StatusConnecting || s == StatusConnected
}
