package live

import (
	"errors"
	"fmt"
)

var (
	// ErrPermission is returned when microphone access is denied.
	ErrPermission = errors.New("microphone permission denied")
	// ErrConfig is returned when no credential is configured.
	ErrConfig = errors.New("configuration error")
	// ErrConnection is returned when the realtime channel fails to open or fails mid-session.
	ErrConnection = errors.New("connection error")
	// ErrDecode marks an inbound audio fragment that could not be decoded.
	ErrDecode = errors.New("audio decode error")

	ErrSessionActive = errors.New("session already active")
	ErrStopped       = errors.New("session stopped before it connected")
	ErrClosed        = errors.New("controller closed")
)

// ConnectionErrorMessage is the status message shown after a mid-session channel failure.
const ConnectionErrorMessage = "A connection error occurred."

// classify tags err with kind unless it already carries it.
func classify(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// errorKind names the taxonomy bucket of err for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrPermission):
		return "permission"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "device"
	}
}
