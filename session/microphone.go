package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/MariyaAnjum937/AI-travel-itenarary/device"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

// remoteMicrophone is the microphone of a connected client. Audio read from
// the client connection is pushed into the stream of the running session;
// audio that arrives while no session holds the microphone is discarded.
type remoteMicrophone struct {
	rate int

	mu     sync.Mutex
	stream *device.Stream
	closed bool
}

var _ live.Microphone = (*remoteMicrophone)(nil)

func newRemoteMicrophone(rate int) *remoteMicrophone {
	return &remoteMicrophone{rate: rate}
}

func (m *remoteMicrophone) RequestAudioInput(ctx context.Context) (live.AudioStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", live.ErrPermission, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("%w: client disconnected", live.ErrPermission)
	}
	if m.stream != nil {
		return nil, fmt.Errorf("%w: microphone already in use", live.ErrPermission)
	}

	var s *device.Stream
	s = device.NewStream(m.rate, func() {
		m.mu.Lock()
		if m.stream == s {
			m.stream = nil
		}
		m.mu.Unlock()
	})
	m.stream = s
	return s, nil
}

// Push forwards samples to the stream currently held, if any.
func (m *remoteMicrophone) Push(samples []float32) {
	m.mu.Lock()
	s := m.stream
	m.mu.Unlock()
	if s != nil {
		s.Push(samples)
	}
}

func (m *remoteMicrophone) active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream != nil
}

// close refuses further requests. A stream already handed out is stopped by
// the session that holds it.
func (m *remoteMicrophone) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}
