// Package device provides software audio devices for the live session: a
// push-fed microphone stream, a block-based input context and an output
// context that mixes scheduled voices on a render loop.
package device

import (
	"sync"
)

// Stream is a microphone stream fed by whoever owns the audio source, for
// example a WebSocket read loop or a sox process.
type Stream struct {
	rate int

	mu      sync.Mutex
	sinks   map[uint64]func([]float32)
	next    uint64
	stopped bool
	onStop  func()
}

// NewStream returns a stream of mono samples at rate. onStop, if not nil,
// runs once when the stream is stopped.
func NewStream(rate int, onStop func()) *Stream {
	return &Stream{rate: rate, sinks: make(map[uint64]func([]float32)), onStop: onStop}
}

func (s *Stream) SampleRate() int { return s.rate }

// Push delivers samples to every attached node. Pushing to a stopped stream
// is a no-op.
func (s *Stream) Push(samples []float32) {
	s.mu.Lock()
	if s.stopped || len(s.sinks) == 0 {
		s.mu.Unlock()
		return
	}
	sinks := make([]func([]float32), 0, len(s.sinks))
	for _, fn := range s.sinks {
		sinks = append(sinks, fn)
	}
	s.mu.Unlock()

	for _, fn := range sinks {
		fn(samples)
	}
}

// Stop detaches every node and releases the underlying source.
func (s *Stream) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	clear(s.sinks)
	onStop := s.onStop
	s.mu.Unlock()

	if onStop != nil {
		onStop()
	}
}

func (s *Stream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Stream) attach(fn func([]float32)) (detach func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return func() {}
	}
	s.next++
	id := s.next
	s.sinks[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.sinks, id)
	}
}
