package live

import (
	"context"
	"time"

	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

// AudioStream is an exclusively held microphone stream.
type AudioStream interface {
	Stop()
}

// Microphone grants access to audio input. RequestAudioInput fails with an
// error wrapping ErrPermission when access is denied.
type Microphone interface {
	RequestAudioInput(ctx context.Context) (AudioStream, error)
}

// Node is a connected element of an audio graph.
type Node interface {
	Disconnect()
}

// InputContext runs an audio graph at a fixed capture rate.
type InputContext interface {
	// NewSource connects stream into the graph.
	NewSource(stream AudioStream) (Node, error)
	// NewProcessor installs a hook that receives every full block of
	// blockSize samples from src. onBlock is invoked without any device lock
	// held and must not retain the slice.
	NewProcessor(src Node, blockSize int, onBlock func(block []float32)) (Node, error)
	Close() error
	Closed() bool
}

// Voice is one scheduled playback.
type Voice interface {
	// Stop halts playback within one render period and fires the voice's
	// completion callback if it has not fired yet. Safe to call repeatedly.
	Stop()
}

// OutputContext renders scheduled buffers against a monotonic clock.
type OutputContext interface {
	// Now is the current position of the output clock.
	Now() time.Duration
	// Play schedules buf to start at clock time at. onEnded fires once when
	// playback finishes or the voice is stopped; it never fires from within
	// Play itself.
	Play(buf pcm.Buffer, at time.Duration, onEnded func()) (Voice, error)
	Close() error
	Closed() bool
}

// Devices creates audio contexts.
type Devices interface {
	CreateInputContext(sampleRate int) (InputContext, error)
	CreateOutputContext(sampleRate int) (OutputContext, error)
}

// ChannelConfig configures one realtime channel.
type ChannelConfig struct {
	APIKey              string
	Model               string
	Voice               string
	SystemInstruction   string
	InputTranscription  bool
	OutputTranscription bool
}

// Fragment is one inbound message from the realtime channel.
type Fragment struct {
	// Audio holds PCM16 little-endian payloads in arrival order.
	Audio        [][]byte
	InputText    string
	OutputText   string
	TurnComplete bool
	Interrupted  bool
}

// Callbacks receive channel events. They may be invoked from any goroutine.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(Fragment)
	OnError   func(error)
	OnClose   func()
}

// Channel is an open realtime channel.
type Channel interface {
	// Send transmits one encoded audio frame without waiting for acknowledgment.
	Send(frame []byte) error
	Close() error
}

// Dialer opens realtime channels.
type Dialer interface {
	Open(ctx context.Context, cfg ChannelConfig, cb Callbacks) (Channel, error)
}
