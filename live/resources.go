package live

import (
	"sync"

	"go.uber.org/zap"
)

// resources holds everything one session attempt acquires. Once released,
// anything handed to it is released on the spot, so a Start that races a
// Stop cannot leak.
type resources struct {
	mu       sync.Mutex
	released bool

	stream    AudioStream
	input     InputContext
	output    OutputContext
	source    Node
	processor Node
	channel   Channel
	playback  *PlaybackQueue
}

func newResources() *resources {
	return &resources{playback: NewPlaybackQueue()}
}

func (r *resources) holdStream(s AudioStream) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		s.Stop()
		return false
	}
	r.stream = s
	return true
}

func (r *resources) holdInput(in InputContext) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		_ = in.Close()
		return false
	}
	r.input = in
	return true
}

func (r *resources) holdOutput(out OutputContext) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		_ = out.Close()
		return false
	}
	r.output = out
	return true
}

func (r *resources) holdChannel(ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		_ = ch.Close()
		return false
	}
	r.channel = ch
	return true
}

// holdCapture records the capture graph. Both nodes are disconnected if the
// attempt was already released.
func (r *resources) holdCapture(source, processor Node) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		processor.Disconnect()
		source.Disconnect()
		return false
	}
	r.source = source
	r.processor = processor
	return true
}

func (r *resources) captureInputs() (AudioStream, InputContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream, r.input, !r.released && r.stream != nil && r.input != nil
}

func (r *resources) outputContext() OutputContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil
	}
	return r.output
}

func (r *resources) sendHandle() Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel
}

// takeChannel detaches the channel so the caller can close it gracefully.
func (r *resources) takeChannel() Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := r.channel
	r.channel = nil
	return ch
}

// release frees every held resource exactly once, in graph order. A second
// call does nothing.
func (r *resources) release(logger *zap.Logger) bool {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return false
	}
	r.released = true
	stream, input, output := r.stream, r.input, r.output
	source, processor, channel := r.source, r.processor, r.channel
	r.stream, r.input, r.output = nil, nil, nil
	r.source, r.processor, r.channel = nil, nil, nil
	r.mu.Unlock()

	if processor != nil {
		processor.Disconnect()
	}
	if source != nil {
		source.Disconnect()
	}
	if input != nil && !input.Closed() {
		if err := input.Close(); err != nil {
			logger.Warn("close input context", zap.Error(err))
		}
	}
	if output != nil && !output.Closed() {
		if err := output.Close(); err != nil {
			logger.Warn("close output context", zap.Error(err))
		}
	}
	if stream != nil {
		stream.Stop()
	}
	if n := r.playback.DrainAndStopAll(); n > 0 {
		logger.Debug("stopped pending playback", zap.Int("voices", n))
	}
	if channel != nil {
		if err := channel.Close(); err != nil {
			logger.Debug("close channel", zap.Error(err))
		}
	}
	return true
}
