package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

var (
	ErrClosed            = errors.New("device: context closed")
	ErrUnsupportedStream = errors.New("device: unsupported stream")
	ErrUnsupportedNode   = errors.New("device: unsupported node")
)

// Input is an input context running at a fixed capture rate.
type Input struct {
	rate int

	mu     sync.Mutex
	closed bool
	nodes  map[live.Node]struct{}
}

var _ live.InputContext = (*Input)(nil)

func NewInput(rate int) *Input {
	return &Input{rate: rate, nodes: make(map[live.Node]struct{})}
}

func (in *Input) SampleRate() int { return in.rate }

// NewSource connects a *Stream to the context, resampling from the stream's
// rate to the context rate.
func (in *Input) NewSource(stream live.AudioStream) (live.Node, error) {
	s, ok := stream.(*Stream)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedStream, stream)
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil, ErrClosed
	}
	src := &source{in: in, stream: s, resampler: pcm.NewResampler(s.SampleRate(), in.rate)}
	in.nodes[src] = struct{}{}
	return src, nil
}

// NewProcessor delivers src's samples to onBlock in blocks of exactly
// blockSize samples.
func (in *Input) NewProcessor(src live.Node, blockSize int, onBlock func([]float32)) (live.Node, error) {
	s, ok := src.(*source)
	if !ok || s.in != in {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedNode, src)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("device: invalid block size %d", blockSize)
	}

	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil, ErrClosed
	}
	p := &processor{in: in, blockSize: blockSize, onBlock: onBlock}
	in.nodes[p] = struct{}{}
	in.mu.Unlock()

	detach := s.connect(p.feed)
	p.mu.Lock()
	if p.dropped {
		p.mu.Unlock()
		detach()
		return p, nil
	}
	p.detach = detach
	p.mu.Unlock()
	return p, nil
}

// Close disconnects every node created by the context.
func (in *Input) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	nodes := make([]live.Node, 0, len(in.nodes))
	for n := range in.nodes {
		nodes = append(nodes, n)
	}
	in.mu.Unlock()

	for _, n := range nodes {
		n.Disconnect()
	}
	return nil
}

func (in *Input) Closed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}

func (in *Input) forget(n live.Node) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.nodes, n)
}

// source is the stream→graph edge.
type source struct {
	in        *Input
	stream    *Stream
	resampler *pcm.Resampler

	mu      sync.Mutex
	detach  []func()
	dropped bool
}

// connect attaches fn to the stream through the resampler.
func (s *source) connect(fn func([]float32)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return func() {}
	}
	detach := s.stream.attach(func(samples []float32) {
		s.mu.Lock()
		out := s.resampler.Process(samples)
		s.mu.Unlock()
		fn(out)
	})
	s.detach = append(s.detach, detach)
	return detach
}

func (s *source) Disconnect() {
	s.mu.Lock()
	if s.dropped {
		s.mu.Unlock()
		return
	}
	s.dropped = true
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	for _, d := range detach {
		d()
	}
	s.in.forget(s)
}

// processor slices the incoming sample flow into fixed-size blocks.
type processor struct {
	in        *Input
	blockSize int
	onBlock   func([]float32)
	detach    func()

	mu      sync.Mutex
	pending []float32
	dropped bool
}

func (p *processor) feed(samples []float32) {
	p.mu.Lock()
	if p.dropped {
		p.mu.Unlock()
		return
	}
	p.pending = append(p.pending, samples...)
	var blocks [][]float32
	for len(p.pending) >= p.blockSize {
		block := make([]float32, p.blockSize)
		copy(block, p.pending)
		blocks = append(blocks, block)
		p.pending = p.pending[p.blockSize:]
	}
	if len(p.pending) == 0 {
		p.pending = nil
	}
	p.mu.Unlock()

	for _, b := range blocks {
		p.onBlock(b)
	}
}

func (p *processor) Disconnect() {
	p.mu.Lock()
	if p.dropped {
		p.mu.Unlock()
		return
	}
	p.dropped = true
	p.pending = nil
	detach := p.detach
	p.detach = nil
	p.mu.Unlock()

	if detach != nil {
		detach()
	}
	p.in.forget(p)
}
