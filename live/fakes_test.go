package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

// world records every acquisition and release made through the fakes.
type world struct {
	mu       sync.Mutex
	acquired map[string]int
	released map[string]int
	clock    time.Duration
	sent     [][]byte
	voices   []*fakeVoice
	onBlock  func([]float32)
	cb       []Callbacks

	micErr     error
	inputErr   error
	outputErr  error
	openErr    error
	sendErr    error
	closeErr   error
	duringOpen func()
}

func newWorld() *world {
	return &world{acquired: map[string]int{}, released: map[string]int{}}
}

func (w *world) acquire(kind string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.acquired[kind]++
}

func (w *world) release(kind string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.released[kind]++
}

func (w *world) totals() (acquired, released int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, n := range w.acquired {
		acquired += n
	}
	for _, n := range w.released {
		released += n
	}
	return acquired, released
}

func (w *world) setClock(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clock = d
}

func (w *world) sentFrames() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]byte, len(w.sent))
	copy(out, w.sent)
	return out
}

// emitBlock delivers one capture block if a processor is installed.
func (w *world) emitBlock() bool {
	w.mu.Lock()
	fn := w.onBlock
	w.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(make([]float32, DefaultBlockSize))
	return true
}

// callbacks returns the callbacks passed to the n-th Open.
func (w *world) callbacks(n int) Callbacks {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cb[n]
}

func (w *world) lastCallbacks() Callbacks {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cb[len(w.cb)-1]
}

func (w *world) liveVoices() []*fakeVoice {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*fakeVoice
	for _, v := range w.voices {
		if !v.stopped {
			out = append(out, v)
		}
	}
	return out
}

type fakeMic struct{ w *world }

func (m fakeMic) RequestAudioInput(context.Context) (AudioStream, error) {
	if m.w.micErr != nil {
		return nil, m.w.micErr
	}
	m.w.acquire("stream")
	return &fakeStream{w: m.w}, nil
}

type fakeStream struct {
	w    *world
	once sync.Once
}

func (s *fakeStream) Stop() { s.once.Do(func() { s.w.release("stream") }) }

type fakeDevices struct{ w *world }

func (d fakeDevices) CreateInputContext(int) (InputContext, error) {
	if d.w.inputErr != nil {
		return nil, d.w.inputErr
	}
	d.w.acquire("input")
	return &fakeInput{w: d.w}, nil
}

func (d fakeDevices) CreateOutputContext(rate int) (OutputContext, error) {
	if d.w.outputErr != nil {
		return nil, d.w.outputErr
	}
	d.w.acquire("output")
	return &fakeOutput{w: d.w, rate: rate}, nil
}

type fakeNode struct {
	w      *world
	kind   string
	once   sync.Once
	detach func()
}

func (n *fakeNode) Disconnect() {
	n.once.Do(func() {
		if n.detach != nil {
			n.detach()
		}
		n.w.release(n.kind)
	})
}

type fakeInput struct {
	w      *world
	mu     sync.Mutex
	closed bool
}

func (in *fakeInput) NewSource(AudioStream) (Node, error) {
	in.w.acquire("source")
	return &fakeNode{w: in.w, kind: "source"}, nil
}

func (in *fakeInput) NewProcessor(_ Node, _ int, fn func([]float32)) (Node, error) {
	in.w.acquire("processor")
	in.w.mu.Lock()
	in.w.onBlock = fn
	in.w.mu.Unlock()
	return &fakeNode{w: in.w, kind: "processor", detach: func() {
		in.w.mu.Lock()
		in.w.onBlock = nil
		in.w.mu.Unlock()
	}}, nil
}

func (in *fakeInput) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.closed {
		in.closed = true
		in.w.release("input")
	}
	return nil
}

func (in *fakeInput) Closed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}

type fakeOutput struct {
	w      *world
	rate   int
	mu     sync.Mutex
	closed bool
}

func (o *fakeOutput) Now() time.Duration {
	o.w.mu.Lock()
	defer o.w.mu.Unlock()
	return o.w.clock
}

func (o *fakeOutput) Play(buf pcm.Buffer, at time.Duration, onEnded func()) (Voice, error) {
	v := &fakeVoice{at: at, buf: buf, onEnded: onEnded}
	o.w.mu.Lock()
	o.w.voices = append(o.w.voices, v)
	o.w.mu.Unlock()
	return v, nil
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		o.w.release("output")
	}
	return nil
}

func (o *fakeOutput) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

type fakeVoice struct {
	mu      sync.Mutex
	at      time.Duration
	buf     pcm.Buffer
	onEnded func()
	stopped bool
	ended   bool
}

// Stop fires onEnded synchronously, like a device halting a voice.
func (v *fakeVoice) Stop() {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	v.mu.Unlock()
	v.finish()
}

func (v *fakeVoice) finish() {
	v.mu.Lock()
	if v.ended {
		v.mu.Unlock()
		return
	}
	v.ended = true
	v.mu.Unlock()
	v.onEnded()
}

type fakeDialer struct{ w *world }

func (d fakeDialer) Open(_ context.Context, _ ChannelConfig, cb Callbacks) (Channel, error) {
	if d.w.openErr != nil {
		return nil, d.w.openErr
	}
	d.w.acquire("channel")
	d.w.mu.Lock()
	d.w.cb = append(d.w.cb, cb)
	hook := d.w.duringOpen
	d.w.mu.Unlock()
	if hook != nil {
		hook()
	}
	return &fakeChannel{w: d.w}, nil
}

type fakeChannel struct {
	w    *world
	once sync.Once
}

func (ch *fakeChannel) Send(frame []byte) error {
	ch.w.mu.Lock()
	defer ch.w.mu.Unlock()
	if ch.w.sendErr != nil {
		return ch.w.sendErr
	}
	ch.w.sent = append(ch.w.sent, frame)
	return nil
}

func (ch *fakeChannel) Close() error {
	ch.once.Do(func() { ch.w.release("channel") })
	return ch.w.closeErr
}

type recordingObserver struct {
	mu        sync.Mutex
	statuses  []Status
	messages  []string
	updates   []Turn
	completed []Turn
}

func (r *recordingObserver) StatusChanged(s Status, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
	r.messages = append(r.messages, msg)
}

func (r *recordingObserver) TurnUpdated(t Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, t)
}

func (r *recordingObserver) TurnCompleted(t Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, t)
}

func (r *recordingObserver) seen() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

var errBoom = errors.New("boom")

func newTestController(w *world, opts ...Option) *Controller {
	cfg := DefaultConfig()
	cfg.Channel.APIKey = "test-key"
	return NewController(cfg, fakeDialer{w}, fakeMic{w}, fakeDevices{w}, nil, opts...)
}

// chunk returns a mono PCM16 payload of n frames.
func chunk(n int) []byte {
	return make([]byte, n*2)
}
