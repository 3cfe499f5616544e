package device

import (
	"sync"
	"time"

	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

// DefaultRenderPeriod is how often the output mixes and emits a frame.
const DefaultRenderPeriod = 20 * time.Millisecond

// Sink receives each rendered mono frame. It is called from the render
// goroutine and must not block for long.
type Sink func(frame []float32)

type OutputOption func(*Output)

// WithRenderPeriod sets the render interval.
func WithRenderPeriod(d time.Duration) OutputOption {
	return func(o *Output) {
		if d > 0 {
			o.period = d
		}
	}
}

// WithSilence makes the output emit frames even when nothing is playing,
// for sinks that need a continuous signal such as a sound card.
func WithSilence() OutputOption {
	return func(o *Output) { o.silence = true }
}

// Output is an output context. Its clock is the position of the audio
// rendered so far, so it only moves forward.
type Output struct {
	rate    int
	period  time.Duration
	sink    Sink
	silence bool

	mu      sync.Mutex
	pos     int64
	voices  map[*voice]struct{}
	closed  bool
	started bool
	quit    chan struct{}
	done    chan struct{}
}

var _ live.OutputContext = (*Output)(nil)

func NewOutput(rate int, sink Sink, opts ...OutputOption) *Output {
	o := &Output{
		rate:   rate,
		period: DefaultRenderPeriod,
		sink:   sink,
		voices: make(map[*voice]struct{}),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Output) SampleRate() int { return o.rate }

// Start launches the real-time render loop.
func (o *Output) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true
	go o.run(time.Now())
}

func (o *Output) run(start time.Time) {
	defer close(o.done)
	ticker := time.NewTicker(o.period)
	defer ticker.Stop()

	for {
		select {
		case <-o.quit:
			return
		case now := <-ticker.C:
			target := pcm.DurationToFrames(now.Sub(start), o.rate)
			o.mu.Lock()
			n := target - o.pos
			o.mu.Unlock()
			// after a stall, skip ahead instead of rendering a burst
			if limit := int64(o.rate); n > limit {
				o.skip(n - limit)
				n = limit
			}
			if n > 0 {
				o.render(int(n))
			}
		}
	}
}

// Now returns the output clock.
func (o *Output) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return pcm.FramesToDuration(int(o.pos), o.rate)
}

// Play schedules buf to start at clock time at. Multi-channel buffers are
// mixed down to mono.
func (o *Output) Play(buf pcm.Buffer, at time.Duration, onEnded func()) (live.Voice, error) {
	v := &voice{
		out:     o,
		samples: buf.Mono(),
		start:   pcm.DurationToFrames(at, o.rate),
		onEnded: onEnded,
	}
	if buf.SampleRate != 0 && buf.SampleRate != o.rate {
		v.samples = pcm.Resample(v.samples, buf.SampleRate, o.rate)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, ErrClosed
	}
	o.voices[v] = struct{}{}
	return v, nil
}

// Active is the number of voices still scheduled or playing.
func (o *Output) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.voices)
}

func (o *Output) skip(frames int64) {
	o.mu.Lock()
	o.pos += frames
	o.mu.Unlock()
}

// render mixes the next frames frames and advances the clock. Voices that
// finish inside the window fire their completion after the lock is released.
func (o *Output) render(frames int) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	frame := make([]float32, frames)
	from := o.pos
	to := from + int64(frames)
	audible := false
	var ended []*voice

	for v := range o.voices {
		end := v.start + int64(len(v.samples))
		lo, hi := max(from, v.start), min(to, end)
		for f := lo; f < hi; f++ {
			frame[f-from] += v.samples[f-v.start]
		}
		if hi > lo {
			audible = true
		}
		if end <= to {
			delete(o.voices, v)
			ended = append(ended, v)
		}
	}
	o.pos = to
	o.mu.Unlock()

	if o.sink != nil && (audible || o.silence) {
		o.sink(frame)
	}
	for _, v := range ended {
		v.finish()
	}
}

// Close stops the render loop and ends every voice.
func (o *Output) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	started := o.started
	voices := make([]*voice, 0, len(o.voices))
	for v := range o.voices {
		voices = append(voices, v)
	}
	clear(o.voices)
	o.mu.Unlock()

	close(o.quit)
	if started {
		<-o.done
	}
	for _, v := range voices {
		v.finish()
	}
	return nil
}

func (o *Output) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

type voice struct {
	out     *Output
	samples []float32
	start   int64
	onEnded func()
	once    sync.Once
}

// Stop removes the voice before the next render.
func (v *voice) Stop() {
	v.out.mu.Lock()
	delete(v.out.voices, v)
	v.out.mu.Unlock()
	v.finish()
}

func (v *voice) finish() {
	v.once.Do(func() {
		if v.onEnded != nil {
			v.onEnded()
		}
	})
}
