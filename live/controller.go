// Package live runs a realtime voice session: microphone capture streamed up
// a realtime channel, model audio played back gaplessly, and the running
// transcript of both sides.
package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/metrics"
)

const (
	DefaultCaptureRate  = 16000
	DefaultPlaybackRate = 24000
	DefaultBlockSize    = 4096
)

// Config describes the audio formats and the channel of a Controller.
type Config struct {
	Channel ChannelConfig

	CaptureRate      int
	PlaybackRate     int
	PlaybackChannels int
	BlockSize        int
}

// DefaultConfig returns the 16 kHz capture / 24 kHz playback configuration.
func DefaultConfig() Config {
	return Config{
		Channel: ChannelConfig{
			InputTranscription:  true,
			OutputTranscription: true,
		},
		CaptureRate:      DefaultCaptureRate,
		PlaybackRate:     DefaultPlaybackRate,
		PlaybackChannels: 1,
		BlockSize:        DefaultBlockSize,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.CaptureRate <= 0 {
		c.CaptureRate = d.CaptureRate
	}
	if c.PlaybackRate <= 0 {
		c.PlaybackRate = d.PlaybackRate
	}
	if c.PlaybackChannels <= 0 {
		c.PlaybackChannels = d.PlaybackChannels
	}
	if c.BlockSize <= 0 {
		c.BlockSize = d.BlockSize
	}
}

// Observer is notified of state a UI renders. Methods are called with the
// controller's lock held; they must not block or call back into the
// controller.
type Observer interface {
	StatusChanged(status Status, message string)
	TurnUpdated(current Turn)
	TurnCompleted(turn Turn)
}

type nopObserver struct{}

func (nopObserver) StatusChanged(Status, string) {}
func (nopObserver) TurnUpdated(Turn)             {}
func (nopObserver) TurnCompleted(Turn)           {}

type Option func(*Controller)

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// attempt is one Start. Callbacks carry the attempt they were created for
// and are ignored once it is no longer current.
type attempt struct {
	id        uint64
	res       *resources
	started   time.Time
	openOnce  sync.Once
	connected bool  // guarded by Controller.mu
	cause     error // why the attempt failed; guarded by Controller.mu
}

// Controller owns the lifecycle of a live session. All dispatch (user calls,
// channel callbacks, capture blocks) is serialized through mu.
type Controller struct {
	cfg      Config
	dialer   Dialer
	mic      Microphone
	devices  Devices
	logger   *zap.Logger
	observer Observer

	mu         sync.Mutex
	status     Status
	errMsg     string
	cur        *attempt
	nextID     uint64
	closed     bool
	transcript Transcript
}

func NewController(cfg Config, dialer Dialer, mic Microphone, devices Devices, logger *zap.Logger, opts ...Option) *Controller {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		cfg:      cfg,
		dialer:   dialer,
		mic:      mic,
		devices:  devices,
		logger:   logger.Named("live"),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start acquires the microphone and audio devices and opens the realtime
// channel. It returns once the channel is dialed; the status becomes
// connected when the channel confirms it is open. On failure every acquired
// resource is released, the status is error and the returned error wraps
// ErrPermission, ErrConfig or ErrConnection.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cur != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.nextID++
	a := &attempt{id: c.nextID, res: newResources(), started: time.Now()}
	c.cur = a
	c.transcript.Reset()
	c.setStatusLocked(StatusConnecting, "")
	c.mu.Unlock()

	metrics.LiveSessionsStartedTotal.Inc()
	c.logger.Info("🎙️ starting live session", zap.Uint64("attempt", a.id))

	if err := c.acquire(ctx, a); err != nil {
		if errors.Is(err, ErrStopped) {
			// A channel error during Open also releases the attempt; report
			// that rather than a stop.
			if cause := c.failure(a); cause != nil {
				return cause
			}
			c.logger.Info("live session stopped during start", zap.Uint64("attempt", a.id))
			return err
		}
		c.fail(a, "setup", err, err.Error())
		return err
	}
	return nil
}

func (c *Controller) acquire(ctx context.Context, a *attempt) error {
	if c.cfg.Channel.APIKey == "" {
		return fmt.Errorf("%w: API key not found", ErrConfig)
	}

	stream, err := c.mic.RequestAudioInput(ctx)
	if err != nil {
		return classify(ErrPermission, err)
	}
	if !a.res.holdStream(stream) {
		return ErrStopped
	}

	input, err := c.devices.CreateInputContext(c.cfg.CaptureRate)
	if err != nil {
		return fmt.Errorf("create input context: %w", err)
	}
	if !a.res.holdInput(input) {
		return ErrStopped
	}

	output, err := c.devices.CreateOutputContext(c.cfg.PlaybackRate)
	if err != nil {
		return fmt.Errorf("create output context: %w", err)
	}
	if !a.res.holdOutput(output) {
		return ErrStopped
	}

	ch, err := c.dialer.Open(ctx, c.cfg.Channel, c.callbacks(a))
	if err != nil {
		return classify(ErrConnection, err)
	}
	if !a.res.holdChannel(ch) {
		return ErrStopped
	}
	return nil
}

func (c *Controller) callbacks(a *attempt) Callbacks {
	return Callbacks{
		OnOpen:    func() { c.onOpen(a) },
		OnMessage: func(f Fragment) { c.onMessage(a, f) },
		OnError:   func(err error) { c.onError(a, err) },
		OnClose:   func() { c.onClose(a) },
	}
}

func (c *Controller) onOpen(a *attempt) {
	a.openOnce.Do(func() {
		c.mu.Lock()
		if c.cur != a {
			c.mu.Unlock()
			return
		}
		err := c.wireCapture(a)
		if err == nil {
			a.connected = true
			c.setStatusLocked(StatusConnected, "")
		}
		c.mu.Unlock()

		if err != nil {
			c.fail(a, "setup", err, err.Error())
			return
		}
		metrics.ActiveLiveSessions.Inc()
		metrics.ConnectLatency.Observe(float64(time.Since(a.started).Milliseconds()))
		c.logger.Info("✅ live session connected", zap.Uint64("attempt", a.id))
	})
}

func (c *Controller) onError(a *attempt, err error) {
	c.logger.Error("❌ live session error", zap.Uint64("attempt", a.id), zap.Error(err))
	c.fail(a, "error", classify(ErrConnection, err), ConnectionErrorMessage)
}

func (c *Controller) onClose(a *attempt) {
	c.mu.Lock()
	if c.cur != a {
		c.mu.Unlock()
		return
	}
	c.cur = nil
	c.mu.Unlock()

	c.logger.Info("🔌 live session closed by peer", zap.Uint64("attempt", a.id))
	c.teardown(a, "close")

	c.mu.Lock()
	if c.cur == nil {
		c.setStatusLocked(StatusIdle, "")
	}
	c.mu.Unlock()
}

// fail tears down a and, if it is still current, moves to the error state
// with message.
func (c *Controller) fail(a *attempt, trigger string, err error, message string) {
	c.mu.Lock()
	if a.cause == nil {
		a.cause = err
	}
	current := c.cur == a
	if current {
		c.cur = nil
	}
	c.mu.Unlock()

	c.teardown(a, trigger)
	if !current {
		return
	}
	metrics.LiveSessionErrorsTotal.WithLabelValues(errorKind(err)).Inc()

	c.mu.Lock()
	if c.cur == nil {
		c.setStatusLocked(StatusError, message)
	}
	c.mu.Unlock()
}

// Stop ends the session from any state. The channel is asked to close
// gracefully first; close failures are logged and teardown runs regardless.
// Stop with nothing acquired releases nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	a := c.cur
	c.cur = nil
	if a == nil {
		c.setStatusLocked(StatusIdle, "")
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if ch := a.res.takeChannel(); ch != nil {
		if err := ch.Close(); err != nil {
			c.logger.Warn("error closing live channel", zap.Uint64("attempt", a.id), zap.Error(err))
		}
	}
	c.teardown(a, "stop")

	c.mu.Lock()
	if c.cur == nil {
		c.setStatusLocked(StatusIdle, "")
	}
	c.mu.Unlock()
	c.logger.Info("⏹️ live session stopped", zap.Uint64("attempt", a.id))
}

// Close stops the session for good. Later calls to Start return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Stop()
}

func (c *Controller) failure(a *attempt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return a.cause
}

func (c *Controller) teardown(a *attempt, trigger string) {
	c.mu.Lock()
	wasConnected := a.connected
	c.mu.Unlock()

	if !a.res.release(c.logger.With(zap.Uint64("attempt", a.id))) {
		return
	}
	if wasConnected {
		metrics.ActiveLiveSessions.Dec()
	}
	metrics.TeardownsTotal.WithLabelValues(trigger).Inc()
}

func (c *Controller) setStatusLocked(s Status, message string) {
	if c.status == s && c.errMsg == message {
		return
	}
	c.status = s
	c.errMsg = message
	c.observer.StatusChanged(s, message)
}

// Status returns the current status and, in the error state, its message.
func (c *Controller) Status() (Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.errMsg
}

// Transcript returns the completed turns of the current or last session.
func (c *Controller) Transcript() []Turn {
	return c.transcript.Log()
}

// CurrentTurn returns the turn still being accumulated.
func (c *Controller) CurrentTurn() Turn {
	return c.transcript.Current()
}
