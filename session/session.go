package session

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/device"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
	"github.com/MariyaAnjum937/AI-travel-itenarary/messages"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

const (
	writeBufferSize = 256
	writeTimeout    = 10 * time.Second
	readLimit       = 512 * 1024 // 512KB max message
	turnBufferSize  = 32

	// twilioRate is the sample rate of Twilio media streams (mu-law, mono).
	twilioRate = 8000
)

// Options configure a client session.
type Options struct {
	Dialer       live.Dialer
	Live         live.Config
	RenderPeriod time.Duration
	KeepAlive    time.Duration
	Logger       *zap.Logger
	// OnTurn receives every completed turn, in order, from a goroutine owned
	// by the session.
	OnTurn func(sessionID string, turn live.Turn)
}

// ClientSession represents a single user's connection
type ClientSession struct {
	ID           string
	IsTwilio     bool   // Whether this is a Twilio voice call session
	StreamSid    string // Twilio stream SID (set on "start" event)
	ClientConn   *websocket.Conn
	Controller   *live.Controller
	CreatedAt    time.Time
	LastActivity time.Time

	mic       *remoteMicrophone
	logger    *zap.Logger
	keepAlive time.Duration
	onTurn    func(string, live.Turn)
	turns     chan live.Turn

	resampleMu sync.Mutex
	resampler  *pcm.Resampler

	// Use channels for non-blocking writes
	writeChan chan any

	mu        sync.RWMutex
	closed    bool
	CloseChan chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClientSession creates a session for a browser client
func NewClientSession(id string, clientConn *websocket.Conn, opts Options) *ClientSession {
	cs := newClientSession(id, clientConn, false, opts)
	if clientConn != nil {
		clientConn.EnableWriteCompression(true)
		_ = clientConn.SetCompressionLevel(6)
	}
	return cs
}

// NewTwilioClientSession creates a session for Twilio voice calls
func NewTwilioClientSession(id string, clientConn *websocket.Conn, opts Options) *ClientSession {
	cs := newClientSession(id, clientConn, true, opts)
	if clientConn != nil {
		// Twilio doesn't support WebSocket compression
		clientConn.EnableWriteCompression(false)
	}
	return cs
}

func newClientSession(id string, clientConn *websocket.Conn, twilio bool, opts Options) *ClientSession {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	cs := &ClientSession{
		ID:           id,
		IsTwilio:     twilio,
		ClientConn:   clientConn,
		CreatedAt:    now,
		LastActivity: now,
		logger:       logger.With(zap.String("session", shortID(id)), zap.Bool("twilio", twilio)),
		keepAlive:    opts.KeepAlive,
		onTurn:       opts.OnTurn,
		turns:        make(chan live.Turn, turnBufferSize),
		writeChan:    make(chan any, writeBufferSize),
		CloseChan:    make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	if clientConn != nil {
		clientConn.SetReadLimit(readLimit)
	}

	liveCfg := opts.Live
	micRate := liveCfg.CaptureRate
	if micRate <= 0 {
		micRate = live.DefaultCaptureRate
	}
	sink := device.Sink(cs.sendBrowserAudio)
	if twilio {
		micRate = twilioRate
		playbackRate := liveCfg.PlaybackRate
		if playbackRate <= 0 {
			playbackRate = live.DefaultPlaybackRate
		}
		cs.resampler = pcm.NewResampler(playbackRate, twilioRate)
		sink = cs.sendTwilioAudio
	}
	cs.mic = newRemoteMicrophone(micRate)

	devices := device.NewFactory(sink, device.WithRenderPeriod(opts.RenderPeriod))
	cs.Controller = live.NewController(liveCfg, opts.Dialer, cs.mic, devices, cs.logger,
		live.WithObserver(sessionObserver{cs}))
	return cs
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Start begins the bidirectional message handling for standard WebSocket clients.
// The live session itself starts when the client sends a "start" control.
func (cs *ClientSession) Start() {
	go cs.writePump()
	go cs.turnPump()
	cs.queueMessage(messages.NewStatusMessage(cs.ID, live.StatusIdle.String(), "Session established"))
	go cs.handleClientMessages()
}

// StartTwilio begins the bidirectional message handling for Twilio voice calls.
// The live session starts on Twilio's "start" event.
func (cs *ClientSession) StartTwilio() {
	go cs.writePump()
	go cs.turnPump()
	go cs.handleClientMessagesFromTwilio()
}

// startLive runs Controller.Start off the read loop so that audio and
// "stop" keep flowing while the channel dials.
func (cs *ClientSession) startLive() {
	go func() {
		err := cs.Controller.Start(cs.ctx)
		switch {
		case err == nil, errors.Is(err, live.ErrStopped), errors.Is(err, live.ErrClosed):
			return
		case errors.Is(err, live.ErrSessionActive):
			cs.logger.Debug("start ignored, live session already active")
			if !cs.IsTwilio {
				cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeSessionFailed, err.Error()))
			}
		default:
			cs.logger.Error("❌ failed to start live session", zap.Error(err))
			if !cs.IsTwilio {
				cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrorCode(err), err.Error()))
			}
		}
	}()
}

// sendBrowserAudio is the output sink of browser sessions: rendered 24 kHz
// frames go back to the client as PCM16.
func (cs *ClientSession) sendBrowserAudio(frame []float32) {
	data := base64.StdEncoding.EncodeToString(pcm.EncodeFloat32(frame))
	cs.queueMessage(messages.NewAudioMessage(cs.ID, data))
}

// sendTwilioAudio is the output sink of Twilio sessions: rendered frames are
// downsampled to 8 kHz and mu-law encoded.
func (cs *ClientSession) sendTwilioAudio(frame []float32) {
	cs.mu.RLock()
	streamSid := cs.StreamSid
	cs.mu.RUnlock()
	if streamSid == "" {
		cs.logger.Warn("⚠️ Received audio but no StreamSid set yet")
		return
	}

	cs.resampleMu.Lock()
	narrow := cs.resampler.Process(frame)
	cs.resampleMu.Unlock()
	if len(narrow) == 0 {
		return
	}
	encoded := base64.StdEncoding.EncodeToString(pcm.EncodeMuLaw(narrow))
	cs.queueMessage(messages.NewTwilioMessageBack(streamSid, encoded))
}

// turnPump hands completed turns to OnTurn in order.
func (cs *ClientSession) turnPump() {
	deliver := func(turn live.Turn) {
		if cs.onTurn != nil {
			cs.onTurn(cs.ID, turn)
		}
	}
	for {
		select {
		case <-cs.CloseChan:
			for {
				select {
				case turn := <-cs.turns:
					deliver(turn)
				default:
					return
				}
			}
		case turn := <-cs.turns:
			deliver(turn)
		}
	}
}

// writePump handles all outgoing messages in a single goroutine
func (cs *ClientSession) writePump() {
	var ping <-chan time.Time
	if cs.keepAlive > 0 {
		ticker := time.NewTicker(cs.keepAlive)
		defer ticker.Stop()
		ping = ticker.C
	}

	defer func() {
		// Send close message before exiting
		_ = cs.ClientConn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout),
		)
	}()

	for {
		select {
		case <-cs.CloseChan:
			return
		case <-ping:
			if err := cs.ClientConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				cs.logger.Debug("keepalive ping failed", zap.Error(err))
				return
			}
		case msg := <-cs.writeChan:
			if err := cs.write(msg); err != nil {
				return
			}

			n := len(cs.writeChan)
			for range n {
				if err := cs.write(<-cs.writeChan); err != nil {
					return
				}
			}
		}
	}
}

func (cs *ClientSession) write(msg any) error {
	data, err := messages.Encode(msg)
	if err != nil {
		cs.logger.Error("failed to encode message", zap.Error(err))
		return nil
	}
	_ = cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := cs.ClientConn.WriteMessage(websocket.TextMessage, data); err != nil {
		if !cs.IsClosed() {
			cs.logger.Debug("write failed", zap.Error(err))
		}
		return err
	}
	return nil
}

// queueMessage adds a message to the write queue (non-blocking)
func (cs *ClientSession) queueMessage(msg any) {
	if cs.IsClosed() {
		return
	}
	select {
	case cs.writeChan <- msg:
		cs.touch()
	default:
		cs.logger.Warn("⚠️ write queue full, dropping message")
	}
}

func (cs *ClientSession) touch() {
	cs.mu.Lock()
	cs.LastActivity = time.Now()
	cs.mu.Unlock()
}

// LastActive returns when the client last sent or received a message.
func (cs *ClientSession) LastActive() time.Time {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.LastActivity
}

// Close terminates the session and cleans up resources
func (cs *ClientSession) Close() error {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return nil
	}
	cs.closed = true
	cs.mu.Unlock()

	cs.cancel()

	// Signal close (stops writePump and turnPump)
	close(cs.CloseChan)

	cs.mic.close()
	cs.Controller.Close()

	if cs.ClientConn != nil {
		cs.ClientConn.Close()
	}
	return nil
}

// IsClosed returns whether the session is closed
func (cs *ClientSession) IsClosed() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.closed
}

// sessionObserver relays controller state to the client. It runs under the
// controller's lock, so it only queues.
type sessionObserver struct {
	cs *ClientSession
}

func (o sessionObserver) StatusChanged(status live.Status, message string) {
	o.cs.logger.Info("live status", zap.Stringer("status", status), zap.String("message", message))
	if !o.cs.IsTwilio {
		o.cs.queueMessage(messages.NewStatusMessage(o.cs.ID, status.String(), message))
	}
}

func (o sessionObserver) TurnUpdated(current live.Turn) {
	if !o.cs.IsTwilio {
		o.cs.queueMessage(messages.NewTranscriptMessage(o.cs.ID, current, false))
	}
}

func (o sessionObserver) TurnCompleted(turn live.Turn) {
	if !o.cs.IsTwilio {
		o.cs.queueMessage(messages.NewTranscriptMessage(o.cs.ID, turn, true))
	}
	select {
	case o.cs.turns <- turn:
	default:
		o.cs.logger.Warn("⚠️ transcript queue full, dropping turn")
	}
}
