package gemini

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/MariyaAnjum937/AI-travel-itenarary/functions"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

var ErrChannelClosed = errors.New("gemini: channel closed")

// Channel is an open Gemini Live session.
type Channel struct {
	session liveSession
	cb      live.Callbacks
	tools   *functions.Registry
	logger  *zap.Logger

	writeMu sync.Mutex // the websocket allows one writer at a time

	mu     sync.RWMutex
	closed bool
	opened bool
}

var _ live.Channel = (*Channel)(nil)

func newChannel(session liveSession, cb live.Callbacks, tools *functions.Registry, logger *zap.Logger) *Channel {
	return &Channel{session: session, cb: cb, tools: tools, logger: logger}
}

func (c *Channel) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// receive reads server messages until the connection ends.
func (c *Channel) receive() {
	for {
		msg, err := c.session.Receive()
		if err != nil {
			c.handleReceiveError(err)
			return
		}
		c.markOpen()
		c.handleMessage(msg)
	}
}

func (c *Channel) markOpen() {
	c.mu.Lock()
	first := !c.opened && !c.closed
	c.opened = true
	c.mu.Unlock()
	if first && c.cb.OnOpen != nil {
		c.cb.OnOpen()
	}
}

func (c *Channel) handleReceiveError(err error) {
	if c.isClosed() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Info("🔌 Gemini closed the session", zap.Error(err))
		if c.cb.OnClose != nil {
			c.cb.OnClose()
		}
		return
	}
	c.logger.Error("❌ Gemini receive error", zap.Error(err))
	if c.cb.OnError != nil {
		c.cb.OnError(err)
	}
}

func (c *Channel) handleMessage(msg *genai.LiveServerMessage) {
	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		c.answerToolCalls(msg.ToolCall.FunctionCalls)
	}
	if msg.GoAway != nil {
		c.logger.Warn("Gemini announced disconnect", zap.Duration("time_left", msg.GoAway.TimeLeft))
	}
	if f, ok := toFragment(msg); ok && c.cb.OnMessage != nil {
		c.cb.OnMessage(f)
	}
}

// toFragment extracts the audio, transcription and turn signals of msg.
func toFragment(msg *genai.LiveServerMessage) (live.Fragment, bool) {
	sc := msg.ServerContent
	if sc == nil {
		return live.Fragment{}, false
	}

	var f live.Fragment
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime != "" && !strings.HasPrefix(mime, "audio/") {
				continue
			}
			f.Audio = append(f.Audio, part.InlineData.Data)
		}
	}
	if sc.InputTranscription != nil {
		f.InputText = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		f.OutputText = sc.OutputTranscription.Text
	}
	f.TurnComplete = sc.TurnComplete
	f.Interrupted = sc.Interrupted
	return f, true
}

func (c *Channel) answerToolCalls(calls []*genai.FunctionCall) {
	if c.tools == nil {
		return
	}
	responses := make([]*genai.FunctionResponse, 0, len(calls))
	for _, fc := range calls {
		c.logger.Info("🔧 Function call", zap.String("name", fc.Name), zap.String("id", fc.ID))
		responses = append(responses, c.tools.Call(fc))
	}
	if err := c.SendToolResponse(responses); err != nil {
		c.logger.Error("❌ Failed to send tool response", zap.Error(err))
	}
}

// Send streams one PCM16 16 kHz frame as realtime input.
func (c *Channel) Send(frame []byte) error {
	return c.write(func() error {
		return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
			Media: &genai.Blob{MIMEType: inputMIMEType, Data: frame},
		})
	})
}

// SendText sends a complete user text turn.
func (c *Channel) SendText(text string) error {
	turnComplete := true
	return c.write(func() error {
		return c.session.SendClientContent(genai.LiveClientContentInput{
			Turns:        []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: text}}}},
			TurnComplete: &turnComplete,
		})
	})
}

// SendToolResponse sends function call responses back to Gemini.
func (c *Channel) SendToolResponse(responses []*genai.FunctionResponse) error {
	return c.write(func() error {
		return c.session.SendToolResponse(genai.LiveToolResponseInput{FunctionResponses: responses})
	})
}

func (c *Channel) write(fn func() error) error {
	if c.isClosed() {
		return ErrChannelClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := fn(); err != nil {
		return fmt.Errorf("gemini send: %w", err)
	}
	return nil
}

// Close terminates the session. Errors seen by the receive loop after Close
// are not reported.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.session.Close()
}
