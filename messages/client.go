package messages

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Client message types
const (
	TypeControl = "control"
	// TypeAudio is shared with ServerMessage.
)

// Control actions
const (
	ActionStart = "start"
	ActionStop  = "stop"
	ActionPing  = "ping"
)

// ClientMessage represents a message from frontend client
type ClientMessage struct {
	Type    string          `json:"type"` // "audio", "control"
	Payload json.RawMessage `json:"payload"`
}

// AudioPayload contains audio data from client
type AudioPayload struct {
	Data string `json:"data"` // Base64-encoded PCM16 LE, 16 kHz mono
}

// ControlPayload contains control commands
type ControlPayload struct {
	Action string `json:"action"` // "start", "stop", "ping"
}

// DecodeClientMessage parses one text frame from a browser client.
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode client message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("decode client message: missing type")
	}
	return &msg, nil
}

// DecodePayload unmarshals the message payload into v.
func (m *ClientMessage) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("decode %s payload: empty", m.Type)
	}
	if err := sonic.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// Twilio media stream events
const (
	TwilioConnected = "connected"
	TwilioStart     = "start"
	TwilioMedia     = "media"
	TwilioStop      = "stop"
	TwilioMark      = "mark"
)

// TwilioEvent is one inbound Twilio media stream message.
type TwilioEvent struct {
	Event          string           `json:"event"`
	SequenceNumber string           `json:"sequenceNumber,omitempty"`
	StreamSid      string           `json:"streamSid,omitempty"`
	Start          *TwilioStartData `json:"start,omitempty"`
	Media          *TwilioMediaData `json:"media,omitempty"`
	Mark           *TwilioMarkData  `json:"mark,omitempty"`
	Stop           *TwilioStopData  `json:"stop,omitempty"`
}

type TwilioStartData struct {
	StreamSid   string            `json:"streamSid"`
	CallSid     string            `json:"callSid,omitempty"`
	AccountSid  string            `json:"accountSid,omitempty"`
	Tracks      []string          `json:"tracks,omitempty"`
	MediaFormat TwilioMediaFormat `json:"mediaFormat"`
}

type TwilioMediaFormat struct {
	Encoding   string `json:"encoding"` // "audio/x-mulaw"
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

type TwilioMediaData struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"` // Base64-encoded mu-law audio
}

type TwilioMarkData struct {
	Name string `json:"name"`
}

type TwilioStopData struct {
	CallSid string `json:"callSid,omitempty"`
}

// DecodeTwilioEvent parses one Twilio media stream frame.
func DecodeTwilioEvent(data []byte) (*TwilioEvent, error) {
	var ev TwilioEvent
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode twilio event: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("decode twilio event: missing 'event' field")
	}
	return &ev, nil
}
