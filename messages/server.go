package messages

import (
	"errors"

	"github.com/bytedance/sonic"

	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeSessionFailed    = "SESSION_FAILED"
	ErrCodeConnectionClosed = "CONNECTION_CLOSED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodePermission       = "PERMISSION_DENIED"
	ErrCodeConfig           = "CONFIG_ERROR"
	ErrCodeConnection       = "CONNECTION_ERROR"
	ErrCodeDecode           = "DECODE_ERROR"
)

// Message types
const (
	TypeAudio      = "audio"
	TypeTranscript = "transcript"
	TypeStatus     = "status"
	TypeError      = "error"
)

// AudioMIMEType describes assistant audio sent to browser clients.
const AudioMIMEType = "audio/pcm;rate=24000"

// ServerMessage represents a message sent to frontend client
type ServerMessage struct {
	Type      string `json:"type"` // "audio", "transcript", "status", "error"
	SessionID string `json:"sessionId,omitempty"`
	Payload   any    `json:"payload"`
}

// AudioResponsePayload contains audio data for client
type AudioResponsePayload struct {
	Data     string `json:"data"`     // Base64-encoded PCM audio
	MimeType string `json:"mimeType"` // "audio/pcm;rate=24000"
}

// TranscriptPayload carries the turn being transcribed, or a finished one.
type TranscriptPayload struct {
	User  string `json:"user"`
	Model string `json:"model"`
	Final bool   `json:"final"`
}

// StatusPayload contains status updates
type StatusPayload struct {
	Status  string `json:"status"` // "idle", "connecting", "connected", "error", "pong"
	Message string `json:"message,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Media struct {
	Payload string `json:"payload"` // Base64-encoded mu-law audio data
}

type TwilioMessageBack struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
	Media     Media  `json:"media"`
}

func NewTwilioMessageBack(streamSid string, data string) *TwilioMessageBack {
	return &TwilioMessageBack{
		Event:     TwilioMedia,
		StreamSid: streamSid,
		Media:     Media{Payload: data},
	}
}

// NewAudioMessage creates an audio response message
func NewAudioMessage(sessionID, data string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeAudio,
		SessionID: sessionID,
		Payload: AudioResponsePayload{
			Data:     data,
			MimeType: AudioMIMEType,
		},
	}
}

// NewTranscriptMessage creates a transcript update
func NewTranscriptMessage(sessionID string, turn live.Turn, final bool) *ServerMessage {
	return &ServerMessage{
		Type:      TypeTranscript,
		SessionID: sessionID,
		Payload:   TranscriptPayload{User: turn.User, Model: turn.Model, Final: final},
	}
}

// NewStatusMessage creates a status message
func NewStatusMessage(sessionID, status, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeStatus,
		SessionID: sessionID,
		Payload: StatusPayload{
			Status:  status,
			Message: message,
		},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(sessionID, code, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// ErrorCode maps a live session error onto a client error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, live.ErrPermission):
		return ErrCodePermission
	case errors.Is(err, live.ErrConfig):
		return ErrCodeConfig
	case errors.Is(err, live.ErrConnection):
		return ErrCodeConnection
	case errors.Is(err, live.ErrDecode):
		return ErrCodeDecode
	default:
		return ErrCodeSessionFailed
	}
}

// Encode serializes an outbound message.
func Encode(msg any) ([]byte, error) {
	return sonic.Marshal(msg)
}
