package session

import (
	"encoding/base64"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/messages"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

func (cs *ClientSession) handleClientMessages() {
	defer cs.Close()

	for {
		messageType, message, err := cs.ClientConn.ReadMessage()
		if err != nil {
			if !cs.IsClosed() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cs.logger.Warn("❌ WebSocket read error", zap.Error(err))
			}
			return
		}
		cs.touch()

		// Binary messages are raw PCM16 microphone audio
		if messageType == websocket.BinaryMessage {
			cs.pushPCM(message)
			continue
		}

		msg, err := messages.DecodeClientMessage(message)
		if err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid message format"))
			continue
		}
		cs.processClientMessage(msg)
	}
}

func (cs *ClientSession) processClientMessage(msg *messages.ClientMessage) {
	switch msg.Type {
	case messages.TypeAudio:
		var payload messages.AudioPayload
		if err := msg.DecodePayload(&payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid audio payload"))
			return
		}
		audioBytes, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid base64 audio data"))
			return
		}
		cs.pushPCM(audioBytes)

	case messages.TypeControl:
		var payload messages.ControlPayload
		if err := msg.DecodePayload(&payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid control payload"))
			return
		}
		cs.handleControlMessage(&payload)

	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown message type: "+msg.Type))
	}
}

func (cs *ClientSession) handleControlMessage(payload *messages.ControlPayload) {
	switch payload.Action {
	case messages.ActionStart:
		cs.startLive()
	case messages.ActionStop:
		cs.Controller.Stop()
	case messages.ActionPing:
		cs.queueMessage(messages.NewStatusMessage(cs.ID, "pong", ""))
	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown control action: "+payload.Action))
	}
}

func (cs *ClientSession) pushPCM(data []byte) {
	samples, err := pcm.DecodeFloat32(data)
	if err != nil {
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid PCM16 audio"))
		return
	}
	cs.mic.Push(samples)
}

// handleClientMessagesFromTwilio processes Twilio WebSocket protocol messages.
// Twilio sends: connected, start, media, stop and mark events.
func (cs *ClientSession) handleClientMessagesFromTwilio() {
	defer cs.Close()

	for {
		_, message, err := cs.ClientConn.ReadMessage()
		if err != nil {
			if !cs.IsClosed() {
				cs.logger.Warn("❌ Twilio WebSocket read error", zap.Error(err))
			}
			return
		}
		cs.touch()

		ev, err := messages.DecodeTwilioEvent(message)
		if err != nil {
			cs.logger.Warn("⚠️ Failed to parse Twilio message", zap.Error(err))
			continue
		}

		switch ev.Event {
		case messages.TwilioConnected:
			cs.logger.Info("📞 Twilio stream connected")

		case messages.TwilioStart:
			if ev.Start == nil || ev.Start.StreamSid == "" {
				cs.logger.Warn("⚠️ Twilio 'start' event missing streamSid")
				continue
			}
			cs.mu.Lock()
			cs.StreamSid = ev.Start.StreamSid
			cs.mu.Unlock()
			cs.logger.Info("📞 Twilio stream started", zap.String("streamSid", ev.Start.StreamSid))
			cs.startLive()

		case messages.TwilioMedia:
			if ev.Media == nil {
				continue
			}
			muLawData, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
			if err != nil {
				cs.logger.Warn("⚠️ Failed to decode Twilio audio", zap.Error(err))
				continue
			}
			cs.mic.Push(pcm.DecodeMuLaw(muLawData))

		case messages.TwilioStop:
			cs.logger.Info("📞 Twilio stream stopped")
			cs.Controller.Stop()
			return

		case messages.TwilioMark:
			cs.logger.Debug("📞 Twilio mark event received")

		default:
			cs.logger.Warn("⚠️ Unknown Twilio event", zap.String("event", ev.Event))
		}
	}
}
