// Command test streams a recorded PCM or WAV file to the WebSocket server and
// plays the assistant's answer through sox.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/device"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
	"github.com/MariyaAnjum937/AI-travel-itenarary/messages"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

func control(action string) []byte {
	data, _ := sonic.Marshal(map[string]any{
		"type":    messages.TypeControl,
		"payload": messages.ControlPayload{Action: action},
	})
	return data
}

func main() {
	// Flags
	serverURL := flag.String("server", "ws://localhost:8080/ws", "WebSocket server URL")
	audioFile := flag.String("file", "examples/user.pcm", "Audio file to send (16 kHz PCM16 or WAV)")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("🔌 Connecting", zap.String("server", *serverURL))
	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		logger.Fatal("Failed to connect", zap.Error(err))
	}
	defer conn.Close()
	logger.Info("✅ Connected!")

	player, err := device.NewSoxSpeaker(live.DefaultPlaybackRate)
	if err != nil {
		logger.Fatal("Failed to create audio player (is sox installed?)", zap.Error(err))
	}
	defer player.Close()

	// Handle interrupt
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	connected := make(chan struct{})

	// Read responses from server
	go func() {
		defer close(done)
		var once bool
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				logger.Info("Read error", zap.Error(err))
				return
			}
			if handle(logger, player, message) == live.StatusConnected.String() && !once {
				once = true
				close(connected)
			}
		}
	}()

	if err := conn.WriteMessage(websocket.TextMessage, control(messages.ActionStart)); err != nil {
		logger.Fatal("Failed to start session", zap.Error(err))
	}
	select {
	case <-connected:
	case <-done:
		return
	case <-time.After(15 * time.Second):
		logger.Fatal("⏰ Timeout waiting for the live session")
	}

	audioData, err := loadAudioFile(logger, *audioFile)
	if err != nil {
		logger.Fatal("Failed to load audio", zap.Error(err))
	}
	logger.Info("📤 Sending audio file", zap.String("file", *audioFile))

	// Send audio in chunks (simulating real-time streaming)
	chunkSize := 3200 // 100ms at 16kHz
	total := (len(audioData) + chunkSize - 1) / chunkSize
	for i := 0; i < len(audioData); i += chunkSize {
		chunk := audioData[i:min(i+chunkSize, len(audioData))]
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			logger.Error("Send error", zap.Error(err))
			break
		}
		logger.Debug("📤 Sent chunk", zap.Int("chunk", i/chunkSize+1), zap.Int("of", total))
		time.Sleep(100 * time.Millisecond)
	}

	logger.Info("✅ Audio sent, waiting for response...")

	select {
	case <-done:
		logger.Info("Connection closed")
	case <-interrupt:
		logger.Info("👋 Interrupted, closing...")
	case <-time.After(30 * time.Second):
		logger.Info("⏰ Done waiting for response")
	}
	_ = conn.WriteMessage(websocket.TextMessage, control(messages.ActionStop))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// handle prints or plays one server message and returns the status it
// carried, if any.
func handle(logger *zap.Logger, player *device.SoxSpeaker, message []byte) string {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := sonic.Unmarshal(message, &env); err != nil {
		logger.Warn("Parse error", zap.Error(err))
		return ""
	}

	switch env.Type {
	case messages.TypeAudio:
		var p messages.AudioResponsePayload
		if sonic.Unmarshal(env.Payload, &p) != nil {
			return ""
		}
		raw, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return ""
		}
		samples, err := pcm.DecodeFloat32(raw)
		if err == nil {
			player.Sink(samples)
		}

	case messages.TypeTranscript:
		var p messages.TranscriptPayload
		if sonic.Unmarshal(env.Payload, &p) == nil && p.Final {
			fmt.Printf("🧑 %s\n🤖 %s\n", p.User, p.Model)
		}

	case messages.TypeStatus:
		var p messages.StatusPayload
		if sonic.Unmarshal(env.Payload, &p) == nil {
			logger.Info("📊 Status", zap.String("status", p.Status), zap.String("message", p.Message))
			return p.Status
		}

	case messages.TypeError:
		var p messages.ErrorPayload
		_ = sonic.Unmarshal(env.Payload, &p)
		logger.Error("❌ Error", zap.String("code", p.Code), zap.String("message", p.Message))
	}
	return ""
}

// loadAudioFile loads PCM or WAV file and returns raw PCM bytes
func loadAudioFile(logger *zap.Logger, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Check if it's a WAV file (starts with "RIFF")
	if len(data) > 44 && string(data[0:4]) == "RIFF" {
		// Skip WAV header (44 bytes for standard WAV)
		logger.Info("📁 Detected WAV file, skipping header")
		return data[44:], nil
	}

	logger.Info("📁 Detected raw PCM file")
	return data, nil
}
