// Package gemini connects live sessions to the Gemini Live API and runs Veo
// video generation.
package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/MariyaAnjum937/AI-travel-itenarary/functions"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

const (
	DefaultLiveModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultVoice     = "Zephyr" // Puck, Charon, Kore, Fenrir, Aoede, Leda, Orus, Zephyr

	inputMIMEType = "audio/pcm;rate=16000"
)

// liveSession is the part of *genai.Session a channel uses.
type liveSession interface {
	Receive() (*genai.LiveServerMessage, error)
	SendRealtimeInput(genai.LiveRealtimeInput) error
	SendClientContent(genai.LiveClientContentInput) error
	SendToolResponse(genai.LiveToolResponseInput) error
	Close() error
}

type connectFunc func(ctx context.Context, apiKey, model string, cfg *genai.LiveConnectConfig) (liveSession, error)

// Dialer opens Gemini Live channels.
type Dialer struct {
	logger  *zap.Logger
	tools   *functions.Registry
	connect connectFunc
}

var _ live.Dialer = (*Dialer)(nil)

// NewDialer returns a dialer that answers tool calls from tools, which may be nil.
func NewDialer(logger *zap.Logger, tools *functions.Registry) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{logger: logger.Named("gemini"), tools: tools, connect: connectSDK}
}

func connectSDK(ctx context.Context, apiKey, model string, cfg *genai.LiveConnectConfig) (liveSession, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	session, err := client.Live.Connect(ctx, model, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Live API: %w", err)
	}
	return session, nil
}

// Open connects a Live session and starts its receive loop. cb.OnOpen fires
// when the server confirms the session setup.
func (d *Dialer) Open(ctx context.Context, cfg live.ChannelConfig, cb live.Callbacks) (live.Channel, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultLiveModel
	}
	session, err := d.connect(ctx, cfg.APIKey, model, d.connectConfig(cfg))
	if err != nil {
		return nil, err
	}

	ch := newChannel(session, cb, d.tools, d.logger.With(zap.String("model", model)))
	go ch.receive()
	d.logger.Info("✅ Connected to Gemini Live", zap.String("model", model))
	return ch, nil
}

func (d *Dialer) connectConfig(cfg live.ChannelConfig) *genai.LiveConnectConfig {
	voice := cfg.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	out := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
		Tools: d.tools.Tools(),
	}
	if cfg.SystemInstruction != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.InputTranscription {
		out.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if cfg.OutputTranscription {
		out.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	return out
}
