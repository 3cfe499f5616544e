// Command test-text opens one realtime channel, sends a text prompt and logs
// what comes back.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/functions"
	"github.com/MariyaAnjum937/AI-travel-itenarary/gemini"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

func main() {
	_ = godotenv.Load()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Fatal("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opened := make(chan struct{})
	done := make(chan struct{})
	var audioBytes int

	cfg := live.DefaultConfig().Channel
	cfg.APIKey = apiKey
	cfg.SystemInstruction = "You are a helpful travel assistant. Keep responses brief."

	dialer := gemini.NewDialer(logger, functions.Travel())
	ch, err := dialer.Open(ctx, cfg, live.Callbacks{
		OnOpen: func() { close(opened) },
		OnMessage: func(f live.Fragment) {
			for _, payload := range f.Audio {
				audioBytes += len(payload)
			}
			if f.OutputText != "" {
				logger.Info("💬 Received text", zap.String("text", f.OutputText))
			}
			if f.TurnComplete {
				logger.Info("✅ Turn complete", zap.Int("audioBytes", audioBytes))
				close(done)
			}
		},
		OnError: func(err error) { logger.Error("❌ Error", zap.Error(err)) },
		OnClose: func() { logger.Info("Channel closed") },
	})
	if err != nil {
		logger.Fatal("Failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	select {
	case <-opened:
	case <-ctx.Done():
		logger.Fatal("Timed out waiting for the channel")
	}

	if err := ch.(*gemini.Channel).SendText("Hello! Say hi back in one sentence."); err != nil {
		logger.Fatal("Failed to send text", zap.Error(err))
	}

	logger.Info("Waiting for response...")
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("No complete turn before timeout")
	}
}
