// Command live talks to the travel assistant through the local sound card.
// It needs sox on the PATH.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MariyaAnjum937/AI-travel-itenarary/config"
	"github.com/MariyaAnjum937/AI-travel-itenarary/device"
	"github.com/MariyaAnjum937/AI-travel-itenarary/functions"
	"github.com/MariyaAnjum937/AI-travel-itenarary/gemini"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
	"github.com/MariyaAnjum937/AI-travel-itenarary/session"
)

// console prints controller events. It is called under the controller lock,
// so status changes are handed off without blocking.
type console struct {
	statuses chan live.Status
}

func (c *console) StatusChanged(s live.Status, message string) {
	if message != "" {
		fmt.Printf("📊 %s: %s\n", s, message)
	} else {
		fmt.Printf("📊 %s\n", s)
	}
	select {
	case c.statuses <- s:
	default:
	}
}

func (c *console) TurnUpdated(live.Turn) {}

func (c *console) TurnCompleted(turn live.Turn) {
	if turn.User != "" {
		fmt.Printf("🧑 %s\n", turn.User)
	}
	if turn.Model != "" {
		fmt.Printf("🤖 %s\n", turn.Model)
	}
}

func main() {
	model := flag.String("model", "", "live model (defaults to LIVE_MODEL or the built-in model)")
	voice := flag.String("voice", "", "prebuilt voice name")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	lc := live.DefaultConfig()
	lc.Channel.APIKey = cfg.GeminiAPIKey
	lc.Channel.Model = cfg.LiveModel
	lc.Channel.Voice = cfg.LiveVoice
	lc.Channel.SystemInstruction = session.DefaultSystemPrompt
	if *model != "" {
		lc.Channel.Model = *model
	}
	if *voice != "" {
		lc.Channel.Voice = *voice
	}

	speaker, err := device.NewSoxSpeaker(lc.PlaybackRate)
	if err != nil {
		logger.Fatal("Failed to start audio player (is sox installed?)", zap.Error(err))
	}
	defer speaker.Close()

	out := &console{statuses: make(chan live.Status, 8)}
	ctrl := live.NewController(lc,
		gemini.NewDialer(logger, functions.Travel()),
		&device.SoxMicrophone{Rate: lc.CaptureRate, Logger: logger},
		device.NewFactory(speaker.Sink, device.WithSilence(), device.WithRenderPeriod(cfg.RenderPeriod)),
		logger,
		live.WithObserver(out),
	)
	defer ctrl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctrl.Start(ctx); err != nil {
			return err
		}
		fmt.Println("🎙️ Speak now, Ctrl+C to quit")
		<-ctx.Done()
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case s := <-out.statuses:
				if s == live.StatusError {
					_, msg := ctrl.Status()
					return errors.New(msg)
				}
			}
		}
	})

	err = g.Wait()
	ctrl.Stop()
	if err != nil {
		logger.Error("❌ live session ended", zap.Error(err))
	}
	fmt.Printf("👋 %d turns\n", len(ctrl.Transcript()))
}
