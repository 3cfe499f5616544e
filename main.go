package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MariyaAnjum937/AI-travel-itenarary/config"
	"github.com/MariyaAnjum937/AI-travel-itenarary/functions"
	"github.com/MariyaAnjum937/AI-travel-itenarary/gemini"
	"github.com/MariyaAnjum937/AI-travel-itenarary/itinerary"
	"github.com/MariyaAnjum937/AI-travel-itenarary/server"
	"github.com/MariyaAnjum937/AI-travel-itenarary/session"
	"github.com/MariyaAnjum937/AI-travel-itenarary/video"
)

const shutdownTimeout = 10 * time.Second

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.GeminiAPIKey == "" {
		logger.Warn("⚠️ GEMINI_API_KEY not set, live sessions will fail to start")
	}

	// Create session manager
	dialer := gemini.NewDialer(logger, functions.Travel())
	sessionManager, err := session.NewManager(cfg, dialer, logger)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}
	defer sessionManager.Shutdown()

	videos, err := newVideoService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if videos != nil {
		defer videos.Close()
	}

	planner, err := newPlanner(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var servers []httpServer
	switch cfg.ServerType {
	case "websocket":
		servers = append(servers, server.NewServerWebsocket(cfg, sessionManager, videos, planner, logger))
	case "twilio":
		servers = append(servers, server.NewServerWebsocketTwilio(cfg, sessionManager, logger))
	case "both":
		servers = append(servers,
			server.NewServerWebsocket(cfg, sessionManager, videos, planner, logger),
			server.NewServerWebsocketTwilio(cfg, sessionManager, logger),
		)
	default:
		return fmt.Errorf("unknown SERVER_TYPE: %s", cfg.ServerType)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Start cleanup routine
	g.Go(func() error {
		sessionManager.StartCleanupRoutine(ctx)
		return nil
	})

	for _, srv := range servers {
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	// Handle graceful shutdown
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Received shutdown signal...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// newVideoService returns nil when no API key is configured; the video
// endpoints then answer 503.
func newVideoService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*video.Service, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, nil
	}
	backend, err := gemini.NewVideoBackend(ctx, cfg.GeminiAPIKey, cfg.VideoModel, logger)
	if err != nil {
		return nil, fmt.Errorf("create video backend: %w", err)
	}
	return video.NewService(backend, cfg.VideoPollInterval, logger), nil
}

func newPlanner(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*itinerary.Planner, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, nil
	}
	backend, err := gemini.NewItineraryBackend(ctx, cfg.GeminiAPIKey, cfg.ItineraryModel, logger)
	if err != nil {
		return nil, fmt.Errorf("create itinerary backend: %w", err)
	}
	return itinerary.NewPlanner(backend, logger), nil
}
