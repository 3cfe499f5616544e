package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/config"
	"github.com/MariyaAnjum937/AI-travel-itenarary/itinerary"
	"github.com/MariyaAnjum937/AI-travel-itenarary/messages"
	"github.com/MariyaAnjum937/AI-travel-itenarary/session"
	"github.com/MariyaAnjum937/AI-travel-itenarary/video"
)

const (
	maxImageSize      = 10 << 20 // 10MB
	maxItineraryBody  = 16 << 10
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	httpServer     *http.Server
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	videos         *video.Service
	planner        *itinerary.Planner
	config         *config.Config
	logger         *zap.Logger
}

// NewServerWebsocket serves browser clients. videos and planner may be nil, in
// which case their endpoints answer 503.
func NewServerWebsocket(cfg *config.Config, sessionManager *session.Manager, videos *video.Service, planner *itinerary.Planner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		sessionManager: sessionManager,
		videos:         videos,
		planner:        planner,
		config:         cfg,
		logger:         logger.Named("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    64 * 1024, // 64KB for audio chunks
			WriteBufferSize:   64 * 1024, // 64KB for audio chunks
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				// Check allowed origins
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.AllowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		// No ReadTimeout/WriteTimeout: they would cut long-lived WebSocket connections.
	}

	return s
}

// Handler returns the routes of the server. CORS covers the HTTP API; the
// WebSocket upgrade enforces the same origins through CheckOrigin.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/video", func(r chi.Router) {
		r.Post("/", s.handleVideoSubmit)
		r.Get("/{id}", s.handleVideoStatus)
	})
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/transcript", s.handleTranscript)
	})
	r.Post("/itinerary", s.handleItinerary)
	return r
}

// Start begins listening for connections
func (s *Server) Start() error {
	s.logger.Info("🚀 WebSocket server starting", zap.Int("port", s.config.Port))
	s.logger.Info(fmt.Sprintf("📡 WebSocket endpoint: ws://localhost:%d/ws", s.config.Port))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("🛑 Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP to WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	// Create session
	clientSession, err := s.sessionManager.CreateSession(r.Context(), conn)
	if err != nil {
		s.logger.Warn("Failed to create session", zap.Error(err))
		// Send error and close
		code := messages.ErrCodeSessionFailed
		if errors.Is(err, session.ErrMaxSessions) {
			code = messages.ErrCodeRateLimited
		}
		if data, encErr := messages.Encode(messages.NewErrorMessage("", code, err.Error())); encErr == nil {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
		conn.Close()
		return
	}

	runSession(s.sessionManager, clientSession, clientSession.Start, s.logger)
}

// runSession starts the session's pumps and blocks until it closes, then
// removes it from the manager.
func runSession(m *session.Manager, cs *session.ClientSession, start func(), logger *zap.Logger) {
	logger.Info("✅ New session created", zap.String("session", cs.ID), zap.Bool("twilio", cs.IsTwilio))
	start()
	<-cs.CloseChan
	_ = m.RemoveSession(context.Background(), cs.ID)
	logger.Info("🔌 Session closed", zap.String("session", cs.ID))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessionManager.GetActiveSessionCount(),
	})
}

func (s *Server) handleVideoSubmit(w http.ResponseWriter, r *http.Request) {
	if s.videos == nil {
		writeError(w, http.StatusServiceUnavailable, "video generation is not configured")
		return
	}
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()
	image, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(image) > maxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	aspect := r.FormValue("aspectRatio")
	if aspect == "" {
		aspect = "16:9"
	}

	job, err := s.videos.Submit(r.Context(), video.Request{
		Prompt:      r.FormValue("prompt"),
		Image:       image,
		MIMEType:    mimeType,
		AspectRatio: aspect,
	})
	switch {
	case errors.Is(err, video.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, video.ErrServiceClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		s.logger.Error("❌ video submit failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusAccepted, job)
	}
}

func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	if s.videos == nil {
		writeError(w, http.StatusServiceUnavailable, "video generation is not configured")
		return
	}
	job, err := s.videos.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	turns, err := s.sessionManager.Transcript(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.Error("failed to load transcript", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load transcript")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
	}
}

func (s *Server) handleItinerary(w http.ResponseWriter, r *http.Request) {
	if s.planner == nil {
		writeError(w, http.StatusServiceUnavailable, "itinerary generation is not configured")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxItineraryBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	var req itinerary.Request
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	days, err := s.planner.Plan(r.Context(), req)
	switch {
	case errors.Is(err, itinerary.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, itinerary.ErrMalformed):
		writeError(w, http.StatusBadGateway, "Failed to generate itinerary. The AI's response might be malformed. Please try again.")
	case err != nil:
		s.logger.Error("❌ itinerary generation failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "itinerary generation failed")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"days": days})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
