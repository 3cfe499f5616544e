package server

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/config"
	"github.com/MariyaAnjum937/AI-travel-itenarary/session"
)

const voiceGreeting = "Connecting you to your travel assistant."

// twiML is the answer to Twilio's voice webhook: greet the caller, then
// bridge the call audio to /stream.
type twiML struct {
	XMLName xml.Name `xml:"Response"`
	Say     string   `xml:"Say"`
	Stream  struct {
		URL string `xml:"url,attr"`
	} `xml:"Connect>Stream"`
}

// WebsocketTwilio bridges Twilio Media Streams into live sessions.
type WebsocketTwilio struct {
	httpServer     *http.Server
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	logger         *zap.Logger
}

func NewServerWebsocketTwilio(cfg *config.Config, sessionManager *session.Manager, logger *zap.Logger) *WebsocketTwilio {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &WebsocketTwilio{
		sessionManager: sessionManager,
		logger:         logger.Named("twilio"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			// Twilio doesn't support WebSocket compression
			EnableCompression: false,
			// Media Streams carry no browser Origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	// Standalone, the Twilio server takes the main port.
	port := cfg.TwilioPort
	if cfg.ServerType == "twilio" {
		port = cfg.Port
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the routes of the Twilio server.
func (s *WebsocketTwilio) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/stream", s.handleStream)
	// Twilio calls the voice webhook with POST by default, GET if configured.
	r.Get("/voice", s.handleVoiceCall)
	r.Post("/voice", s.handleVoiceCall)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *WebsocketTwilio) Start() error {
	addr := s.httpServer.Addr
	s.logger.Info("📞 Twilio server starting",
		zap.String("addr", addr),
		zap.String("stream", "ws://localhost"+addr+"/stream"),
		zap.String("voice", "http://localhost"+addr+"/voice"),
	)
	return s.httpServer.ListenAndServe()
}

func (s *WebsocketTwilio) Shutdown(ctx context.Context) error {
	s.logger.Info("🛑 Shutting down Twilio server...")
	return s.httpServer.Shutdown(ctx)
}

// GetAddr returns the listen address.
func (s *WebsocketTwilio) GetAddr() string {
	return s.httpServer.Addr
}

func (s *WebsocketTwilio) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Twilio WebSocket upgrade failed", zap.Error(err))
		return
	}
	cs, err := s.sessionManager.CreateTwilioSession(r.Context(), conn)
	if err != nil {
		// Twilio has no error channel; hanging up ends the stream.
		s.logger.Warn("Failed to create Twilio session", zap.Error(err))
		conn.Close()
		return
	}
	runSession(s.sessionManager, cs, cs.StartTwilio, s.logger)
}

func (s *WebsocketTwilio) handleVoiceCall(w http.ResponseWriter, r *http.Request) {
	var resp twiML
	resp.Say = voiceGreeting
	resp.Stream.URL = streamURL(r)

	body, err := xml.Marshal(resp)
	if err != nil {
		http.Error(w, "failed to build TwiML", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

// streamURL points Twilio back at this host. Twilio requires wss unless the
// webhook itself arrived over plain HTTP on a local tunnel.
func streamURL(r *http.Request) string {
	scheme := "wss"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") == "http" {
		scheme = "ws"
	}
	return scheme + "://" + r.Host + "/stream"
}

func (s *WebsocketTwilio) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"server":   "twilio",
		"sessions": s.sessionManager.GetActiveSessionCount(),
	})
}
