package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/config"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
	"github.com/MariyaAnjum937/AI-travel-itenarary/metrics"
)

const (
	cleanupInterval = time.Minute
	storeTimeout    = 5 * time.Second
)

var (
	ErrMaxSessions = errors.New("maximum sessions reached")
	ErrNotFound    = errors.New("session not found")
)

// Manager manages all client sessions
type Manager struct {
	sessions map[string]*ClientSession
	mu       sync.RWMutex
	store    Store // nil when Redis is unavailable
	config   *config.Config
	dialer   live.Dialer
	logger   *zap.Logger

	shutdownOnce sync.Once
}

// NewManager creates a session manager with Redis connection
func NewManager(cfg *config.Config, dialer live.Dialer, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Try to connect to Redis, but don't fail if unavailable
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	var store Store
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("⚠️ Redis unavailable, running without persistence", zap.String("addr", cfg.RedisURL), zap.Error(err))
		_ = redisClient.Close()
	} else {
		logger.Info("✅ Connected to Redis", zap.String("addr", cfg.RedisURL))
		store = newRedisStore(redisClient, cfg.SessionTimeout)
	}

	return newManager(cfg, dialer, store, logger), nil
}

func newManager(cfg *config.Config, dialer live.Dialer, store Store, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*ClientSession),
		store:    store,
		config:   cfg,
		dialer:   dialer,
		logger:   logger.Named("session"),
	}
}

func (sm *Manager) options() Options {
	lc := live.DefaultConfig()
	lc.Channel.APIKey = sm.config.GeminiAPIKey
	lc.Channel.Model = sm.config.LiveModel
	lc.Channel.Voice = sm.config.LiveVoice
	lc.Channel.SystemInstruction = DefaultSystemPrompt
	return Options{
		Dialer:       sm.dialer,
		Live:         lc,
		RenderPeriod: sm.config.RenderPeriod,
		KeepAlive:    sm.config.KeepAlivePeriod,
		Logger:       sm.logger,
		OnTurn:       sm.persistTurn,
	}
}

// CreateSession creates a new client session
func (sm *Manager) CreateSession(ctx context.Context, clientConn *websocket.Conn) (*ClientSession, error) {
	return sm.create(ctx, clientConn, NewClientSession)
}

// CreateTwilioSession creates a new Twilio voice call session
func (sm *Manager) CreateTwilioSession(ctx context.Context, clientConn *websocket.Conn) (*ClientSession, error) {
	return sm.create(ctx, clientConn, NewTwilioClientSession)
}

func (sm *Manager) create(ctx context.Context, clientConn *websocket.Conn, newSession func(string, *websocket.Conn, Options) *ClientSession) (*ClientSession, error) {
	sm.mu.Lock()
	if len(sm.sessions) >= sm.config.MaxSessions {
		sm.mu.Unlock()
		metrics.ClientsRejectedTotal.Inc()
		return nil, ErrMaxSessions
	}
	sessionID := uuid.New().String()
	session := newSession(sessionID, clientConn, sm.options())
	sm.sessions[sessionID] = session
	sm.mu.Unlock()

	metrics.ConnectedClients.Inc()
	sm.storeSession(ctx, session)
	return session, nil
}

// storeSession saves a session to Redis
func (sm *Manager) storeSession(ctx context.Context, session *ClientSession) {
	if sm.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	err := sm.store.SaveSession(ctx, Record{
		ID:           session.ID,
		CreatedAt:    session.CreatedAt,
		LastActivity: session.LastActive(),
		IsTwilio:     session.IsTwilio,
	})
	if err != nil {
		sm.logger.Warn("failed to store session", zap.String("session", session.ID), zap.Error(err))
	}
}

func (sm *Manager) persistTurn(sessionID string, turn live.Turn) {
	if sm.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := sm.store.AppendTurn(ctx, sessionID, turn); err != nil {
		sm.logger.Warn("failed to persist turn", zap.String("session", sessionID), zap.Error(err))
	}
}

// GetSession retrieves a session by ID
func (sm *Manager) GetSession(sessionID string) (*ClientSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	return session, exists
}

// Transcript returns the completed turns of a session. Persisted turns are
// preferred; without Redis only sessions still connected are known.
func (sm *Manager) Transcript(ctx context.Context, sessionID string) ([]live.Turn, error) {
	if sm.store != nil {
		turns, err := sm.store.Turns(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if len(turns) > 0 {
			return turns, nil
		}
	}
	if session, ok := sm.GetSession(sessionID); ok {
		return session.Controller.Transcript(), nil
	}
	return nil, ErrNotFound
}

// RemoveSession cleans up and removes a session
func (sm *Manager) RemoveSession(ctx context.Context, sessionID string) error {
	sm.mu.Lock()
	session, exists := sm.sessions[sessionID]
	if exists {
		delete(sm.sessions, sessionID)
	}
	sm.mu.Unlock()
	if !exists {
		return nil
	}

	session.Close()
	sm.forget(ctx, sessionID)
	return nil
}

func (sm *Manager) forget(ctx context.Context, sessionID string) {
	metrics.ConnectedClients.Dec()
	if sm.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := sm.store.RemoveSession(ctx, sessionID); err != nil {
		sm.logger.Warn("failed to remove session record", zap.String("session", sessionID), zap.Error(err))
	}
}

// GetActiveSessionCount returns current session count
func (sm *Manager) GetActiveSessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CleanupInactiveSessions removes sessions that have been inactive
func (sm *Manager) CleanupInactiveSessions(ctx context.Context) int {
	now := time.Now()
	var stale []*ClientSession

	sm.mu.Lock()
	for id, session := range sm.sessions {
		if now.Sub(session.LastActive()) > sm.config.SessionTimeout {
			stale = append(stale, session)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, session := range stale {
		sm.logger.Info("🧹 closing inactive session", zap.String("session", session.ID))
		session.Close()
		sm.forget(ctx, session.ID)
	}
	return len(stale)
}

// StartCleanupRoutine starts periodic cleanup of inactive sessions
func (sm *Manager) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.CleanupInactiveSessions(ctx)
		}
	}
}

// Shutdown closes all sessions and the store. Later calls do nothing.
func (sm *Manager) Shutdown() {
	sm.shutdownOnce.Do(sm.shutdown)
}

func (sm *Manager) shutdown() {
	sm.mu.Lock()
	sessions := make([]*ClientSession, 0, len(sm.sessions))
	for id, session := range sm.sessions {
		sessions = append(sessions, session)
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	for _, session := range sessions {
		session.Close()
		sm.forget(context.Background(), session.ID)
	}

	if sm.store != nil {
		if err := sm.store.Close(); err != nil {
			sm.logger.Warn("failed to close store", zap.Error(err))
		}
	}
}
