package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

// Record is the metadata kept for a live client session.
type Record struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
	IsTwilio     bool
}

// Store persists session metadata and transcripts.
type Store interface {
	SaveSession(ctx context.Context, rec Record) error
	RemoveSession(ctx context.Context, id string) error
	AppendTurn(ctx context.Context, id string, turn live.Turn) error
	Turns(ctx context.Context, id string) ([]live.Turn, error)
	Close() error
}

// redisStore keeps a "session:<id>" hash per session, the "active_sessions"
// set and a "transcript:<id>" list of JSON encoded turns.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisStore(client *redis.Client, ttl time.Duration) *redisStore {
	return &redisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string    { return "session:" + id }
func transcriptKey(id string) string { return "transcript:" + id }

const activeSessionsKey = "active_sessions"

func (s *redisStore) SaveSession(ctx context.Context, rec Record) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, sessionKey(rec.ID), map[string]interface{}{
		"created_at":    rec.CreatedAt.Format(time.RFC3339),
		"last_activity": rec.LastActivity.Format(time.RFC3339),
		"status":        "active",
		"is_twilio":     rec.IsTwilio,
	})
	pipe.SAdd(ctx, activeSessionsKey, rec.ID)
	pipe.Expire(ctx, sessionKey(rec.ID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *redisStore) RemoveSession(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, activeSessionsKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove session %s: %w", id, err)
	}
	return nil
}

func (s *redisStore) AppendTurn(ctx context.Context, id string, turn live.Turn) error {
	data, err := sonic.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, transcriptKey(id), data)
	pipe.Expire(ctx, transcriptKey(id), s.ttl)
	pipe.HSet(ctx, sessionKey(id), "last_activity", time.Now().Format(time.RFC3339))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn for %s: %w", id, err)
	}
	return nil
}

func (s *redisStore) Turns(ctx context.Context, id string) ([]live.Turn, error) {
	raw, err := s.client.LRange(ctx, transcriptKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", id, err)
	}
	return decodeTurns(raw)
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func decodeTurns(raw []string) ([]live.Turn, error) {
	turns := make([]live.Turn, 0, len(raw))
	for _, r := range raw {
		var t live.Turn
		if err := sonic.UnmarshalString(r, &t); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}
