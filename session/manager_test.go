package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

func TestManagerEnforcesSessionLimit(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := newManager(testConfig(), &fakeDialer{}, store, zap.NewNop())
	defer m.Shutdown()

	first, err := m.CreateSession(context.Background(), nil)
	require.NoError(t, err)
	_, err = m.CreateTwilioSession(context.Background(), nil)
	require.NoError(t, err)

	_, err = m.CreateSession(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMaxSessions)
	assert.Equal(t, 2, m.GetActiveSessionCount())

	rec, ok := store.record(first.ID)
	require.True(t, ok)
	assert.False(t, rec.IsTwilio)

	require.NoError(t, m.RemoveSession(context.Background(), first.ID))
	assert.Equal(t, 1, m.GetActiveSessionCount())
	assert.True(t, first.IsClosed())
	_, ok = store.record(first.ID)
	assert.False(t, ok)

	// removing twice is harmless
	require.NoError(t, m.RemoveSession(context.Background(), first.ID))
}

func TestManagerSessionOptions(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.LiveModel = "custom-model"
	m := newManager(cfg, &fakeDialer{}, nil, zap.NewNop())

	opts := m.options()
	assert.Equal(t, "test-key", opts.Live.Channel.APIKey)
	assert.Equal(t, "custom-model", opts.Live.Channel.Model)
	assert.Equal(t, "Puck", opts.Live.Channel.Voice)
	assert.Equal(t, DefaultSystemPrompt, opts.Live.Channel.SystemInstruction)
	assert.True(t, opts.Live.Channel.InputTranscription)
	assert.True(t, opts.Live.Channel.OutputTranscription)
	assert.Equal(t, live.DefaultBlockSize, opts.Live.BlockSize)
}

func TestManagerPersistsTurns(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := newManager(testConfig(), &fakeDialer{}, store, zap.NewNop())
	defer m.Shutdown()

	cs, err := m.CreateSession(context.Background(), nil)
	require.NoError(t, err)

	m.persistTurn(cs.ID, live.Turn{User: "where should I eat in Lisbon?", Model: "Try Alfama."})
	turns, err := m.Transcript(context.Background(), cs.ID)
	require.NoError(t, err)
	assert.Equal(t, []live.Turn{{User: "where should I eat in Lisbon?", Model: "Try Alfama."}}, turns)
}

func TestManagerTranscriptWithoutStore(t *testing.T) {
	t.Parallel()

	m := newManager(testConfig(), &fakeDialer{}, nil, zap.NewNop())
	defer m.Shutdown()

	cs, err := m.CreateSession(context.Background(), nil)
	require.NoError(t, err)

	turns, err := m.Transcript(context.Background(), cs.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = m.Transcript(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerCleanupInactiveSessions(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := newManager(testConfig(), &fakeDialer{}, store, zap.NewNop())
	defer m.Shutdown()

	stale, err := m.CreateSession(context.Background(), nil)
	require.NoError(t, err)
	fresh, err := m.CreateSession(context.Background(), nil)
	require.NoError(t, err)

	stale.mu.Lock()
	stale.LastActivity = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	assert.Equal(t, 1, m.CleanupInactiveSessions(context.Background()))
	assert.True(t, stale.IsClosed())
	assert.False(t, fresh.IsClosed())
	_, ok := m.GetSession(stale.ID)
	assert.False(t, ok)
}

func TestManagerShutdown(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := newManager(testConfig(), &fakeDialer{}, store, zap.NewNop())

	cs, err := m.CreateSession(context.Background(), nil)
	require.NoError(t, err)

	m.Shutdown()
	m.Shutdown()

	assert.True(t, cs.IsClosed())
	assert.Equal(t, 0, m.GetActiveSessionCount())
	assert.True(t, store.closed)
}
