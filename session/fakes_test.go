package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MariyaAnjum937/AI-travel-itenarary/config"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

type fakeChannel struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeChannel) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, append([]byte(nil), frame...))
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeDialer struct {
	mu      sync.Mutex
	cfgs    []live.ChannelConfig
	cbs     []live.Callbacks
	chans   []*fakeChannel
	openErr error
}

func (d *fakeDialer) Open(_ context.Context, cfg live.ChannelConfig, cb live.Callbacks) (live.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfgs = append(d.cfgs, cfg)
	if d.openErr != nil {
		return nil, d.openErr
	}
	ch := &fakeChannel{}
	d.cbs = append(d.cbs, cb)
	d.chans = append(d.chans, ch)
	return ch, nil
}

// opened waits for the n-th Open and returns its callbacks and channel.
func (d *fakeDialer) opened(t *testing.T, n int) (live.Callbacks, *fakeChannel) {
	t.Helper()
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.chans) >= n
	}, 2*time.Second, 2*time.Millisecond)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cbs[n-1], d.chans[n-1]
}

func (d *fakeDialer) lastConfig() live.ChannelConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfgs[len(d.cfgs)-1]
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]Record
	turns   map[string][]live.Turn
	closed  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]Record), turns: make(map[string][]live.Turn)}
}

func (s *fakeStore) SaveSession(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *fakeStore) RemoveSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *fakeStore) AppendTurn(_ context.Context, id string, turn live.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[id] = append(s.turns[id], turn)
	return nil
}

func (s *fakeStore) Turns(_ context.Context, id string) ([]live.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]live.Turn(nil), s.turns[id]...), nil
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) record(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok
}

func testConfig() *config.Config {
	return &config.Config{
		MaxSessions:     2,
		SessionTimeout:  time.Minute,
		GeminiAPIKey:    "test-key",
		LiveVoice:       "Puck",
		RenderPeriod:    5 * time.Millisecond,
		KeepAlivePeriod: time.Minute,
	}
}
