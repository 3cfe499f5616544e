package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/config"
	"github.com/MariyaAnjum937/AI-travel-itenarary/itinerary"
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
	"github.com/MariyaAnjum937/AI-travel-itenarary/messages"
	"github.com/MariyaAnjum937/AI-travel-itenarary/session"
	"github.com/MariyaAnjum937/AI-travel-itenarary/video"
)

type nopDialer struct{}

func (nopDialer) Open(context.Context, live.ChannelConfig, live.Callbacks) (live.Channel, error) {
	return nil, context.Canceled
}

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	return g.text, g.err
}

const lisbonDay = "```json\n" + `[{"day":1,"image_prompt":"Tram 28","schedule":[` +
	`{"time":"Morning","activity":"Castle walk","location":"Alfama","duration":"2 hours","description":"Views over the river."}]}]` + "\n```"

type instantPending struct{}

func (instantPending) Poll(context.Context) (video.Progress, error) {
	return video.Progress{Done: true, URI: "https://files/trip.mp4"}, nil
}

type instantBackend struct{}

func (instantBackend) Start(context.Context, video.Request) (video.Pending, error) {
	return instantPending{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           8080,
		TwilioPort:     8081,
		ServerType:     "both",
		RedisURL:       "127.0.0.1:1", // nothing listens; the manager runs without Redis
		MaxSessions:    1,
		SessionTimeout: time.Minute,
		AllowedOrigins: []string{"https://planner.example"},
		RenderPeriod:   5 * time.Millisecond,
	}
}

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	cfg := testConfig()
	m, err := session.NewManager(cfg, nopDialer{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	videos := video.NewService(instantBackend{}, time.Millisecond, zap.NewNop())
	t.Cleanup(videos.Close)
	planner := itinerary.NewPlanner(&stubGenerator{text: lisbonDay}, zap.NewNop())
	return NewServerWebsocket(cfg, m, videos, planner, zap.NewNop()), m
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "travel_connected_clients")
}

func videoForm(t *testing.T, prompt, aspect string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("prompt", prompt))
	if aspect != "" {
		require.NoError(t, mw.WriteField("aspectRatio", aspect))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "beach.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/video", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestVideoSubmitAndPoll(t *testing.T) {
	s, _ := newTestServer(t)
	png := []byte("\x89PNG\r\n\x1a\n0000")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, videoForm(t, "waves rolling onto the beach", "9:16", png))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var job video.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, video.StatePending, job.State)
	assert.Equal(t, "9:16", job.AspectRatio)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video/"+job.ID, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		var got video.Job
		return json.Unmarshal(rec.Body.Bytes(), &got) == nil && got.State == video.StateDone &&
			got.VideoURI == "https://files/trip.mp4"
	}, 2*time.Second, 2*time.Millisecond)
}

func TestVideoSubmitValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"missing image", videoForm(t, "sunrise", "16:9", nil)},
		{"missing prompt", videoForm(t, "", "16:9", []byte("img"))},
		{"bad aspect ratio", videoForm(t, "sunrise", "1:1", []byte("img"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVideoWithoutService(t *testing.T) {
	cfg := testConfig()
	m, err := session.NewManager(cfg, nopDialer{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	s := NewServerWebsocket(cfg, m, nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/video/abc", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, itineraryRequest(`{"destination":"Lisbon","days":1,"interests":"food"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func itineraryRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/itinerary", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestItinerary(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, itineraryRequest(`{"destination":"Lisbon","days":1,"interests":"history"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Days []itinerary.Day `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "Tram 28", resp.Days[0].ImagePrompt)
	require.Len(t, resp.Days[0].Schedule, 1)
	assert.Equal(t, "Castle walk", resp.Days[0].Schedule[0].Activity)
}

func TestItineraryErrors(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
		body string
		want int
	}{
		{"bad json", &stubGenerator{text: lisbonDay}, `{"destination":`, http.StatusBadRequest},
		{"missing interests", &stubGenerator{text: lisbonDay}, `{"destination":"Lisbon","days":2}`, http.StatusBadRequest},
		{"zero days", &stubGenerator{text: lisbonDay}, `{"destination":"Lisbon","days":0,"interests":"food"}`, http.StatusBadRequest},
		{"malformed answer", &stubGenerator{text: "no plan today"}, `{"destination":"Lisbon","days":1,"interests":"food"}`, http.StatusBadGateway},
		{"backend failure", &stubGenerator{err: errors.New("quota")}, `{"destination":"Lisbon","days":1,"interests":"food"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			m, err := session.NewManager(cfg, nopDialer{}, zap.NewNop())
			require.NoError(t, err)
			t.Cleanup(m.Shutdown)
			s := NewServerWebsocket(cfg, m, nil, itinerary.NewPlanner(tt.gen, nil), zap.NewNop())

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, itineraryRequest(tt.body))
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/itinerary", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("https://planner.example")
	assert.Equal(t, "https://planner.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	rec = preflight("https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTranscriptUnknownSession(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/missing/transcript", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocketOriginAndLimit(t *testing.T) {
	s, m := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	origin := http.Header{"Origin": {"https://planner.example"}}
	first, _, err := websocket.DefaultDialer.Dial(url, origin)
	require.NoError(t, err)
	t.Cleanup(func() { first.Close() })
	require.Eventually(t, func() bool { return m.GetActiveSessionCount() == 1 }, 2*time.Second, 2*time.Millisecond)

	second, _, err := websocket.DefaultDialer.Dial(url, origin)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := second.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string                `json:"type"`
		Payload messages.ErrorPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, messages.TypeError, msg.Type)
	assert.Equal(t, messages.ErrCodeRateLimited, msg.Payload.Code)
}

func TestTwilioVoiceTwiML(t *testing.T) {
	cfg := testConfig()
	m, err := session.NewManager(cfg, nopDialer{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	s := NewServerWebsocketTwilio(cfg, m, zap.NewNop())
	assert.Equal(t, ":8081", s.GetAddr())

	req := httptest.NewRequest(http.MethodPost, "/voice", nil)
	req.Host = "calls.example"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<Say>Connecting you to your travel assistant.</Say>`)
	assert.Contains(t, rec.Body.String(), `<Connect><Stream url="wss://calls.example/stream"></Stream></Connect>`)

	req = httptest.NewRequest(http.MethodPost, "/voice", nil)
	req.Host = "localhost:8081"
	req.Header.Set("X-Forwarded-Proto", "http")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `url="ws://localhost:8081/stream"`)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","server":"twilio","sessions":0}`, rec.Body.String())
}
