package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/MariyaAnjum937/AI-travel-itenarary/video"
)

type fakeVideoAPI struct {
	model  string
	prompt string
	image  *genai.Image
	cfg    *genai.GenerateVideosConfig

	startErr error
	polls    []*genai.GenerateVideosOperation
	pollErr  error
	calls    int
}

func (f *fakeVideoAPI) GenerateVideos(_ context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	f.model, f.prompt, f.image, f.cfg = model, prompt, image, cfg
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &genai.GenerateVideosOperation{Name: "operations/abc"}, nil
}

func (f *fakeVideoAPI) GetVideosOperation(_ context.Context, op *genai.GenerateVideosOperation, _ *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error) {
	f.calls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	next := f.polls[0]
	f.polls = f.polls[1:]
	return next, nil
}

func travelRequest() video.Request {
	return video.Request{Prompt: "drone shot over Kyoto", Image: []byte{0x89}, MIMEType: "image/png", AspectRatio: "9:16"}
}

func TestVideoBackendStartConfig(t *testing.T) {
	api := &fakeVideoAPI{}
	b := newVideoBackend(api, "", nil)

	_, err := b.Start(context.Background(), travelRequest())
	require.NoError(t, err)

	assert.Equal(t, DefaultVideoModel, api.model)
	assert.Equal(t, "drone shot over Kyoto", api.prompt)
	assert.Equal(t, "image/png", api.image.MIMEType)
	assert.Equal(t, int32(1), api.cfg.NumberOfVideos)
	assert.Equal(t, "720p", api.cfg.Resolution)
	assert.Equal(t, "9:16", api.cfg.AspectRatio)
}

func TestVideoBackendStartError(t *testing.T) {
	b := newVideoBackend(&fakeVideoAPI{startErr: errors.New("permission denied")}, "veo", nil)
	_, err := b.Start(context.Background(), travelRequest())
	assert.ErrorContains(t, err, "permission denied")
}

func TestVideoOperationPoll(t *testing.T) {
	api := &fakeVideoAPI{polls: []*genai.GenerateVideosOperation{
		{Name: "operations/abc"},
		{Name: "operations/abc", Done: true, Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: "https://files/v1.mp4"}}},
		}},
	}}
	pending, err := newVideoBackend(api, "", nil).Start(context.Background(), travelRequest())
	require.NoError(t, err)

	p, err := pending.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, p.Done)

	p, err = pending.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, video.Progress{Done: true, URI: "https://files/v1.mp4"}, p)

	// finished operations are not fetched again
	_, err = pending.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)
}

func TestVideoOperationFailures(t *testing.T) {
	api := &fakeVideoAPI{polls: []*genai.GenerateVideosOperation{
		{Done: true, Error: map[string]any{"code": 3.0, "message": "prompt rejected"}},
	}}
	pending, err := newVideoBackend(api, "", nil).Start(context.Background(), travelRequest())
	require.NoError(t, err)
	p, err := pending.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, p.Done)
	assert.EqualError(t, p.Err, "video generation failed: prompt rejected")

	api = &fakeVideoAPI{polls: []*genai.GenerateVideosOperation{{Done: true}}}
	pending, err = newVideoBackend(api, "", nil).Start(context.Background(), travelRequest())
	require.NoError(t, err)
	p, err = pending.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, video.Progress{Done: true}, p)

	api = &fakeVideoAPI{pollErr: errors.New("unavailable")}
	pending, err = newVideoBackend(api, "", nil).Start(context.Background(), travelRequest())
	require.NoError(t, err)
	_, err = pending.Poll(context.Background())
	assert.ErrorContains(t, err, "unavailable")
}
