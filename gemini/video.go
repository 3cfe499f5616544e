package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/MariyaAnjum937/AI-travel-itenarary/video"
)

const (
	DefaultVideoModel = "veo-3.1-fast-generate-preview"
	videoResolution   = "720p"
)

// videoAPI is the part of the genai client video generation uses.
type videoAPI interface {
	GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation, cfg *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

type sdkVideoAPI struct {
	client *genai.Client
}

func (s sdkVideoAPI) GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return s.client.Models.GenerateVideos(ctx, model, prompt, image, cfg)
}

func (s sdkVideoAPI) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation, cfg *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error) {
	return s.client.Operations.GetVideosOperation(ctx, op, cfg)
}

// VideoBackend starts Veo image-to-video generations.
type VideoBackend struct {
	api    videoAPI
	model  string
	logger *zap.Logger
}

var _ video.Backend = (*VideoBackend)(nil)

func NewVideoBackend(ctx context.Context, apiKey, model string, logger *zap.Logger) (*VideoBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newVideoBackend(sdkVideoAPI{client: client}, model, logger), nil
}

func newVideoBackend(api videoAPI, model string, logger *zap.Logger) *VideoBackend {
	if model == "" {
		model = DefaultVideoModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoBackend{api: api, model: model, logger: logger.Named("veo")}
}

func (b *VideoBackend) Start(ctx context.Context, req video.Request) (video.Pending, error) {
	image := &genai.Image{ImageBytes: req.Image, MIMEType: req.MIMEType}
	op, err := b.api.GenerateVideos(ctx, b.model, req.Prompt, image, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     videoResolution,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, err
	}
	b.logger.Debug("operation started", zap.String("operation", op.Name))
	return &videoOperation{api: b.api, op: op}, nil
}

type videoOperation struct {
	api videoAPI
	op  *genai.GenerateVideosOperation
}

func (o *videoOperation) Poll(ctx context.Context) (video.Progress, error) {
	if !o.op.Done {
		op, err := o.api.GetVideosOperation(ctx, o.op, nil)
		if err != nil {
			return video.Progress{}, err
		}
		o.op = op
	}
	if !o.op.Done {
		return video.Progress{}, nil
	}
	if len(o.op.Error) > 0 {
		return video.Progress{Done: true, Err: operationError(o.op.Error)}, nil
	}
	return video.Progress{Done: true, URI: firstVideoURI(o.op)}, nil
}

func firstVideoURI(op *genai.GenerateVideosOperation) string {
	if op.Response == nil {
		return ""
	}
	for _, v := range op.Response.GeneratedVideos {
		if v != nil && v.Video != nil && v.Video.URI != "" {
			return v.Video.URI
		}
	}
	return ""
}

func operationError(fields map[string]any) error {
	if msg, ok := fields["message"].(string); ok && msg != "" {
		return fmt.Errorf("video generation failed: %s", msg)
	}
	return fmt.Errorf("video generation failed: %v", fields)
}
