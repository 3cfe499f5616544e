package gemini

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/MariyaAnjum937/AI-travel-itenarary/itinerary"
)

const DefaultItineraryModel = "gemini-2.5-pro"

// contentAPI is the part of the genai client itinerary generation uses.
type contentAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var activitySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"time":        {Type: genai.TypeString, Description: "Morning, Afternoon or Evening"},
		"activity":    {Type: genai.TypeString},
		"location":    {Type: genai.TypeString},
		"duration":    {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
		"notes":       {Type: genai.TypeString, Description: "Optional practical tips"},
	},
	Required: []string{"time", "activity", "location", "duration", "description"},
}

var itinerarySchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"day":          {Type: genai.TypeInteger},
			"image_prompt": {Type: genai.TypeString, Description: "Cover image prompt for the day's theme"},
			"schedule":     {Type: genai.TypeArray, Items: activitySchema},
		},
		Required: []string{"day", "image_prompt", "schedule"},
	},
}

// ItineraryBackend asks Gemini for schema-constrained itineraries.
type ItineraryBackend struct {
	api    contentAPI
	model  string
	logger *zap.Logger
}

var _ itinerary.Generator = (*ItineraryBackend)(nil)

func NewItineraryBackend(ctx context.Context, apiKey, model string, logger *zap.Logger) (*ItineraryBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newItineraryBackend(client.Models, model, logger), nil
}

func newItineraryBackend(api contentAPI, model string, logger *zap.Logger) *ItineraryBackend {
	if model == "" {
		model = DefaultItineraryModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItineraryBackend{api: api, model: model, logger: logger.Named("itinerary")}
}

func (b *ItineraryBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.api.GenerateContent(ctx, b.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   itinerarySchema,
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty model response")
	}
	b.logger.Debug("itinerary response", zap.String("model", b.model), zap.Int("bytes", len(text)))
	return text, nil
}
