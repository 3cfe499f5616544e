// Package itinerary builds day-by-day travel plans from a structured model
// response.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/metrics"
)

const MaxDays = 30

var (
	ErrInvalidRequest = errors.New("itinerary: invalid request")
	// ErrMalformed means the model answered with something that is not an
	// itinerary.
	ErrMalformed = errors.New("itinerary: malformed model response")
)

// Request describes the trip to plan.
type Request struct {
	Destination string `json:"destination"`
	Days        int    `json:"days"`
	Interests   string `json:"interests"`
}

func (r Request) validate() error {
	switch {
	case strings.TrimSpace(r.Destination) == "":
		return fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	case r.Days <= 0 || r.Days > MaxDays:
		return fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidRequest, MaxDays)
	case strings.TrimSpace(r.Interests) == "":
		return fmt.Errorf("%w: interests are required", ErrInvalidRequest)
	}
	return nil
}

// Activity is one block of a day.
type Activity struct {
	Time        string `json:"time"`
	Activity    string `json:"activity"`
	Location    string `json:"location"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
}

// Day is the schedule of one trip day.
type Day struct {
	Day         int        `json:"day"`
	ImagePrompt string     `json:"image_prompt"`
	Schedule    []Activity `json:"schedule"`
}

// Generator returns the model's JSON answer for prompt. Implementations
// constrain the answer to a JSON array of days.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Planner turns trip requests into itineraries.
type Planner struct {
	gen    Generator
	logger *zap.Logger
}

func NewPlanner(gen Generator, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{gen: gen, logger: logger.Named("itinerary")}
}

// Plan asks the model for an itinerary and decodes it.
func (p *Planner) Plan(ctx context.Context, req Request) ([]Day, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := p.gen.Generate(ctx, Prompt(req))
	if err != nil {
		metrics.ItinerariesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("generate itinerary: %w", err)
	}

	days, err := Decode(text)
	if err != nil {
		metrics.ItinerariesTotal.WithLabelValues("malformed").Inc()
		p.logger.Warn("⚠️ model returned a malformed itinerary", zap.String("destination", req.Destination), zap.Error(err))
		return nil, err
	}

	metrics.ItinerariesTotal.WithLabelValues("done").Inc()
	p.logger.Info("🗺️ itinerary generated",
		zap.String("destination", req.Destination),
		zap.Int("days", len(days)),
		zap.Duration("took", time.Since(start)),
	)
	return days, nil
}

// Decode extracts the outermost JSON array from text, tolerating prose or
// code fences around it, and decodes it into days.
func Decode(text string) ([]Day, error) {
	first := strings.IndexByte(text, '[')
	last := strings.LastIndexByte(text, ']')
	if first < 0 || last <= first {
		return nil, fmt.Errorf("%w: no JSON array found", ErrMalformed)
	}

	var days []Day
	if err := sonic.UnmarshalString(text[first:last+1], &days); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: empty itinerary", ErrMalformed)
	}
	for i, d := range days {
		if len(d.Schedule) == 0 {
			return nil, fmt.Errorf("%w: day %d has no activities", ErrMalformed, i+1)
		}
	}
	return days, nil
}

// Prompt is the instruction sent with the response schema.
func Prompt(req Request) string {
	return fmt.Sprintf(`You are a world-class travel planning assistant. Create a detailed, multi-day travel itinerary.

**Trip:**
- Destination: %[1]s
- Duration: %[2]d days
- Interests: %[3]s

**Requirements:**
1. Create a day-by-day schedule covering all %[2]d days.
2. For each day, write a short, descriptive prompt for a cover image of the day's theme.
3. Break each day into "Morning", "Afternoon" and "Evening" blocks.
4. Give every activity all the required fields.
5. Group activities geographically to minimize travel time.
6. Keep the schedule practical, with time for travel, meals and rest.
7. Reflect the interests strongly: "%[3]s".
8. Answer only with JSON matching the schema, with no text or markdown around it.
`, req.Destination, req.Days, req.Interests)
}
