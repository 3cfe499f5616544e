// Package video runs video generation jobs and polls their long-running
// operations until they finish.
package video

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/metrics"
)

const (
	DefaultPollInterval = 10 * time.Second
	// JobTTL is how long a finished job stays retrievable.
	JobTTL        = time.Hour
	sweepInterval = time.Minute
)

var (
	ErrInvalidRequest = errors.New("video: invalid request")
	ErrNotFound       = errors.New("video: job not found")
	ErrNoVideo        = errors.New("video generation completed, but no video URL was found")
	ErrServiceClosed  = errors.New("video: service closed")
)

// Request is one image-to-video generation.
type Request struct {
	Prompt      string
	Image       []byte
	MIMEType    string
	AspectRatio string
}

func (r Request) validate() error {
	switch {
	case r.Prompt == "":
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	case len(r.Image) == 0:
		return fmt.Errorf("%w: image is required", ErrInvalidRequest)
	case r.AspectRatio != "16:9" && r.AspectRatio != "9:16":
		return fmt.Errorf("%w: aspect ratio must be 16:9 or 9:16", ErrInvalidRequest)
	}
	return nil
}

// Progress is what one poll of an operation reports.
type Progress struct {
	Done bool
	URI  string
	Err  error
}

// Pending is a started generation.
type Pending interface {
	Poll(ctx context.Context) (Progress, error)
}

// Backend starts generations.
type Backend interface {
	Start(ctx context.Context, req Request) (Pending, error)
}

type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Job is the externally visible state of a generation.
type Job struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	AspectRatio string    `json:"aspectRatio"`
	State       State     `json:"state"`
	VideoURI    string    `json:"videoUri,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Service tracks jobs and runs one poller per pending job.
type Service struct {
	backend  Backend
	interval time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewService(backend Backend, interval time.Duration, logger *zap.Logger) *Service {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		backend:  backend,
		interval: interval,
		logger:   logger.Named("video"),
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[string]*Job),
	}
	s.wg.Add(1)
	go s.sweepLoop()
	return s
}

// Submit validates req, starts the generation and returns the new job.
func (s *Service) Submit(ctx context.Context, req Request) (Job, error) {
	if err := req.validate(); err != nil {
		return Job{}, err
	}
	if s.ctx.Err() != nil {
		return Job{}, ErrServiceClosed
	}

	pending, err := s.backend.Start(ctx, req)
	if err != nil {
		metrics.VideoJobsTotal.WithLabelValues("rejected").Inc()
		return Job{}, fmt.Errorf("start video generation: %w", err)
	}

	now := time.Now()
	job := &Job{
		ID:          uuid.New().String(),
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		State:       StatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	s.wg.Add(1)
	go s.poll(job.ID, pending)
	s.logger.Info("🎬 video job started", zap.String("job", job.ID))
	return snapshot, nil
}

// Get returns the current state of a job.
func (s *Service) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

func (s *Service) poll(id string, pending Pending) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}

		p, err := pending.Poll(s.ctx)
		switch {
		case err != nil:
			if s.ctx.Err() != nil {
				return
			}
			s.finish(id, "", fmt.Errorf("check video status: %w", err))
			return
		case !p.Done:
			continue
		case p.Err != nil:
			s.finish(id, "", p.Err)
			return
		case p.URI == "":
			s.finish(id, "", ErrNoVideo)
			return
		default:
			s.finish(id, p.URI, nil)
			return
		}
	}
}

func (s *Service) finish(id, uri string, err error) {
	s.mu.Lock()
	job := s.jobs[id]
	job.UpdatedAt = time.Now()
	if err != nil {
		job.State = StateFailed
		job.Error = err.Error()
	} else {
		job.State = StateDone
		job.VideoURI = uri
	}
	elapsed := job.UpdatedAt.Sub(job.CreatedAt)
	s.mu.Unlock()

	metrics.VideoJobsTotal.WithLabelValues(string(job.State)).Inc()
	metrics.VideoJobDuration.Observe(elapsed.Seconds())
	if err != nil {
		s.logger.Error("❌ video job failed", zap.String("job", id), zap.Error(err))
		return
	}
	s.logger.Info("✅ video job done", zap.String("job", id))
}

func (s *Service) sweepLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sweep(now); n > 0 {
				s.logger.Debug("🧹 evicted finished video jobs", zap.Int("count", n))
			}
		}
	}
}

// sweep drops finished jobs last updated more than JobTTL before now.
// Pending jobs are kept regardless of age.
func (s *Service) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, job := range s.jobs {
		if job.State != StatePending && now.Sub(job.UpdatedAt) > JobTTL {
			delete(s.jobs, id)
			evicted++
		}
	}
	return evicted
}

// Close stops every poller and the sweeper and waits for them.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
