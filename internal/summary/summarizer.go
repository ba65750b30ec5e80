// Package summary turns free-text notes into a title and summary using a
// local generative model, and keeps that model available on the backend.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"notesummary/internal/metrics"
	"notesummary/internal/ollama"
)

const (
	defaultModel           = "llama3.2:3b"
	defaultGenerateTimeout = 2 * time.Minute
	defaultPullTimeout     = 30 * time.Minute
	defaultHealthTimeout   = 5 * time.Second
	progressLogInterval    = time.Second
)

// Backend is the subset of the model server API the summarizer needs.
// *ollama.Client implements it.
type Backend interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error)
	Tags(ctx context.Context) (*ollama.TagsResponse, error)
	Pull(ctx context.Context, name string, fn func(ollama.PullProgress)) (bool, error)
}

// ProgressFunc receives every status reported while a model is pulled.
type ProgressFunc func(ollama.PullProgress)

// Config holds the model name and per-call bounds. Zero values take the
// defaults.
type Config struct {
	Model           string
	GenerateTimeout time.Duration
	PullTimeout     time.Duration
	HealthTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = defaultGenerateTimeout
	}
	if c.PullTimeout <= 0 {
		c.PullTimeout = defaultPullTimeout
	}
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = defaultHealthTimeout
	}
	return c
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithMetrics records generation and pull metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Summarizer) { s.metrics = m }
}

// WithProgress registers a callback for pull progress.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Summarizer) { s.progress = fn }
}

// Summarizer generates note summaries. It is safe for concurrent use.
type Summarizer struct {
	backend  Backend
	cfg      Config
	log      *slog.Logger
	metrics  *metrics.Metrics
	progress ProgressFunc

	ensure      singleflight.Group
	progressLog rate.Sometimes
}

// New creates a Summarizer on top of backend.
func New(backend Backend, cfg Config, log *slog.Logger, opts ...Option) *Summarizer {
	if log == nil {
		log = slog.Default()
	}
	s := &Summarizer{
		backend:     backend,
		cfg:         cfg.withDefaults(),
		log:         log,
		progressLog: rate.Sometimes{Interval: progressLogInterval},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the configured model name.
func (s *Summarizer) Model() string {
	return s.cfg.Model
}

// Generate asks the model for a title and summary of content. Decoding of
// the response never fails; errors come only from the backend call and are
// one of ErrBackendUnavailable, ErrModelNotFound or ErrGenerationFailed.
func (s *Summarizer) Generate(ctx context.Context, content string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.backend.Generate(ctx, ollama.GenerateRequest{
		Model:  s.cfg.Model,
		Prompt: BuildPrompt(content),
	})
	if err != nil {
		err = classifyGenerate(err)
		s.metrics.BackendError(errorKind(err))
		s.log.Warn("generate request failed",
			"model", s.cfg.Model,
			"error", err,
			"latency_ms", time.Since(start).Milliseconds())
		return Result{}, err
	}

	res := Extract(resp.Response)
	latency := time.Since(start)
	s.metrics.SummaryGenerated(res.Tier, latency)
	s.log.Debug("summary generated",
		"model", s.cfg.Model,
		"tier", res.Tier,
		"response_length", len(resp.Response),
		"latency_ms", latency.Milliseconds())

	return res, nil
}

// CheckHealth reports whether the backend answers its model listing.
func (s *Summarizer) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.HealthTimeout)
	defer cancel()

	_, err := s.backend.Tags(ctx)
	return err == nil
}

// EnsureModelLoaded pulls the configured model unless the backend already
// has it. Concurrent callers share a single check and pull. The pull keeps
// running, bounded by the pull timeout, if the caller gives up waiting.
func (s *Summarizer) EnsureModelLoaded(ctx context.Context) error {
	ch := s.ensure.DoChan(s.cfg.Model, func() (any, error) {
		return nil, s.ensureModel(context.WithoutCancel(ctx))
	})
	select {
	case r := <-ch:
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Summarizer) ensureModel(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PullTimeout)
	defer cancel()

	tags, err := s.backend.Tags(ctx)
	if err != nil {
		s.metrics.BackendError("backend_unavailable")
		return fmt.Errorf("%w: list models: %w", ErrBackendUnavailable, err)
	}
	if tags.Has(s.cfg.Model) {
		s.log.Debug("model already present", "model", s.cfg.Model)
		return nil
	}

	s.log.Info("model not found, pulling", "model", s.cfg.Model)
	start := time.Now()
	done, err := s.backend.Pull(ctx, s.cfg.Model, s.onProgress)
	if err != nil {
		err = classifyPull(err)
		s.metrics.ModelPull("failure")
		s.metrics.BackendError(errorKind(err))
		s.log.Error("model pull failed", "model", s.cfg.Model, "error", err)
		return err
	}
	if !done {
		s.log.Warn("pull stream ended without completion status, assuming model is available",
			"model", s.cfg.Model)
	}

	s.metrics.ModelPull("success")
	s.log.Info("model pulled",
		"model", s.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Summarizer) onProgress(p ollama.PullProgress) {
	if s.progress != nil {
		s.progress(p)
	}
	if p.Status == "" {
		return
	}
	s.progressLog.Do(func() {
		attrs := []any{"model", s.cfg.Model, "status", p.Status}
		if p.Total > 0 {
			attrs = append(attrs, "completed", p.Completed, "total", p.Total)
		}
		s.log.Info("pulling model", attrs...)
	})
}

// Warmup waits for the backend to come up, polling CheckHealth up to
// attempts times, then makes sure the model is present. Failures are logged
// only; the model is pulled on first use instead.
func (s *Summarizer) Warmup(ctx context.Context, attempts int, interval time.Duration) {
	healthy := false
	for i := 1; i <= attempts; i++ {
		if s.CheckHealth(ctx) {
			healthy = true
			break
		}
		if i == attempts {
			break
		}
		s.log.Info("waiting for model backend", "retries_left", attempts-i)
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}

	if !healthy {
		s.log.Warn("model backend not available, model will be pulled on first request")
		return
	}
	s.log.Info("model backend is ready")

	if err := s.EnsureModelLoaded(ctx); err != nil {
		s.log.Warn("failed to ensure model on startup, model will be pulled on first request",
			"model", s.cfg.Model, "error", err)
	}
}
