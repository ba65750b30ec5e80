package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"notesummary/internal/metrics"
	"notesummary/internal/summary"
)

// ErrModelNotReady wraps failures of the one automatic recovery attempt:
// the model was missing and pulling it, or generating again, failed.
var ErrModelNotReady = errors.New("model is not ready")

// Summarizer produces titles and summaries. *summary.Summarizer implements it.
type Summarizer interface {
	Generate(ctx context.Context, content string) (summary.Result, error)
	EnsureModelLoaded(ctx context.Context) error
	CheckHealth(ctx context.Context) bool
	Model() string
}

type Service struct {
	store   *Store
	sum     Summarizer
	log     *slog.Logger
	metrics *metrics.Metrics
	md      goldmark.Markdown

	now   func() time.Time
	newID func() string
}

func NewService(store *Store, sum Summarizer, log *slog.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = slog.Default()
	}
	m.SetStored(store.Len())
	return &Service{
		store:   store,
		sum:     sum,
		log:     log,
		metrics: m,
		md:      goldmark.New(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Create validates the input, generates a title and summary, and stores the
// new note. If the model is missing it is pulled and generation is retried
// exactly once.
func (s *Service) Create(ctx context.Context, input CreateNoteInput) (*Note, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, &ValidationError{Message: "Note content is required and cannot be empty"}
	}
	if utf8.RuneCountInString(input.Content) > MaxContentLen {
		return nil, errContentTooLong()
	}

	res, err := s.generate(ctx, content)
	if err != nil {
		return nil, err
	}

	note := Note{
		ID:        s.newID(),
		Content:   content,
		Title:     res.Title,
		Summary:   res.Summary,
		CreatedAt: s.now().UTC().Format(TimestampLayout),
	}

	saved, err := s.store.Create(note)
	if err != nil {
		return nil, err
	}
	s.metrics.NoteCreated(s.store.Len())
	s.log.Info("note created", "id", saved.ID, "tier", res.Tier, "content_length", len(content))

	return &saved, nil
}

func (s *Service) generate(ctx context.Context, content string) (summary.Result, error) {
	res, err := s.sum.Generate(ctx, content)
	if err == nil || !errors.Is(err, summary.ErrModelNotFound) {
		return res, err
	}

	s.log.Info("model not found, attempting to pull", "model", s.sum.Model())
	if err := s.sum.EnsureModelLoaded(ctx); err != nil {
		return summary.Result{}, fmt.Errorf("%w: %w", ErrModelNotReady, err)
	}

	res, err = s.sum.Generate(ctx, content)
	if err != nil {
		return summary.Result{}, fmt.Errorf("%w: retry after pull: %w", ErrModelNotReady, err)
	}
	return res, nil
}

// GetByID retrieves a note by ID
func (s *Service) GetByID(_ context.Context, id string) (*Note, error) {
	note, ok := s.store.GetByID(id)
	if !ok {
		return nil, ErrNoteNotFound
	}
	return &note, nil
}

// List returns all notes, newest first
func (s *Service) List(_ context.Context) ([]Note, error) {
	return s.store.GetAll(), nil
}

// Count returns total note count
func (s *Service) Count() int {
	return s.store.Len()
}

// BackendHealthy reports whether the model backend is reachable.
func (s *Service) BackendHealthy(ctx context.Context) bool {
	return s.sum.CheckHealth(ctx)
}

// Model returns the configured model name.
func (s *Service) Model() string {
	return s.sum.Model()
}

// RenderMarkdown converts markdown content to HTML
func (s *Service) RenderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return content // Return raw content on error
	}
	return buf.String()
}
