package summary

import (
	"context"
	"errors"
	"fmt"

	"notesummary/internal/ollama"
)

var (
	// ErrBackendUnavailable means the model server could not be reached or
	// its model listing failed.
	ErrBackendUnavailable = errors.New("model backend unavailable")
	// ErrModelNotFound means the server rejected generation because the
	// configured model is not available locally.
	ErrModelNotFound = errors.New("model not found")
	// ErrModelPullFailed means the server rejected the pull request.
	ErrModelPullFailed = errors.New("model pull failed")
	// ErrGenerationFailed covers every other generate failure.
	ErrGenerationFailed = errors.New("summary generation failed")
)

// IsBackendError reports whether err belongs to the model backend taxonomy.
func IsBackendError(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) ||
		errors.Is(err, ErrModelNotFound) ||
		errors.Is(err, ErrModelPullFailed) ||
		errors.Is(err, ErrGenerationFailed)
}

// classifyGenerate maps a client error from /api/generate onto the taxonomy.
func classifyGenerate(err error) error {
	var se *ollama.StatusError
	if errors.As(err, &se) {
		if se.ModelMissing() {
			return fmt.Errorf("%w: %w", ErrModelNotFound, err)
		}
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	var te *ollama.TransportError
	if errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
}

// classifyPull maps a client error from /api/pull onto the taxonomy.
func classifyPull(err error) error {
	var te *ollama.TransportError
	if errors.As(err, &te) {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrModelPullFailed, err)
}

// errorKind is the metrics label for a classified error.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, ErrModelPullFailed):
		return "model_pull_failed"
	default:
		return "generation_failed"
	}
}
