package ollama

import (
	"fmt"
	"strings"
)

// GenerateRequest is the /api/generate request body.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse is the /api/generate response body.
type GenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at,omitempty"` // kept raw, servers differ in format
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// TagsResponse is the /api/tags response body.
type TagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelInfo describes one locally available model.
type ModelInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Digest     string `json:"digest,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// Has reports whether a model with exactly this name is present.
func (t *TagsResponse) Has(name string) bool {
	for _, m := range t.Models {
		if m.Name == name {
			return true
		}
	}
	return false
}

// PullRequest is the /api/pull request body.
type PullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// PullProgress is one status object of the pull stream.
type PullProgress struct {
	Status    string `json:"status,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Done      bool   `json:"done,omitempty"`
}

// StatusError is returned for non-2xx responses. Body holds the server's
// error text.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ollama: status %d", e.StatusCode)
	}
	return fmt.Sprintf("ollama: status %d: %s", e.StatusCode, e.Body)
}

// ModelMissing reports whether the server rejected the request because the
// named model is not available locally.
func (e *StatusError) ModelMissing() bool {
	return e.StatusCode == 404 || strings.Contains(strings.ToLower(e.Body), "not found")
}

// TransportError wraps a failure to reach the server at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ollama: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
