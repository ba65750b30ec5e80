package notes

import (
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 form used for CreatedAt (UTC, millisecond
// precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// MaxContentLen is the upper bound on note content, in characters.
const MaxContentLen = 10000

// Note is a user note with its generated title and summary.
type Note struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Title     string `json:"title,omitempty"` // absent on notes created before titles existed
	Summary   string `json:"summary"`
	CreatedAt string `json:"createdAt"`
}

// Created parses CreatedAt. The zero time is returned for malformed values.
func (n Note) Created() time.Time {
	t, err := time.Parse(time.RFC3339Nano, n.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreateNoteInput is the input for creating a note
type CreateNoteInput struct {
	Content string `json:"content"`
}

// ValidationError reports input rejected before any model call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func errContentTooLong() *ValidationError {
	return &ValidationError{Message: fmt.Sprintf("Note content is too long (max %d characters)", MaxContentLen)}
}
