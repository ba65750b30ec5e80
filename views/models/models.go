package models

import "time"

// NoteView represents a note for template rendering
type NoteView struct {
	ID          string
	Title       string
	Content     string
	SummaryHTML string // goldmark output, already safe
	CreatedAt   time.Time
}

// StatusView is the backend banner shown above the note list.
type StatusView struct {
	Model     string
	Connected bool
	Total     int
}
