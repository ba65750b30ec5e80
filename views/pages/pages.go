// Package pages renders the read-only HTML views. The markup lives in the
// .templ files; run `templ generate` after editing them.
package pages

import "notesummary/views/models"

const (
	dateLayout = "Jan 2, 2006 15:04"
	isoLayout  = "2006-01-02T15:04:05Z"
)

func titleOf(n models.NoteView) string {
	if n.Title == "" {
		return "Untitled note"
	}
	return n.Title
}

func connState(s models.StatusView) string {
	if s.Connected {
		return "connected"
	}
	return "disconnected"
}
