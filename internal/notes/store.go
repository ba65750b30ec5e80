package notes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// SnapshotFile is the snapshot name inside the data directory.
const SnapshotFile = "notes.json"

var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrPersistenceFailed = errors.New("failed to save notes")
)

// Store keeps every note in memory, newest first, and mirrors the whole
// collection to a single pretty-printed JSON file on each write.
type Store struct {
	path string
	log  *slog.Logger

	mu    sync.RWMutex
	notes []Note
}

// OpenStore loads the snapshot at path, creating an empty one when the file
// does not exist. A snapshot that cannot be read or parsed is logged and
// replaced by an empty collection; its contents are lost on the next write.
func OpenStore(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{path: path, log: log}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.notes = []Note{}
		if err := s.save(s.notes); err != nil {
			return nil, err
		}
	default:
		if err := s.Reload(); err != nil {
			s.log.Warn("failed to load notes, starting empty", "path", path, "error", err)
			s.notes = []Note{}
		}
	}

	s.log.Info("note store opened", "path", path, "notes", len(s.notes))
	return s, nil
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Reload replaces the in-memory collection with the snapshot on disk. On
// error the current collection is left unchanged.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var loaded []Note
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	if loaded == nil {
		loaded = []Note{}
	}

	s.mu.Lock()
	s.notes = loaded
	s.mu.Unlock()
	return nil
}

// Create prepends note and rewrites the snapshot. If the write fails the
// insert is undone, so memory and disk never disagree.
func (s *Store) Create(note Note) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Note, 0, len(s.notes)+1)
	next = append(next, note)
	next = append(next, s.notes...)

	if err := s.save(next); err != nil {
		s.log.Error("failed to save notes", "path", s.path, "error", err)
		return Note{}, err
	}
	s.notes = next
	return note, nil
}

// GetAll returns a copy of all notes, newest first.
func (s *Store) GetAll() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// GetByID returns the note with id; ok is false when there is none.
func (s *Store) GetByID(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// Len returns the number of stored notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func (s *Store) save(notes []Note) error {
	data, err := encodeSnapshot(notes)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", ErrPersistenceFailed, err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return nil
}

// encodeSnapshot renders notes as a 2-space indented JSON array. HTML
// characters are written as-is so the file stays readable by hand.
func encodeSnapshot(notes []Note) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(notes); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
