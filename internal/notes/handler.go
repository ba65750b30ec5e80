package notes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"notesummary/internal/summary"
	"notesummary/views/models"
	"notesummary/views/pages"
)

// MaxBodyBytes caps request bodies on the JSON API.
const MaxBodyBytes = 1 << 20

const (
	msgModelNotReady   = "AI model is not available. Please wait a moment and try again."
	msgBackendDown     = "AI service is currently unavailable. Please try again later."
	msgInternalError   = "Internal server error"
	msgNoteNotFound    = "Note not found"
	msgInvalidJSONBody = "Invalid JSON body"
)

type Handler struct {
	svc *Service
	log *slog.Logger
	now func() time.Time
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log, now: time.Now}
}

// --- REST API Handlers ---

// CreateNote handles POST /api/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var input CreateNoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.jsonError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.jsonError(w, msgInvalidJSONBody, http.StatusBadRequest)
		return
	}

	note, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.createError(w, err)
		return
	}

	h.jsonResponse(w, map[string]any{"note": note}, http.StatusCreated)
}

func (h *Handler) createError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		h.jsonError(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, ErrModelNotReady):
		h.log.Error("model recovery failed", "error", err)
		h.jsonDetails(w, msgModelNotReady, err, http.StatusServiceUnavailable)
	case summary.IsBackendError(err):
		h.log.Error("summary generation failed", "error", err)
		h.jsonDetails(w, msgBackendDown, err, http.StatusServiceUnavailable)
	default:
		h.log.Error("failed to create note", "error", err)
		h.jsonDetails(w, msgInternalError, err, http.StatusInternalServerError)
	}
}

// GetNote handles GET /api/notes/{id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.jsonError(w, "Note ID required", http.StatusBadRequest)
		return
	}

	note, err := h.svc.GetByID(r.Context(), id)
	if errors.Is(err, ErrNoteNotFound) {
		h.jsonError(w, msgNoteNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to get note", "error", err)
		h.jsonError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]any{"note": note}, http.StatusOK)
}

// ListNotes handles GET /api/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("failed to list notes", "error", err)
		h.jsonError(w, msgInternalError, http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]any{"notes": notes}, http.StatusOK)
}

// Health handles GET /health. It always answers 200; the backend state is
// reported in the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	state := "disconnected"
	if h.svc.BackendHealthy(r.Context()) {
		state = "connected"
	}

	h.jsonResponse(w, map[string]any{
		"status":    "ok",
		"ollama":    state,
		"model":     h.svc.Model(),
		"notes":     h.svc.Count(),
		"timestamp": h.now().UTC().Format(TimestampLayout),
	}, http.StatusOK)
}

// --- Helper methods ---

func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn("failed to write response", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, map[string]string{"error": message}, status)
}

func (h *Handler) jsonDetails(w http.ResponseWriter, message string, cause error, status int) {
	h.jsonResponse(w, map[string]string{"error": message, "details": cause.Error()}, status)
}

// --- View model converters ---

func (h *Handler) noteToView(n Note) models.NoteView {
	return models.NoteView{
		ID:          n.ID,
		Title:       n.Title,
		Content:     n.Content,
		SummaryHTML: h.svc.RenderMarkdown(n.Summary),
		CreatedAt:   n.Created(),
	}
}

// --- Web Handlers ---

// HomePage handles GET /
func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	noteList, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("failed to list notes", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	views := make([]models.NoteView, len(noteList))
	for i, n := range noteList {
		views[i] = h.noteToView(n)
	}
	status := models.StatusView{
		Model:     h.svc.Model(),
		Connected: h.svc.BackendHealthy(r.Context()),
		Total:     len(noteList),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.HomePage(status, views).Render(r.Context(), w); err != nil {
		h.log.Warn("failed to render home page", "error", err)
	}
}

// NotePage handles GET /notes/{id}
func (h *Handler) NotePage(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.NotePage(h.noteToView(*note)).Render(r.Context(), w); err != nil {
		h.log.Warn("failed to render note page", "error", err)
	}
}

// CORS allows the browser UI to call the API from another origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type, Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
