package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/erizov/notevault/internal/note"
)

// Default listing caps applied when the client does not supply a limit.
const (
	defaultListLimit   = 100
	defaultSearchLimit = 10
	defaultHours       = 24
)

// Handler contains the HTTP handlers for the note API
type Handler struct {
	store  note.Store
	logger zerolog.Logger
}

// NewHandler creates a new HTTP handler backed by the given store
func NewHandler(store note.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Router mounts every route on a fresh chi mux. Entry points can wrap it
// with additional middleware.
func Router(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HandleHealth)
	r.Get("/stats", h.HandleStats)

	r.Route("/notes", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Delete("/", h.HandleTruncate)
		r.Get("/search", h.HandleSearch)
		r.Get("/reminders", h.HandleReminders)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})

	return r
}

// HandleCreate stores a new note
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", CodeValidation)
		return
	}

	id, err := h.store.Add(r.Context(), req.Title, req.Content, req.DueAt)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.logger.Info().Str("id", id).Str("title", req.Title).Msg("note created")
	writeJSON(w, http.StatusCreated, CreateNoteResponse{ID: id})
}

// HandleGet returns a single note by id
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	n, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if n == nil {
		writeError(w, http.StatusNotFound, "note not found", CodeNotFound)
		return
	}

	writeJSON(w, http.StatusOK, n)
}

// HandleList returns the most recently created notes
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultListLimit)
	if !ok {
		return
	}

	notes, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NotesResponse{Notes: notes, Count: len(notes)})
}

// HandleUpdate applies a partial update to a note
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", CodeValidation)
		return
	}

	fields := note.Update{Title: req.Title, Content: req.Content, DueAt: req.DueAt}
	if fields.Empty() {
		writeError(w, http.StatusBadRequest, "no fields supplied", CodeValidation)
		return
	}

	updated, err := h.store.Update(r.Context(), id, fields)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "note not found", CodeNotFound)
		return
	}

	writeJSON(w, http.StatusOK, UpdateNoteResponse{Updated: true})
}

// HandleDelete removes a note; deleting an absent note is a 404, not a
// server error
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "note not found", CodeNotFound)
		return
	}

	h.logger.Info().Str("id", id).Msg("note deleted")
	writeJSON(w, http.StatusOK, DeleteNoteResponse{Deleted: true})
}

// HandleSearch returns notes matching the q parameter
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q", CodeValidation)
		return
	}
	limit, ok := queryInt(w, r, "limit", defaultSearchLimit)
	if !ok {
		return
	}

	notes, err := h.store.Search(r.Context(), q, limit)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NotesResponse{Notes: notes, Count: len(notes)})
}

// HandleReminders returns notes due within the requested window
func (h *Handler) HandleReminders(w http.ResponseWriter, r *http.Request) {
	hours, ok := queryInt(w, r, "hours", defaultHours)
	if !ok {
		return
	}

	notes, err := h.store.UpcomingReminders(r.Context(), hours)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NotesResponse{Notes: notes, Count: len(notes)})
}

// HandleStats returns backend statistics
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleTruncate wipes the backend; the conformance harness uses it when
// driving a remote store
func (h *Handler) HandleTruncate(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Truncate(r.Context()); err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.logger.Warn().Str("backend", h.store.Name()).Msg("store truncated")
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth reports liveness, the active backend, and the note count
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "backend unreachable", CodeUnavailable)
		return
	}

	h.logger.Debug().Int("total", stats.Total).Msg("health check")
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Backend: h.store.Name(),
		Total:   stats.Total,
	})
}

// writeStoreError translates the contract's error taxonomy into HTTP
// status codes and machine-readable error codes.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, note.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), CodeValidation)
	case errors.Is(err, note.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidID)
	case errors.Is(err, note.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error(), CodeUnavailable)
	default:
		h.logger.Error().Err(err).Msg("storage call failed")
		writeError(w, http.StatusInternalServerError, "internal error", CodeQueryFailed)
	}
}

// queryInt parses an optional integer query parameter, writing a 400 and
// returning ok=false when it is malformed.
func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer", CodeValidation)
		return 0, false
	}
	return n, true
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
