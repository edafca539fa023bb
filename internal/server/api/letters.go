// Package api provides the HTTP handlers for letters, quiz control and
// animation playback.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ayusman/fingerspell/internal/monitoring"
	"github.com/ayusman/fingerspell/internal/store"
)

// defaultTolerance applies when a new letter is created without one.
const defaultTolerance = 0.15

// Trainer turns recorded samples into recognizers.
type Trainer interface {
	// Train averages the samples of letter id into its template.
	Train(id string) (*store.Letter, error)
	// LoadLetters refreshes the recognizers after letters change.
	LoadLetters() error
	// CaptureSample records the hand currently in view as a sample.
	CaptureSample(ctx context.Context, id string) error
}

// LetterHandler handles HTTP requests for letter resources.
type LetterHandler struct {
	store   *store.Store
	trainer Trainer
	samples *SamplesHandler
}

// NewLetterHandler creates a LetterHandler. trainer may be nil, in which
// case the train and capture endpoints answer 503.
func NewLetterHandler(s *store.Store, trainer Trainer) *LetterHandler {
	return &LetterHandler{store: s, trainer: trainer, samples: NewSamplesHandler(s, trainer)}
}

// ServeHTTP routes:
//
//	/api/letters
//	/api/letters/{id}
//	/api/letters/{id}/train
//	/api/letters/{id}/samples[/capture]
func (h *LetterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/letters")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	switch {
	case rest == "":
	case rest == "train":
		h.train(w, r, id)
		return
	case rest == "samples" || strings.HasPrefix(rest, "samples/"):
		h.samples.serve(w, r, id, strings.TrimPrefix(rest, "samples"))
		return
	default:
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type letterRequest struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Tolerance float64 `json:"tolerance"`
}

type letterResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Tolerance float64 `json:"tolerance"`
	Samples   int     `json:"samples"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listLettersResponse struct {
	Letters []letterResponse `json:"letters"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toResponse(l *store.Letter) letterResponse {
	return letterResponse{
		ID:        l.ID,
		Name:      l.Name,
		Kind:      string(l.Kind),
		Tolerance: l.Tolerance,
		Samples:   l.Samples,
		CreatedAt: l.CreatedAt.Format(timeLayout),
		UpdatedAt: l.UpdatedAt.Format(timeLayout),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			monitoring.Logf("Failed to encode response: %v", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// validName reports whether name is a single letter.
func validName(name string) bool {
	r, size := utf8.DecodeRuneInString(name)
	return size == len(name) && unicode.IsLetter(r)
}

func validKind(kind store.LetterKind) bool {
	return kind == store.KindStatic || kind == store.KindMotion
}

func (h *LetterHandler) reload() {
	if h.trainer == nil {
		return
	}
	if err := h.trainer.LoadLetters(); err != nil {
		monitoring.Logf("Failed to reload letters: %v", err)
	}
}

func (h *LetterHandler) list(w http.ResponseWriter, r *http.Request) {
	letters, err := h.store.Letters().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list letters")
		return
	}

	response := listLettersResponse{Letters: make([]letterResponse, 0, len(letters))}
	for _, l := range letters {
		response.Letters = append(response.Letters, toResponse(l))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *LetterHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	l, err := h.store.Letters().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get letter")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(l))
}

func (h *LetterHandler) create(w http.ResponseWriter, r *http.Request) {
	var req letterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.ToUpper(strings.TrimSpace(req.Name))
	if !validName(name) {
		writeError(w, http.StatusBadRequest, "Name must be a single letter")
		return
	}

	kind := store.LetterKind(req.Kind)
	if kind == "" {
		kind = store.KindStatic
	}
	if !validKind(kind) {
		writeError(w, http.StatusBadRequest, "Invalid letter kind")
		return
	}

	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = defaultTolerance
	}
	if tolerance < 0 {
		writeError(w, http.StatusBadRequest, "Tolerance must be positive")
		return
	}

	if _, err := h.store.Letters().GetByName(name); err == nil {
		writeError(w, http.StatusConflict, "Letter already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check letter")
		return
	}

	l := &store.Letter{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		Tolerance: tolerance,
	}
	if err := h.store.Letters().Create(l); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create letter")
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(l))
}

func (h *LetterHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	l, err := h.store.Letters().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get letter")
		return
	}

	var req letterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		name := strings.ToUpper(strings.TrimSpace(req.Name))
		if !validName(name) {
			writeError(w, http.StatusBadRequest, "Name must be a single letter")
			return
		}
		l.Name = name
	}
	if req.Kind != "" {
		kind := store.LetterKind(req.Kind)
		if !validKind(kind) {
			writeError(w, http.StatusBadRequest, "Invalid letter kind")
			return
		}
		l.Kind = kind
	}
	if req.Tolerance > 0 {
		l.Tolerance = req.Tolerance
	}

	if err := h.store.Letters().Update(l); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update letter")
		return
	}
	h.reload()
	writeJSON(w, http.StatusOK, toResponse(l))
}

func (h *LetterHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Letters().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete letter")
		return
	}
	h.reload()
	w.WriteHeader(http.StatusNoContent)
}

// train handles POST /api/letters/{id}/train.
func (h *LetterHandler) train(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.trainer == nil {
		writeError(w, http.StatusServiceUnavailable, "Training is not available")
		return
	}

	l, err := h.trainer.Train(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Letter not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResponse(l))
}
