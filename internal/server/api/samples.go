package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/fingerspell/internal/letter"
	"github.com/ayusman/fingerspell/internal/store"
)

// SamplesHandler handles HTTP requests for letter samples.
type SamplesHandler struct {
	store   *store.Store
	trainer Trainer
}

// NewSamplesHandler creates a SamplesHandler. trainer is only needed for
// capturing from the camera.
func NewSamplesHandler(s *store.Store, trainer Trainer) *SamplesHandler {
	return &SamplesHandler{store: s, trainer: trainer}
}

// serve handles /api/letters/{id}/samples and .../samples/capture. rest
// is what follows "samples" in the path.
func (h *SamplesHandler) serve(w http.ResponseWriter, r *http.Request, letterID, rest string) {
	switch rest {
	case "":
	case "/capture":
		h.capture(w, r, letterID)
		return
	default:
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, letterID)
	case http.MethodPost:
		h.create(w, r, letterID)
	case http.MethodDelete:
		h.clear(w, r, letterID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	LetterID    string          `json:"letter_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, letterID string) {
	samples, err := h.store.Samples().List(letterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{Samples: make([]sampleResponse, 0, len(samples))}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			LetterID:    s.LetterID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(timeLayout),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, letterID string) {
	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	if err := h.store.Samples().Append(letterID, req.Samples); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request, letterID string) {
	if err := h.store.Samples().Clear(letterID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to clear samples")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// capture handles POST /api/letters/{id}/samples/capture.
func (h *SamplesHandler) capture(w http.ResponseWriter, r *http.Request, letterID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.trainer == nil {
		writeError(w, http.StatusServiceUnavailable, "Capture is not available")
		return
	}

	err := h.trainer.CaptureSample(r.Context(), letterID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Letter not found")
	case errors.Is(err, letter.ErrNoHand):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Failed to capture sample")
	}
}
