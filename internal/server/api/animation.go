package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ayusman/fingerspell/internal/app"
)

// Animator controls fingerspelling playback.
type Animator interface {
	AnimationStatus(ctx context.Context) (app.AnimationStatus, error)
	SetWord(ctx context.Context, word string) error
	SetHandedness(hand string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, p float64, snap bool) error
	SetSpeed(ctx context.Context, speed float64) error
}

// AnimationHandler handles /api/animation and its actions.
type AnimationHandler struct {
	animator Animator
}

// NewAnimationHandler creates an AnimationHandler.
func NewAnimationHandler(a Animator) *AnimationHandler {
	return &AnimationHandler{animator: a}
}

type wordRequest struct {
	Word       string `json:"word"`
	Handedness string `json:"handedness,omitempty"`
	Play       bool   `json:"play,omitempty"`
}

type seekRequest struct {
	Position *float64 `json:"position"`
	Snap     bool     `json:"snap"`
}

type speedRequest struct {
	Speed float64 `json:"speed"`
}

// ServeHTTP routes GET /api/animation and POST /api/animation/{action}.
func (h *AnimationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/animation"), "/")

	if action == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	var err error
	switch action {
	case "word":
		var req wordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		err = h.setWord(ctx, req)
	case "play":
		err = h.animator.Play(ctx)
	case "pause":
		err = h.animator.Pause(ctx)
	case "seek":
		var req seekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil {
			writeError(w, http.StatusBadRequest, "position is required")
			return
		}
		err = h.animator.Seek(ctx, *req.Position, req.Snap)
	case "speed":
		var req speedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Speed <= 0 {
			err = fmt.Errorf("%w: speed must be positive", errBadRequest)
			break
		}
		err = h.animator.SetSpeed(ctx, req.Speed)
	default:
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	if err != nil {
		writeControlError(w, err)
		return
	}
	h.status(w, r)
}

func (h *AnimationHandler) setWord(ctx context.Context, req wordRequest) error {
	if strings.TrimSpace(req.Word) == "" {
		return fmt.Errorf("%w: word is required", errBadRequest)
	}
	if req.Handedness != "" {
		if err := h.animator.SetHandedness(req.Handedness); err != nil {
			return err
		}
	}
	if err := h.animator.SetWord(ctx, req.Word); err != nil {
		return err
	}
	if req.Play {
		return h.animator.Play(ctx)
	}
	return nil
}

func (h *AnimationHandler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.animator.AnimationStatus(r.Context())
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
