package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/fingerspell/internal/animation"
	"github.com/ayusman/fingerspell/internal/app"
	"github.com/ayusman/fingerspell/internal/letter"
	"github.com/ayusman/fingerspell/internal/quiz"
	"github.com/ayusman/fingerspell/internal/store"
)

// Quiz controls the running quiz session.
type Quiz interface {
	QuizStatus(ctx context.Context) (app.QuizStatus, error)
	SetPrompt(ctx context.Context, prompt string) error
	Skip(ctx context.Context) error
	ResetQuiz(ctx context.Context) error
	SetAccepting(ctx context.Context, accepting bool) error
	SessionID() string
}

// QuizHandler handles /api/quiz and its actions.
type QuizHandler struct {
	quiz Quiz
}

// NewQuizHandler creates a QuizHandler.
func NewQuizHandler(q Quiz) *QuizHandler {
	return &QuizHandler{quiz: q}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type acceptingRequest struct {
	Accepting *bool `json:"accepting"`
}

// ServeHTTP routes GET /api/quiz and POST /api/quiz/{action}.
func (h *QuizHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/quiz"), "/")

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

	var err error
	switch action {
	case "prompt":
		var req promptRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		err = h.quiz.SetPrompt(r.Context(), req.Prompt)
	case "skip":
		err = h.quiz.Skip(r.Context())
	case "reset":
		err = h.quiz.ResetQuiz(r.Context())
	case "accepting":
		var req acceptingRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || req.Accepting == nil {
			writeError(w, http.StatusBadRequest, "accepting is required")
			return
		}
		err = h.quiz.SetAccepting(r.Context(), *req.Accepting)
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

func (h *QuizHandler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.quiz.QuizStatus(r.Context())
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// writeControlError maps quiz and animation control failures to statuses.
func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, letter.ErrUnknownLetter),
		errors.Is(err, quiz.ErrNoLetters),
		errors.Is(err, app.ErrHandedness),
		errors.Is(err, animation.ErrUnknownClip),
		errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNoWord):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

var errBadRequest = errors.New("bad request")

// AttemptsHandler serves GET /api/attempts.
type AttemptsHandler struct {
	store *store.Store
	quiz  Quiz
}

// NewAttemptsHandler creates an AttemptsHandler. quiz supplies the default
// session and may be nil.
func NewAttemptsHandler(s *store.Store, q Quiz) *AttemptsHandler {
	return &AttemptsHandler{store: s, quiz: q}
}

type attemptsResponse struct {
	Summary  store.AttemptSummary `json:"summary"`
	Attempts []*store.Attempt     `json:"attempts"`
}

// ServeHTTP lists the attempts of ?session=, defaulting to the running
// session. ?limit= caps the list.
func (h *AttemptsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := r.URL.Query().Get("session")
	if session == "" && h.quiz != nil {
		session = h.quiz.SessionID()
	}
	if session == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	attempts, err := h.store.Attempts().List(session, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attempts")
		return
	}
	summary, err := h.store.Attempts().Summary(session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize attempts")
		return
	}
	if attempts == nil {
		attempts = []*store.Attempt{}
	}
	writeJSON(w, http.StatusOK, attemptsResponse{Summary: summary, Attempts: attempts})
}
