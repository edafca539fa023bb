package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ayusman/fingerspell/internal/animation"
	"github.com/ayusman/fingerspell/internal/app"
	"github.com/ayusman/fingerspell/internal/letter"
	"github.com/ayusman/fingerspell/internal/quiz"
	"github.com/ayusman/fingerspell/internal/store"
)

// fakeController records control calls and serves canned state.
type fakeController struct {
	mu        sync.Mutex
	calls     []string
	prompt    string
	accepting bool
	word      string
	seek      float64
	snap      bool
	speed     float64
	err       error
	frame     []byte
	frameSeq  uint64
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) QuizStatus(context.Context) (app.QuizStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return app.QuizStatus{
		Status:    quiz.Status{Letters: []string{"A", "B"}, Current: "A", Accepting: f.accepting},
		Prompt:    f.prompt,
		SessionID: "session-1",
	}, nil
}

func (f *fakeController) SetPrompt(_ context.Context, prompt string) error {
	if strings.ContainsRune(prompt, 'q') {
		return fmt.Errorf("letter %q: %w", "q", letter.ErrUnknownLetter)
	}
	f.mu.Lock()
	f.prompt = prompt
	f.mu.Unlock()
	return f.record("prompt")
}

func (f *fakeController) Skip(context.Context) error      { return f.record("skip") }
func (f *fakeController) ResetQuiz(context.Context) error { return f.record("reset") }
func (f *fakeController) SessionID() string               { return "session-1" }

func (f *fakeController) SetAccepting(_ context.Context, accepting bool) error {
	f.mu.Lock()
	f.accepting = accepting
	f.mu.Unlock()
	return f.record("accepting")
}

func (f *fakeController) AnimationStatus(context.Context) (app.AnimationStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.word == "" {
		return app.AnimationStatus{}, app.ErrNoWord
	}
	return app.AnimationStatus{Word: f.word, Status: animation.Status{Speed: f.speed}}, nil
}

func (f *fakeController) SetWord(_ context.Context, word string) error {
	f.mu.Lock()
	f.word = word
	f.mu.Unlock()
	return f.record("word")
}

func (f *fakeController) SetHandedness(hand string) error {
	if hand != animation.Left && hand != animation.Right {
		return app.ErrHandedness
	}
	return f.record("hand " + hand)
}

func (f *fakeController) Play(context.Context) error  { return f.record("play") }
func (f *fakeController) Pause(context.Context) error { return f.record("pause") }

func (f *fakeController) Seek(_ context.Context, p float64, snap bool) error {
	f.mu.Lock()
	f.seek, f.snap = p, snap
	f.mu.Unlock()
	return f.record("seek")
}

func (f *fakeController) SetSpeed(_ context.Context, speed float64) error {
	f.mu.Lock()
	f.speed = speed
	f.mu.Unlock()
	return f.record("speed")
}

func (f *fakeController) Train(string) (*store.Letter, error)      { return nil, store.ErrNotFound }
func (f *fakeController) LoadLetters() error                        { return nil }
func (f *fakeController) CaptureSample(context.Context, string) error { return letter.ErrNoHand }

func (f *fakeController) LatestFrame() ([]byte, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame, f.frameSeq
}

func (f *fakeController) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func do(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Quiz(t *testing.T) {
	ctl := &fakeController{}
	s := New(Config{App: ctl})

	rec := do(t, s, http.MethodGet, "/api/quiz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/quiz status = %d", rec.Code)
	}
	var st app.QuizStatus
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Current != "A" || st.SessionID != "session-1" {
		t.Errorf("status = %+v", st)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"set prompt", http.MethodPost, "/api/quiz/prompt", `{"prompt":"ab"}`, http.StatusOK},
		{"unknown letter", http.MethodPost, "/api/quiz/prompt", `{"prompt":"aq"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/quiz/prompt", `{`, http.StatusBadRequest},
		{"skip", http.MethodPost, "/api/quiz/skip", "", http.StatusOK},
		{"reset", http.MethodPost, "/api/quiz/reset", "", http.StatusOK},
		{"accepting", http.MethodPost, "/api/quiz/accepting", `{"accepting":false}`, http.StatusOK},
		{"accepting missing", http.MethodPost, "/api/quiz/accepting", `{}`, http.StatusBadRequest},
		{"unknown action", http.MethodPost, "/api/quiz/teleport", "", http.StatusNotFound},
		{"get action", http.MethodGet, "/api/quiz/skip", "", http.StatusMethodNotAllowed},
		{"post status", http.MethodPost, "/api/quiz", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("%s %s status = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	want := []string{"prompt", "skip", "reset", "accepting"}
	if got := ctl.callLog(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestServer_QuizNotRunning(t *testing.T) {
	ctl := &fakeController{err: app.ErrNotRunning}
	s := New(Config{App: ctl})

	if rec := do(t, s, http.MethodPost, "/api/quiz/skip", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("skip while stopped status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestServer_Animation(t *testing.T) {
	ctl := &fakeController{speed: 1}
	s := New(Config{App: ctl})

	if rec := do(t, s, http.MethodGet, "/api/animation", ""); rec.Code != http.StatusConflict {
		t.Errorf("status before a word = %d, want %d", rec.Code, http.StatusConflict)
	}

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"word", "/api/animation/word", `{"word":"hello","handedness":"left","play":true}`, http.StatusOK},
		{"empty word", "/api/animation/word", `{"word":"  "}`, http.StatusBadRequest},
		{"bad hand", "/api/animation/word", `{"word":"hi","handedness":"both"}`, http.StatusBadRequest},
		{"pause", "/api/animation/pause", "", http.StatusOK},
		{"seek", "/api/animation/seek", `{"position":0.4,"snap":true}`, http.StatusOK},
		{"seek missing", "/api/animation/seek", `{"snap":true}`, http.StatusBadRequest},
		{"speed", "/api/animation/speed", `{"speed":1.5}`, http.StatusOK},
		{"zero speed", "/api/animation/speed", `{"speed":0}`, http.StatusBadRequest},
		{"unknown", "/api/animation/rewind", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, http.MethodPost, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("POST %s status = %d, want %d (%s)", tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	want := []string{"hand left", "word", "play", "pause", "seek", "speed"}
	if got := ctl.callLog(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if ctl.seek != 0.4 || !ctl.snap {
		t.Errorf("seek = (%v, %v), want (0.4, true)", ctl.seek, ctl.snap)
	}

	rec := do(t, s, http.MethodGet, "/api/animation", "")
	var st app.AnimationStatus
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Word != "hello" || st.Speed != 1.5 {
		t.Errorf("status = %+v, want hello at 1.5x", st)
	}
}

func TestServer_Stream(t *testing.T) {
	ctl := &fakeController{frame: []byte("jpeg-bytes"), frameSeq: 1}
	ts := httptest.NewServer(New(Config{App: ctl}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 5 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	want := []string{"--frame", "Content-Type: image/jpeg", "Content-Length: 10", "", "jpeg-bytes"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("part = %q, want %q", lines, want)
	}
}
