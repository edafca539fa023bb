// Package quiz implements the letter prompt session: it grades a rolling
// window of detection outcomes against the current letter and advances the
// prompt when the grade passes.
package quiz

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
	"github.com/ayusman/fingerspell/internal/letter"
)

// ErrNoLetters is returned when the session has no prompt.
var ErrNoLetters = errors.New("quiz has no letters")

// Config holds session parameters.
type Config struct {
	// WindowCapacity is the number of most recent outcomes graded.
	WindowCapacity int

	// PassThreshold is the fraction of correct outcomes needed to advance.
	PassThreshold float64
}

// DefaultConfig returns the default session parameters.
func DefaultConfig() Config {
	return Config{
		WindowCapacity: 20,
		PassThreshold:  0.5,
	}
}

// Event is delivered to observers when the prompt advances.
type Event struct {
	Completed string        `json:"completed"`
	Next      string        `json:"next"`
	Index     int           `json:"index"` // index of Next
	Skipped   bool          `json:"skipped"`
	Grade     float64       `json:"grade"`
	Frames    int           `json:"frames"` // outcomes received for Completed
	Elapsed   time.Duration `json:"elapsed"`
}

// Session is the quiz state machine. It belongs to a single goroutine;
// overlapping mutation panics. Only Subscribe may be called from other
// goroutines.
type Session struct {
	config    Config
	letters   []letter.Classifier
	index     int
	window    []detector.Outcome
	accepting bool
	frames    int
	started   time.Time

	writing atomic.Bool

	mu        sync.Mutex
	observers map[int]func(Event)
	nextID    int

	now func() time.Time
}

// NewSession creates a session over letters. It starts accepting input.
func NewSession(config Config, letters []letter.Classifier) *Session {
	if config.WindowCapacity < 1 {
		config.WindowCapacity = 1
	}
	s := &Session{
		config:    config,
		letters:   letters,
		window:    make([]detector.Outcome, 0, config.WindowCapacity),
		accepting: true,
		observers: make(map[int]func(Event)),
		now:       time.Now,
	}
	s.started = s.now()
	return s
}

// enter marks the start of a mutation and returns the matching exit.
func (s *Session) enter() func() {
	if !s.writing.CompareAndSwap(false, true) {
		panic("quiz: concurrent mutation of session")
	}
	return func() { s.writing.Store(false) }
}

// Subscribe registers fn for advance events and returns a function that
// removes it. Observers run on the goroutine that drives the session.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Session) notify(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Receive appends o to the window and grades it. It returns the advance
// event and true when the grade passes. Outcomes are dropped while the
// session is not accepting input or has no letters.
func (s *Session) Receive(o detector.Outcome) (Event, bool) {
	ev, ok := s.receive(o)
	if ok {
		s.notify(ev)
	}
	return ev, ok
}

func (s *Session) receive(o detector.Outcome) (Event, bool) {
	defer s.enter()()

	if !s.accepting || len(s.letters) == 0 {
		return Event{}, false
	}

	if len(s.window) == s.config.WindowCapacity {
		copy(s.window, s.window[1:])
		s.window = s.window[:len(s.window)-1]
	}
	s.window = append(s.window, o)
	s.frames++

	grade := Grade(s.letters[s.index], s.window)
	if !Passes(grade, s.config.PassThreshold) {
		return Event{}, false
	}
	return s.advance(grade, false), true
}

// advance clears the window and moves to the next letter.
func (s *Session) advance(grade float64, skipped bool) Event {
	now := s.now()
	completed := s.letters[s.index].Letter()
	ev := Event{
		Completed: completed,
		Skipped:   skipped,
		Grade:     grade,
		Frames:    s.frames,
		Elapsed:   now.Sub(s.started),
	}

	s.window = s.window[:0]
	s.index = (s.index + 1) % len(s.letters)
	s.frames = 0
	s.started = now

	ev.Next = s.letters[s.index].Letter()
	ev.Index = s.index
	return ev
}

// Grade returns the fraction of window that c classifies as correct.
// Letters recognized over a run of frames grade the whole window at once
// and score 0 or 1. An empty window grades 0.
func Grade(c letter.Classifier, window []detector.Outcome) float64 {
	if len(window) == 0 {
		return 0
	}
	if wc, ok := c.(letter.WindowClassifier); ok {
		if wc.ClassifyWindow(window) == letter.Correct {
			return 1
		}
		return 0
	}
	correct := 0
	for _, o := range window {
		if c.Classify(o) == letter.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(window))
}

// Passes reports whether grade meets threshold, tolerating rounding noise.
func Passes(grade, threshold float64) bool {
	return geometry.IsGreaterOrEqual(grade, threshold)
}

// Grade returns the current window's grade against the current letter.
func (s *Session) Grade() float64 {
	if len(s.letters) == 0 {
		return 0
	}
	return Grade(s.letters[s.index], s.window)
}

// Skip advances to the next letter without a pass.
func (s *Session) Skip() (Event, error) {
	ev, err := func() (Event, error) {
		defer s.enter()()
		if len(s.letters) == 0 {
			return Event{}, ErrNoLetters
		}
		return s.advance(Grade(s.letters[s.index], s.window), true), nil
	}()
	if err != nil {
		return Event{}, err
	}
	s.notify(ev)
	return ev, nil
}

// Reset clears the window and returns to the first letter.
func (s *Session) Reset() {
	defer s.enter()()
	s.window = s.window[:0]
	s.index = 0
	s.frames = 0
	s.started = s.now()
}

// SetLetters replaces the prompt and resets progress.
func (s *Session) SetLetters(letters []letter.Classifier) {
	defer s.enter()()
	s.letters = letters
	s.window = s.window[:0]
	s.index = 0
	s.frames = 0
	s.started = s.now()
}

// SetAccepting toggles whether Receive records outcomes.
func (s *Session) SetAccepting(accepting bool) {
	defer s.enter()()
	s.accepting = accepting
}

// Accepting reports whether Receive records outcomes.
func (s *Session) Accepting() bool {
	return s.accepting
}

// Current returns the letter being prompted.
func (s *Session) Current() (letter.Classifier, error) {
	if len(s.letters) == 0 {
		return nil, ErrNoLetters
	}
	return s.letters[s.index], nil
}

// Index returns the position of the current letter in the prompt.
func (s *Session) Index() int {
	return s.index
}

// Letters returns the prompt letters in order.
func (s *Session) Letters() []string {
	out := make([]string, len(s.letters))
	for i, c := range s.letters {
		out[i] = c.Letter()
	}
	return out
}

// Window returns a copy of the retained outcomes, oldest first.
func (s *Session) Window() []detector.Outcome {
	out := make([]detector.Outcome, len(s.window))
	copy(out, s.window)
	return out
}

// Status is a snapshot of the session for display.
type Status struct {
	Letters   []string `json:"letters"`
	Index     int      `json:"index"`
	Current   string   `json:"current,omitempty"`
	Window    int      `json:"window"`
	Capacity  int      `json:"capacity"`
	Grade     float64  `json:"grade"`
	Accepting bool     `json:"accepting"`
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	st := Status{
		Letters:   s.Letters(),
		Index:     s.index,
		Window:    len(s.window),
		Capacity:  s.config.WindowCapacity,
		Grade:     s.Grade(),
		Accepting: s.accepting,
	}
	if c, err := s.Current(); err == nil {
		st.Current = c.Letter()
	}
	return st
}
