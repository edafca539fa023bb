// Package app ties the capture pipeline, the quiz session and the
// fingerspelling animation together. Everything that touches the quiz
// session or the smoother runs on one event loop; the animation scheduler
// runs on its own driver goroutine.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ayusman/fingerspell/internal/animation"
	"github.com/ayusman/fingerspell/internal/capture"
	"github.com/ayusman/fingerspell/internal/config"
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/letter"
	"github.com/ayusman/fingerspell/internal/monitoring"
	"github.com/ayusman/fingerspell/internal/quiz"
	"github.com/ayusman/fingerspell/internal/smoothing"
	"github.com/ayusman/fingerspell/internal/store"
	"github.com/ayusman/fingerspell/internal/timeutil"
)

// Event names published through Options.Events.
const (
	QuizEvent       = "quiz"
	GradeEvent      = "grade"
	TransitionEvent = "transition"
	ProgressEvent   = "progress"
)

// progressEvery is the number of animation ticks between progress events.
const progressEvery = 10

// ErrNotRunning is returned by control calls made before Run or after it
// has returned.
var ErrNotRunning = errors.New("app not running")

// ErrNoWord is returned by animation calls before a word is loaded.
var ErrNoWord = errors.New("no word loaded")

// Options supplies the collaborators. Nil fields get production defaults.
type Options struct {
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Catalog  *animation.Catalog
	Events   animation.Broadcaster
	Clock    timeutil.Clock
}

// QuizStatus is the quiz snapshot served to clients.
type QuizStatus struct {
	quiz.Status
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id"`
}

// App is the running application.
type App struct {
	config   config.Config
	store    *store.Store
	camera   capture.Camera
	detector detector.Detector
	catalog  *animation.Catalog
	events   animation.Broadcaster
	clock    timeutil.Clock

	registry *letter.Registry
	trainer  *letter.Trainer

	// Owned by the event loop.
	session  *quiz.Session
	smoother *smoothing.Smoother
	prompt   string
	lastSeq  uint64
	latest   detector.Outcome

	sessionID atomic.Value // string
	hand      atomic.Value // string, used when there is no store
	enabled   atomic.Bool
	epoch     atomic.Uint64
	seq       atomic.Uint64
	dropped   atomic.Uint64

	sem     *semaphore.Weighted
	results chan result
	cmds    chan func()
	done    chan struct{}
	running atomic.Bool

	driver   *animation.Driver
	renderer *animation.CommandRenderer
	word     string
	ticks    int

	frameMu  sync.RWMutex
	frame    []byte
	frameSeq uint64
}

// New builds the application. It does not open the camera; Run does.
func New(cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config:   cfg,
		store:    opts.Store,
		camera:   opts.Camera,
		detector: opts.Detector,
		catalog:  opts.Catalog,
		events:   opts.Events,
		clock:    opts.Clock,
		registry: letter.NewRegistry(cfg.Thresholds()),
		trainer:  letter.NewTrainer(),
		smoother: smoothing.NewSmoother(cfg.Smoother()),
		sem:      semaphore.NewWeighted(int64(cfg.Pipeline.MaxInFlight)),
		results:  make(chan result, cfg.Pipeline.MaxInFlight),
		cmds:     make(chan func()),
		done:     make(chan struct{}),
	}
	if a.clock == nil {
		a.clock = timeutil.RealClock{}
	}
	if a.events == nil {
		a.events = discard{}
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.Camera())
	}
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(cfg.Detector()); err == nil {
			a.detector = mp
			monitoring.Logf("Using MediaPipe hand detection")
		} else {
			monitoring.Logf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}
	if a.catalog == nil {
		var err error
		if cfg.Animation.Clips != "" {
			a.catalog, err = animation.LoadCatalog(cfg.Animation.Clips)
		} else {
			a.catalog, err = animation.DefaultCatalog()
		}
		if err != nil {
			return nil, fmt.Errorf("load clips: %w", err)
		}
	}

	if err := a.LoadLetters(); err != nil {
		return nil, err
	}

	a.session = quiz.NewSession(cfg.QuizSession(), nil)
	a.session.Subscribe(a.onAdvance)
	a.sessionID.Store(uuid.NewString())
	a.hand.Store(strings.ToLower(cfg.Animation.Handedness))
	a.enabled.Store(true)
	a.restorePrompt()

	a.renderer = animation.NewCommandRenderer(a.events)
	a.driver = animation.NewDriver(a.clock, cfg.Animation.TickInterval)
	a.driver.OnTick = a.onTick

	return a, nil
}

type discard struct{}

func (discard) Broadcast(string, any) {}

// restorePrompt reloads the last prompt from the settings table.
func (a *App) restorePrompt() {
	if a.store == nil {
		return
	}
	prompt, err := a.store.Settings().Get(store.SettingPrompt)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			monitoring.Logf("Failed to read saved prompt: %v", err)
		}
		return
	}
	letters, err := a.registry.Resolve(prompt)
	if err != nil {
		monitoring.Logf("Saved prompt %q no longer resolves: %v", prompt, err)
		return
	}
	a.prompt = prompt
	a.session.SetLetters(letters)
}

// Run opens the camera and runs the pipeline, the event loop and the
// animation driver until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("app already running")
	}
	defer close(a.done)

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			monitoring.Logf("Error closing camera: %v", err)
		}
		if err := a.detector.Close(); err != nil {
			monitoring.Logf("Error closing detector: %v", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.loop(ctx) })
	g.Go(func() error { return a.driver.Run(ctx) })
	g.Go(func() error { return a.capture(ctx) })

	monitoring.Logf("Fingerspelling pipeline started (session %s)", a.SessionID())
	err := g.Wait()
	monitoring.Logf("Fingerspelling pipeline stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// do runs fn on the event loop and waits for it.
func (a *App) do(ctx context.Context, fn func() error) error {
	if !a.running.Load() {
		return ErrNotRunning
	}
	var err error
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		err = fn()
	}
	select {
	case a.cmds <- cmd:
	case <-a.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return err
}

// SessionID identifies the current run of attempts.
func (a *App) SessionID() string {
	return a.sessionID.Load().(string)
}

// SetEnabled turns detection on or off. Frames are still captured for the
// preview stream while detection is off.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

// IsEnabled reports whether detection is on.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Dropped returns the number of frames dropped because every detection
// slot was busy.
func (a *App) Dropped() uint64 {
	return a.dropped.Load()
}

// Registry returns the letter registry.
func (a *App) Registry() *letter.Registry {
	return a.registry
}

// Subscribe registers fn for quiz advances. fn runs on the event loop.
func (a *App) Subscribe(fn func(quiz.Event)) (cancel func()) {
	return a.session.Subscribe(fn)
}

// QuizStatus returns a snapshot of the quiz.
func (a *App) QuizStatus(ctx context.Context) (QuizStatus, error) {
	var st QuizStatus
	err := a.do(ctx, func() error {
		st = QuizStatus{Status: a.session.Status(), Prompt: a.prompt, SessionID: a.SessionID()}
		return nil
	})
	return st, err
}

// SetPrompt starts a new prompt. Frames captured before the change are
// discarded.
func (a *App) SetPrompt(ctx context.Context, prompt string) error {
	letters, err := a.registry.Resolve(prompt)
	if err != nil {
		return err
	}
	if len(letters) == 0 {
		return fmt.Errorf("prompt %q: %w", prompt, quiz.ErrNoLetters)
	}
	prompt = strings.TrimSpace(prompt)
	err = a.do(ctx, func() error {
		a.invalidate()
		a.prompt = prompt
		a.session.SetLetters(letters)
		a.broadcastQuiz()
		return nil
	})
	if err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.Settings().Set(store.SettingPrompt, prompt); err != nil {
			monitoring.Logf("Failed to save prompt: %v", err)
		}
	}
	return nil
}

// Skip gives up on the current letter.
func (a *App) Skip(ctx context.Context) error {
	return a.do(ctx, func() error {
		a.invalidate()
		_, err := a.session.Skip()
		return err
	})
}

// ResetQuiz rewinds to the first letter and starts a new attempt session.
func (a *App) ResetQuiz(ctx context.Context) error {
	return a.do(ctx, func() error {
		a.invalidate()
		a.session.Reset()
		a.sessionID.Store(uuid.NewString())
		a.broadcastQuiz()
		return nil
	})
}

// SetAccepting pauses or resumes grading.
func (a *App) SetAccepting(ctx context.Context, accepting bool) error {
	return a.do(ctx, func() error {
		a.session.SetAccepting(accepting)
		a.broadcastQuiz()
		return nil
	})
}

// invalidate drops in-flight results and smoothing history. Event loop
// only.
func (a *App) invalidate() {
	a.epoch.Add(1)
	a.smoother.Reset()
}

func (a *App) broadcastQuiz() {
	a.events.Broadcast(QuizEvent, QuizStatus{Status: a.session.Status(), Prompt: a.prompt, SessionID: a.SessionID()})
}

// onAdvance records the attempt and publishes the advance. It runs on the
// event loop after the session has moved on.
func (a *App) onAdvance(ev quiz.Event) {
	if ev.Skipped {
		monitoring.Logf("Skipped %s after %d frames", ev.Completed, ev.Frames)
	} else {
		monitoring.Logf("Passed %s (grade %.2f, %d frames, %s)", ev.Completed, ev.Grade, ev.Frames, ev.Elapsed)
	}
	a.smoother.Reset()
	a.epoch.Add(1)

	if a.store != nil {
		err := a.store.Attempts().Create(&store.Attempt{
			SessionID: a.SessionID(),
			Letter:    ev.Completed,
			Position:  a.positionOf(ev),
			Frames:    ev.Frames,
			Grade:     ev.Grade,
			Skipped:   ev.Skipped,
			Duration:  ev.Elapsed,
		})
		if err != nil {
			monitoring.Logf("Failed to record attempt: %v", err)
		}
	}
	a.events.Broadcast(QuizEvent, struct {
		quiz.Event
		SessionID string `json:"session_id"`
	}{ev, a.SessionID()})
}

// positionOf returns the index of the letter ev completed.
func (a *App) positionOf(ev quiz.Event) int {
	n := len(a.session.Letters())
	if n == 0 {
		return 0
	}
	return (ev.Index - 1 + n) % n
}
