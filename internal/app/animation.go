package app

import (
	"context"
	"errors"
	"strings"

	"github.com/ayusman/fingerspell/internal/animation"
	"github.com/ayusman/fingerspell/internal/monitoring"
	"github.com/ayusman/fingerspell/internal/store"
)

// ErrHandedness is returned for a hand other than left or right.
var ErrHandedness = errors.New("handedness must be left or right")

// AnimationStatus is the animation snapshot served to clients.
type AnimationStatus struct {
	animation.Status
	Word       string `json:"word"`
	Handedness string `json:"handedness"`
}

// transitionUpdate is published when a morph between clips starts.
type transitionUpdate struct {
	From    int     `json:"from"`
	To      int     `json:"to"`
	Seconds float64 `json:"seconds"`
}

// progressUpdate is published every progressEvery ticks while playing.
type progressUpdate struct {
	Active   int     `json:"active"`
	Elapsed  float64 `json:"elapsed"`
	Progress float64 `json:"progress"`
}

// handedness returns the saved hand, falling back to the configured one.
func (a *App) handedness() string {
	if a.store != nil {
		if h, err := a.store.Settings().Get(store.SettingHandedness); err == nil {
			return h
		}
	}
	return a.hand.Load().(string)
}

// SetHandedness saves which hand the animation signs with. It applies to
// the next word loaded.
func (a *App) SetHandedness(hand string) error {
	hand = strings.ToLower(hand)
	if hand != animation.Left && hand != animation.Right {
		return ErrHandedness
	}
	if a.store == nil {
		a.hand.Store(hand)
		return nil
	}
	return a.store.Settings().Set(store.SettingHandedness, hand)
}

// SetWord loads the clips spelling word. Playback starts paused at the
// beginning.
func (a *App) SetWord(ctx context.Context, word string) error {
	hand := a.handedness()
	clips, err := a.catalog.Sequence(word, hand)
	if err != nil {
		return err
	}
	sched := animation.NewScheduler(a.config.Scheduler(), clips, a.renderer)
	sched.OnTransition = func(seconds float64) {
		from := sched.Active()
		a.events.Broadcast(TransitionEvent, transitionUpdate{
			From:    from,
			To:      (from + 1) % sched.Timeline().Len(),
			Seconds: seconds,
		})
	}
	return a.driver.Replace(ctx, sched, func(*animation.Scheduler) {
		a.renderer.StopAll()
		a.word = word
		a.ticks = 0
		monitoring.Logf("Loaded %q (%d clips, %s hand)", word, len(clips), hand)
	})
}

// withScheduler runs fn on the driver goroutine, failing with ErrNoWord
// when nothing is loaded.
func (a *App) withScheduler(ctx context.Context, fn func(s *animation.Scheduler) error) error {
	var err error
	doErr := a.driver.Do(ctx, func(s *animation.Scheduler) {
		if s == nil {
			err = ErrNoWord
			return
		}
		err = fn(s)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// Play starts or resumes the loaded word.
func (a *App) Play(ctx context.Context) error {
	return a.withScheduler(ctx, func(s *animation.Scheduler) error {
		s.Play()
		return nil
	})
}

// Pause halts the loaded word.
func (a *App) Pause(ctx context.Context) error {
	return a.withScheduler(ctx, func(s *animation.Scheduler) error {
		s.Pause()
		return nil
	})
}

// Seek moves playback to proportion p of the timeline. With snap set the
// position snaps to the nearest clip boundary.
func (a *App) Seek(ctx context.Context, p float64, snap bool) error {
	return a.withScheduler(ctx, func(s *animation.Scheduler) error {
		if snap {
			s.SeekToBoundary(p)
		} else {
			s.Seek(p)
		}
		return nil
	})
}

// SetSpeed changes the playback speed multiplier.
func (a *App) SetSpeed(ctx context.Context, speed float64) error {
	return a.withScheduler(ctx, func(s *animation.Scheduler) error {
		return s.SetSpeed(speed)
	})
}

// AnimationStatus returns a snapshot of the loaded word.
func (a *App) AnimationStatus(ctx context.Context) (AnimationStatus, error) {
	var st AnimationStatus
	err := a.withScheduler(ctx, func(s *animation.Scheduler) error {
		st = AnimationStatus{Status: s.Status(), Word: a.word, Handedness: a.handedness()}
		return nil
	})
	return st, err
}

// onTick publishes playback progress. Driver goroutine only.
func (a *App) onTick(s *animation.Scheduler) {
	if !s.Playing() {
		return
	}
	a.ticks++
	if a.ticks%progressEvery != 0 {
		return
	}
	a.events.Broadcast(ProgressEvent, progressUpdate{
		Active:   s.Active(),
		Elapsed:  s.Elapsed(),
		Progress: s.Progress(),
	})
}
