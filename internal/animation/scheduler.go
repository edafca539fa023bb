package animation

import (
	"fmt"
	"time"
)

// Config holds scheduler parameters.
type Config struct {
	Style Style

	// SequentialIdle and InterpolatedIdle are the idle periods, in seconds,
	// at the end of each clip for the two styles.
	SequentialIdle   float64
	InterpolatedIdle float64

	// Speed is the playback speed multiplier.
	Speed float64

	// DipSpeed and DipDuration describe the brief slowdown applied after an
	// interpolated transition swaps clips.
	DipSpeed    float64
	DipDuration float64

	// TickInterval is the driver's tick period.
	TickInterval time.Duration
}

// DefaultConfig returns the default scheduler parameters.
func DefaultConfig() Config {
	return Config{
		Style:            Sequential,
		SequentialIdle:   0,
		InterpolatedIdle: 0.45,
		Speed:            1.0,
		DipSpeed:         0.8,
		DipDuration:      0.35,
		TickInterval:     10 * time.Millisecond,
	}
}

// Idle returns the idle period for the configured style.
func (c Config) Idle() float64 {
	if c.Style == Interpolated {
		return c.InterpolatedIdle
	}
	return c.SequentialIdle
}

// Scheduler advances playback through a clip sequence. It is not safe for
// concurrent use and not reentrant: one goroutine calls Tick and the
// control methods.
type Scheduler struct {
	config   Config
	timeline Timeline
	renderer Renderer

	elapsed float64
	active  int
	playing bool

	transition     TransitionState
	next           int
	morphStarted   bool
	morphRemaining float64

	dipRemaining float64

	// OnTransition, when set, receives the morph duration in seconds each
	// time an interpolated transition starts.
	OnTransition func(seconds float64)
}

// NewScheduler creates a paused scheduler over clips. It panics when clips
// is empty.
func NewScheduler(config Config, clips []Clip, r Renderer) *Scheduler {
	if config.Speed <= 0 {
		config.Speed = 1
	}
	return &Scheduler{
		config:   config,
		timeline: NewTimeline(clips, config.Style, config.Idle()),
		renderer: r,
	}
}

// Timeline returns the scheduler's time axis.
func (s *Scheduler) Timeline() Timeline { return s.timeline }

// Elapsed returns the sequence time in seconds.
func (s *Scheduler) Elapsed() float64 { return s.elapsed }

// Active returns the index of the clip on the visible model.
func (s *Scheduler) Active() int { return s.active }

// Playing reports whether playback is running.
func (s *Scheduler) Playing() bool { return s.playing }

// Transition returns the transition state.
func (s *Scheduler) Transition() TransitionState { return s.transition }

// Progress returns the elapsed time as a proportion of the sequence.
func (s *Scheduler) Progress() float64 {
	total := s.timeline.TotalDuration()
	if total <= 0 {
		return 0
	}
	return s.elapsed / total
}

// rate is the current multiplier on tick time.
func (s *Scheduler) rate() float64 {
	if s.dipRemaining > 0 {
		return s.config.Speed * s.config.DipSpeed
	}
	return s.config.Speed
}

// Tick advances playback by dt seconds of wall time.
func (s *Scheduler) Tick(dt float64) {
	if s.transition != NotTransitioning {
		s.tickTransition(dt)
		return
	}
	if !s.playing {
		return
	}

	s.tickDip(dt)
	s.elapsed += dt * s.rate()

	if s.elapsed >= s.timeline.TotalDuration() {
		s.restart()
		return
	}

	i, offset := s.timeline.ClipAt(s.elapsed)
	if s.config.Style == Interpolated && i == s.active+1 {
		s.beginTransition(i)
		return
	}

	if idx, running := s.renderer.Playing(); !running || idx != i {
		blendIn := 0.0
		if s.config.Style == Sequential && i != s.active {
			blendIn = s.timeline.Clip(i).BlendIn
		}
		s.renderer.Play(i, s.timeline.Clip(i), offset, blendIn)
		s.active = i
	}
}

func (s *Scheduler) tickDip(dt float64) {
	if s.dipRemaining <= 0 {
		return
	}
	s.dipRemaining -= dt
	if s.dipRemaining <= 0 {
		s.dipRemaining = 0
		s.renderer.SetSpeed(s.config.Speed)
	}
}

// restart is the wraparound: a hard reset to the first clip with no blend.
func (s *Scheduler) restart() {
	s.renderer.StopAll()
	s.elapsed = 0
	s.active = 0
	s.clearDip()
	s.playing = true
	s.renderer.Play(0, s.timeline.Clip(0), 0, 0)
}

// beginTransition holds the active clip on its idle pose and brings up the
// ghost of the next clip.
func (s *Scheduler) beginTransition(next int) {
	s.elapsed = s.timeline.Start(next)
	s.renderer.Pause()
	s.renderer.SpawnGhost(next, s.timeline.Clip(next))
	s.next = next
	s.transition = Transitioning
	s.morphStarted = false
	s.morphRemaining = 0
}

func (s *Scheduler) tickTransition(dt float64) {
	if !s.morphStarted {
		if !s.renderer.GhostStarted() {
			return
		}
		from := s.timeline.Clip(s.active).PoseAt(s.timeline.Span(s.active))
		to := s.timeline.Clip(s.next).Start
		d := TransitionDuration(from.Angle(to))
		s.renderer.Morph(to, d)
		s.morphStarted = true
		s.morphRemaining = d
		if s.OnTransition != nil {
			s.OnTransition(d)
		}
		return
	}

	s.morphRemaining -= dt
	if s.morphRemaining > 0 {
		return
	}
	s.finishTransition()
}

// finishTransition swaps to the next clip, masks the seam with a short
// slowdown and applies a pause that arrived mid-transition.
func (s *Scheduler) finishTransition() {
	interrupted := s.transition == Interrupted

	s.renderer.RemoveGhost()
	s.active = s.next
	s.elapsed = s.timeline.Start(s.active)
	s.transition = NotTransitioning
	s.morphStarted = false
	s.renderer.Play(s.active, s.timeline.Clip(s.active), 0, 0)

	s.dipRemaining = s.config.DipDuration
	s.renderer.SetSpeed(s.config.Speed * s.config.DipSpeed)

	if interrupted {
		s.playing = false
		s.renderer.Pause()
	}
}

func (s *Scheduler) cancelTransition() {
	if s.transition == NotTransitioning {
		return
	}
	s.renderer.RemoveGhost()
	s.transition = NotTransitioning
	s.morphStarted = false
	s.morphRemaining = 0
}

func (s *Scheduler) clearDip() {
	if s.dipRemaining > 0 {
		s.dipRemaining = 0
		s.renderer.SetSpeed(s.config.Speed)
	}
}

// Play starts or resumes playback. During an interrupted transition it only
// withdraws the pending pause.
func (s *Scheduler) Play() {
	if s.transition == Interrupted {
		s.transition = Transitioning
		s.playing = true
		return
	}
	if s.playing {
		return
	}
	s.playing = true
	if s.transition != NotTransitioning {
		return
	}
	if idx, _ := s.renderer.Playing(); idx == s.active {
		s.renderer.Resume()
	}
}

// Pause stops playback. During a transition the pause is deferred until
// the morph completes.
func (s *Scheduler) Pause() {
	if s.transition == Transitioning {
		s.transition = Interrupted
		s.playing = false
		return
	}
	if !s.playing {
		return
	}
	s.playing = false
	s.renderer.Pause()
}

// Seek jumps to proportion p of the sequence, cancelling any transition.
func (s *Scheduler) Seek(p float64) {
	s.cancelTransition()
	s.clearDip()

	i, offset := s.timeline.Seek(p)
	s.active = i
	s.elapsed = s.timeline.Start(i) + offset
	s.renderer.Play(i, s.timeline.Clip(i), offset, 0)
	if !s.playing {
		s.renderer.Pause()
	}
}

// SeekToBoundary jumps to the clip start nearest to proportion p.
func (s *Scheduler) SeekToBoundary(p float64) {
	s.Seek(s.timeline.Clamp(p))
}

// SetSpeed changes the playback speed multiplier.
func (s *Scheduler) SetSpeed(speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", speed)
	}
	s.config.Speed = speed
	s.renderer.SetSpeed(s.rate())
	return nil
}

// Speed returns the playback speed multiplier.
func (s *Scheduler) Speed() float64 { return s.config.Speed }

// Status is a snapshot of the scheduler for display.
type Status struct {
	Playing    bool     `json:"playing"`
	Active     int      `json:"active"`
	Elapsed    float64  `json:"elapsed"`
	Total      float64  `json:"total"`
	Progress   float64  `json:"progress"`
	Transition string   `json:"transition"`
	Speed      float64  `json:"speed"`
	Style      Style    `json:"style"`
	Windows    []Window `json:"windows"`
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	return Status{
		Playing:    s.playing,
		Active:     s.active,
		Elapsed:    s.elapsed,
		Total:      s.timeline.TotalDuration(),
		Progress:   s.Progress(),
		Transition: s.transition.String(),
		Speed:      s.config.Speed,
		Style:      s.config.Style,
		Windows:    s.timeline.Windows(),
	}
}
