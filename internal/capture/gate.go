package capture

import (
	"time"

	"github.com/ayusman/fingerspell/internal/timeutil"
)

// Gate switches the sampling rate between idle and active from motion
// observations. It is used from the capture goroutine only.
type Gate struct {
	config     Config
	clock      timeutil.Clock
	active     bool
	lastMotion time.Time
}

// NewGate creates an idle gate.
func NewGate(config Config, clock timeutil.Clock) *Gate {
	def := DefaultConfig()
	if config.IdleFPS <= 0 {
		config.IdleFPS = def.IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = def.ActiveFPS
	}
	return &Gate{config: config, clock: clock}
}

// Observe records whether the latest frame moved and returns the rate to
// sample at and whether it differs from the previous one.
func (g *Gate) Observe(moved bool) (fps int, changed bool) {
	now := g.clock.Now()
	switch {
	case moved:
		g.lastMotion = now
		if !g.active {
			g.active = true
			changed = true
		}
	case g.active && now.Sub(g.lastMotion) > g.config.IdleTimeout:
		g.active = false
		changed = true
	}
	return g.FPS(), changed
}

// Active reports whether motion was seen within the idle timeout.
func (g *Gate) Active() bool { return g.active }

// FPS returns the current sampling rate.
func (g *Gate) FPS() int {
	if g.active {
		return g.config.ActiveFPS
	}
	return g.config.IdleFPS
}

// Interval returns the time between samples at the current rate.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}

// Reset returns the gate to idle.
func (g *Gate) Reset() {
	g.active = false
	g.lastMotion = time.Time{}
}
