package animation

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/fingerspell/internal/timeutil"
)

// ErrDriverStopped is returned by Do after Run has returned.
var ErrDriverStopped = errors.New("animation driver stopped")

// maxStep bounds the time a single tick may advance, so a stalled process
// does not skip whole clips when it wakes.
const maxStep = 100 * time.Millisecond

// Driver ticks a Scheduler from a single goroutine. Control calls from
// other goroutines are funneled through Do and run between ticks, so ticks
// and mutations never overlap.
type Driver struct {
	clock    timeutil.Clock
	interval time.Duration
	cmds     chan func()
	done     chan struct{}

	sched *Scheduler

	// OnTick, when set, is called after every tick with the scheduler.
	OnTick func(s *Scheduler)
}

// NewDriver creates a driver ticking every interval on clock.
func NewDriver(clock timeutil.Clock, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = DefaultConfig().TickInterval
	}
	return &Driver{
		clock:    clock,
		interval: interval,
		cmds:     make(chan func()),
		done:     make(chan struct{}),
	}
}

// Run ticks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	defer close(d.done)

	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()
	last := d.clock.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-d.cmds:
			fn()
		case now := <-ticker.C():
			step := now.Sub(last)
			last = now
			if step > maxStep {
				step = maxStep
			}
			if d.sched == nil {
				continue
			}
			d.sched.Tick(step.Seconds())
			if d.OnTick != nil {
				d.OnTick(d.sched)
			}
		}
	}
}

// Do runs fn on the driver goroutine with the current scheduler, which may
// be nil, and waits for it to finish.
func (d *Driver) Do(ctx context.Context, fn func(s *Scheduler)) error {
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn(d.sched)
	}
	select {
	case d.cmds <- cmd:
	case <-d.done:
		return ErrDriverStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Load replaces the scheduler being driven.
func (d *Driver) Load(ctx context.Context, s *Scheduler) error {
	return d.Replace(ctx, s, nil)
}

// Replace swaps in s after calling fn, when set, with the outgoing
// scheduler on the driver goroutine. The outgoing scheduler may be nil.
func (d *Driver) Replace(ctx context.Context, s *Scheduler, fn func(old *Scheduler)) error {
	return d.Do(ctx, func(old *Scheduler) {
		if fn != nil {
			fn(old)
		}
		d.sched = s
	})
}
