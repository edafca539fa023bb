package animation

import (
	"fmt"
	"math"
	"sort"
)

// Style selects how the scheduler moves from one clip to the next.
type Style string

const (
	// Sequential starts each clip at its window and fades it in over the
	// clip's blend-in duration.
	Sequential Style = "sequential"
	// Interpolated pauses each clip when it goes idle and morphs the pose
	// toward the next clip's first frame before switching.
	Interpolated Style = "interpolated"
)

// Timeline lays a clip sequence out on a single time axis. Each clip owns
// the window [Start(i), Start(i)+Span(i)); its idle tail, the holding pose
// at the end of the clip, is excluded from the axis.
type Timeline struct {
	clips  []Clip
	tails  []float64
	starts []float64
	total  float64
}

// NewTimeline builds the time axis for clips. Every clip's tail is idle
// seconds, capped at its duration, so the total is the sum of duration
// minus idle. Blend-in does not move a window: in Sequential style the next
// clip fades in from the start of its own window. It panics when clips is
// empty.
func NewTimeline(clips []Clip, style Style, idle float64) Timeline {
	if len(clips) == 0 {
		panic("animation: timeline needs at least one clip")
	}
	t := Timeline{
		clips:  append([]Clip(nil), clips...),
		tails:  make([]float64, len(clips)),
		starts: make([]float64, len(clips)),
	}
	for i, c := range clips {
		t.tails[i] = math.Max(0, math.Min(idle, c.Duration))
		t.starts[i] = t.total
		t.total += c.Duration - t.tails[i]
	}
	return t
}

// Len returns the number of clips.
func (t Timeline) Len() int { return len(t.clips) }

// Clip returns clip i. It panics when i is out of range.
func (t Timeline) Clip(i int) Clip {
	t.check(i)
	return t.clips[i]
}

// Start returns the sequence time at which clip i begins.
func (t Timeline) Start(i int) float64 {
	t.check(i)
	return t.starts[i]
}

// Span returns the time clip i occupies on the axis: duration minus tail.
func (t Timeline) Span(i int) float64 {
	t.check(i)
	return t.clips[i].Duration - t.tails[i]
}

// TotalDuration returns the length of the axis.
func (t Timeline) TotalDuration() float64 { return t.total }

func (t Timeline) check(i int) {
	if i < 0 || i >= len(t.clips) {
		panic(fmt.Sprintf("animation: clip index %d out of range [0,%d)", i, len(t.clips)))
	}
}

// ClipAt returns the clip whose window contains elapsed and the offset into
// that clip. Times past the end fall in the last clip.
func (t Timeline) ClipAt(elapsed float64) (int, float64) {
	elapsed = math.Max(0, elapsed)
	// Last clip starting at or before elapsed; zero-span clips are passed over.
	i := sort.Search(len(t.starts), func(k int) bool { return t.starts[k] > elapsed }) - 1
	if i < 0 {
		i = 0
	}
	return i, elapsed - t.starts[i]
}

// Seek maps a proportion of the axis to a clip and an offset into it. Each
// clip's share is Span(i)/TotalDuration. Proportions at or beyond 1 map to
// the end of the last clip's span; negative proportions map to the start.
func (t Timeline) Seek(p float64) (int, float64) {
	if p <= 0 || t.total <= 0 {
		return 0, 0
	}
	last := len(t.clips) - 1
	if p >= 1 {
		return last, t.Span(last)
	}
	var acc float64
	for i := range t.clips {
		share := t.Span(i) / t.total
		if share > 0 && p < acc+share {
			return i, (p - acc) / share * t.Span(i)
		}
		acc += share
	}
	return last, t.Span(last)
}

// Boundaries returns the proportion at which each clip starts, ascending.
func (t Timeline) Boundaries() []float64 {
	out := make([]float64, len(t.starts))
	for i, s := range t.starts {
		if t.total > 0 {
			out[i] = s / t.total
		}
	}
	return out
}

// Clamp returns the clip boundary proportion nearest to p. Ties go to the
// earlier boundary.
func (t Timeline) Clamp(p float64) float64 {
	b := t.Boundaries()
	i := sort.SearchFloat64s(b, p)
	switch {
	case i == 0:
		return b[0]
	case i == len(b):
		return b[len(b)-1]
	}
	if p-b[i-1] <= b[i]-p {
		return b[i-1]
	}
	return b[i]
}

// Window describes one clip's place on the axis.
type Window struct {
	Index      int     `json:"index"`
	Glyph      string  `json:"glyph"`
	File       string  `json:"file"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Proportion float64 `json:"proportion"` // start as a fraction of the axis
}

// Windows lists every clip's window.
func (t Timeline) Windows() []Window {
	b := t.Boundaries()
	out := make([]Window, len(t.clips))
	for i, c := range t.clips {
		out[i] = Window{
			Index:      i,
			Glyph:      c.Glyph,
			File:       c.File,
			Start:      t.starts[i],
			End:        t.starts[i] + t.Span(i),
			Proportion: b[i],
		}
	}
	return out
}
