// Package smoothing damps per-frame jitter in hand detections by blending
// each outcome with the running smoothed value of the frames before it.
package smoothing

import (
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
)

// Config holds smoothing parameters.
type Config struct {
	// Factor weights the previous (smoothed) value; 1-Factor weights the
	// current detection. 0 disables smoothing.
	Factor float64

	// HistoryDepth is the number of most recent outcomes folded together.
	HistoryDepth int
}

// DefaultConfig returns the default smoothing parameters.
func DefaultConfig() Config {
	return Config{
		Factor:       0.4,
		HistoryDepth: 8,
	}
}

// Interpolate blends two skeletons joint by joint:
// result = cur*(1-factor) + prev*factor. A joint missing from either hand is
// missing from the result. Handedness is taken from cur.
func Interpolate(prev, cur *detector.HandSkeleton, factor float64) detector.HandSkeleton {
	out := detector.NewHandSkeleton()
	out.Handedness = cur.Handedness
	out.Score = geometry.Lerp(cur.Score, prev.Score, factor)

	for j := range cur.Joints {
		c, p := cur.Joints[j], prev.Joints[j]
		if !c.Observed || !p.Observed {
			continue
		}
		out.Set(detector.Joint(j),
			geometry.LerpPoint(c.Position, p.Position, factor),
			geometry.Lerp(c.Confidence, p.Confidence, factor))
	}
	return out
}

// ArrangeHands pairs prev's hands with cur's by nearest anchor (wrist)
// position. The result is aligned with cur.Hands: result[i] is the previous
// hand matched to cur.Hands[i], or nil when there is none. The pairing is a
// minimum total distance assignment, so two hands that swap places in the
// detector's output keep their identities. Hands that cross each other
// within a single frame can still be mis-paired.
func ArrangeHands(prev, cur detector.Outcome) []*detector.HandSkeleton {
	result := make([]*detector.HandSkeleton, len(cur.Hands))
	if len(prev.Hands) == 0 || len(cur.Hands) == 0 {
		return result
	}

	cost := make([][]float64, len(cur.Hands))
	for i := range cur.Hands {
		cost[i] = make([]float64, len(prev.Hands))
		ca, cok := cur.Hands[i].Anchor(cur.Size)
		for j := range prev.Hands {
			pa, pok := prev.Hands[j].Anchor(prev.Size)
			if !cok || !pok {
				cost[i][j] = forbidden
				continue
			}
			cost[i][j] = geometry.Distance(ca, pa)
		}
	}

	for i, j := range assign(cost) {
		if j >= 0 {
			result[i] = &prev.Hands[j]
		}
	}
	return result
}

// Step blends cur with the running smoothed outcome prev. Hands in cur with
// no counterpart in prev pass through unchanged.
func Step(prev, cur detector.Outcome, factor float64) detector.Outcome {
	out := detector.Outcome{
		Size: cur.Size,
		Seq:  cur.Seq,
	}
	if len(cur.Hands) == 0 {
		return out
	}

	matched := ArrangeHands(prev, cur)
	out.Hands = make([]detector.HandSkeleton, len(cur.Hands))
	for i := range cur.Hands {
		if matched[i] == nil {
			out.Hands[i] = cur.Hands[i]
			continue
		}
		out.Hands[i] = Interpolate(matched[i], &cur.Hands[i], factor)
	}
	return out
}

// Smooth folds history (oldest first) into a single outcome, starting from
// the oldest and blending each newer outcome into the running value.
func Smooth(history []detector.Outcome, factor float64) detector.Outcome {
	if len(history) == 0 {
		return detector.Outcome{}
	}
	running := history[0].Clone()
	for _, o := range history[1:] {
		running = Step(running, o, factor)
	}
	return running
}

// Smoother keeps a bounded history of raw outcomes and returns the smoothed
// value for each new one. It is not safe for concurrent use; the owner
// feeds it from a single goroutine.
type Smoother struct {
	config  Config
	history []detector.Outcome
}

// NewSmoother creates a Smoother. A HistoryDepth below 1 is treated as 1.
func NewSmoother(config Config) *Smoother {
	if config.HistoryDepth < 1 {
		config.HistoryDepth = 1
	}
	return &Smoother{
		config:  config,
		history: make([]detector.Outcome, 0, config.HistoryDepth),
	}
}

// Push records o and returns the smoothed outcome over the retained history.
func (s *Smoother) Push(o detector.Outcome) detector.Outcome {
	if len(s.history) == s.config.HistoryDepth {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.history = append(s.history, o.Clone())
	return Smooth(s.history, s.config.Factor)
}

// Len returns the number of retained outcomes.
func (s *Smoother) Len() int {
	return len(s.history)
}

// Reset drops the retained history.
func (s *Smoother) Reset() {
	s.history = s.history[:0]
}
