package letter

import (
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
)

// otherTips are the fingertips that must stay apart across hands for A.
var otherTips = []detector.Joint{detector.MiddleTip, detector.RingTip, detector.PinkyTip}

// LetterA recognizes the two-hand touch pattern: one hand's index tip on
// the other hand's thumb tip, with the remaining fingertips apart.
type LetterA struct {
	Thresholds Thresholds
}

// NewLetterA creates an A classifier.
func NewLetterA(th Thresholds) *LetterA {
	return &LetterA{Thresholds: th}
}

func (c *LetterA) Letter() string { return "A" }

// Classify requires exactly two hands. Pairs with an unobserved joint are
// skipped by the vetoes and never satisfy the touch test.
func (c *LetterA) Classify(o detector.Outcome) Result {
	if len(o.Hands) != 2 {
		return Incorrect
	}
	m, ok := newMeasure(o)
	if !ok {
		return Incorrect
	}

	for _, a := range otherTips {
		for _, b := range otherTips {
			if r, ok := m.ratio(0, a, 1, b); ok && geometry.IsLess(r, c.Thresholds.Close) {
				return Incorrect
			}
		}
	}

	if r, ok := m.ratio(0, detector.IndexTip, 1, detector.IndexTip); ok && geometry.IsLess(r, c.Thresholds.Close) {
		return Incorrect
	}
	if r, ok := m.ratio(0, detector.ThumbTip, 1, detector.ThumbTip); ok && geometry.IsLess(r, c.Thresholds.Close) {
		return Incorrect
	}

	touching := func(i, k int) bool {
		r, ok := m.ratio(i, detector.IndexTip, k, detector.ThumbTip)
		return ok && geometry.IsLessOrEqual(r, c.Thresholds.Touching)
	}
	return resultOf(touching(0, 1) || touching(1, 0))
}

// LetterB recognizes index tips touching across hands while each hand's
// own thumb tip rests close to its own index tip. The thumb test is per
// hand because thumbs can appear to diverge across hands at some camera
// angles.
type LetterB struct {
	Thresholds Thresholds
}

// NewLetterB creates a B classifier.
func NewLetterB(th Thresholds) *LetterB {
	return &LetterB{Thresholds: th}
}

func (c *LetterB) Letter() string { return "B" }

func (c *LetterB) Classify(o detector.Outcome) Result {
	if len(o.Hands) != 2 {
		return Incorrect
	}
	m, ok := newMeasure(o)
	if !ok {
		return Incorrect
	}

	r, ok := m.ratio(0, detector.IndexTip, 1, detector.IndexTip)
	if !ok || !geometry.IsLessOrEqual(r, c.Thresholds.Touching) {
		return Incorrect
	}

	for i := 0; i < 2; i++ {
		r, ok := m.ratio(i, detector.ThumbTip, i, detector.IndexTip)
		if !ok || !geometry.IsLessOrEqual(r, c.Thresholds.Close) {
			return Incorrect
		}
	}
	return Correct
}
