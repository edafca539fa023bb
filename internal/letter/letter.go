// Package letter provides per-letter shape classifiers that judge whether a
// detection outcome shows a target fingerspelling sign.
//
// Every distance a classifier compares against a threshold is a ratio of a
// pixel-space distance to the average pixel-space palm length of the
// detected hands, which makes verdicts independent of hand size, camera
// distance and frame aspect ratio.
package letter

import (
	"errors"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
)

// Default ratio thresholds.
const (
	TouchingThreshold = 0.35
	CloseThreshold    = 0.5
)

// ErrUnknownLetter is returned when no classifier exists for a letter.
var ErrUnknownLetter = errors.New("unknown letter")

// ErrNoHand is returned when a sample is requested but no fully tracked
// hand is in view.
var ErrNoHand = errors.New("no fully tracked hand in view")

// Result is a classifier verdict.
type Result int

const (
	Incorrect Result = iota
	Correct
)

func (r Result) String() string {
	if r == Correct {
		return "correct"
	}
	return "incorrect"
}

// Classifier judges a single detection outcome. Implementations are total:
// missing joints or the wrong number of hands yield Incorrect.
type Classifier interface {
	// Letter returns the letter this classifier recognizes, e.g. "A".
	Letter() string
	Classify(o detector.Outcome) Result
}

// WindowClassifier is implemented by letters that are recognized over a run
// of consecutive outcomes (traced letters) rather than per frame.
type WindowClassifier interface {
	Classifier
	ClassifyWindow(window []detector.Outcome) Result
}

// Thresholds are the distance ratios used by the two-hand classifiers.
type Thresholds struct {
	Touching float64 `json:"touching"`
	Close    float64 `json:"close"`
}

// DefaultThresholds returns the default touching and close ratios.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Touching: TouchingThreshold,
		Close:    CloseThreshold,
	}
}

// measure computes palm-normalized distances between joints of an outcome.
type measure struct {
	o    detector.Outcome
	palm float64
}

// newMeasure returns a measure for o, or false when no hand has a usable
// palm length.
func newMeasure(o detector.Outcome) (measure, bool) {
	palm, ok := o.AveragePalmLength()
	if !ok {
		return measure{}, false
	}
	return measure{o: o, palm: palm}, true
}

// ratio returns the pixel distance between joint a of hand i and joint b of
// hand k, divided by the average palm length.
func (m measure) ratio(i int, a detector.Joint, k int, b detector.Joint) (float64, bool) {
	p, ok := m.o.Pixel(i, a)
	if !ok {
		return 0, false
	}
	q, ok := m.o.Pixel(k, b)
	if !ok {
		return 0, false
	}
	return geometry.Distance(p, q) / m.palm, true
}

// resultOf maps a boolean verdict to a Result.
func resultOf(ok bool) Result {
	if ok {
		return Correct
	}
	return Incorrect
}
