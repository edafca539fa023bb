package letter

import (
	"math"
	"sort"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
)

// Kind distinguishes static (single pose) letters from traced letters.
type Kind string

const (
	// KindStatic is a letter held as a single hand pose.
	KindStatic Kind = "static"
	// KindMotion is a letter traced over time, such as J or Z.
	KindMotion Kind = "motion"
)

// Template recognizes a static letter by comparing each hand's normalized
// joints (wrist origin, unit palm length) against averaged landmarks.
type Template struct {
	ID        string           // Unique identifier for the template
	Name      string           // Letter recognized, e.g. "E"
	Landmarks []geometry.Point // Normalized landmarks in joint order
	Tolerance float64          // Maximum summed joint distance for a match
}

func (t *Template) Letter() string { return t.Name }

// Classify accepts if any detected hand is within tolerance.
func (t *Template) Classify(o detector.Outcome) Result {
	d, ok := t.Distance(o)
	return resultOf(ok && geometry.IsLessOrEqual(d, t.Tolerance))
}

// Distance returns the smallest summed joint distance between the template
// and any fully observed hand in o.
func (t *Template) Distance(o detector.Outcome) (float64, bool) {
	if len(t.Landmarks) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for i := range o.Hands {
		h := &o.Hands[i]
		if h.ObservedCount() < detector.NumJoints {
			continue
		}
		norm, ok := h.Normalize(o.Size)
		if !ok {
			continue
		}
		if d := landmarkDistance(norm[:], t.Landmarks); d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// Match is a ranked template match.
type Match struct {
	Template *Template
	Score    float64 // 1/(1+Distance), higher is better
	Distance float64
}

// MatchTemplates returns the templates within tolerance of o, best first.
func MatchTemplates(o detector.Outcome, templates []*Template) []Match {
	var matches []Match
	for _, t := range templates {
		d, ok := t.Distance(o)
		if !ok || !geometry.IsLessOrEqual(d, t.Tolerance) {
			continue
		}
		matches = append(matches, Match{
			Template: t,
			Score:    1.0 / (1.0 + d),
			Distance: d,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// landmarkDistance sums the distances between corresponding points.
func landmarkDistance(a, b []geometry.Point) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var total float64
	for i := 0; i < n; i++ {
		total += geometry.Distance(a[i], b[i])
	}
	return total
}
