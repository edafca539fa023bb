package letter

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
)

// Default radius band for the circle fit, as fractions of the mean radius.
// The inner edge of a curled hand is typically flattened, so the band is
// wider on the inside.
const (
	CircleInner = 0.6
	CircleOuter = 1.25
)

// circleJoints are the thumb and index joints that trace the C curve.
var circleJoints = [...]detector.Joint{
	detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip,
	detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip,
}

// LetterC recognizes a single hand whose thumb and index chains lie on a
// common circle. Any detected hand may pass.
type LetterC struct {
	Inner float64
	Outer float64
}

// NewLetterC creates a C classifier with the default radius band.
func NewLetterC() *LetterC {
	return &LetterC{Inner: CircleInner, Outer: CircleOuter}
}

func (c *LetterC) Letter() string { return "C" }

func (c *LetterC) Classify(o detector.Outcome) Result {
	for i := range o.Hands {
		if c.fits(&o.Hands[i], o.Size) {
			return Correct
		}
	}
	return Incorrect
}

// fits reports whether every circle joint of h lies within the radius band.
// The center estimate is the midpoint of the index PIP/DIP midpoint and the
// thumb MCP/IP midpoint; the radius estimate is the mean joint distance to
// that center.
func (c *LetterC) fits(h *detector.HandSkeleton, size geometry.Size) bool {
	var pts [len(circleJoints)]geometry.Point
	for n, j := range circleJoints {
		p, ok := h.Pixel(j, size)
		if !ok {
			return false
		}
		pts[n] = p
	}

	center := geometry.Midpoint(
		geometry.Midpoint(pts[1], pts[2]),
		geometry.Midpoint(pts[4], pts[5]),
	)

	dists := make([]float64, len(pts))
	for n, p := range pts {
		dists[n] = geometry.Distance(p, center)
	}
	radius := stat.Mean(dists, nil)
	if radius <= 0 {
		return false
	}

	for _, d := range dists {
		if geometry.IsLess(d, radius*c.Inner) || geometry.IsGreater(d, radius*c.Outer) {
			return false
		}
	}
	return true
}
