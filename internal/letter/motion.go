package letter

import (
	"math"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
)

// MinPathPoints is the fewest traced points a motion letter is judged on.
const MinPathPoints = 5

// PathPoint is one sample of a traced fingertip path.
type PathPoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"` // frame sequence or milliseconds
}

// Motion recognizes a traced letter by comparing the index-tip path over
// the quiz window against a template path with Dynamic Time Warping.
type Motion struct {
	ID        string
	Name      string
	Path      []PathPoint
	Tolerance float64 // Maximum normalized DTW distance for a match
}

func (m *Motion) Letter() string { return m.Name }

// Classify always returns Incorrect: a single frame cannot show a trace.
func (m *Motion) Classify(detector.Outcome) Result {
	return Incorrect
}

// ClassifyWindow traces the index tip across window and compares it to the
// template path.
func (m *Motion) ClassifyWindow(window []detector.Outcome) Result {
	d, ok := m.Distance(PathFromWindow(window))
	return resultOf(ok && geometry.IsLessOrEqual(d, m.Tolerance))
}

// Distance returns the DTW distance between path and the template after
// scaling both to the unit square.
func (m *Motion) Distance(path []PathPoint) (float64, bool) {
	if len(path) < MinPathPoints || len(m.Path) == 0 {
		return 0, false
	}
	d := DTWDistance(normalizePath(path), normalizePath(m.Path))
	if math.IsInf(d, 1) {
		return 0, false
	}
	return d, true
}

// PathFromWindow extracts one hand's index-tip trace from window.
// Points are measured in pixels from the wrist position of the first usable
// frame and divided by that frame's palm length, so the trace keeps hand
// translation but not hand size. Hand order is not stable across frames, so
// after the first point each frame follows the hand whose index tip is
// nearest the previous point. Frames without the joints are skipped.
func PathFromWindow(window []detector.Outcome) []PathPoint {
	var (
		path   []PathPoint
		origin geometry.Point
		palm   float64
		last   geometry.Point
	)
	for i, o := range window {
		var tip geometry.Point
		if path == nil {
			h, ok := firstUsable(o)
			if !ok {
				continue
			}
			tip, _ = h.Pixel(detector.IndexTip, o.Size)
			origin, _ = h.Pixel(detector.Wrist, o.Size)
			palm, _ = h.PalmLength(o.Size)
		} else {
			var ok bool
			if tip, ok = nearestTip(o, last); !ok {
				continue
			}
		}
		last = tip

		ts := int64(o.Seq)
		if ts == 0 {
			ts = int64(i)
		}
		path = append(path, PathPoint{
			X:         (tip.X - origin.X) / palm,
			Y:         (tip.Y - origin.Y) / palm,
			Timestamp: ts,
		})
	}
	return path
}

// firstUsable returns the first hand in o with an index tip, a wrist and a
// palm length.
func firstUsable(o detector.Outcome) (*detector.HandSkeleton, bool) {
	for i := range o.Hands {
		h := &o.Hands[i]
		if _, ok := h.Pixel(detector.IndexTip, o.Size); !ok {
			continue
		}
		if _, ok := h.Pixel(detector.Wrist, o.Size); !ok {
			continue
		}
		if l, ok := h.PalmLength(o.Size); !ok || l <= 0 {
			continue
		}
		return h, true
	}
	return nil, false
}

// nearestTip returns the observed index tip in o closest to prev.
func nearestTip(o detector.Outcome, prev geometry.Point) (geometry.Point, bool) {
	var (
		best  geometry.Point
		bestD = math.Inf(1)
	)
	for i := range o.Hands {
		tip, ok := o.Hands[i].Pixel(detector.IndexTip, o.Size)
		if !ok {
			continue
		}
		if d := geometry.Distance(tip, prev); d < bestD {
			best, bestD = tip, d
		}
	}
	return best, !math.IsInf(bestD, 1)
}

// DTWDistance calculates Dynamic Time Warping distance between two paths.
// Returns infinity if either path is empty.
// The distance is normalized by the longer path length.
func DTWDistance(path1, path2 []PathPoint) float64 {
	n := len(path1)
	m := len(path2)

	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	dtw := make([][]float64, n+1)
	for i := range dtw {
		dtw[i] = make([]float64, m+1)
		for j := range dtw[i] {
			dtw[i][j] = math.Inf(1)
		}
	}
	dtw[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := pointDistance(path1[i-1], path2[j-1])
			dtw[i][j] = cost + min(dtw[i-1][j], dtw[i][j-1], dtw[i-1][j-1])
		}
	}

	return dtw[n][m] / float64(max(n, m))
}

func pointDistance(a, b PathPoint) float64 {
	return geometry.Distance(geometry.Point{X: a.X, Y: a.Y}, geometry.Point{X: b.X, Y: b.Y})
}

// normalizePath scales the path coordinates to the 0-1 range.
// Timestamps are preserved.
func normalizePath(path []PathPoint) []PathPoint {
	if path == nil {
		return nil
	}

	n := len(path)
	if n == 0 {
		return []PathPoint{}
	}
	if n == 1 {
		return []PathPoint{{X: 0, Y: 0, Timestamp: path[0].Timestamp}}
	}

	minX, maxX := path[0].X, path[0].X
	minY, maxY := path[0].Y, path[0].Y
	for _, p := range path {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY

	normalized := make([]PathPoint, n)
	for i, p := range path {
		var normX, normY float64
		if rangeX > 0 {
			normX = (p.X - minX) / rangeX
		}
		if rangeY > 0 {
			normY = (p.Y - minY) / rangeY
		}
		normalized[i] = PathPoint{X: normX, Y: normY, Timestamp: p.Timestamp}
	}
	return normalized
}
