// Package geometry provides the 2D point math and tolerant comparisons shared
// by the skeleton model, smoothing and letter classifiers.
package geometry

import "math"

// Epsilon is the default tolerance for threshold comparisons.
const Epsilon = 1e-5

// Point is a 2D point. Depending on context it holds normalized image
// coordinates in [0,1] or denormalized pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a frame size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Scale returns the size multiplied by k.
func (s Size) Scale(k float64) Size {
	return Size{Width: s.Width * k, Height: s.Height * k}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the arithmetic mean of two points.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Lerp returns a*(1-factor) + b*factor.
func Lerp(a, b, factor float64) float64 {
	return a*(1-factor) + b*factor
}

// LerpPoint applies Lerp componentwise.
func LerpPoint(a, b Point, factor float64) Point {
	return Point{X: Lerp(a.X, b.X, factor), Y: Lerp(a.Y, b.Y, factor)}
}

// Denormalize converts a normalized point with a bottom-left origin into
// pixel coordinates with a top-left origin: (x*width, (1-y)*height).
//
// Every distance that is compared against a pixel-space reference length
// must be measured between denormalized points. Normalized distances are
// stretched along the longer frame axis.
func Denormalize(p Point, size Size) Point {
	return Point{X: p.X * size.Width, Y: (1 - p.Y) * size.Height}
}

// IsEqual reports whether a and b differ by no more than Epsilon.
func IsEqual(a, b float64) bool {
	return IsEqualWithin(a, b, Epsilon)
}

// IsLess reports whether a is below b by more than Epsilon.
func IsLess(a, b float64) bool {
	return IsLessWithin(a, b, Epsilon)
}

// IsGreater reports whether a is above b by more than Epsilon.
func IsGreater(a, b float64) bool {
	return IsGreaterWithin(a, b, Epsilon)
}

// IsLessOrEqual is the tolerant form of a <= b.
func IsLessOrEqual(a, b float64) bool {
	return !IsGreater(a, b)
}

// IsGreaterOrEqual is the tolerant form of a >= b.
func IsGreaterOrEqual(a, b float64) bool {
	return !IsLess(a, b)
}

// IsEqualWithin reports whether |a-b| <= eps.
func IsEqualWithin(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// IsLessWithin reports whether b-a > eps.
func IsLessWithin(a, b, eps float64) bool {
	return b-a > eps
}

// IsGreaterWithin reports whether a-b > eps.
func IsGreaterWithin(a, b, eps float64) bool {
	return a-b > eps
}

// PathLength sums the distances between consecutive points.
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
