// Package animation schedules playback of pre-authored sign clips: it walks
// a sequence of clips on a fixed tick, blends or morphs between them, and
// maps playback time to and from a scrubber proportion.
package animation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/num/quat"
)

// Clip is one pre-authored sign animation.
type Clip struct {
	Glyph     string  `json:"glyph"`     // letter shown, e.g. "a"
	Directory string  `json:"directory"` // "left" or "right"
	File      string  `json:"file"`      // e.g. "a.anim"
	Duration  float64 `json:"duration"`  // playable seconds
	BlendIn   float64 `json:"blendIn"`   // cross-fade seconds at the start

	// Start and End are the bone rotations at the first and last frame.
	Start Pose `json:"-"`
	End   Pose `json:"-"`
}

// PoseAt returns the pose t seconds into the clip, interpolated between
// the start and end poses.
func (c Clip) PoseAt(t float64) Pose {
	if c.Duration <= 0 {
		return c.End
	}
	return c.Start.Slerp(c.End, math.Max(0, math.Min(1, t/c.Duration)))
}

// Pose maps bone names to unit rotation quaternions.
type Pose map[string]quat.Number

// Bones returns the bone names in sorted order.
func (p Pose) Bones() []string {
	out := make([]string, 0, len(p))
	for b := range p {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Angle returns the summed geodesic rotation angle, in radians, between
// matching bones of p and q. Bones present in only one pose are ignored.
func (p Pose) Angle(q Pose) float64 {
	var total float64
	for bone, a := range p {
		b, ok := q[bone]
		if !ok {
			continue
		}
		total += angleBetween(a, b)
	}
	return total
}

// Slerp interpolates each bone from p toward q by t in [0,1]. Bones missing
// from q keep their rotation.
func (p Pose) Slerp(q Pose, t float64) Pose {
	out := make(Pose, len(p))
	for bone, a := range p {
		b, ok := q[bone]
		if !ok {
			out[bone] = a
			continue
		}
		out[bone] = slerp(a, b, t)
	}
	return out
}

// Array returns the pose as [w, x, y, z] per bone, the layout used in clip
// manifests and renderer commands.
func (p Pose) Array() map[string][4]float64 {
	out := make(map[string][4]float64, len(p))
	for bone, q := range p {
		out[bone] = [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
	}
	return out
}

// PoseFromArray builds a pose from [w, x, y, z] rotations, normalizing each.
func PoseFromArray(m map[string][4]float64) Pose {
	out := make(Pose, len(m))
	for bone, a := range m {
		out[bone] = normalize(quat.Number{Real: a[0], Imag: a[1], Jmag: a[2], Kmag: a[3]})
	}
	return out
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// angleBetween returns the rotation angle taking a to b, in [0, pi].
func angleBetween(a, b quat.Number) float64 {
	d := quat.Mul(quat.Conj(normalize(a)), normalize(b))
	v := math.Sqrt(d.Imag*d.Imag + d.Jmag*d.Jmag + d.Kmag*d.Kmag)
	return 2 * math.Atan2(v, math.Abs(d.Real))
}

// slerp interpolates along the shorter arc from a to b.
func slerp(a, b quat.Number, t float64) quat.Number {
	a, b = normalize(a), normalize(b)
	if dot(a, b) < 0 {
		b = quat.Scale(-1, b)
	}
	delta := quat.Mul(quat.Conj(a), b)
	return normalize(quat.Mul(a, quat.Pow(delta, quat.Number{Real: t})))
}
