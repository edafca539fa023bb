// Package detector provides the hand skeleton model and the detector adapter
// interface that turns video frames into per-frame detection outcomes.
package detector

import (
	"fmt"

	"github.com/ayusman/fingerspell/internal/geometry"
)

// Joint identifies one of the 21 hand joints. The numbering follows the
// MediaPipe hand landmark convention, which is also the stable order of
// HandSkeleton.AllPositions: wrist, then each finger from root to tip.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
type Joint int

const (
	Wrist Joint = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	PinkyMCP
	PinkyPIP
	PinkyDIP
	PinkyTip
)

// NumJoints is the fixed number of joints in a hand skeleton.
const NumJoints = 21

// JointsPerFinger is the length of each finger chain.
const JointsPerFinger = 4

var jointNames = [NumJoints]string{
	"wrist",
	"thumbCMC", "thumbMCP", "thumbIP", "thumbTip",
	"indexMCP", "indexPIP", "indexDIP", "indexTip",
	"middleMCP", "middlePIP", "middleDIP", "middleTip",
	"ringMCP", "ringPIP", "ringDIP", "ringTip",
	"pinkyMCP", "pinkyPIP", "pinkyDIP", "pinkyTip",
}

// String returns the joint's anatomical name.
func (j Joint) String() string {
	if j < 0 || int(j) >= NumJoints {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// Finger identifies one of the five finger chains.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// NumFingers is the number of finger chains.
const NumFingers = 5

// Joint returns the n-th joint (0 = root, 3 = tip) of the finger chain.
// It panics on an unknown finger or position: the topology is fixed, so an
// out-of-range lookup is a programming error.
func (f Finger) Joint(n int) Joint {
	if f < Thumb || f > Pinky || n < 0 || n >= JointsPerFinger {
		panic(fmt.Sprintf("detector: no joint %d on finger %d", n, int(f)))
	}
	return Joint(1 + int(f)*JointsPerFinger + n)
}

// Tip returns the fingertip joint.
func (f Finger) Tip() Joint {
	return f.Joint(JointsPerFinger - 1)
}

// Root returns the finger's root joint.
func (f Finger) Root() Joint {
	return f.Joint(0)
}

// JointPosition is one named joint with an optional observation. Position
// and Confidence are only meaningful when Observed is true; the detector
// adapter sets all three together.
type JointPosition struct {
	Name       Joint          `json:"name"`
	Position   geometry.Point `json:"position"`
	Confidence float64        `json:"confidence"`
	Observed   bool           `json:"observed"`
}

// Point returns the joint's normalized position and whether it was observed.
func (p JointPosition) Point() (geometry.Point, bool) {
	return p.Position, p.Observed
}

// HandSkeleton is a fixed 21-joint hand. Joints[i].Name == Joint(i) always
// holds, which lets classifiers index joints directly.
type HandSkeleton struct {
	Joints     [NumJoints]JointPosition `json:"joints"`
	Handedness string                   `json:"handedness,omitempty"` // "Left" or "Right" when known
	Score      float64                  `json:"score"`
}

// NewHandSkeleton returns a skeleton with every joint named and unobserved.
func NewHandSkeleton() HandSkeleton {
	var h HandSkeleton
	for i := range h.Joints {
		h.Joints[i].Name = Joint(i)
	}
	return h
}

// Set records an observation for a joint.
func (h *HandSkeleton) Set(j Joint, p geometry.Point, confidence float64) {
	h.Joints[j] = JointPosition{
		Name:       j,
		Position:   p,
		Confidence: confidence,
		Observed:   true,
	}
}

// Clear removes the observation for a joint.
func (h *HandSkeleton) Clear(j Joint) {
	h.Joints[j] = JointPosition{Name: j}
}

// Position returns the normalized position of a joint.
func (h *HandSkeleton) Position(j Joint) (geometry.Point, bool) {
	return h.Joints[j].Point()
}

// Pixel returns the denormalized position of a joint for the given frame.
func (h *HandSkeleton) Pixel(j Joint, size geometry.Size) (geometry.Point, bool) {
	p, ok := h.Position(j)
	if !ok {
		return geometry.Point{}, false
	}
	return geometry.Denormalize(p, size), true
}

// Finger returns the chain for a finger, ordered root to tip.
func (h *HandSkeleton) Finger(f Finger) [JointsPerFinger]JointPosition {
	var chain [JointsPerFinger]JointPosition
	for n := 0; n < JointsPerFinger; n++ {
		chain[n] = h.Joints[f.Joint(n)]
	}
	return chain
}

// AllPositions returns every joint in the stable order.
func (h *HandSkeleton) AllPositions() []JointPosition {
	all := make([]JointPosition, NumJoints)
	copy(all, h.Joints[:])
	return all
}

// ObservedCount returns the number of observed joints.
func (h *HandSkeleton) ObservedCount() int {
	n := 0
	for _, jp := range h.Joints {
		if jp.Observed {
			n++
		}
	}
	return n
}

// PalmLength returns the wrist to pinky-root distance in pixels.
func (h *HandSkeleton) PalmLength(size geometry.Size) (float64, bool) {
	wrist, ok := h.Pixel(Wrist, size)
	if !ok {
		return 0, false
	}
	pinky, ok := h.Pixel(PinkyMCP, size)
	if !ok {
		return 0, false
	}
	return geometry.Distance(wrist, pinky), true
}

// PalmToTipLength returns the pixel path length from the wrist through the
// middle finger chain to its tip. Unobserved intermediate joints are skipped;
// the wrist and middle tip are required.
func (h *HandSkeleton) PalmToTipLength(size geometry.Size) (float64, bool) {
	path := make([]geometry.Point, 0, 1+JointsPerFinger)
	wrist, ok := h.Pixel(Wrist, size)
	if !ok {
		return 0, false
	}
	path = append(path, wrist)
	for n := 0; n < JointsPerFinger-1; n++ {
		if p, ok := h.Pixel(Middle.Joint(n), size); ok {
			path = append(path, p)
		}
	}
	tip, ok := h.Pixel(MiddleTip, size)
	if !ok {
		return 0, false
	}
	path = append(path, tip)
	return geometry.PathLength(path), true
}

// Anchor returns the pixel position used to match this hand across frames:
// the wrist when observed, otherwise the centroid of observed joints.
func (h *HandSkeleton) Anchor(size geometry.Size) (geometry.Point, bool) {
	if p, ok := h.Pixel(Wrist, size); ok {
		return p, true
	}
	var sum geometry.Point
	n := 0
	for j := range h.Joints {
		if p, ok := h.Pixel(Joint(j), size); ok {
			sum.X += p.X
			sum.Y += p.Y
			n++
		}
	}
	if n == 0 {
		return geometry.Point{}, false
	}
	return geometry.Point{X: sum.X / float64(n), Y: sum.Y / float64(n)}, true
}

// Normalize returns the joints translated so the wrist is at the origin and
// scaled so the palm length is 1.0, all in pixel space. The second result is
// false when the wrist or palm length is unavailable. Unobserved joints are
// reported as the origin.
func (h *HandSkeleton) Normalize(size geometry.Size) ([NumJoints]geometry.Point, bool) {
	var out [NumJoints]geometry.Point

	wrist, ok := h.Pixel(Wrist, size)
	if !ok {
		return out, false
	}
	scale, ok := h.PalmLength(size)
	if !ok || scale < 1e-10 {
		return out, false
	}

	for j := range h.Joints {
		p, ok := h.Pixel(Joint(j), size)
		if !ok {
			continue
		}
		out[j] = geometry.Point{
			X: (p.X - wrist.X) / scale,
			Y: (p.Y - wrist.Y) / scale,
		}
	}
	return out, true
}
