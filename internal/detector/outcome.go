package detector

import "github.com/ayusman/fingerspell/internal/geometry"

// MaxHands is the most hands a single outcome carries.
const MaxHands = 2

// Outcome is the detection result for one frame: zero to two hands plus the
// frame's pixel size. Hand order is whatever the detector produced and is
// not stable across frames.
type Outcome struct {
	Hands []HandSkeleton `json:"hands"`
	Size  geometry.Size  `json:"size"`

	// Seq is the capture sequence number of the frame. Zero when unknown.
	Seq uint64 `json:"seq,omitempty"`
}

// Empty reports whether no hands were detected.
func (o Outcome) Empty() bool {
	return len(o.Hands) == 0
}

// Pixel returns the denormalized position of joint j on hand i.
func (o Outcome) Pixel(i int, j Joint) (geometry.Point, bool) {
	if i < 0 || i >= len(o.Hands) {
		return geometry.Point{}, false
	}
	return o.Hands[i].Pixel(j, o.Size)
}

// AveragePalmLength returns the mean pixel palm length over the hands that
// have one. The second result is false when no hand has a positive palm
// length.
func (o Outcome) AveragePalmLength() (float64, bool) {
	var sum float64
	n := 0
	for i := range o.Hands {
		l, ok := o.Hands[i].PalmLength(o.Size)
		if !ok || l <= 0 {
			continue
		}
		sum += l
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Clone returns a deep copy of the outcome.
func (o Outcome) Clone() Outcome {
	c := o
	if o.Hands != nil {
		c.Hands = make([]HandSkeleton, len(o.Hands))
		copy(c.Hands, o.Hands)
	}
	return c
}

// Swapped returns a copy with the hand order reversed.
func (o Outcome) Swapped() Outcome {
	c := o.Clone()
	for i, j := 0, len(c.Hands)-1; i < j; i, j = i+1, j-1 {
		c.Hands[i], c.Hands[j] = c.Hands[j], c.Hands[i]
	}
	return c
}
