package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingerspell/internal/geometry"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandSkeleton
	err   error
	calls int
	block chan struct{}
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandSkeleton) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Block makes every Detect call wait until release is called. Calls still
// count while they wait.
func (m *MockDetector) Block() (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.block = ch
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.block == ch {
				m.block = nil
			}
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandSkeleton, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		<-block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.hands == nil {
		return nil, nil
	}
	out := make([]HandSkeleton, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FixtureSize is the frame size the preset outcomes are authored for.
var FixtureSize = geometry.Size{Width: 1000, Height: 1000}

// HandFromPixels builds a fully observed skeleton from pixel coordinates
// (top-left origin) on a frame of the given size.
func HandFromPixels(size geometry.Size, pixels [NumJoints]geometry.Point) HandSkeleton {
	h := NewHandSkeleton()
	h.Score = 0.95
	for j, p := range pixels {
		h.Set(Joint(j), geometry.Point{
			X: p.X / size.Width,
			Y: 1 - p.Y/size.Height,
		}, 0.9)
	}
	return h
}

// openHand is a right hand with the wrist at the origin, fingers pointing up
// (negative y) and a palm length of 100 pixels.
var openHand = [NumJoints]geometry.Point{
	Wrist:     {X: 0, Y: 0},
	ThumbCMC:  {X: 30, Y: -20},
	ThumbMCP:  {X: 50, Y: -45},
	ThumbIP:   {X: 65, Y: -70},
	ThumbTip:  {X: 75, Y: -95},
	IndexMCP:  {X: 25, Y: -90},
	IndexPIP:  {X: 28, Y: -130},
	IndexDIP:  {X: 30, Y: -155},
	IndexTip:  {X: 32, Y: -180},
	MiddleMCP: {X: 0, Y: -95},
	MiddlePIP: {X: 0, Y: -140},
	MiddleDIP: {X: 0, Y: -168},
	MiddleTip: {X: 0, Y: -195},
	RingMCP:   {X: -14, Y: -93},
	RingPIP:   {X: -18, Y: -130},
	RingDIP:   {X: -20, Y: -155},
	RingTip:   {X: -22, Y: -175},
	PinkyMCP:  {X: -28, Y: -96},
	PinkyPIP:  {X: -32, Y: -125},
	PinkyDIP:  {X: -34, Y: -145},
	PinkyTip:  {X: -36, Y: -162},
}

// placeHand translates openHand to wrist, mirroring it horizontally when
// mirror is set (a left hand).
func placeHand(wrist geometry.Point, mirror bool) [NumJoints]geometry.Point {
	var out [NumJoints]geometry.Point
	for j, p := range openHand {
		x := p.X
		if mirror {
			x = -x
		}
		out[j] = geometry.Point{X: wrist.X + x, Y: wrist.Y + p.Y}
	}
	return out
}

// OpenPalmOutcome returns a single open right hand.
func OpenPalmOutcome() Outcome {
	hand := HandFromPixels(FixtureSize, placeHand(geometry.Point{X: 500, Y: 700}, false))
	hand.Handedness = "Right"
	return Outcome{Hands: []HandSkeleton{hand}, Size: FixtureSize}
}

// LetterAOutcome returns two hands where the first hand's index tip rests on
// the second hand's thumb tip and every other fingertip pair is apart.
func LetterAOutcome() Outcome {
	first := placeHand(geometry.Point{X: 300, Y: 700}, false)
	second := placeHand(geometry.Point{X: 700, Y: 700}, true)

	// Point the first index finger across to the second thumb tip (625, 605).
	first[IndexPIP] = geometry.Point{X: 400, Y: 600}
	first[IndexDIP] = geometry.Point{X: 500, Y: 600}
	first[IndexTip] = geometry.Point{X: 600, Y: 600}

	h1 := HandFromPixels(FixtureSize, first)
	h1.Handedness = "Right"
	h2 := HandFromPixels(FixtureSize, second)
	h2.Handedness = "Left"
	return Outcome{Hands: []HandSkeleton{h1, h2}, Size: FixtureSize}
}

// LetterBOutcome returns two hands with index tips touching and each hand's
// thumb tip resting near its own index tip.
func LetterBOutcome() Outcome {
	first := placeHand(geometry.Point{X: 380, Y: 700}, false)
	second := placeHand(geometry.Point{X: 620, Y: 700}, true)

	first[IndexPIP] = geometry.Point{X: 430, Y: 620}
	first[IndexDIP] = geometry.Point{X: 460, Y: 590}
	first[IndexTip] = geometry.Point{X: 490, Y: 560}
	first[ThumbIP] = geometry.Point{X: 450, Y: 620}
	first[ThumbTip] = geometry.Point{X: 470, Y: 580}

	second[IndexPIP] = geometry.Point{X: 570, Y: 620}
	second[IndexDIP] = geometry.Point{X: 540, Y: 590}
	second[IndexTip] = geometry.Point{X: 510, Y: 560}
	second[ThumbIP] = geometry.Point{X: 550, Y: 620}
	second[ThumbTip] = geometry.Point{X: 530, Y: 580}

	h1 := HandFromPixels(FixtureSize, first)
	h1.Handedness = "Right"
	h2 := HandFromPixels(FixtureSize, second)
	h2.Handedness = "Left"
	return Outcome{Hands: []HandSkeleton{h1, h2}, Size: FixtureSize}
}

// LetterCOutcome returns one hand whose index and thumb chains lie on a
// circle of radius 80 pixels centered at (500, 500), opening to the left.
func LetterCOutcome() Outcome {
	pts := placeHand(geometry.Point{X: 640, Y: 580}, false)

	onCircle := func(deg float64) geometry.Point {
		rad := deg * math.Pi / 180
		return geometry.Point{X: 500 + 80*math.Cos(rad), Y: 500 - 80*math.Sin(rad)}
	}
	pts[IndexMCP] = onCircle(20)
	pts[IndexPIP] = onCircle(60)
	pts[IndexDIP] = onCircle(120)
	pts[IndexTip] = onCircle(160)
	pts[ThumbMCP] = onCircle(300)
	pts[ThumbIP] = onCircle(240)
	pts[ThumbTip] = onCircle(200)

	hand := HandFromPixels(FixtureSize, pts)
	hand.Handedness = "Right"
	return Outcome{Hands: []HandSkeleton{hand}, Size: FixtureSize}
}
