package letter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/fingerspell/internal/detector"
)

// tracedWindow moves the open palm through the given pixel offsets, one
// frame per offset.
func tracedWindow(offsets [][2]float64) []detector.Outcome {
	base := detector.OpenPalmOutcome()
	window := make([]detector.Outcome, len(offsets))
	for i, off := range offsets {
		o := base.Clone()
		for j := range o.Hands[0].Joints {
			o.Hands[0].Joints[j].Position.X += off[0] / o.Size.Width
			o.Hands[0].Joints[j].Position.Y -= off[1] / o.Size.Height
		}
		o.Seq = uint64(i + 1)
		window[i] = o
	}
	return window
}

// zOffsets traces a Z: across, diagonally back, across again.
var zOffsets = [][2]float64{
	{0, 0}, {50, 0}, {100, 0}, {150, 0},
	{100, 50}, {50, 100}, {0, 150},
	{50, 150}, {100, 150}, {150, 150},
}

func TestPathFromWindow(t *testing.T) {
	path := PathFromWindow(tracedWindow(zOffsets))

	require.Len(t, path, len(zOffsets))
	// Palm length is 100 pixels, so offsets are divided by 100.
	assert.InDelta(t, 0.32, path[0].X, 1e-9)
	assert.InDelta(t, -1.8, path[0].Y, 1e-9)
	assert.InDelta(t, 1.82, path[3].X, 1e-9)
	assert.InDelta(t, -0.3, path[9].Y, 1e-9)
	assert.Equal(t, int64(1), path[0].Timestamp)

	t.Run("frames without a hand are skipped", func(t *testing.T) {
		w := tracedWindow(zOffsets)
		w[2].Hands = nil
		w[5].Hands[0].Clear(detector.IndexTip)
		assert.Len(t, PathFromWindow(w), len(zOffsets)-2)
	})

	t.Run("follows the traced hand when hand order swaps", func(t *testing.T) {
		want := PathFromWindow(tracedWindow(zOffsets))

		w := tracedWindow(zOffsets)
		still := detector.OpenPalmOutcome().Hands[0]
		for j := range still.Joints {
			still.Joints[j].Position.X -= 0.4
		}
		for i := range w {
			if i%2 == 1 {
				w[i].Hands = []detector.HandSkeleton{still, w[i].Hands[0]}
			} else {
				w[i].Hands = append(w[i].Hands, still)
			}
		}

		got := PathFromWindow(w)
		require.Len(t, got, len(want))
		for i := range want {
			assert.InDelta(t, want[i].X, got[i].X, 1e-9, "point %d", i)
			assert.InDelta(t, want[i].Y, got[i].Y, 1e-9, "point %d", i)
		}
	})
}

func TestMotion_ClassifyWindow(t *testing.T) {
	z := &Motion{
		ID:        "z",
		Name:      "Z",
		Path:      PathFromWindow(tracedWindow(zOffsets)),
		Tolerance: 0.15,
	}

	t.Run("same trace", func(t *testing.T) {
		assert.Equal(t, Correct, z.ClassifyWindow(tracedWindow(zOffsets)))
	})

	t.Run("same trace drawn larger and slower", func(t *testing.T) {
		var slow [][2]float64
		for i := 0; i < len(zOffsets)-1; i++ {
			a, b := zOffsets[i], zOffsets[i+1]
			slow = append(slow,
				[2]float64{2 * a[0], 2 * a[1]},
				[2]float64{a[0] + b[0], a[1] + b[1]})
		}
		last := zOffsets[len(zOffsets)-1]
		slow = append(slow, [2]float64{2 * last[0], 2 * last[1]})
		assert.Equal(t, Correct, z.ClassifyWindow(tracedWindow(slow)))
	})

	t.Run("hand held still", func(t *testing.T) {
		still := make([][2]float64, 10)
		assert.Equal(t, Incorrect, z.ClassifyWindow(tracedWindow(still)))
	})

	t.Run("too few frames", func(t *testing.T) {
		assert.Equal(t, Incorrect, z.ClassifyWindow(tracedWindow(zOffsets[:MinPathPoints-1])))
	})

	t.Run("single frame is never enough", func(t *testing.T) {
		assert.Equal(t, Incorrect, z.Classify(tracedWindow(zOffsets)[0]))
	})

	var _ WindowClassifier = z
}

func TestDTW_IdenticalPaths(t *testing.T) {
	path := []PathPoint{
		{X: 0, Y: 0, Timestamp: 0},
		{X: 1, Y: 1, Timestamp: 100},
		{X: 2, Y: 2, Timestamp: 200},
	}

	if d := DTWDistance(path, path); d != 0 {
		t.Errorf("expected distance 0 for identical paths, got %f", d)
	}
}

func TestDTW_DifferentPaths(t *testing.T) {
	path1 := []PathPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	path2 := []PathPoint{{X: 0, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 2}}

	if d := DTWDistance(path1, path2); d <= 0 {
		t.Errorf("expected distance > 0 for different paths, got %f", d)
	}
}

func TestDTW_SpeedInvariant(t *testing.T) {
	fast := []PathPoint{
		{X: 0, Y: 0, Timestamp: 0},
		{X: 1, Y: 0, Timestamp: 50},
		{X: 2, Y: 0, Timestamp: 100},
	}

	var slow []PathPoint
	for i := 0; i <= 8; i++ {
		slow = append(slow, PathPoint{X: float64(i) * 0.25, Timestamp: int64(i) * 50})
	}

	if d := DTWDistance(fast, slow); d > 0.5 {
		t.Errorf("expected low distance for speed-invariant paths, got %f", d)
	}
}

func TestDTW_EmptyPaths(t *testing.T) {
	path := []PathPoint{{X: 0, Y: 0}, {X: 1, Y: 1}}

	for name, pair := range map[string][2][]PathPoint{
		"both empty":   {nil, nil},
		"first empty":  {nil, path},
		"second empty": {path, {}},
	} {
		if d := DTWDistance(pair[0], pair[1]); !math.IsInf(d, 1) {
			t.Errorf("%s: expected infinity, got %f", name, d)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name  string
		input []PathPoint
		want  []PathPoint
	}{
		{"nil", nil, nil},
		{"empty", []PathPoint{}, []PathPoint{}},
		{"single point", []PathPoint{{X: 5, Y: 7, Timestamp: 3}}, []PathPoint{{X: 0, Y: 0, Timestamp: 3}}},
		{
			"scales to unit square",
			[]PathPoint{{X: 2, Y: 10}, {X: 4, Y: 20}, {X: 6, Y: 30}},
			[]PathPoint{{X: 0, Y: 0}, {X: 0.5, Y: 0.5}, {X: 1, Y: 1}},
		},
		{
			"flat axis stays zero",
			[]PathPoint{{X: 1, Y: 5}, {X: 3, Y: 5}},
			[]PathPoint{{X: 0, Y: 0}, {X: 1, Y: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePath(tt.input))
		})
	}
}
