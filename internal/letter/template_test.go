package letter

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
)

func openPalmTemplate(t *testing.T) *Template {
	t.Helper()
	sample, ok := StaticSampleFrom(detector.OpenPalmOutcome(), 1)
	require.True(t, ok)
	return &Template{ID: "open", Name: "O", Landmarks: sample.Landmarks, Tolerance: 0.5}
}

func TestTemplate_Classify(t *testing.T) {
	tmpl := openPalmTemplate(t)

	t.Run("matching pose", func(t *testing.T) {
		assert.Equal(t, Correct, tmpl.Classify(detector.OpenPalmOutcome()))
	})

	t.Run("same pose at another scale", func(t *testing.T) {
		o := detector.OpenPalmOutcome()
		o.Size = o.Size.Scale(2.5)
		d, ok := tmpl.Distance(o)
		require.True(t, ok)
		assert.InDelta(t, 0, d, 1e-9)
	})

	t.Run("different pose", func(t *testing.T) {
		assert.Equal(t, Incorrect, tmpl.Classify(detector.LetterCOutcome()))
	})

	t.Run("any hand may match", func(t *testing.T) {
		o := detector.LetterCOutcome()
		o.Hands = append(o.Hands, detector.OpenPalmOutcome().Hands[0])
		assert.Equal(t, Correct, tmpl.Classify(o))
	})

	t.Run("partially observed hand is ignored", func(t *testing.T) {
		o := detector.OpenPalmOutcome()
		o.Hands[0].Clear(detector.PinkyTip)
		_, ok := tmpl.Distance(o)
		assert.False(t, ok)
		assert.Equal(t, Incorrect, tmpl.Classify(o))
	})

	t.Run("empty template never matches", func(t *testing.T) {
		empty := &Template{Name: "E", Tolerance: 100}
		assert.Equal(t, Incorrect, empty.Classify(detector.OpenPalmOutcome()))
	})
}

func TestMatchTemplates(t *testing.T) {
	open := openPalmTemplate(t)
	loose := &Template{ID: "loose", Name: "L", Landmarks: open.Landmarks, Tolerance: 100}
	shifted := make([]geometry.Point, len(open.Landmarks))
	for i, p := range open.Landmarks {
		shifted[i] = geometry.Point{X: p.X + 0.01, Y: p.Y}
	}
	near := &Template{ID: "near", Name: "N", Landmarks: shifted, Tolerance: 1}

	matches := MatchTemplates(detector.OpenPalmOutcome(), []*Template{near, loose})

	require.Len(t, matches, 2)
	assert.Equal(t, "loose", matches[0].Template.ID)
	assert.Equal(t, 1.0, matches[0].Score)
	assert.Equal(t, "near", matches[1].Template.ID)
	assert.InDelta(t, 0.21, matches[1].Distance, 1e-9)
}

func TestLandmarkDistance(t *testing.T) {
	a := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	b := []geometry.Point{{X: 3, Y: 4}}
	assert.InDelta(t, 5.0, landmarkDistance(a, b), 1e-12)
	assert.Equal(t, 0.0, landmarkDistance(nil, b))
}

func TestTrainer_TrainStatic(t *testing.T) {
	trainer := NewTrainer()

	samples := []json.RawMessage{
		json.RawMessage(`{"kind": "static", "landmarks": [{"x": 0.5, "y": 0.5}, {"x": 0.1, "y": 0.1}], "timestamp": 1000}`),
		json.RawMessage(`{"kind": "static", "landmarks": [{"x": 0.6, "y": 0.4}, {"x": 0.3, "y": 0.3}], "timestamp": 2000}`),
	}

	result, err := trainer.TrainStatic(samples)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.InDelta(t, 0.55, result[0].X, 1e-9)
	assert.InDelta(t, 0.45, result[0].Y, 1e-9)
	assert.InDelta(t, 0.2, result[1].X, 1e-9)
	assert.InDelta(t, 0.2, result[1].Y, 1e-9)
}

func TestTrainer_TrainStatic_Errors(t *testing.T) {
	trainer := NewTrainer()

	tests := []struct {
		name    string
		samples []json.RawMessage
	}{
		{"empty", []json.RawMessage{}},
		{"invalid json", []json.RawMessage{json.RawMessage(`{invalid json}`)}},
		{"no landmarks", []json.RawMessage{json.RawMessage(`{"kind": "static", "landmarks": []}`)}},
		{"mismatched counts", []json.RawMessage{
			json.RawMessage(`{"landmarks": [{"x": 0.1, "y": 0.1}]}`),
			json.RawMessage(`{"landmarks": [{"x": 0.1, "y": 0.1}, {"x": 0.2, "y": 0.2}]}`),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := trainer.TrainStatic(tt.samples)
			assert.Error(t, err)
		})
	}
}

func TestTrainer_RoundTripFromOutcome(t *testing.T) {
	sample, ok := StaticSampleFrom(detector.OpenPalmOutcome(), 7)
	require.True(t, ok)
	raw, err := json.Marshal(sample)
	require.NoError(t, err)

	landmarks, err := NewTrainer().TrainStatic([]json.RawMessage{raw, raw})
	require.NoError(t, err)

	tmpl := &Template{Name: "O", Landmarks: landmarks, Tolerance: 0.1}
	assert.Equal(t, Correct, tmpl.Classify(detector.OpenPalmOutcome()))
}

func TestStaticSampleFrom_NoFullHand(t *testing.T) {
	o := detector.OpenPalmOutcome()
	o.Hands[0].Clear(detector.ThumbTip)
	_, ok := StaticSampleFrom(o, 0)
	assert.False(t, ok)
}

func TestTrainer_TrainMotion(t *testing.T) {
	trainer := NewTrainer()

	samples := []json.RawMessage{
		json.RawMessage(`{"kind": "motion", "path": [{"x": 0, "y": 0, "timestamp": 0}, {"x": 1, "y": 0, "timestamp": 100}, {"x": 2, "y": 0, "timestamp": 200}]}`),
		json.RawMessage(`{"kind": "motion", "path": [{"x": 0, "y": 1, "timestamp": 0}, {"x": 2, "y": 1, "timestamp": 200}]}`),
	}

	result, err := trainer.TrainMotion(samples)
	require.NoError(t, err)
	require.Len(t, result, 3)

	// Second path is resampled to (0,1), (1,1), (2,1).
	assert.InDelta(t, 1.0, result[1].X, 1e-9)
	assert.InDelta(t, 0.5, result[1].Y, 1e-9)
	assert.Equal(t, int64(100), result[1].Timestamp)
}

func TestTrainer_TrainMotion_Errors(t *testing.T) {
	trainer := NewTrainer()

	_, err := trainer.TrainMotion(nil)
	assert.Error(t, err)

	_, err = trainer.TrainMotion([]json.RawMessage{json.RawMessage(`{"path": [{"x": 0, "y": 0}]}`)})
	assert.Error(t, err)

	_, err = trainer.TrainMotion([]json.RawMessage{json.RawMessage(`nope`)})
	assert.Error(t, err)
}

func TestResamplePath(t *testing.T) {
	path := []PathPoint{{X: 0, Y: 0, Timestamp: 0}, {X: 10, Y: 0, Timestamp: 100}}

	out := resamplePath(path, 5)

	require.Len(t, out, 5)
	for i, p := range out {
		assert.InDelta(t, float64(i)*2.5, p.X, 1e-9)
	}
	assert.Equal(t, int64(50), out[2].Timestamp)

	assert.Nil(t, resamplePath(nil, 3))
	assert.Len(t, resamplePath(path[:1], 3), 1)
	assert.False(t, math.IsNaN(resamplePath(path, 2)[1].X))
}
