package letter

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/geometry"
)

// Trainer processes recorded samples into letter templates.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// StaticSample is a recorded pose: normalized landmarks in joint order.
type StaticSample struct {
	Kind      Kind             `json:"kind"`
	Landmarks []geometry.Point `json:"landmarks"`
	Timestamp int64            `json:"timestamp"`
}

// MotionSample is a recorded fingertip trace.
type MotionSample struct {
	Kind      Kind        `json:"kind"`
	Path      []PathPoint `json:"path"`
	Timestamp int64       `json:"timestamp"`
}

// StaticSampleFrom captures the first fully observed hand of o as a sample.
func StaticSampleFrom(o detector.Outcome, timestamp int64) (StaticSample, bool) {
	for i := range o.Hands {
		h := &o.Hands[i]
		if h.ObservedCount() < detector.NumJoints {
			continue
		}
		norm, ok := h.Normalize(o.Size)
		if !ok {
			continue
		}
		return StaticSample{
			Kind:      KindStatic,
			Landmarks: append([]geometry.Point(nil), norm[:]...),
			Timestamp: timestamp,
		}, true
	}
	return StaticSample{}, false
}

// TrainStatic averages multiple static landmark samples into a single template.
func (t *Trainer) TrainStatic(samples []json.RawMessage) ([]geometry.Point, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	var all [][]geometry.Point
	for i, raw := range samples {
		var sample StaticSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		if len(sample.Landmarks) == 0 {
			return nil, fmt.Errorf("sample %d has no landmarks", i)
		}
		all = append(all, sample.Landmarks)
	}

	numPoints := len(all[0])
	for i, landmarks := range all {
		if len(landmarks) != numPoints {
			return nil, fmt.Errorf("sample %d has %d landmarks, expected %d", i, len(landmarks), numPoints)
		}
	}

	averaged := make([]geometry.Point, numPoints)
	n := float64(len(all))
	for i := 0; i < numPoints; i++ {
		var sumX, sumY float64
		for _, landmarks := range all {
			sumX += landmarks[i].X
			sumY += landmarks[i].Y
		}
		averaged[i] = geometry.Point{X: sumX / n, Y: sumY / n}
	}
	return averaged, nil
}

// TrainMotion averages multiple traced paths into a single template path.
// Every path is resampled to the first path's length before averaging.
func (t *Trainer) TrainMotion(samples []json.RawMessage) ([]PathPoint, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	var paths [][]PathPoint
	for i, raw := range samples {
		var sample MotionSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		if len(sample.Path) < 2 {
			return nil, fmt.Errorf("sample %d has insufficient path points", i)
		}
		paths = append(paths, sample.Path)
	}

	target := len(paths[0])
	resampled := make([][]PathPoint, len(paths))
	for i, p := range paths {
		resampled[i] = resamplePath(p, target)
	}

	averaged := make([]PathPoint, target)
	n := float64(len(paths))
	for i := 0; i < target; i++ {
		var sumX, sumY float64
		for _, p := range resampled {
			sumX += p[i].X
			sumY += p[i].Y
		}
		averaged[i] = PathPoint{
			X:         sumX / n,
			Y:         sumY / n,
			Timestamp: resampled[0][i].Timestamp,
		}
	}
	return averaged, nil
}

// resamplePath resamples a path to exactly targetLength points using
// linear interpolation.
func resamplePath(path []PathPoint, targetLength int) []PathPoint {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 || targetLength <= 1 {
		return []PathPoint{path[0]}
	}

	result := make([]PathPoint, targetLength)
	for i := 0; i < targetLength; i++ {
		pos := float64(i) / float64(targetLength-1) * float64(len(path)-1)

		idx := int(pos)
		if idx >= len(path)-1 {
			idx = len(path) - 2
		}
		frac := pos - float64(idx)

		p1, p2 := path[idx], path[idx+1]
		result[i] = PathPoint{
			X:         geometry.Lerp(p1.X, p2.X, frac),
			Y:         geometry.Lerp(p1.Y, p2.Y, frac),
			Timestamp: p1.Timestamp + int64(frac*float64(p2.Timestamp-p1.Timestamp)),
		}
	}
	return result
}
