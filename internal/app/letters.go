package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/fingerspell/internal/geometry"
	"github.com/ayusman/fingerspell/internal/letter"
	"github.com/ayusman/fingerspell/internal/monitoring"
	"github.com/ayusman/fingerspell/internal/store"
)

// LoadLetters rebuilds the trained classifiers from the store. Letters
// without a template yet are skipped.
func (a *App) LoadLetters() error {
	if a.store == nil {
		return nil
	}
	cs, err := Classifiers(a.store)
	if err != nil {
		return err
	}
	a.registry.Replace(cs)
	monitoring.Logf("Loaded %d trained letters from database", len(cs))
	return nil
}

// Classifiers builds one classifier per trained letter in st.
func Classifiers(st *store.Store) ([]letter.Classifier, error) {
	letters, err := st.Letters().List()
	if err != nil {
		return nil, err
	}

	var out []letter.Classifier
	for _, l := range letters {
		switch l.Kind {
		case store.KindStatic:
			landmarks, err := st.Letters().Landmarks(l.ID)
			if err != nil {
				monitoring.Logf("Failed to load landmarks for %s: %v", l.Name, err)
				continue
			}
			if len(landmarks) == 0 {
				continue
			}
			out = append(out, &letter.Template{
				ID:        l.ID,
				Name:      l.Name,
				Landmarks: storeLandmarksToPoints(landmarks),
				Tolerance: l.Tolerance,
			})

		case store.KindMotion:
			path, err := st.Letters().Path(l.ID)
			if err != nil {
				monitoring.Logf("Failed to load path for %s: %v", l.Name, err)
				continue
			}
			if len(path) == 0 {
				continue
			}
			out = append(out, &letter.Motion{
				ID:        l.ID,
				Name:      l.Name,
				Path:      storePathToLetter(path),
				Tolerance: l.Tolerance,
			})
		}
	}
	return out, nil
}

// TrainLetter averages the recorded samples of letter id into its
// template and saves it.
func TrainLetter(st *store.Store, id string) (*store.Letter, error) {
	l, err := st.Letters().GetByID(id)
	if err != nil {
		return nil, err
	}
	samples, err := st.Samples().Data(id)
	if err != nil {
		return nil, err
	}

	trainer := letter.NewTrainer()
	switch l.Kind {
	case store.KindStatic:
		points, err := trainer.TrainStatic(samples)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", l.Name, err)
		}
		if err := st.Letters().SetLandmarks(id, pointsToStoreLandmarks(points)); err != nil {
			return nil, err
		}
	case store.KindMotion:
		path, err := trainer.TrainMotion(samples)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", l.Name, err)
		}
		if err := st.Letters().SetPath(id, letterPathToStore(path)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("letter %s has unknown kind %q", l.Name, l.Kind)
	}

	monitoring.Logf("Trained %s from %d samples", l.Name, len(samples))
	return st.Letters().GetByID(id)
}

// Train trains letter id and reloads the registry.
func (a *App) Train(id string) (*store.Letter, error) {
	if a.store == nil {
		return nil, errors.New("no store configured")
	}
	l, err := TrainLetter(a.store, id)
	if err != nil {
		return nil, err
	}
	if err := a.LoadLetters(); err != nil {
		return nil, err
	}
	return l, nil
}

// CaptureSample records the most recent smoothed hand as a static sample
// of letter id.
func (a *App) CaptureSample(ctx context.Context, id string) error {
	if a.store == nil {
		return errors.New("no store configured")
	}
	var (
		sample letter.StaticSample
		ok     bool
	)
	err := a.do(ctx, func() error {
		sample, ok = letter.StaticSampleFrom(a.latest, a.clock.Now().UnixMilli())
		return nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return letter.ErrNoHand
	}
	data, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	return a.store.Samples().Append(id, []json.RawMessage{data})
}

func storeLandmarksToPoints(landmarks []store.Landmark) []geometry.Point {
	points := make([]geometry.Point, len(landmarks))
	for i, l := range landmarks {
		points[i] = geometry.Point{X: l.X, Y: l.Y}
	}
	return points
}

func pointsToStoreLandmarks(points []geometry.Point) []store.Landmark {
	landmarks := make([]store.Landmark, len(points))
	for i, p := range points {
		landmarks[i] = store.Landmark{X: p.X, Y: p.Y}
	}
	return landmarks
}

func storePathToLetter(path []store.PathPoint) []letter.PathPoint {
	points := make([]letter.PathPoint, len(path))
	for i, p := range path {
		points[i] = letter.PathPoint{X: p.X, Y: p.Y, Timestamp: p.TimestampMs}
	}
	return points
}

func letterPathToStore(path []letter.PathPoint) []store.PathPoint {
	points := make([]store.PathPoint, len(path))
	for i, p := range path {
		points[i] = store.PathPoint{X: p.X, Y: p.Y, TimestampMs: p.Timestamp}
	}
	return points
}
