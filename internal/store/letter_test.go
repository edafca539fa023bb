package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func createLetter(t *testing.T, s *Store, id, name string, kind LetterKind) *Letter {
	t.Helper()
	l := &Letter{ID: id, Name: name, Kind: kind, Tolerance: 0.15}
	if err := s.Letters().Create(l); err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return l
}

func TestLetterRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Letters()

	l := createLetter(t, s, "id-e", "E", KindStatic)
	if l.CreatedAt.IsZero() || l.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID("id-e")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "E" || got.Kind != KindStatic || got.Tolerance != 0.15 {
		t.Errorf("GetByID() = %+v", got)
	}

	if got, err := repo.GetByName("e"); err != nil || got.ID != "id-e" {
		t.Errorf("GetByName(\"e\") = %v, %v; want id-e", got, err)
	}

	if err := repo.Create(&Letter{ID: "other", Name: "E", Kind: KindStatic}); err == nil {
		t.Error("duplicate name should fail")
	}
	if err := repo.Create(&Letter{ID: "bad", Name: "Q", Kind: "wobbly"}); err == nil {
		t.Error("unknown kind should fail the check constraint")
	}

	got.Tolerance = 0.3
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if again, _ := repo.GetByID("id-e"); again.Tolerance != 0.3 {
		t.Errorf("Tolerance after update = %v, want 0.3", again.Tolerance)
	}

	if err := repo.Update(&Letter{ID: "missing", Name: "X", Kind: KindStatic}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete("id-e"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID("id-e"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("id-e"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestLetterRepository_ListOrdersByName(t *testing.T) {
	s := newTestStore(t)
	createLetter(t, s, "3", "Z", KindMotion)
	createLetter(t, s, "1", "E", KindStatic)
	createLetter(t, s, "2", "J", KindMotion)

	letters, err := s.Letters().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var names []string
	for _, l := range letters {
		names = append(names, l.Name)
	}
	if diff := cmp.Diff([]string{"E", "J", "Z"}, names); diff != "" {
		t.Errorf("List() names mismatch (-want +got):\n%s", diff)
	}
}

func TestLetterRepository_Templates(t *testing.T) {
	s := newTestStore(t)
	repo := s.Letters()
	createLetter(t, s, "e", "E", KindStatic)
	createLetter(t, s, "j", "J", KindMotion)

	landmarks := []Landmark{{0, 0}, {0.5, 1}, {1, 2}}
	if err := repo.SetLandmarks("e", landmarks); err != nil {
		t.Fatalf("SetLandmarks() error = %v", err)
	}
	// Replacing drops the previous template.
	landmarks = landmarks[:2]
	if err := repo.SetLandmarks("e", landmarks); err != nil {
		t.Fatalf("SetLandmarks() error = %v", err)
	}
	got, err := repo.Landmarks("e")
	if err != nil {
		t.Fatalf("Landmarks() error = %v", err)
	}
	if diff := cmp.Diff(landmarks, got); diff != "" {
		t.Errorf("Landmarks() mismatch (-want +got):\n%s", diff)
	}

	path := []PathPoint{{0, 0, 0}, {0.1, -0.2, 33}, {0.2, -0.5, 66}}
	if err := repo.SetPath("j", path); err != nil {
		t.Fatalf("SetPath() error = %v", err)
	}
	gotPath, err := repo.Path("j")
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if diff := cmp.Diff(path, gotPath); diff != "" {
		t.Errorf("Path() mismatch (-want +got):\n%s", diff)
	}

	if err := repo.SetPath("missing", path); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPath(missing) error = %v, want ErrNotFound", err)
	}

	// Deleting the letter cascades to its templates.
	if err := repo.Delete("e"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := repo.Landmarks("e"); len(got) != 0 {
		t.Errorf("landmarks should be deleted with the letter, got %d", len(got))
	}
}

func TestSampleRepository(t *testing.T) {
	s := newTestStore(t)
	createLetter(t, s, "e", "E", KindStatic)
	repo := s.Samples()

	first := []json.RawMessage{json.RawMessage(`{"n":1}`), json.RawMessage(`{"n":2}`)}
	if err := repo.Append("e", first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := repo.Append("e", []json.RawMessage{json.RawMessage(`{"n":3}`)}); err != nil {
		t.Fatalf("second Append() error = %v", err)
	}

	samples, err := repo.List("e")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("List() returned %d samples, want 3", len(samples))
	}
	for i, sm := range samples {
		if sm.SampleIndex != i || sm.LetterID != "e" {
			t.Errorf("sample %d = %+v", i, sm)
		}
	}

	data, err := repo.Data("e")
	if err != nil || string(data[2]) != `{"n":3}` {
		t.Errorf("Data() = %s, %v", data, err)
	}

	if l, _ := s.Letters().GetByID("e"); l.Samples != 3 {
		t.Errorf("letter sample count = %d, want 3", l.Samples)
	}

	if err := repo.Append("missing", first); !errors.Is(err, ErrNotFound) {
		t.Errorf("Append(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Clear("e"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if samples, _ := repo.List("e"); len(samples) != 0 {
		t.Errorf("List() after Clear returned %d samples", len(samples))
	}
	if l, _ := s.Letters().GetByID("e"); l.Samples != 0 {
		t.Errorf("letter sample count after Clear = %d, want 0", l.Samples)
	}
	if err := repo.Clear("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Clear(missing) error = %v, want ErrNotFound", err)
	}
}
