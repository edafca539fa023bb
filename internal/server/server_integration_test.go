package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/fingerspell/internal/app"
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/letter"
	"github.com/ayusman/fingerspell/internal/store"
)

// storeTrainer trains against the store without a running pipeline.
type storeTrainer struct {
	*fakeController
	store  *store.Store
	loaded int
}

func (s *storeTrainer) Train(id string) (*store.Letter, error) { return app.TrainLetter(s.store, id) }
func (s *storeTrainer) LoadLetters() error                     { s.loaded++; return nil }

func TestAPI_LetterWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	trainer := &storeTrainer{fakeController: &fakeController{}, store: s}
	ts := httptest.NewServer(New(Config{Store: s, App: trainer}))
	defer ts.Close()
	client := ts.Client()

	post := func(path, body string) *http.Response {
		t.Helper()
		resp, err := client.Post(ts.URL+path, "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("POST %s error = %v", path, err)
		}
		return resp
	}

	// 1. Create a letter
	resp := post("/api/letters", `{"name": "e", "kind": "static", "tolerance": 0.4}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/letters status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.Name != "E" {
		t.Errorf("created name = %s, want E", created.Name)
	}

	// 2. Duplicate names conflict
	resp = post("/api/letters", `{"name": "E"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	// 3. Training without samples fails
	resp = post("/api/letters/"+created.ID+"/train", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("train without samples status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	// 4. Upload samples
	sample, _ := letter.StaticSampleFrom(detector.OpenPalmOutcome(), 1)
	data, _ := json.Marshal(sample)
	resp = post("/api/letters/"+created.ID+"/samples", fmt.Sprintf(`{"samples": [%s, %s]}`, data, data))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST samples status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	resp, _ = client.Get(ts.URL + "/api/letters/" + created.ID + "/samples")
	var samples struct {
		Samples []struct {
			SampleIndex int `json:"sample_index"`
		} `json:"samples"`
	}
	json.NewDecoder(resp.Body).Decode(&samples)
	resp.Body.Close()
	if len(samples.Samples) != 2 || samples.Samples[1].SampleIndex != 1 {
		t.Errorf("samples = %+v, want indices 0 and 1", samples.Samples)
	}

	// 5. Train
	resp = post("/api/letters/"+created.ID+"/train", "")
	var trained struct {
		Samples int `json:"samples"`
	}
	json.NewDecoder(resp.Body).Decode(&trained)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || trained.Samples != 2 {
		t.Fatalf("train status = %d samples = %d", resp.StatusCode, trained.Samples)
	}
	if landmarks, _ := s.Letters().Landmarks(created.ID); len(landmarks) != detector.NumJoints {
		t.Errorf("landmarks = %d, want %d", len(landmarks), detector.NumJoints)
	}

	// 6. Capture with nothing in view
	resp = post("/api/letters/"+created.ID+"/samples/capture", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("capture status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	// 7. Update, then delete
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/letters/"+created.ID, bytes.NewBufferString(`{"tolerance": 0.6}`))
	resp, _ = client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/letters/"+created.ID, nil)
	resp, _ = client.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if trainer.loaded != 2 {
		t.Errorf("reloads = %d, want 2 (update and delete)", trainer.loaded)
	}

	resp, _ = client.Get(ts.URL + "/api/letters/" + created.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestAPI_Attempts(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	for i, l := range []string{"A", "B", "C"} {
		err := s.Attempts().Create(&store.Attempt{SessionID: "session-1", Letter: l, Position: i, Frames: 4, Skipped: l == "B"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	s.Attempts().Create(&store.Attempt{SessionID: "other", Letter: "A"})

	srv := New(Config{Store: s, App: &fakeController{}})

	rec := do(t, srv, http.MethodGet, "/api/attempts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Summary  store.AttemptSummary `json:"summary"`
		Attempts []store.Attempt      `json:"attempts"`
	}
	json.NewDecoder(rec.Body).Decode(&got)
	if len(got.Attempts) != 3 || got.Summary.Passed != 2 || got.Summary.Skipped != 1 || got.Summary.Frames != 12 {
		t.Errorf("response = %+v", got)
	}

	rec = do(t, srv, http.MethodGet, "/api/attempts?session=other&limit=5", "")
	json.NewDecoder(rec.Body).Decode(&got)
	if len(got.Attempts) != 1 || got.Attempts[0].SessionID != "other" {
		t.Errorf("other session = %+v", got.Attempts)
	}

	if rec := do(t, srv, http.MethodGet, "/api/attempts?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", rec.Code)
	}
}
