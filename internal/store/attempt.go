package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Attempt records how one prompt letter of a quiz session ended.
type Attempt struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Letter    string        `json:"letter"`
	Position  int           `json:"position"` // index of the letter in the prompt
	Frames    int           `json:"frames"`
	Grade     float64       `json:"grade"`
	Skipped   bool          `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// AttemptSummary aggregates a session's attempts.
type AttemptSummary struct {
	SessionID string        `json:"session_id"`
	Passed    int           `json:"passed"`
	Skipped   int           `json:"skipped"`
	Frames    int           `json:"frames"`
	Duration  time.Duration `json:"duration"`
}

// AttemptRepository stores quiz attempts.
type AttemptRepository struct {
	db *sql.DB
}

// Attempts returns the attempt repository for this store.
func (s *Store) Attempts() *AttemptRepository {
	return &AttemptRepository{db: s.db}
}

// Create inserts a, assigning an ID when it has none.
func (r *AttemptRepository) Create(a *Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO attempts (id, session_id, letter, position, frames, grade, skipped, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.Letter, a.Position, a.Frames, a.Grade, a.Skipped, a.Duration.Milliseconds(), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// List returns the attempts of a session oldest first, or of every session
// when sessionID is empty. limit <= 0 means no limit.
func (r *AttemptRepository) List(sessionID string, limit int) ([]*Attempt, error) {
	query := `SELECT id, session_id, letter, position, frames, grade, skipped, duration_ms, created_at FROM attempts`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at, rowid`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Attempt
	for rows.Next() {
		a := &Attempt{}
		var skipped int
		var ms int64
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Letter, &a.Position, &a.Frames, &a.Grade, &skipped, &ms, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Skipped = skipped != 0
		a.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}

// Summary aggregates the attempts of a session.
func (r *AttemptRepository) Summary(sessionID string) (AttemptSummary, error) {
	s := AttemptSummary{SessionID: sessionID}
	var ms int64
	err := r.db.QueryRow(
		`SELECT COALESCE(SUM(1 - skipped), 0), COALESCE(SUM(skipped), 0),
		        COALESCE(SUM(frames), 0), COALESCE(SUM(duration_ms), 0)
		 FROM attempts WHERE session_id = ?`,
		sessionID,
	).Scan(&s.Passed, &s.Skipped, &s.Frames, &ms)
	if err != nil {
		return s, err
	}
	s.Duration = time.Duration(ms) * time.Millisecond
	return s, nil
}
