package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Sample is one recorded training sample of a letter.
type Sample struct {
	ID          int64           `json:"id"`
	LetterID    string          `json:"letter_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SampleRepository stores raw training samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Append adds samples after the letter's existing ones and updates its
// sample count, in one transaction.
func (r *SampleRepository) Append(letterID string, samples []json.RawMessage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT samples FROM letters WHERE id = ?`, letterID).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO letter_samples (letter_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range samples {
		if _, err := stmt.Exec(letterID, count+i, string(data)); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`UPDATE letters SET samples = ?, updated_at = ? WHERE id = ?`,
		count+len(samples), time.Now(), letterID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// List returns the samples of a letter in recording order.
func (r *SampleRepository) List(letterID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, letter_id, sample_index, data, created_at
		 FROM letter_samples
		 WHERE letter_id = ?
		 ORDER BY sample_index`,
		letterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.LetterID, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Data returns just the payloads of a letter's samples, for training.
func (r *SampleRepository) Data(letterID string) ([]json.RawMessage, error) {
	samples, err := r.List(letterID)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, len(samples))
	for i, s := range samples {
		out[i] = s.Data
	}
	return out, nil
}

// Clear removes a letter's samples and zeroes its sample count.
func (r *SampleRepository) Clear(letterID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM letter_samples WHERE letter_id = ?`, letterID); err != nil {
		return err
	}
	result, err := tx.Exec(`UPDATE letters SET samples = 0, updated_at = ? WHERE id = ?`, time.Now(), letterID)
	if err != nil {
		return err
	}
	if err := affected(result); err != nil {
		return err
	}
	return tx.Commit()
}
