package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LetterKind distinguishes held handshapes from traced letters.
type LetterKind string

const (
	// KindStatic is a held handshape matched against averaged landmarks.
	KindStatic LetterKind = "static"
	// KindMotion is a traced letter matched against an index-tip path.
	KindMotion LetterKind = "motion"
)

// Letter is a trained letter definition.
type Letter struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      LetterKind `json:"kind"`
	Tolerance float64    `json:"tolerance"`
	Samples   int        `json:"samples"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Landmark is one template joint position in palm-normalized units.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PathPoint is one point of a motion template.
type PathPoint struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// LetterRepository provides CRUD operations for letters and their templates.
type LetterRepository struct {
	db *sql.DB
}

// Letters returns the letter repository for this store.
func (s *Store) Letters() *LetterRepository {
	return &LetterRepository{db: s.db}
}

const letterColumns = `id, name, kind, tolerance, samples, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLetter(row scanner) (*Letter, error) {
	l := &Letter{}
	var kind string
	if err := row.Scan(&l.ID, &l.Name, &kind, &l.Tolerance, &l.Samples, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Kind = LetterKind(kind)
	return l, nil
}

// Create inserts a new letter.
func (r *LetterRepository) Create(l *Letter) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO letters (`+letterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, string(l.Kind), l.Tolerance, l.Samples, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert letter %q: %w", l.Name, err)
	}
	return nil
}

func (r *LetterRepository) getOne(where string, arg any) (*Letter, error) {
	l, err := scanLetter(r.db.QueryRow(`SELECT `+letterColumns+` FROM letters WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// GetByID retrieves a letter by its ID.
func (r *LetterRepository) GetByID(id string) (*Letter, error) {
	return r.getOne(`id = ?`, id)
}

// GetByName retrieves a letter by name, ignoring case.
func (r *LetterRepository) GetByName(name string) (*Letter, error) {
	return r.getOne(`name = ? COLLATE NOCASE`, name)
}

// List returns all letters ordered by name.
func (r *LetterRepository) List() ([]*Letter, error) {
	rows, err := r.db.Query(`SELECT ` + letterColumns + ` FROM letters ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var letters []*Letter
	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, err
		}
		letters = append(letters, l)
	}
	return letters, rows.Err()
}

// Update writes every field of l except CreatedAt.
func (r *LetterRepository) Update(l *Letter) error {
	l.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE letters SET name = ?, kind = ?, tolerance = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		l.Name, string(l.Kind), l.Tolerance, l.Samples, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return err
	}
	return affected(result)
}

// Delete removes a letter with its templates and samples.
func (r *LetterRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM letters WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(result)
}

// SetLandmarks replaces the static template of letter id.
func (r *LetterRepository) SetLandmarks(id string, landmarks []Landmark) error {
	return r.replace(id, `DELETE FROM letter_landmarks WHERE letter_id = ?`,
		`INSERT INTO letter_landmarks (letter_id, joint_index, x, y) VALUES (?, ?, ?, ?)`,
		len(landmarks), func(i int) []any {
			return []any{id, i, landmarks[i].X, landmarks[i].Y}
		})
}

// Landmarks returns the static template of letter id, in joint order.
func (r *LetterRepository) Landmarks(id string) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT x, y FROM letter_landmarks WHERE letter_id = ? ORDER BY joint_index`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Landmark
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.X, &l.Y); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SetPath replaces the motion template of letter id.
func (r *LetterRepository) SetPath(id string, path []PathPoint) error {
	return r.replace(id, `DELETE FROM letter_paths WHERE letter_id = ?`,
		`INSERT INTO letter_paths (letter_id, sequence, x, y, timestamp_ms) VALUES (?, ?, ?, ?, ?)`,
		len(path), func(i int) []any {
			return []any{id, i, path[i].X, path[i].Y, path[i].TimestampMs}
		})
}

// Path returns the motion template of letter id, in order.
func (r *LetterRepository) Path(id string) ([]PathPoint, error) {
	rows, err := r.db.Query(
		`SELECT x, y, timestamp_ms FROM letter_paths WHERE letter_id = ? ORDER BY sequence`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PathPoint
	for rows.Next() {
		var p PathPoint
		if err := rows.Scan(&p.X, &p.Y, &p.TimestampMs); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// replace deletes a letter's template rows and inserts n new ones in one
// transaction.
func (r *LetterRepository) replace(id, del, ins string, n int, args func(i int) []any) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM letters WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(del, id); err != nil {
		return err
	}
	stmt, err := tx.Prepare(ins)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.Exec(args(i)...); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`UPDATE letters SET updated_at = ? WHERE id = ?`, time.Now(), id); err != nil {
		return err
	}
	return tx.Commit()
}
