package store

// runMigrations creates the schema. Every statement is idempotent.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Letters recognized by template rather than by a built-in classifier.
		`CREATE TABLE IF NOT EXISTS letters (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL CHECK(kind IN ('static', 'motion')),
			tolerance REAL NOT NULL DEFAULT 0.15,
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Averaged joint positions of a static letter, palm-normalized.
		`CREATE TABLE IF NOT EXISTS letter_landmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			letter_id TEXT NOT NULL REFERENCES letters(id) ON DELETE CASCADE,
			joint_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL
		)`,

		// Index-tip path of a motion letter.
		`CREATE TABLE IF NOT EXISTS letter_paths (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			letter_id TEXT NOT NULL REFERENCES letters(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			timestamp_ms INTEGER NOT NULL
		)`,

		// Raw recorded samples used for training.
		`CREATE TABLE IF NOT EXISTS letter_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			letter_id TEXT NOT NULL REFERENCES letters(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per completed or skipped quiz letter.
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			letter TEXT NOT NULL,
			position INTEGER NOT NULL,
			frames INTEGER NOT NULL,
			grade REAL NOT NULL,
			skipped INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_letter_landmarks_letter_id ON letter_landmarks(letter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_letter_paths_letter_id ON letter_paths(letter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_letter_samples_letter_id ON letter_samples(letter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_session_id ON attempts(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
