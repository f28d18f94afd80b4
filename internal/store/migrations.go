package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Runs table - one row per capture session
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			device_id INTEGER NOT NULL DEFAULT 0,
			processing_width INTEGER NOT NULL,
			processing_height INTEGER NOT NULL,
			block_size INTEGER NOT NULL,
			output_path TEXT NOT NULL DEFAULT '',
			frames INTEGER NOT NULL DEFAULT 0,
			frames_written INTEGER NOT NULL DEFAULT 0,
			stop_reason TEXT NOT NULL DEFAULT '',
			final_contours INTEGER NOT NULL DEFAULT 0,
			mem_current INTEGER NOT NULL DEFAULT 0,
			mem_peak INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Run frames table - contour statistics for each processed frame
		`CREATE TABLE IF NOT EXISTS run_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			contours INTEGER NOT NULL,
			points INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_run_frames_run_id ON run_frames(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
