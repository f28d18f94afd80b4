package store

import (
	"database/sql"
)

// FrameStat is the contour summary for one processed frame.
type FrameStat struct {
	Index    int
	Contours int
	Points   int
}

// FrameRepository stores per-frame statistics for runs.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Append inserts frame statistics for a run in a single transaction.
func (r *FrameRepository) Append(runID string, frames []FrameStat) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO run_frames (run_id, frame_index, contours, points) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		if _, err := stmt.Exec(runID, f.Index, f.Contours, f.Points); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByRunID retrieves the frame statistics of a run in frame order.
func (r *FrameRepository) GetByRunID(runID string) ([]FrameStat, error) {
	rows, err := r.db.Query(
		`SELECT frame_index, contours, points
		 FROM run_frames
		 WHERE run_id = ?
		 ORDER BY frame_index`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []FrameStat
	for rows.Next() {
		var f FrameStat
		if err := rows.Scan(&f.Index, &f.Contours, &f.Points); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}
