package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Run is one capture session recorded in the journal.
type Run struct {
	ID               string
	DeviceID         int
	ProcessingWidth  int
	ProcessingHeight int
	BlockSize        int
	OutputPath       string
	Frames           int
	FramesWritten    int
	StopReason       string
	FinalContours    int
	MemCurrent       uint64
	MemPeak          uint64
	StartedAt        time.Time
	// EndedAt is zero while the run has not finished.
	EndedAt time.Time
}

// RunResult holds the values recorded when a run finishes.
type RunResult struct {
	Frames        int
	FramesWritten int
	StopReason    string
	FinalContours int
	MemCurrent    uint64
	MemPeak       uint64
	EndedAt       time.Time
}

// RunRepository provides CRUD operations for runs.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

const runColumns = `id, device_id, processing_width, processing_height, block_size, output_path,
	frames, frames_written, stop_reason, final_contours, mem_current, mem_peak, started_at, ended_at`

// Create inserts a new run. StartedAt defaults to now when zero.
func (r *RunRepository) Create(run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO runs (id, device_id, processing_width, processing_height, block_size, output_path, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DeviceID, run.ProcessingWidth, run.ProcessingHeight, run.BlockSize, run.OutputPath, run.StartedAt,
	)
	return err
}

// Finish records the outcome of a run.
func (r *RunRepository) Finish(id string, res RunResult) error {
	if res.EndedAt.IsZero() {
		res.EndedAt = time.Now()
	}

	result, err := r.db.Exec(
		`UPDATE runs SET frames = ?, frames_written = ?, stop_reason = ?, final_contours = ?,
		 mem_current = ?, mem_peak = ?, ended_at = ?
		 WHERE id = ?`,
		res.Frames, res.FramesWritten, res.StopReason, res.FinalContours,
		int64(res.MemCurrent), int64(res.MemPeak), res.EndedAt, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// List retrieves the most recent runs, newest first.
// A limit of zero or less returns every run.
func (r *RunRepository) List(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// Delete removes a run and its frame statistics.
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var memCurrent, memPeak int64
	var endedAt sql.NullTime

	err := row.Scan(
		&run.ID, &run.DeviceID, &run.ProcessingWidth, &run.ProcessingHeight, &run.BlockSize, &run.OutputPath,
		&run.Frames, &run.FramesWritten, &run.StopReason, &run.FinalContours, &memCurrent, &memPeak,
		&run.StartedAt, &endedAt,
	)
	if err != nil {
		return nil, err
	}

	run.MemCurrent = uint64(memCurrent)
	run.MemPeak = uint64(memPeak)
	if endedAt.Valid {
		run.EndedAt = endedAt.Time
	}

	return run, nil
}
