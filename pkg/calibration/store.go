package calibration

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoActiveRecord is returned when the store holds no active calibration.
var ErrNoActiveRecord = errors.New("calibration: no active record")

const recordsSchema = `
CREATE TABLE IF NOT EXISTS calibration_records (
    id                  TEXT PRIMARY KEY,
    tau                 REAL NOT NULL,
    target_recall       REAL NOT NULL,
    n_positive_samples  INTEGER NOT NULL,
    estimated_skip_rate REAL NOT NULL,
    stability_warning   TEXT NOT NULL DEFAULT '',
    scorer_name         TEXT NOT NULL,
    created_at          TEXT NOT NULL,
    active              INTEGER NOT NULL DEFAULT 0
);
`

const recordsActiveIndex = `
CREATE INDEX IF NOT EXISTS idx_calibration_records_active
ON calibration_records(active);
`

// Store persists calibration records in SQLite. The schema is a flat,
// append-mostly table: new runs are saved inactive and promoted with
// Activate, which is a single transaction so readers never observe zero or
// two active records.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the calibration database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("calibration: open store: %w", err)
	}
	if _, err := db.Exec(recordsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("calibration: init schema: %w", err)
	}
	if _, err := db.Exec(recordsActiveIndex); err != nil {
		db.Close()
		return nil, fmt.Errorf("calibration: init index: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts a calibration record. The record's Active flag is ignored;
// promotion goes through Activate.
func (s *Store) Save(rec *Record) error {
	_, err := s.db.Exec(`
		INSERT INTO calibration_records
		(id, tau, target_recall, n_positive_samples, estimated_skip_rate,
		 stability_warning, scorer_name, created_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		rec.ID,
		rec.Tau,
		rec.TargetRecall,
		rec.NPositiveSamples,
		rec.EstimatedSkipRate,
		rec.StabilityWarning,
		rec.ScorerName,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("calibration: save record %s: %w", rec.ID, err)
	}
	return nil
}

// Activate marks the given record active and every other record inactive,
// atomically.
func (s *Store) Activate(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("calibration: activate %s: %w", id, err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE calibration_records SET active = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("calibration: activate %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("calibration: activate %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("calibration: activate %s: record not found", id)
	}
	if _, err := tx.Exec(`UPDATE calibration_records SET active = 0 WHERE id != ?`, id); err != nil {
		return fmt.Errorf("calibration: activate %s: %w", id, err)
	}
	return tx.Commit()
}

// Active returns the currently active calibration record.
func (s *Store) Active() (*Record, error) {
	row := s.db.QueryRow(`
		SELECT id, tau, target_recall, n_positive_samples, estimated_skip_rate,
		       stability_warning, scorer_name, created_at, active
		FROM calibration_records WHERE active = 1 LIMIT 1`)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveRecord
	}
	return rec, err
}

// History returns the most recent records, newest first.
func (s *Store) History(limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, tau, target_recall, n_positive_samples, estimated_skip_rate,
		       stability_warning, scorer_name, created_at, active
		FROM calibration_records ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("calibration: history: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var createdAt string
	var active int
	err := row.Scan(
		&rec.ID, &rec.Tau, &rec.TargetRecall, &rec.NPositiveSamples,
		&rec.EstimatedSkipRate, &rec.StabilityWarning, &rec.ScorerName,
		&createdAt, &active,
	)
	if err != nil {
		return nil, err
	}
	rec.Active = active != 0
	if ts, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		rec.CreatedAt = ts
	}
	return &rec, nil
}
