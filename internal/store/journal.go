package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Run is one journal entry: the fingerprints of a single generator run.
type Run struct {
	// ID is a UUIDv7, assigned by Record when empty.
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ManifestDir string    `json:"manifest_dir"`
	// Declarations is the declaration-set fingerprint.
	Declarations string `json:"declarations_fp"`
	// Plan is the registration-plan fingerprint.
	Plan string `json:"plan_fp"`
	// Records is the number of declarations in the set.
	Records int `json:"records"`
}

// Drift describes a reproducibility regression: an unchanged
// declaration set produced a different plan than a previous run.
type Drift struct {
	Previous Run
	PlanFP   string
}

func (d *Drift) Error() string {
	return fmt.Sprintf("plan drift: declarations %s produced plan %s, previously %s (run %s)",
		d.Previous.Declarations, d.PlanFP, d.Previous.Plan, d.Previous.ID)
}

// Journal is the SQLite-backed run journal.
// Uses WAL mode so history reads never block a recording writer.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at the given path,
// applying pragmas and the embedded schema. Idempotent.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent command invocations.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends a run to the journal, assigning ID and CreatedAt when
// unset.
func (j *Journal) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("assign run id: %w", err)
		}
		run.ID = id.String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, manifest_dir, declarations_fp, plan_fp, records)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.ManifestDir,
		run.Declarations, run.Plan, run.Records)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 returns
// everything.
func (j *Journal) List(ctx context.Context, limit int) ([]Run, error) {
	q := `
		SELECT id, created_at, manifest_dir, declarations_fp, plan_fp, records
		FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastFor returns the most recent run recorded for a declaration-set
// fingerprint, or nil when the set has never been seen.
func (j *Journal) LastFor(ctx context.Context, declarations string) (*Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, created_at, manifest_dir, declarations_fp, plan_fp, records
		FROM runs WHERE declarations_fp = ? ORDER BY id DESC LIMIT 1`,
		declarations)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Verify compares a fresh run against the journal. A non-nil Drift
// means the same declaration set previously produced a different plan.
func (j *Journal) Verify(ctx context.Context, declarations, plan string) (*Drift, error) {
	prev, err := j.LastFor(ctx, declarations)
	if err != nil || prev == nil {
		return nil, err
	}
	if prev.Plan == plan {
		return nil, nil
	}
	return &Drift{Previous: *prev, PlanFP: plan}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var created string
	if err := s.Scan(&run.ID, &created, &run.ManifestDir, &run.Declarations, &run.Plan, &run.Records); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse run timestamp: %w", err)
	}
	run.CreatedAt = t
	return run, nil
}
