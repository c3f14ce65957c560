package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dpf-ci/dpf-version/pkg/updater"
)

// Run is one recorded update run
type Run struct {
	RunID           string                 `json:"run_id"`
	TargetVersion   string                 `json:"target_version"`
	PreviousVersion string                 `json:"previous_version"`
	Components      []string               `json:"components"`
	DryRun          bool                   `json:"dry_run"`
	Succeeded       int                    `json:"succeeded"`
	Failed          int                    `json:"failed"`
	Skipped         int                    `json:"skipped"`
	Unchanged       int                    `json:"unchanged"`
	Records         []updater.UpdateRecord `json:"records"`
	ValidationError string                 `json:"validation_error,omitempty"`
	ReportLocation  string                 `json:"report_location,omitempty"`
	CreatedAtUnixMs int64                  `json:"created_at_unix_ms"`
}

// OK reports whether the run finished without failed files or a validation error
func (r Run) OK() bool {
	return r.Failed == 0 && r.ValidationError == ""
}

// CreatedAt returns the creation time in UTC
func (r Run) CreatedAt() time.Time {
	return time.UnixMilli(r.CreatedAtUnixMs).UTC()
}

// NewRun summarizes an update result. The run ID is assigned when it is recorded.
func NewRun(res *updater.Result, validationErr error) Run {
	run := Run{
		TargetVersion:   res.TargetVersion,
		PreviousVersion: res.PreviousVersion,
		Components:      res.Components,
		DryRun:          res.DryRun,
		Succeeded:       len(res.Success),
		Failed:          len(res.Failed),
		Skipped:         len(res.Skipped),
		Unchanged:       len(res.Unchanged),
		Records:         res.Records,
	}
	if validationErr != nil {
		run.ValidationError = validationErr.Error()
	}
	return run
}

// DefaultPath returns ~/.cache/dpf-ci/history.sqlite
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "dpf-ci", "history.sqlite")
	}
	return filepath.Join(home, ".cache", "dpf-ci", "history.sqlite")
}

// Ledger is a local sqlite log of update runs
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger at path
func Open(path string) (*Ledger, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("missing history path")
	}
	p = filepath.Clean(p)
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Ledger{db: db}, nil
}

// Close closes the database
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record stores run, assigning a run ID and timestamp when they are unset, and returns the stored run
func (l *Ledger) Record(ctx context.Context, run Run) (Run, error) {
	if l == nil || l.db == nil {
		return run, errors.New("history not initialized")
	}
	if strings.TrimSpace(run.TargetVersion) == "" {
		return run, errors.New("missing target_version")
	}
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAtUnixMs <= 0 {
		run.CreatedAtUnixMs = time.Now().UnixMilli()
	}
	if run.Components == nil {
		run.Components = []string{}
	}
	if run.Records == nil {
		run.Records = []updater.UpdateRecord{}
	}

	components, err := json.Marshal(run.Components)
	if err != nil {
		return run, fmt.Errorf("encode components: %w", err)
	}
	records, err := json.Marshal(run.Records)
	if err != nil {
		return run, fmt.Errorf("encode records: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
INSERT INTO update_runs(
  run_id, target_version, previous_version, components, dry_run,
  succeeded, failed, skipped, unchanged, records_json,
  validation_error, report_location, created_at_unix_ms
) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		run.RunID,
		run.TargetVersion,
		run.PreviousVersion,
		string(components),
		boolToInt(run.DryRun),
		run.Succeeded,
		run.Failed,
		run.Skipped,
		run.Unchanged,
		string(records),
		run.ValidationError,
		run.ReportLocation,
		run.CreatedAtUnixMs,
	)
	if err != nil {
		return run, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

const selectRuns = `
SELECT run_id, target_version, previous_version, components, dry_run,
  succeeded, failed, skipped, unchanged, records_json,
  validation_error, report_location, created_at_unix_ms
FROM update_runs
`

// List returns the most recent runs first. A limit of zero or less returns every run.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("history not initialized")
	}
	query := selectRuns + `ORDER BY created_at_unix_ms DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns the run with the given ID, or nil when there is none
func (l *Ledger) Get(ctx context.Context, runID string) (*Run, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("history not initialized")
	}
	id := strings.TrimSpace(runID)
	if id == "" {
		return nil, errors.New("missing run_id")
	}
	run, err := scanRun(l.db.QueryRowContext(ctx, selectRuns+`WHERE run_id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var components, records string
	var dryRun int
	if err := s.Scan(
		&run.RunID,
		&run.TargetVersion,
		&run.PreviousVersion,
		&components,
		&dryRun,
		&run.Succeeded,
		&run.Failed,
		&run.Skipped,
		&run.Unchanged,
		&records,
		&run.ValidationError,
		&run.ReportLocation,
		&run.CreatedAtUnixMs,
	); err != nil {
		return run, err
	}
	run.DryRun = dryRun != 0
	if err := json.Unmarshal([]byte(components), &run.Components); err != nil {
		return run, fmt.Errorf("decode components of run %s: %w", run.RunID, err)
	}
	if err := json.Unmarshal([]byte(records), &run.Records); err != nil {
		return run, fmt.Errorf("decode records of run %s: %w", run.RunID, err)
	}
	return run, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=3000;`); err != nil {
		return fmt.Errorf("pragma busy_timeout: %w", err)
	}
	return migrateSchema(db)
}

// Schema versions:
// - v1: update_runs table
func migrateSchema(db *sql.DB) error {
	const targetVersion = 1

	var v int
	if err := db.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return fmt.Errorf("pragma user_version: %w", err)
	}
	if v >= targetVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS update_runs (
  run_id TEXT PRIMARY KEY,
  target_version TEXT NOT NULL,
  previous_version TEXT NOT NULL DEFAULT '',
  components TEXT NOT NULL DEFAULT '[]',
  dry_run INTEGER NOT NULL DEFAULT 0,
  succeeded INTEGER NOT NULL DEFAULT 0,
  failed INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  unchanged INTEGER NOT NULL DEFAULT 0,
  records_json TEXT NOT NULL DEFAULT '[]',
  validation_error TEXT NOT NULL DEFAULT '',
  report_location TEXT NOT NULL DEFAULT '',
  created_at_unix_ms INTEGER NOT NULL
);
`); err != nil {
		return fmt.Errorf("create table v1: %w", err)
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_update_runs_created ON update_runs(created_at_unix_ms);`); err != nil {
		return fmt.Errorf("create index v1: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d;", targetVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
