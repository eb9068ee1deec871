package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	cycle_year     INTEGER NOT NULL,
	dataset_digest TEXT NOT NULL DEFAULT '',
	total          INTEGER NOT NULL DEFAULT 0,
	ok             INTEGER NOT NULL DEFAULT 0,
	skipped        INTEGER NOT NULL DEFAULT 0,
	failed         INTEGER NOT NULL DEFAULT 0,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id                  TEXT PRIMARY KEY,
	run_id              TEXT NOT NULL REFERENCES runs(id),
	seq                 INTEGER NOT NULL DEFAULT 0,
	site_id             TEXT NOT NULL,
	site_name           TEXT NOT NULL DEFAULT '',
	deal_type           TEXT NOT NULL,
	status              TEXT NOT NULL,
	reason              TEXT NOT NULL DEFAULT '',
	lat                 REAL NOT NULL DEFAULT 0,
	lon                 REAL NOT NULL DEFAULT 0,
	state_fips          TEXT NOT NULL DEFAULT '',
	county_fips         TEXT NOT NULL DEFAULT '',
	tract               REAL NOT NULL DEFAULT 0,
	zip                 TEXT NOT NULL DEFAULT '',
	geoid               TEXT NOT NULL DEFAULT '',
	county_match        TEXT NOT NULL DEFAULT '',
	qct                 INTEGER NOT NULL DEFAULT 0,
	dda                 INTEGER NOT NULL DEFAULT 0,
	opportunity_tier    TEXT NOT NULL DEFAULT '',
	classification      TEXT NOT NULL DEFAULT '',
	boost_eligible      INTEGER NOT NULL DEFAULT 0,
	boost_factor        REAL NOT NULL DEFAULT 0,
	projects_1mi        INTEGER NOT NULL DEFAULT 0,
	projects_2mi        INTEGER NOT NULL DEFAULT 0,
	one_mile_fatal      INTEGER NOT NULL DEFAULT 0,
	two_mile_penalty    INTEGER NOT NULL DEFAULT 0,
	nearest_name        TEXT NOT NULL DEFAULT '',
	nearest_distance_mi REAL NOT NULL DEFAULT 0,
	nearest_award_year  INTEGER NOT NULL DEFAULT 0,
	amenity_total       INTEGER NOT NULL DEFAULT 0,
	viability_ratio     REAL NOT NULL DEFAULT 0,
	viability_basis     TEXT NOT NULL DEFAULT '',
	tier                TEXT NOT NULL DEFAULT '',
	categories          TEXT,
	explanation         TEXT,
	created_at          DATETIME NOT NULL,
	UNIQUE (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_site_id ON results(site_id);
CREATE INDEX IF NOT EXISTS idx_results_status ON results(status);
CREATE INDEX IF NOT EXISTS idx_results_tier ON results(tier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	fillRunDefaults(run)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, cycle_year, dataset_digest, total, ok, skipped, failed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.CycleYear, run.DatasetDigest,
		run.Summary.Total, run.Summary.OK, run.Summary.Skipped, run.Summary.Failed,
		run.StartedAt, run.FinishedAt,
	)
	return eris.Wrap(err, "sqlite: insert run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runSelectColumns+` FROM runs WHERE id = ?`, runID)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runSelectColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.CycleYear > 0 {
		query += ` AND cycle_year = ?`
		args = append(args, filter.CycleYear)
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveResult(ctx context.Context, runID string, result *model.ScoreResult) error {
	var seq int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM results WHERE run_id = ?`, runID).Scan(&seq); err != nil {
		return eris.Wrapf(err, "sqlite: next seq for run %s", runID)
	}

	vals, err := resultValues(uuid.New().String(), runID, seq, result, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertResultSQL, vals...)
	return eris.Wrapf(err, "sqlite: insert result for site %s", result.SiteID)
}

func (s *SQLiteStore) SaveResults(ctx context.Context, runID string, results []model.ScoreResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for i := range results {
		vals, err := resultValues(uuid.New().String(), runID, i, &results[i], now)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertResultSQL, vals...); err != nil {
			return eris.Wrapf(err, "sqlite: insert result for site %s", results[i].SiteID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit results")
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.ScoreResult, error) {
	query := `SELECT ` + resultSelectColumns + ` FROM results WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.SiteID != "" {
		query += ` AND site_id = ?`
		args = append(args, filter.SiteID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Tier != "" {
		query += ` AND tier = ?`
		args = append(args, filter.Tier)
	}
	// A single run's rows come back in input order; global listings come
	// back newest first.
	if filter.RunID != "" {
		query += ` ORDER BY seq ASC`
	} else {
		query += ` ORDER BY created_at DESC, seq ASC`
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var results []model.ScoreResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

func (s *SQLiteStore) GetLatestResultBySite(ctx context.Context, siteID string) (*model.ScoreResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultSelectColumns+` FROM results WHERE site_id = ?
		 ORDER BY created_at DESC, seq DESC LIMIT 1`, siteID)

	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("result not found: %s", siteID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest result for site %s", siteID)
	}
	return r, nil
}

// helpers

var insertResultSQL = `INSERT INTO results (` + strings.Join(resultColumns, ", ") +
	`) VALUES (` + placeholders(len(resultColumns)) + `)`

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
