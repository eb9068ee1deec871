package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/db"
	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":            `INSERT INTO runs (id, kind, cycle_year, dataset_digest, total, ok, skipped, failed, started_at, finished_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"get_run":               `SELECT ` + runSelectColumns + ` FROM runs WHERE id = $1`,
	"next_result_seq":       `SELECT COUNT(*) FROM results WHERE run_id = $1`,
	"latest_result_by_site": `SELECT ` + resultSelectColumns + ` FROM results WHERE site_id = $1 ORDER BY created_at DESC, seq DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind           TEXT NOT NULL,
	cycle_year     INTEGER NOT NULL,
	dataset_digest TEXT NOT NULL DEFAULT '',
	total          INTEGER NOT NULL DEFAULT 0,
	ok             INTEGER NOT NULL DEFAULT 0,
	skipped        INTEGER NOT NULL DEFAULT 0,
	failed         INTEGER NOT NULL DEFAULT 0,
	started_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS results (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id              TEXT NOT NULL REFERENCES runs(id),
	seq                 INTEGER NOT NULL DEFAULT 0,
	site_id             TEXT NOT NULL,
	site_name           TEXT NOT NULL DEFAULT '',
	deal_type           TEXT NOT NULL,
	status              TEXT NOT NULL,
	reason              TEXT NOT NULL DEFAULT '',
	lat                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	lon                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	state_fips          TEXT NOT NULL DEFAULT '',
	county_fips         TEXT NOT NULL DEFAULT '',
	tract               DOUBLE PRECISION NOT NULL DEFAULT 0,
	zip                 TEXT NOT NULL DEFAULT '',
	geoid               TEXT NOT NULL DEFAULT '',
	county_match        TEXT NOT NULL DEFAULT '',
	qct                 BOOLEAN NOT NULL DEFAULT false,
	dda                 BOOLEAN NOT NULL DEFAULT false,
	opportunity_tier    TEXT NOT NULL DEFAULT '',
	classification      TEXT NOT NULL DEFAULT '',
	boost_eligible      BOOLEAN NOT NULL DEFAULT false,
	boost_factor        DOUBLE PRECISION NOT NULL DEFAULT 0,
	projects_1mi        INTEGER NOT NULL DEFAULT 0,
	projects_2mi        INTEGER NOT NULL DEFAULT 0,
	one_mile_fatal      BOOLEAN NOT NULL DEFAULT false,
	two_mile_penalty    BOOLEAN NOT NULL DEFAULT false,
	nearest_name        TEXT NOT NULL DEFAULT '',
	nearest_distance_mi DOUBLE PRECISION NOT NULL DEFAULT 0,
	nearest_award_year  INTEGER NOT NULL DEFAULT 0,
	amenity_total       INTEGER NOT NULL DEFAULT 0,
	viability_ratio     DOUBLE PRECISION NOT NULL DEFAULT 0,
	viability_basis     TEXT NOT NULL DEFAULT '',
	tier                TEXT NOT NULL DEFAULT '',
	categories          JSONB,
	explanation         JSONB,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_site_id ON results(site_id);
CREATE INDEX IF NOT EXISTS idx_results_status ON results(status);
CREATE INDEX IF NOT EXISTS idx_results_tier ON results(tier);
CREATE INDEX IF NOT EXISTS idx_results_site_created ON results(site_id, created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	fillRunDefaults(run)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, kind, cycle_year, dataset_digest, total, ok, skipped, failed, started_at, finished_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.Kind, run.CycleYear, run.DatasetDigest,
		run.Summary.Total, run.Summary.OK, run.Summary.Skipped, run.Summary.Failed,
		run.StartedAt, run.FinishedAt,
	)
	return eris.Wrap(err, "postgres: insert run")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runSelectColumns+` FROM runs WHERE id = $1`, runID)

	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runSelectColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argIdx)
		args = append(args, filter.Kind)
		argIdx++
	}
	if filter.CycleYear > 0 {
		query += fmt.Sprintf(` AND cycle_year = $%d`, argIdx)
		args = append(args, filter.CycleYear)
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveResult(ctx context.Context, runID string, result *model.ScoreResult) error {
	var seq int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE run_id = $1`, runID).Scan(&seq); err != nil {
		return eris.Wrapf(err, "postgres: next seq for run %s", runID)
	}

	vals, err := resultValues(uuid.New().String(), runID, seq, result, time.Now().UTC())
	if err != nil {
		return err
	}
	if _, err := db.CopyFrom(ctx, s.pool, "results", resultColumns, [][]any{vals}); err != nil {
		return eris.Wrapf(err, "postgres: insert result for site %s", result.SiteID)
	}
	return nil
}

func (s *PostgresStore) SaveResults(ctx context.Context, runID string, results []model.ScoreResult) error {
	if len(results) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(results))
	for i := range results {
		vals, err := resultValues(uuid.New().String(), runID, i, &results[i], now)
		if err != nil {
			return err
		}
		rows = append(rows, vals)
	}

	if _, err := db.CopyFrom(ctx, s.pool, "results", resultColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: insert results for run %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.ScoreResult, error) {
	query := `SELECT ` + resultSelectColumns + ` FROM results WHERE true`
	args := []any{}
	argIdx := 1

	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, argIdx)
		args = append(args, filter.RunID)
		argIdx++
	}
	if filter.SiteID != "" {
		query += fmt.Sprintf(` AND site_id = $%d`, argIdx)
		args = append(args, filter.SiteID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Tier != "" {
		query += fmt.Sprintf(` AND tier = $%d`, argIdx)
		args = append(args, filter.Tier)
		argIdx++
	}
	if filter.RunID != "" {
		query += ` ORDER BY seq ASC`
	} else {
		query += ` ORDER BY created_at DESC, seq ASC`
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.ScoreResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func (s *PostgresStore) GetLatestResultBySite(ctx context.Context, siteID string) (*model.ScoreResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+resultSelectColumns+` FROM results WHERE site_id = $1 ORDER BY created_at DESC, seq DESC LIMIT 1`,
		siteID)

	r, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("result not found: %s", siteID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest result for site %s", siteID)
	}
	return r, nil
}
