package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgres_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "batch", 2026, "3f7a1c9e", 3, 2, 1, 0,
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run := &model.Run{
		Kind:          model.RunKindBatch,
		CycleYear:     2026,
		DatasetDigest: "3f7a1c9e",
		Summary:       model.RunSummary{Total: 3, OK: 2, Skipped: 1},
	}
	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, kind, cycle_year, dataset_digest, total, ok, skipped, failed, started_at, finished_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	finished := started.Add(42 * time.Second)

	mock.ExpectQuery(`SELECT id, kind, cycle_year, dataset_digest, total, ok, skipped, failed, started_at, finished_at FROM runs`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "kind", "cycle_year", "dataset_digest",
			"total", "ok", "skipped", "failed", "started_at", "finished_at",
		}).AddRow("run-1", "batch", 2026, "3f7a1c9e", 3, 2, 1, 0, started, finished))

	runs, err := s.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 2026, runs[0].CycleYear)
	assert.Equal(t, model.RunSummary{Total: 3, OK: 2, Skipped: 1}, runs[0].Summary)
	assert.Equal(t, started, runs[0].StartedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveResults_CopiesBatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"results"}, resultColumns).WillReturnResult(2)

	results := []model.ScoreResult{scoredResult(), skippedResult()}
	require.NoError(t, s.SaveResults(context.Background(), "run-1", results))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveResults_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	require.NoError(t, s.SaveResults(context.Background(), "run-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveResult_AppendsAtNextSeq(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM results WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectCopyFrom(pgx.Identifier{"results"}, resultColumns).WillReturnResult(1)

	result := scoredResult()
	require.NoError(t, s.SaveResult(context.Background(), "run-1", &result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListResults_RebuildsRow(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{
		"site_id", "site_name", "deal_type", "status", "reason",
		"lat", "lon", "state_fips", "county_fips", "tract", "zip", "geoid", "county_match",
		"qct", "dda", "opportunity_tier", "classification", "boost_eligible", "boost_factor",
		"projects_1mi", "projects_2mi", "one_mile_fatal", "two_mile_penalty",
		"nearest_name", "nearest_distance_mi", "nearest_award_year",
		"amenity_total", "viability_ratio", "viability_basis", "tier",
		"categories", "explanation",
	}
	mock.ExpectQuery(`SELECT site_id, site_name, deal_type, status, reason`).
		WithArgs("run-1", 100).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			"site-002", "Nowhere Parcel", "4%", "skipped", "geocode_failure",
			0.0, 0.0, "", "", 0.0, "", "", "",
			false, false, "", "", false, 0.0,
			0, 0, false, false,
			"", 0.0, 0,
			0, 0.0, "", "",
			nil, nil,
		))

	results, err := s.ListResults(context.Background(), ResultFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusSkipped, results[0].Status)
	assert.Equal(t, model.Deal4Percent, results[0].DealType)
	assert.Equal(t, "geocode_failure", results[0].Reason)
	assert.Nil(t, results[0].Tract)
	assert.Nil(t, results[0].Eligibility)
	assert.Nil(t, results[0].Competition)
	assert.Nil(t, results[0].Categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetLatestResultBySite_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT site_id, site_name`).
		WithArgs("site-404").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetLatestResultBySite(context.Background(), "site-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
