// Package store persists screening runs and their per-site results.
package store

import (
	"context"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind      string `json:"kind,omitempty"`
	CycleYear int    `json:"cycle_year,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// ResultFilter specifies criteria for listing stored results.
type ResultFilter struct {
	RunID  string           `json:"run_id,omitempty"`
	SiteID string           `json:"site_id,omitempty"`
	Status model.EvalStatus `json:"status,omitempty"`
	Tier   string           `json:"tier,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for screening runs. Both backends
// keep the commonly queried result fields in flat columns and the category
// and explanation details as JSON.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Results
	SaveResult(ctx context.Context, runID string, result *model.ScoreResult) error
	SaveResults(ctx context.Context, runID string, results []model.ScoreResult) error
	ListResults(ctx context.Context, filter ResultFilter) ([]model.ScoreResult, error)
	GetLatestResultBySite(ctx context.Context, siteID string) (*model.ScoreResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
