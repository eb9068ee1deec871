package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// RunBatch screens every site concurrently and returns results in input
// order. Per-site problems are recorded on their rows; the only error
// returned is context cancellation.
func (e *Evaluator) RunBatch(ctx context.Context, sites []model.Site) ([]model.ScoreResult, error) {
	concurrency := e.cfg.Batch.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	interval := int64(e.cfg.Batch.ProgressInterval)

	zap.L().Info("pipeline: batch starting",
		zap.Int("sites", len(sites)),
		zap.Int("concurrency", concurrency),
	)
	start := time.Now()

	results := make([]model.ScoreResult, len(sites))
	var done atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, site := range sites {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = e.EvaluateSite(gCtx, site)

			if n := done.Add(1); interval > 0 && n%interval == 0 {
				zap.L().Info("pipeline: batch progress",
					zap.Int64("scored", n),
					zap.Int("total", len(sites)),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := Summarize(results)
	zap.L().Info("pipeline: batch complete",
		zap.Int("total", summary.Total),
		zap.Int("ok", summary.OK),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

// Summarize tallies results by status.
func Summarize(results []model.ScoreResult) model.RunSummary {
	s := model.RunSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case model.StatusOK:
			s.OK++
		case model.StatusSkipped:
			s.Skipped++
		case model.StatusFailed:
			s.Failed++
		}
	}
	return s
}
