package main

import (
	"net/http"
	"time"

	"github.com/parkstone-group/sitescore-cli/internal/pipeline"
	"github.com/parkstone-group/sitescore-cli/internal/ranking"
	"github.com/parkstone-group/sitescore-cli/internal/refdata"
	"github.com/parkstone-group/sitescore-cli/pkg/geocode"
)

// screenEnv holds the loaded reference catalog and the evaluator shared
// by the screen, batch, and serve commands.
type screenEnv struct {
	Catalog   *refdata.Catalog
	Evaluator *pipeline.Evaluator
}

// initEvaluator validates the scoring bands, loads every reference
// dataset, and wires the evaluator. A dataset failure is fatal here:
// screening sites against partial reference data would silently corrupt
// every result.
func initEvaluator() (*screenEnv, error) {
	if err := ranking.BandsFromConfig(cfg.Scoring).Validate(); err != nil {
		return nil, err
	}

	catalog, err := refdata.Load(cfg.Datasets)
	if err != nil {
		return nil, err
	}

	ev := pipeline.New(cfg, catalog, newGeocoder())
	return &screenEnv{Catalog: catalog, Evaluator: ev}, nil
}

// newGeocoder builds the Census Geocoder client from config.
func newGeocoder() geocode.Client {
	opts := []geocode.Option{}
	if cfg.Geocode.BaseURL != "" {
		opts = append(opts, geocode.WithBaseURL(cfg.Geocode.BaseURL))
	}
	if cfg.Geocode.Benchmark != "" {
		opts = append(opts, geocode.WithBenchmark(cfg.Geocode.Benchmark))
	}
	if cfg.Geocode.Vintage != "" {
		opts = append(opts, geocode.WithVintage(cfg.Geocode.Vintage))
	}
	if cfg.Geocode.RatePerSecond > 0 {
		opts = append(opts, geocode.WithRateLimit(cfg.Geocode.RatePerSecond))
	}
	if cfg.Geocode.TimeoutSecs > 0 {
		opts = append(opts, geocode.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second,
		}))
	}
	return geocode.NewClient(opts...)
}
