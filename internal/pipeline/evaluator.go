// Package pipeline runs the per-site screening sequence: placement,
// designation lookup, competition, amenities, viability, and tier
// assignment. Every input site produces exactly one result row; sites
// that cannot be placed or scored carry a status and reason instead of
// aborting the run.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkstone-group/sitescore-cli/internal/amenity"
	"github.com/parkstone-group/sitescore-cli/internal/boundary"
	"github.com/parkstone-group/sitescore-cli/internal/competition"
	"github.com/parkstone-group/sitescore-cli/internal/config"
	"github.com/parkstone-group/sitescore-cli/internal/eligibility"
	"github.com/parkstone-group/sitescore-cli/internal/model"
	"github.com/parkstone-group/sitescore-cli/internal/ranking"
	"github.com/parkstone-group/sitescore-cli/internal/refdata"
	"github.com/parkstone-group/sitescore-cli/internal/resilience"
	"github.com/parkstone-group/sitescore-cli/internal/viability"
	"github.com/parkstone-group/sitescore-cli/pkg/geocode"
)

// Evaluator holds the loaded reference data and the scoring engines for
// one screening run. Safe for concurrent use; batch workers share one
// instance.
type Evaluator struct {
	cfg      *config.Config
	catalog  *refdata.Catalog
	geocoder geocode.Client
	tracts   *geocode.TractCache

	resolver    *boundary.Resolver
	competition *competition.Engine
	amenities   *amenity.Scorer
	estimator   *viability.Estimator
	bands       ranking.Bands

	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// New wires an Evaluator from loaded reference data. The geocoder is
// injected so tests and offline runs can substitute a fake.
func New(cfg *config.Config, catalog *refdata.Catalog, gc geocode.Client) *Evaluator {
	return &Evaluator{
		cfg:         cfg,
		catalog:     catalog,
		geocoder:    gc,
		tracts:      geocode.NewTractCache(),
		resolver:    boundary.NewResolver(catalog.Designations),
		competition: competition.NewEngine(competition.RulesFromConfig(cfg.Rules), catalog.Projects),
		amenities:   amenity.NewScorer(catalog.Amenities, cfg.Scoring.HighDensityMinPerAcre),
		estimator:   viability.NewEstimator(catalog.Rents, cfg.Viability),
		bands:       ranking.BandsFromConfig(cfg.Scoring),
		retry:       resilience.FromConfig(cfg.Geocode.MaxAttempts, cfg.Geocode.InitialBackoffMs),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Geocode.BreakerThreshold,
			ResetTimeout:     time.Duration(cfg.Geocode.BreakerResetSecs) * time.Second,
		}),
	}
}

// Bands returns the ratio cutoffs in effect for this run.
func (e *Evaluator) Bands() ranking.Bands {
	return e.bands
}

// EvaluateSite screens a single site. It never returns an error; any
// per-site problem is recorded on the result row. Sections are only
// populated once their step succeeds, so a skipped or failed row never
// carries partial scores.
func (e *Evaluator) EvaluateSite(ctx context.Context, site model.Site) model.ScoreResult {
	log := zap.L().With(zap.String("site", site.ID), zap.String("name", site.Name))

	result := model.ScoreResult{
		SiteID:   site.ID,
		SiteName: site.Name,
		DealType: site.DealType,
		Status:   model.StatusOK,
	}

	// Placement. A site that cannot be placed is skipped, not failed.
	lat, lon, err := e.locate(ctx, site)
	if err != nil {
		log.Warn("pipeline: site skipped", zap.Error(err))
		result.Status = model.StatusSkipped
		result.Reason = model.FailureReason(err)
		return result
	}
	result.Lat, result.Lon = lat, lon

	info, err := e.resolveTract(ctx, lat, lon)
	if err != nil {
		log.Warn("pipeline: site skipped", zap.Error(err))
		result.Status = model.StatusSkipped
		result.Reason = model.FailureReason(err)
		return result
	}

	ref, err := tractReference(info, site.ZIP)
	if err != nil {
		return e.fail(log, result, err)
	}
	result.Tract = &ref

	// Federal and state designations drive the basis boost.
	designations, err := e.resolver.Resolve(ref)
	if err != nil {
		return e.fail(log, result, err)
	}
	elig, err := eligibility.Evaluate(designations)
	if err != nil {
		return e.fail(log, result, err)
	}
	result.Eligibility = &elig

	// County selects the rent assumption. An unresolved county is not an
	// error; the estimator falls back to the statewide default rent.
	county, matchTier, countyErr := e.catalog.Counties.Resolve(site.City, site.State, &lat, &lon)
	if countyErr != nil {
		log.Debug("pipeline: county unresolved", zap.Error(countyErr))
	} else {
		result.CountyMatch = string(matchTier)
	}

	comp := e.competition.Evaluate(lat, lon, site.DealType)
	result.Competition = &comp

	parcel, _ := e.catalog.Parcel(site.ID)
	loc := amenity.Location{Lat: lat, Lon: lon, Parcel: parcel}
	result.Categories = e.amenities.Score(loc, site.DensityPerAcre)
	result.AmenityTotal = result.SumCategoryPoints()

	est := e.estimator.Estimate(site, county.Name, elig.BoostFactor)
	result.ViabilityRatio = est.Ratio
	result.ViabilityBasis = est.RentBasis

	result.Tier = e.bands.Rank(site.DealType, &comp, est.Ratio)
	result.Explanation = explain(&result, county, est, e.bands)

	log.Info("pipeline: site scored",
		zap.String("tier", result.Tier),
		zap.Float64("ratio", est.Ratio),
		zap.Int("amenity_points", result.AmenityTotal),
	)
	return result
}

func (e *Evaluator) fail(log *zap.Logger, result model.ScoreResult, err error) model.ScoreResult {
	log.Error("pipeline: site failed", zap.Error(err))
	result.Status = model.StatusFailed
	result.Reason = model.FailureReason(err)
	return result
}

// locate returns the coordinate pair for a site, geocoding the address
// when the input did not carry one. Geocoder calls run through the
// shared retry and circuit breaker wrappers.
func (e *Evaluator) locate(ctx context.Context, site model.Site) (float64, float64, error) {
	if site.HasCoordinates() {
		return *site.Lat, *site.Lon, nil
	}

	res, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*geocode.Result, error) {
		return resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (*geocode.Result, error) {
			return e.geocoder.Geocode(ctx, geocode.AddressInput{
				Street:  site.Address,
				City:    site.City,
				State:   site.State,
				ZipCode: site.ZIP,
			})
		})
	})
	if err != nil {
		return 0, 0, eris.Wrapf(model.ErrGeocodeFailure, "pipeline: geocode %q: %v", site.Address, err)
	}
	if !res.Matched {
		return 0, 0, eris.Wrapf(model.ErrGeocodeFailure, "pipeline: no geocoder match for %q", site.Address)
	}
	return res.Latitude, res.Longitude, nil
}

// resolveTract returns the census geography for a coordinate, consulting
// the shared cache first so batch sites on the same parcel cost one
// upstream call.
func (e *Evaluator) resolveTract(ctx context.Context, lat, lon float64) (*geocode.TractInfo, error) {
	if info, ok := e.tracts.Get(lat, lon); ok {
		return info, nil
	}

	info, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*geocode.TractInfo, error) {
		return resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (*geocode.TractInfo, error) {
			return e.geocoder.ResolveTract(ctx, lat, lon)
		})
	})
	if err != nil {
		return nil, eris.Wrapf(model.ErrGeocodeFailure, "pipeline: resolve tract at %.6f,%.6f: %v", lat, lon, err)
	}

	e.tracts.Put(lat, lon, info)
	return info, nil
}

// tractReference builds the designation join key from resolved geography.
// The input ZIP wins over the geocoder ZCTA when both are present.
func tractReference(info *geocode.TractInfo, siteZIP string) (model.TractReference, error) {
	tract, err := model.ParseTractCode(info.TractCode)
	if err != nil {
		return model.TractReference{}, eris.Wrapf(model.ErrBoundaryNotFound, "pipeline: tract code %q: %v", info.TractCode, err)
	}

	zip := siteZIP
	if zip == "" {
		zip = info.ZIP
	}
	return model.TractReference{
		StateFIPS:  info.StateFIPS,
		CountyFIPS: info.CountyFIPS,
		Tract:      tract,
		ZIP:        zip,
		GEOID:      info.GEOID,
	}, nil
}
