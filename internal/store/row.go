package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// resultColumns is the flattened results schema in insert order. The SQL in
// both drivers and the scan order in scanResult must follow it.
var resultColumns = []string{
	"id", "run_id", "seq", "site_id", "site_name", "deal_type", "status", "reason",
	"lat", "lon", "state_fips", "county_fips", "tract", "zip", "geoid", "county_match",
	"qct", "dda", "opportunity_tier", "classification", "boost_eligible", "boost_factor",
	"projects_1mi", "projects_2mi", "one_mile_fatal", "two_mile_penalty",
	"nearest_name", "nearest_distance_mi", "nearest_award_year",
	"amenity_total", "viability_ratio", "viability_basis", "tier",
	"categories", "explanation", "created_at",
}

// resultSelectColumns lists the columns scanResult reads, in scan order.
const resultSelectColumns = `site_id, site_name, deal_type, status, reason,
	lat, lon, state_fips, county_fips, tract, zip, geoid, county_match,
	qct, dda, opportunity_tier, classification, boost_eligible, boost_factor,
	projects_1mi, projects_2mi, one_mile_fatal, two_mile_penalty,
	nearest_name, nearest_distance_mi, nearest_award_year,
	amenity_total, viability_ratio, viability_basis, tier, categories, explanation`

const runSelectColumns = `id, kind, cycle_year, dataset_digest, total, ok, skipped, failed, started_at, finished_at`

// resultValues flattens a result into one row of insert values matching
// resultColumns. Absent sections flatten to zero values; presence is
// recoverable from the fields themselves (a resolved tract always has a
// state FIPS, an evaluated designation set always has a classification).
func resultValues(id, runID string, seq int, r *model.ScoreResult, now time.Time) ([]any, error) {
	var stateFIPS, countyFIPS, zip, geoid string
	var tract float64
	if r.Tract != nil {
		stateFIPS = r.Tract.StateFIPS
		countyFIPS = r.Tract.CountyFIPS
		tract = r.Tract.Tract
		zip = r.Tract.ZIP
		geoid = r.Tract.GEOID
	}

	var qct, dda, boostEligible bool
	var oppTier, classification string
	var boostFactor float64
	if r.Eligibility != nil {
		qct = r.Eligibility.QCT
		dda = r.Eligibility.DDA
		oppTier = string(r.Eligibility.OpportunityTier)
		classification = r.Eligibility.Classification
		boostEligible = r.Eligibility.BasisBoostEligible
		boostFactor = r.Eligibility.BoostFactor
	}

	var projects1Mi, projects2Mi, nearestAwardYear int
	var oneMileFatal, twoMilePenalty bool
	var nearestName string
	var nearestDistanceMi float64
	if r.Competition != nil {
		projects1Mi = r.Competition.ProjectsWithin1Mi
		projects2Mi = r.Competition.ProjectsWithin2Mi
		oneMileFatal = r.Competition.OneMileFatal
		twoMilePenalty = r.Competition.TwoMilePenalty
		if r.Competition.Nearest != nil {
			nearestName = r.Competition.Nearest.Name
			nearestDistanceMi = r.Competition.Nearest.DistanceMi
			nearestAwardYear = r.Competition.Nearest.AwardYear
		}
	}

	var categoriesJSON, explanationJSON any
	if len(r.Categories) > 0 {
		data, err := json.Marshal(r.Categories)
		if err != nil {
			return nil, eris.Wrapf(err, "store: marshal categories for site %s", r.SiteID)
		}
		categoriesJSON = string(data)
	}
	if len(r.Explanation) > 0 {
		data, err := json.Marshal(r.Explanation)
		if err != nil {
			return nil, eris.Wrapf(err, "store: marshal explanation for site %s", r.SiteID)
		}
		explanationJSON = string(data)
	}

	return []any{
		id, runID, seq, r.SiteID, r.SiteName, string(r.DealType), string(r.Status), r.Reason,
		r.Lat, r.Lon, stateFIPS, countyFIPS, tract, zip, geoid, r.CountyMatch,
		qct, dda, oppTier, classification, boostEligible, boostFactor,
		projects1Mi, projects2Mi, oneMileFatal, twoMilePenalty,
		nearestName, nearestDistanceMi, nearestAwardYear,
		r.AmenityTotal, r.ViabilityRatio, r.ViabilityBasis, r.Tier,
		categoriesJSON, explanationJSON, now,
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanResult rebuilds a ScoreResult from one flattened row. Driver-specific
// not-found handling stays with the caller; scan errors come back raw.
func scanResult(row scannable) (*model.ScoreResult, error) {
	var (
		r                               model.ScoreResult
		dealType, status                string
		stateFIPS, countyFIPS           string
		tract                           float64
		zip, geoid                      string
		qct, dda, boostEligible         bool
		oppTier, classification         string
		boostFactor                     float64
		projects1Mi, projects2Mi        int
		oneMileFatal, twoMilePenalty    bool
		nearestName                     string
		nearestDistanceMi               float64
		nearestAwardYear                int
		categoriesJSON, explanationJSON *string
	)

	err := row.Scan(
		&r.SiteID, &r.SiteName, &dealType, &status, &r.Reason,
		&r.Lat, &r.Lon, &stateFIPS, &countyFIPS, &tract, &zip, &geoid, &r.CountyMatch,
		&qct, &dda, &oppTier, &classification, &boostEligible, &boostFactor,
		&projects1Mi, &projects2Mi, &oneMileFatal, &twoMilePenalty,
		&nearestName, &nearestDistanceMi, &nearestAwardYear,
		&r.AmenityTotal, &r.ViabilityRatio, &r.ViabilityBasis, &r.Tier,
		&categoriesJSON, &explanationJSON,
	)
	if err != nil {
		return nil, err
	}

	r.DealType = model.DealType(dealType)
	r.Status = model.EvalStatus(status)

	if stateFIPS != "" {
		r.Tract = &model.TractReference{
			StateFIPS:  stateFIPS,
			CountyFIPS: countyFIPS,
			Tract:      tract,
			ZIP:        zip,
			GEOID:      geoid,
		}
	}
	if classification != "" {
		r.Eligibility = &model.EligibilityResult{
			QCT:                qct,
			DDA:                dda,
			OpportunityTier:    model.OpportunityTier(oppTier),
			Classification:     classification,
			BasisBoostEligible: boostEligible,
			BoostFactor:        boostFactor,
		}
	}
	if r.Status == model.StatusOK {
		comp := &model.CompetitionResult{
			ProjectsWithin1Mi: projects1Mi,
			ProjectsWithin2Mi: projects2Mi,
			OneMileFatal:      oneMileFatal,
			TwoMilePenalty:    twoMilePenalty,
		}
		if nearestName != "" {
			comp.Nearest = &model.NearbyProject{
				Name:       nearestName,
				DistanceMi: nearestDistanceMi,
				AwardYear:  nearestAwardYear,
			}
		}
		r.Competition = comp
	}
	if categoriesJSON != nil {
		if err := json.Unmarshal([]byte(*categoriesJSON), &r.Categories); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal categories for site %s", r.SiteID)
		}
	}
	if explanationJSON != nil {
		if err := json.Unmarshal([]byte(*explanationJSON), &r.Explanation); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal explanation for site %s", r.SiteID)
		}
	}
	return &r, nil
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	err := row.Scan(&r.ID, &r.Kind, &r.CycleYear, &r.DatasetDigest,
		&r.Summary.Total, &r.Summary.OK, &r.Summary.Skipped, &r.Summary.Failed,
		&r.StartedAt, &r.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// fillRunDefaults assigns an ID and timestamps to a run about to be saved,
// leaving caller-provided values alone.
func fillRunDefaults(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = now
	}
}
