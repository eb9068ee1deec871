package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkstone-group/sitescore-cli/internal/config"
	"github.com/parkstone-group/sitescore-cli/internal/model"
	"github.com/parkstone-group/sitescore-cli/internal/refdata"
	"github.com/parkstone-group/sitescore-cli/internal/resilience"
	"github.com/parkstone-group/sitescore-cli/pkg/geocode"
)

const (
	siteLat = 34.0522
	siteLon = -118.2437

	milesPerDegree = 3958.7613 * math.Pi / 180
)

// northOf offsets latitude so the haversine distance comes out to the
// given mileage exactly.
func northOf(miles float64) float64 {
	return siteLat + miles/milesPerDegree
}

// schedule builds a pipe-joined departure list covering both peak
// windows at a fixed interval.
func schedule(intervalMin int) string {
	var times []string
	for _, w := range [][2]int{{7 * 60, 9 * 60}, {16 * 60, 18 * 60}} {
		for m := w[0]; m <= w[1]; m += intervalMin {
			times = append(times, fmt.Sprintf("%02d:%02d", m/60, m%60))
		}
	}
	return strings.Join(times, "|")
}

// writeEvalDataset lays out a downtown scenario: the site tract is both
// QCT and DDA, one competing award sits 0.8 mi out, and every amenity
// category lands in its top tier.
func writeEvalDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	write("designations.csv", "kind,state_fips,county_fips,tract,zip,tier\n"+
		"qct,06,037,2087.10,,\n"+
		"dda,,,,90015,\n")

	write("projects.csv", "name,lat,lon,award_year,units,deal_type\n"+
		fmt.Sprintf("Vermont Manor,%.6f,%.6f,2024,70,9%%\n", northOf(0.8), siteLon))

	write("amenities.csv", "category,name,lat,lon,hqta,departures\n"+
		fmt.Sprintf("transit,Metro Stop A,%.6f,%.6f,false,%s\n", northOf(0.20), siteLon, schedule(12))+
		fmt.Sprintf("grocery,Ralphs Downtown,%.6f,%.6f,,\n", northOf(0.40), siteLon)+
		fmt.Sprintf("park,Gilbert Lindsay Park,%.6f,%.6f,,\n", northOf(0.45), siteLon)+
		fmt.Sprintf("elementary,20th Street Elementary,%.6f,%.6f,,\n", northOf(0.20), siteLon)+
		fmt.Sprintf("medical,Dignity Health Clinic,%.6f,%.6f,,\n", northOf(0.45), siteLon))

	write("counties.yaml", `counties:
  - name: Los Angeles
    state: CA
    state_fips: "06"
    county_fips: "037"
    centroid_lat: 34.32
    centroid_lon: -118.23
    metros:
      - Los Angeles
`)

	write("rents.csv", "county,state,monthly_rent\nLos Angeles,CA,2100\n,CA,1500\n")

	return dir
}

func testEvalConfig(dir string) *config.Config {
	return &config.Config{
		Datasets: config.DatasetsConfig{
			Dir:          dir,
			Designations: "designations.csv",
			Projects:     "projects.csv",
			Amenities:    "amenities.csv",
			Counties:     "counties.yaml",
			Rents:        "rents.csv",
			Encoding:     "utf-8",
		},
		Rules:   config.RulesConfig{CycleYear: 2026},
		Geocode: config.GeocodeConfig{MaxAttempts: 3, InitialBackoffMs: 1, BreakerThreshold: 5, BreakerResetSecs: 1},
		Batch:   config.BatchConfig{Concurrency: 4},
	}
}

type fakeGeocoder struct {
	geocodeFn    func(addr geocode.AddressInput) (*geocode.Result, error)
	tractFn      func(lat, lon float64) (*geocode.TractInfo, error)
	geocodeCalls atomic.Int32
	tractCalls   atomic.Int32
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		geocodeFn: func(addr geocode.AddressInput) (*geocode.Result, error) {
			return &geocode.Result{Latitude: siteLat, Longitude: siteLon, MatchedAddress: addr.Street, Matched: true}, nil
		},
		tractFn: func(lat, lon float64) (*geocode.TractInfo, error) {
			return &geocode.TractInfo{StateFIPS: "06", CountyFIPS: "037", TractCode: "208710", GEOID: "06037208710"}, nil
		},
	}
}

func (f *fakeGeocoder) Geocode(_ context.Context, addr geocode.AddressInput) (*geocode.Result, error) {
	f.geocodeCalls.Add(1)
	return f.geocodeFn(addr)
}

func (f *fakeGeocoder) ResolveTract(_ context.Context, lat, lon float64) (*geocode.TractInfo, error) {
	f.tractCalls.Add(1)
	return f.tractFn(lat, lon)
}

func newTestEvaluator(t *testing.T, gc geocode.Client) *Evaluator {
	t.Helper()
	cfg := testEvalConfig(writeEvalDataset(t))
	catalog, err := refdata.Load(cfg.Datasets)
	require.NoError(t, err)
	return New(cfg, catalog, gc)
}

func downtownSite(deal model.DealType) model.Site {
	lat, lon := siteLat, siteLon
	return model.Site{
		ID:             "site-001",
		Name:           "Grand Avenue Assemblage",
		Address:        "1200 S Grand Ave",
		City:           "Los Angeles",
		State:          "CA",
		ZIP:            "90015",
		Lat:            &lat,
		Lon:            &lon,
		Acres:          2.1,
		DensityPerAcre: 42.9,
		AskingPriceUSD: 2_500_000,
		DealType:       deal,
	}
}

func TestEvaluateSite_NinePercentFatal(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, newFakeGeocoder())
	got := e.EvaluateSite(context.Background(), downtownSite(model.Deal9Percent))

	require.Equal(t, model.StatusOK, got.Status)
	require.NotNil(t, got.Competition)

	// Awarded 2024, cycle 2026, lookback 3: still inside the window.
	assert.Equal(t, 1, got.Competition.ProjectsWithin1Mi)
	assert.True(t, got.Competition.OneMileFatal)
	assert.Equal(t, "Fatal", got.Tier)

	require.NotNil(t, got.Competition.Nearest)
	assert.Equal(t, "Vermont Manor", got.Competition.Nearest.Name)
	assert.Equal(t, 0.80, got.Competition.Nearest.DistanceMi)

	joined := strings.Join(got.Explanation, "\n")
	assert.Contains(t, joined, "fatal for a 9% application")
}

func TestEvaluateSite_FourPercentScoresClear(t *testing.T) {
	t.Parallel()

	e := newTestEvaluator(t, newFakeGeocoder())
	got := e.EvaluateSite(context.Background(), downtownSite(model.Deal4Percent))

	require.Equal(t, model.StatusOK, got.Status)
	assert.Empty(t, got.Reason)
	assert.Equal(t, siteLat, got.Lat)
	assert.Equal(t, siteLon, got.Lon)

	require.NotNil(t, got.Tract)
	assert.Equal(t, "06", got.Tract.StateFIPS)
	assert.Equal(t, "037", got.Tract.CountyFIPS)
	assert.InDelta(t, 2087.10, got.Tract.Tract, 1e-9)
	assert.Equal(t, "90015", got.Tract.ZIP, "input ZIP wins over geocoder ZCTA")

	require.NotNil(t, got.Eligibility)
	assert.True(t, got.Eligibility.QCT)
	assert.True(t, got.Eligibility.DDA)
	assert.Equal(t, "QCT + DDA", got.Eligibility.Classification)
	assert.Equal(t, 0.30, got.Eligibility.BoostFactor)

	// The same nearby award is counted but never fatal for a bond deal.
	require.NotNil(t, got.Competition)
	assert.Equal(t, 1, got.Competition.ProjectsWithin1Mi)
	assert.Equal(t, 1, got.Competition.ProjectsWithin2Mi)
	assert.False(t, got.Competition.OneMileFatal)
	assert.False(t, got.Competition.TwoMilePenalty)

	// Every category in its top tier: 7+3+5+3+3.
	assert.Equal(t, 21, got.AmenityTotal)
	require.Len(t, got.Categories, 5)
	assert.Equal(t, model.CategoryTransit, got.Categories[0].Category)
	assert.Equal(t, 7, got.Categories[0].Points)
	assert.Equal(t, 0.20, got.Categories[0].DistanceMi)

	assert.Equal(t, string(refdata.MatchMetro), got.CountyMatch)

	// net    = 90 * 2100 * 12 * 0.95 * 0.62 = 1_335_852
	// equity = 0.40 * 19_350_000 * 1.30     = 10_062_000
	// ratio  = 1_335_852 / 11_788_000       = 0.113
	assert.Equal(t, refdata.RentBasisCounty, got.ViabilityBasis)
	assert.Equal(t, 0.113, got.ViabilityRatio)
	assert.Equal(t, "Exceptional", got.Tier)

	joined := strings.Join(got.Explanation, "\n")
	assert.Contains(t, joined, "QCT + DDA")
	assert.Contains(t, joined, "Vermont Manor")
	assert.Contains(t, joined, "exceptional band")
}

func TestEvaluateSite_GeocodesWhenNoCoordinates(t *testing.T) {
	t.Parallel()

	gc := newFakeGeocoder()
	e := newTestEvaluator(t, gc)

	site := downtownSite(model.Deal4Percent)
	site.Lat, site.Lon = nil, nil

	got := e.EvaluateSite(context.Background(), site)

	require.Equal(t, model.StatusOK, got.Status)
	assert.Equal(t, int32(1), gc.geocodeCalls.Load())
	assert.Equal(t, siteLat, got.Lat)
	assert.Equal(t, siteLon, got.Lon)
}

func TestEvaluateSite_SkipsAfterRetries(t *testing.T) {
	t.Parallel()

	gc := newFakeGeocoder()
	gc.geocodeFn = func(geocode.AddressInput) (*geocode.Result, error) {
		return nil, resilience.NewTransientError(fmt.Errorf("upstream 503"), 503)
	}
	e := newTestEvaluator(t, gc)

	site := downtownSite(model.Deal9Percent)
	site.Lat, site.Lon = nil, nil

	got := e.EvaluateSite(context.Background(), site)

	assert.Equal(t, model.StatusSkipped, got.Status)
	assert.Equal(t, "geocode_failure", got.Reason)
	assert.Equal(t, int32(3), gc.geocodeCalls.Load(), "transient errors exhaust all attempts")

	// Nothing downstream ran.
	assert.Nil(t, got.Eligibility)
	assert.Nil(t, got.Competition)
	assert.Empty(t, got.Categories)
	assert.Empty(t, got.Tier)
}

func TestEvaluateSite_NoMatchIsSkipped(t *testing.T) {
	t.Parallel()

	gc := newFakeGeocoder()
	gc.geocodeFn = func(geocode.AddressInput) (*geocode.Result, error) {
		return &geocode.Result{Matched: false}, nil
	}
	e := newTestEvaluator(t, gc)

	site := downtownSite(model.Deal9Percent)
	site.Lat, site.Lon = nil, nil

	got := e.EvaluateSite(context.Background(), site)

	assert.Equal(t, model.StatusSkipped, got.Status)
	assert.Equal(t, "geocode_failure", got.Reason)
	assert.Equal(t, int32(1), gc.geocodeCalls.Load(), "a clean no-match is permanent, not retried")
}

func TestEvaluateSite_MalformedTractFails(t *testing.T) {
	t.Parallel()

	gc := newFakeGeocoder()
	gc.tractFn = func(lat, lon float64) (*geocode.TractInfo, error) {
		return &geocode.TractInfo{StateFIPS: "06", CountyFIPS: "037", TractCode: "20871X"}, nil
	}
	e := newTestEvaluator(t, gc)

	got := e.EvaluateSite(context.Background(), downtownSite(model.Deal9Percent))

	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "boundary_not_found", got.Reason)
	assert.Nil(t, got.Eligibility)
}

func TestEvaluateSite_TractCacheSharedAcrossSites(t *testing.T) {
	t.Parallel()

	gc := newFakeGeocoder()
	e := newTestEvaluator(t, gc)

	first := e.EvaluateSite(context.Background(), downtownSite(model.Deal4Percent))
	require.Equal(t, model.StatusOK, first.Status)

	second := downtownSite(model.Deal4Percent)
	second.ID = "site-002"
	got := e.EvaluateSite(context.Background(), second)
	require.Equal(t, model.StatusOK, got.Status)

	assert.Equal(t, int32(1), gc.tractCalls.Load(), "same coordinate resolves once")
}
