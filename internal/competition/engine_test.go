package competition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkstone-group/sitescore-cli/internal/config"
	"github.com/parkstone-group/sitescore-cli/internal/model"
)

const (
	siteLat = 34.0522
	siteLon = -118.2437

	milesPerDegree = 3958.7613 * math.Pi / 180
)

// projectAt places a project due north of the test site at a given
// distance in statute miles.
func projectAt(name string, miles float64, awardYear int) model.CompetingProject {
	lat := siteLat + miles/milesPerDegree
	lon := siteLon
	return model.CompetingProject{Name: name, Lat: &lat, Lon: &lon, AwardYear: awardYear}
}

func testRules() Rules {
	return Rules{OneMileRadius: 1.0, TwoMileRadius: 2.0, LookbackYears: 3, CycleYear: 2026}
}

func TestRulesFromConfig(t *testing.T) {
	t.Parallel()

	r := RulesFromConfig(config.RulesConfig{})
	assert.Equal(t, 1.0, r.OneMileRadius)
	assert.Equal(t, 2.0, r.TwoMileRadius)
	assert.Equal(t, 3, r.LookbackYears)
	assert.Equal(t, nowFunc().Year(), r.CycleYear, "zero cycle year means current year")

	r = RulesFromConfig(config.RulesConfig{OneMileRadius: 0.75, TwoMileRadius: 1.5, LookbackYears: 2, CycleYear: 2025})
	assert.Equal(t, Rules{OneMileRadius: 0.75, TwoMileRadius: 1.5, LookbackYears: 2, CycleYear: 2025}, r)
}

func TestEvaluate_NinePercentFatal(t *testing.T) {
	t.Parallel()

	// Awarded two years before the cycle, 0.8 miles out.
	e := NewEngine(testRules(), []model.CompetingProject{projectAt("Vista Terrace", 0.8, 2024)})

	res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
	assert.True(t, res.OneMileFatal)
	assert.False(t, res.TwoMilePenalty)
	assert.Equal(t, 1, res.ProjectsWithin1Mi)
	assert.Equal(t, 1, res.ProjectsWithin2Mi)
	require.NotNil(t, res.Nearest)
	assert.Equal(t, "Vista Terrace", res.Nearest.Name)
	assert.Equal(t, 0.8, res.Nearest.DistanceMi)
}

func TestEvaluate_FourPercentNeverFlags(t *testing.T) {
	t.Parallel()

	// Same geometry as the fatal case plus a same-cycle award at 1.5 mi.
	e := NewEngine(testRules(), []model.CompetingProject{
		projectAt("Vista Terrace", 0.8, 2024),
		projectAt("Courtyard Commons", 1.5, 2026),
	})

	res := e.Evaluate(siteLat, siteLon, model.Deal4Percent)
	assert.False(t, res.OneMileFatal, "4% deals are exempt by statute")
	assert.False(t, res.TwoMilePenalty)
	assert.Equal(t, 1, res.ProjectsWithin1Mi, "counts still tracked for saturation")
	assert.Equal(t, 2, res.ProjectsWithin2Mi)
	require.NotNil(t, res.Nearest)
	assert.Equal(t, "Vista Terrace", res.Nearest.Name)
}

func TestEvaluate_LookbackWindow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		awardYear int
		wantFatal bool
	}{
		{name: "same cycle year", awardYear: 2026, wantFatal: true},
		{name: "one year back", awardYear: 2025, wantFatal: true},
		{name: "two years back", awardYear: 2024, wantFatal: true},
		{name: "exactly lookback years back ages out", awardYear: 2023, wantFatal: false},
		{name: "well aged", awardYear: 2019, wantFatal: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := NewEngine(testRules(), []model.CompetingProject{projectAt("Prior Award", 0.5, tc.awardYear)})
			res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
			assert.Equal(t, tc.wantFatal, res.OneMileFatal)
			assert.Equal(t, 1, res.ProjectsWithin1Mi, "count is year-independent")
		})
	}
}

func TestEvaluate_PenaltyIndependentOfFatal(t *testing.T) {
	t.Parallel()

	t.Run("penalty only", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testRules(), []model.CompetingProject{projectAt("Same Cycle", 1.5, 2026)})
		res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
		assert.False(t, res.OneMileFatal)
		assert.True(t, res.TwoMilePenalty)
	})

	t.Run("both at once", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testRules(), []model.CompetingProject{projectAt("Same Cycle Close", 0.8, 2026)})
		res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
		assert.True(t, res.OneMileFatal)
		assert.True(t, res.TwoMilePenalty)
	})

	t.Run("prior year at two miles is neither", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testRules(), []model.CompetingProject{projectAt("Old Far", 1.5, 2024)})
		res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
		assert.False(t, res.OneMileFatal)
		assert.False(t, res.TwoMilePenalty)
		assert.Equal(t, 1, res.ProjectsWithin2Mi)
	})
}

func TestEvaluate_RadiusBoundariesInclusive(t *testing.T) {
	t.Parallel()

	e := NewEngine(testRules(), []model.CompetingProject{
		projectAt("At One Mile", 1.0, 2025),
		projectAt("At Two Miles", 2.0, 2025),
		projectAt("Past Two Miles", 2.4, 2025),
	})

	res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
	assert.Equal(t, 1, res.ProjectsWithin1Mi, "exactly 1.00 mi is within")
	assert.Equal(t, 2, res.ProjectsWithin2Mi, "exactly 2.00 mi is within, 2.40 is not")
	assert.True(t, res.OneMileFatal)
}

func TestEvaluate_NearestSelection(t *testing.T) {
	t.Parallel()

	t.Run("closer wins regardless of year", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testRules(), []model.CompetingProject{
			projectAt("Far Recent", 1.8, 2026),
			projectAt("Near Old", 0.6, 2019),
		})
		res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
		require.NotNil(t, res.Nearest)
		assert.Equal(t, "Near Old", res.Nearest.Name)
		assert.Equal(t, 0.6, res.Nearest.DistanceMi)
	})

	t.Run("distance tie broken by most recent award", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testRules(), []model.CompetingProject{
			projectAt("Tied Older", 1.2, 2021),
			projectAt("Tied Newer", 1.2, 2024),
		})
		res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
		require.NotNil(t, res.Nearest)
		assert.Equal(t, "Tied Newer", res.Nearest.Name)
		assert.Equal(t, 2024, res.Nearest.AwardYear)
	})

	t.Run("nothing in radius leaves nearest unset", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(testRules(), []model.CompetingProject{projectAt("Distant", 5.0, 2026)})
		res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
		assert.Nil(t, res.Nearest)
		assert.Zero(t, res.ProjectsWithin2Mi)
	})
}

func TestEvaluate_SkipsUnresolvedProjects(t *testing.T) {
	t.Parallel()

	e := NewEngine(testRules(), []model.CompetingProject{
		{Name: "No Coordinates", AwardYear: 2026},
		projectAt("Located", 0.4, 2019),
	})

	res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
	assert.Equal(t, 1, res.ProjectsWithin1Mi, "unresolved rows never count as distance zero")
	require.NotNil(t, res.Nearest)
	assert.Equal(t, "Located", res.Nearest.Name)
}

func TestEvaluate_EmptyRegistry(t *testing.T) {
	t.Parallel()

	e := NewEngine(testRules(), nil)
	res := e.Evaluate(siteLat, siteLon, model.Deal9Percent)
	assert.Zero(t, res.ProjectsWithin1Mi)
	assert.Zero(t, res.ProjectsWithin2Mi)
	assert.False(t, res.OneMileFatal)
	assert.False(t, res.TwoMilePenalty)
	assert.Nil(t, res.Nearest)
}
