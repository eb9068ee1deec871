package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkstone-group/sitescore-cli/internal/config"
	"github.com/parkstone-group/sitescore-cli/internal/model"
)

func TestBandsFromConfig(t *testing.T) {
	t.Parallel()

	def := BandsFromConfig(config.ScoringConfig{})
	assert.Equal(t, 0.090, def.Exceptional)
	assert.Equal(t, 0.085, def.HighPotential)
	assert.Equal(t, 0.078, def.Good)

	custom := BandsFromConfig(config.ScoringConfig{
		ExceptionalRatio:   0.12,
		HighPotentialRatio: 0.10,
		GoodRatio:          0.08,
	})
	assert.Equal(t, 0.12, custom.Exceptional)
	assert.Equal(t, 0.10, custom.HighPotential)
	assert.Equal(t, 0.08, custom.Good)
}

func TestBandsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, BandsFromConfig(config.ScoringConfig{}).Validate())

	err := Bands{Exceptional: 0.08, HighPotential: 0.085, Good: 0.078}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceptional_ratio")

	err = Bands{Exceptional: 0.09, HighPotential: 0.085}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "good_ratio")
}

func TestRank_Bands(t *testing.T) {
	t.Parallel()

	bands := BandsFromConfig(config.ScoringConfig{})

	cases := []struct {
		name  string
		ratio float64
		want  string
	}{
		{"well above exceptional", 0.110, TierExceptional},
		{"exceptional cutoff is inclusive", 0.090, TierExceptional},
		{"just under exceptional", 0.089, TierHighPotential},
		{"high potential cutoff is inclusive", 0.085, TierHighPotential},
		{"just under high potential", 0.084, TierGood},
		{"good cutoff is inclusive", 0.078, TierGood},
		{"just under good", 0.077, TierPoor},
		{"zero ratio", 0, TierPoor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := bands.Rank(model.Deal9Percent, &model.CompetitionResult{}, tc.ratio)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRank_FatalOverridesRatio(t *testing.T) {
	t.Parallel()

	bands := BandsFromConfig(config.ScoringConfig{})
	comp := &model.CompetitionResult{ProjectsWithin1Mi: 1, OneMileFatal: true}

	got := bands.Rank(model.Deal9Percent, comp, 0.110)
	assert.Equal(t, TierFatal, got, "a one-mile award sinks even an exceptional ratio")
}

func TestRank_FourPercentNeverFatal(t *testing.T) {
	t.Parallel()

	bands := BandsFromConfig(config.ScoringConfig{})
	comp := &model.CompetitionResult{ProjectsWithin1Mi: 3, OneMileFatal: true}

	for _, ratio := range []float64{0, 0.050, 0.078, 0.085, 0.090, 0.120} {
		got := bands.Rank(model.Deal4Percent, comp, ratio)
		assert.NotEqual(t, TierFatal, got, "ratio %.3f", ratio)
	}
}

func TestRank_NilCompetition(t *testing.T) {
	t.Parallel()

	bands := BandsFromConfig(config.ScoringConfig{})
	assert.Equal(t, TierExceptional, bands.Rank(model.Deal9Percent, nil, 0.095))
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	bands := BandsFromConfig(config.ScoringConfig{})

	assert.Contains(t, bands.Describe(TierFatal, 0.095), "fatal for a 9% application")
	assert.Equal(t, "viability ratio 0.092 clears the exceptional band at 0.090", bands.Describe(TierExceptional, 0.092))
	assert.Equal(t, "viability ratio 0.078 clears the good band at 0.078", bands.Describe(TierGood, 0.078))
	assert.Equal(t, "viability ratio 0.065 falls below the good band at 0.078", bands.Describe(TierPoor, 0.065))
}
