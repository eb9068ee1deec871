package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOpportunityTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    OpportunityTier
		wantErr bool
	}{
		{name: "highest", input: "Highest", want: OppTierHighest},
		{name: "highest resource label", input: "Highest Resource", want: OppTierHighest},
		{name: "high", input: "high", want: OppTierHigh},
		{name: "moderate", input: "moderate", want: OppTierModerate},
		{name: "empty means none", input: "", want: OppTierNone},
		{name: "none", input: "none", want: OppTierNone},
		{name: "unknown", input: "low-ish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseOpportunityTier(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpportunityTierRank(t *testing.T) {
	t.Parallel()

	assert.Greater(t, OppTierHighest.Rank(), OppTierHigh.Rank())
	assert.Greater(t, OppTierHigh.Rank(), OppTierModerate.Rank())
	assert.Greater(t, OppTierModerate.Rank(), OppTierNone.Rank())
	assert.Equal(t, -1, OpportunityTier("bogus").Rank())
}

func TestDesignationTractKeyed(t *testing.T) {
	t.Parallel()

	assert.True(t, Designation{Kind: DesignationQCT}.TractKeyed())
	assert.True(t, Designation{Kind: DesignationOpportunity}.TractKeyed())
	assert.False(t, Designation{Kind: DesignationDDA}.TractKeyed())
}
