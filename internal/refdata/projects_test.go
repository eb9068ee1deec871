package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

func TestLoadProjects(t *testing.T) {
	t.Parallel()

	path := writeFixture(t, t.TempDir(), "projects.csv", projectsCSV)

	got, err := LoadProjects(path, "utf-8")
	require.NoError(t, err)
	require.Len(t, got, 3)

	vista := got[0]
	assert.Equal(t, "Vista Terrace", vista.Name)
	require.True(t, vista.HasCoordinates())
	assert.InDelta(t, 34.0622, *vista.Lat, 1e-9)
	assert.InDelta(t, -118.3001, *vista.Lon, 1e-9)
	assert.Equal(t, 2024, vista.AwardYear)
	assert.Equal(t, 80, vista.Units)
	assert.Equal(t, model.Deal9Percent, vista.DealType)

	assert.Equal(t, model.Deal4Percent, got[1].DealType)

	// Ungeocoded rows are kept but flagged; the competition engine skips them.
	unplaced := got[2]
	assert.False(t, unplaced.HasCoordinates())
	assert.Equal(t, 2023, unplaced.AwardYear)
}

func TestLoadProjects_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		csv  string
		want string
	}{
		{
			name: "missing name",
			csv:  "name,lat,lon,award_year,units,deal_type\n,34.0,-118.0,2024,50,9%\n",
			want: "missing name",
		},
		{
			name: "missing award year",
			csv:  "name,lat,lon,award_year,units,deal_type\nNo Year Apartments,34.0,-118.0,,50,9%\n",
			want: "missing award year",
		},
		{
			name: "bad deal type",
			csv:  "name,lat,lon,award_year,units,deal_type\nOdd Deal,34.0,-118.0,2024,50,12%\n",
			want: "deal type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFixture(t, t.TempDir(), "bad.csv", tc.csv)
			_, err := LoadProjects(path, "utf-8")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
