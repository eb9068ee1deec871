package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// resetScreenFlags restores the screen flag state between tests; cobra marks
// flags Changed permanently once Set.
func resetScreenFlags(t *testing.T) {
	t.Helper()
	screenID = "site-1"
	screenName = ""
	screenAddress = ""
	screenCity = ""
	screenState = ""
	screenZIP = ""
	screenLat = 0
	screenLon = 0
	screenDeal = "9"
	for _, name := range []string{"lat", "lon"} {
		if f := screenCmd.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
}

func TestScreenSite_RequiresPlacement(t *testing.T) {
	resetScreenFlags(t)

	_, err := screenSite(screenCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provide --lat/--lon or --address")
}

func TestScreenSite_AddressSite(t *testing.T) {
	resetScreenFlags(t)
	screenAddress = "1000 Grand Ave"
	screenCity = "Los Angeles"
	screenState = "CA"
	screenZIP = "90015"

	site, err := screenSite(screenCmd)
	require.NoError(t, err)

	assert.Equal(t, "site-1", site.ID)
	assert.Equal(t, "1000 Grand Ave", site.Address)
	assert.Equal(t, model.Deal9Percent, site.DealType)
	assert.False(t, site.HasCoordinates())

	// An unnamed site borrows its address for display.
	assert.Equal(t, "1000 Grand Ave", site.Name)
}

func TestScreenSite_CoordinateSite(t *testing.T) {
	resetScreenFlags(t)
	require.NoError(t, screenCmd.Flags().Set("lat", "34.0522"))
	require.NoError(t, screenCmd.Flags().Set("lon", "-118.2437"))
	screenDeal = "4"

	site, err := screenSite(screenCmd)
	require.NoError(t, err)

	require.True(t, site.HasCoordinates())
	assert.InDelta(t, 34.0522, *site.Lat, 1e-9)
	assert.InDelta(t, -118.2437, *site.Lon, 1e-9)
	assert.Equal(t, model.Deal4Percent, site.DealType)
}

func TestScreenSite_LatWithoutLonNeedsAddress(t *testing.T) {
	resetScreenFlags(t)
	require.NoError(t, screenCmd.Flags().Set("lat", "34.0522"))

	_, err := screenSite(screenCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provide --lat/--lon or --address")
}

func TestScreenSite_BadDealType(t *testing.T) {
	resetScreenFlags(t)
	screenAddress = "1000 Grand Ave"
	screenCity = "Los Angeles"
	screenState = "CA"
	screenDeal = "12"

	_, err := screenSite(screenCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown deal type")
}
