package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const designationsCSV = `kind,state_fips,county_fips,tract,zip,tier
qct,6,37,2087.10,,
qct,06,037,208720,,
dda,,,,90057,
dda,,,,2108,
opportunity,6,37,1201.01,,Highest Resource
`

const projectsCSV = `name,lat,lon,award_year,units,deal_type
Vista Terrace,34.0622,-118.3001,2024,80,9%
Courtyard Commons,34.0522,-118.2437,2022,64,4%
Unplaced Project,,,2023,40,
`

const amenitiesCSV = `category,name,lat,lon,hqta,departures
transit,Vermont Station,34.0766,-118.2917,true,07:40|07:10|08:10
transit,Local Stop 12,34.0702,-118.2940,false,7:05|07:50|16:20|17:05
park,MacArthur Park,34.0592,-118.2769,,
grocery,Numero Uno Market,34.0585,-118.2822,,
elementary,Charles White Elementary,34.0613,-118.2803,,
medical,Good Samaritan Hospital,34.0563,-118.2663,,
`

const countiesYAML = `counties:
  - name: Los Angeles
    state: CA
    state_fips: "6"
    county_fips: "37"
    centroid_lat: 34.32
    centroid_lon: -118.23
    metros:
      - Los Angeles
      - Long Beach
      - Glendale
  - name: Fresno
    state: CA
    state_fips: "06"
    county_fips: "019"
    centroid_lat: 36.76
    centroid_lon: -119.65
    rural_default: true
  - name: Kern
    state: CA
    state_fips: "06"
    county_fips: "029"
    centroid_lat: 35.34
    centroid_lon: -118.73
`

const rentsCSV = `county,state,monthly_rent
Los Angeles,CA,2100
Kern County,CA,1280
,CA,1500
`

const sitesCSV = `id,name,address,city,state,zip,lat,lon,acres,density_per_acre,asking_price,deal_type
,Wilshire Assemblage,3000 Wilshire Blvd,Los Angeles,CA,90010,34.0617,-118.2922,2.1,42.9,2500000,9
S-22,,1400 Q Street,Sacramento,CA,95811,,,1.4,35,1800000,4%
`

// writeDatasetDir lays out a complete, valid dataset directory.
func writeDatasetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "designations.csv", designationsCSV)
	writeFixture(t, dir, "projects.csv", projectsCSV)
	writeFixture(t, dir, "amenities.csv", amenitiesCSV)
	writeFixture(t, dir, "counties.yaml", countiesYAML)
	writeFixture(t, dir, "rents.csv", rentsCSV)
	return dir
}
