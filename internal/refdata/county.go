package refdata

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/parkstone-group/sitescore-cli/internal/geospatial"
)

// County is one entry of the county mapping table. Metros lists the city
// names that resolve directly to this county; RuralDefault marks the
// catch-all county for sites in the state that match nothing else.
type County struct {
	Name         string   `yaml:"name"`
	State        string   `yaml:"state"`
	StateFIPS    string   `yaml:"state_fips"`
	CountyFIPS   string   `yaml:"county_fips"`
	CentroidLat  float64  `yaml:"centroid_lat"`
	CentroidLon  float64  `yaml:"centroid_lon"`
	Metros       []string `yaml:"metros"`
	RuralDefault bool     `yaml:"rural_default"`
}

// CountyMatchTier records which fallback tier resolved a county. Lower
// tiers are more precise; the tier is surfaced in result explanations so a
// reviewer can judge how much to trust the rent assumption.
type CountyMatchTier string

const (
	MatchMetro           CountyMatchTier = "metro_exact"
	MatchNameSubstring   CountyMatchTier = "county_name_substring"
	MatchNearestCentroid CountyMatchTier = "nearest_county_centroid"
	MatchStateDefault    CountyMatchTier = "statewide_rural_default"
)

// CountyMap resolves a site's city and state to a county using a fixed
// fallback order: exact metro match, county-name substring, nearest county
// centroid, then the statewide rural default.
type CountyMap struct {
	counties []County
	metros   map[string]int
	defaults map[string]int
}

// LoadCountyMap reads the county mapping table from a YAML file.
func LoadCountyMap(path string) (*CountyMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read county map %s", path)
	}

	var doc struct {
		Counties []County `yaml:"counties"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(err, "refdata: parse county map %s", path)
	}
	if len(doc.Counties) == 0 {
		return nil, eris.Errorf("refdata: county map %s has no counties", path)
	}

	m := &CountyMap{
		counties: doc.Counties,
		metros:   make(map[string]int),
		defaults: make(map[string]int),
	}
	for i := range m.counties {
		c := &m.counties[i]
		c.State = strings.ToUpper(strings.TrimSpace(c.State))
		c.StateFIPS = normalizeFIPSState(c.StateFIPS)
		c.CountyFIPS = normalizeFIPSCounty(c.CountyFIPS)
		if c.Name == "" || c.State == "" {
			return nil, eris.Errorf("refdata: county map %s entry %d missing name or state", path, i)
		}
		for _, metro := range c.Metros {
			m.metros[metroKey(metro, c.State)] = i
		}
		if c.RuralDefault {
			m.defaults[c.State] = i
		}
	}
	return m, nil
}

// Len returns the number of counties in the table.
func (m *CountyMap) Len() int {
	return len(m.counties)
}

// Resolve maps a city and state to a county. Coordinates are optional and
// only consulted by the nearest-centroid tier. The returned tier tells the
// caller which fallback produced the match.
func (m *CountyMap) Resolve(city, state string, lat, lon *float64) (County, CountyMatchTier, error) {
	city = strings.TrimSpace(city)
	state = strings.ToUpper(strings.TrimSpace(state))

	if i, ok := m.metros[metroKey(city, state)]; ok {
		return m.counties[i], MatchMetro, nil
	}

	if city != "" {
		lower := strings.ToLower(city)
		for i, c := range m.counties {
			if c.State != state {
				continue
			}
			name := strings.ToLower(c.Name)
			if strings.Contains(lower, name) || strings.Contains(name, lower) {
				return m.counties[i], MatchNameSubstring, nil
			}
		}
	}

	if lat != nil && lon != nil {
		best := -1
		bestMi := 0.0
		for i, c := range m.counties {
			if c.State != state || (c.CentroidLat == 0 && c.CentroidLon == 0) {
				continue
			}
			mi := geospatial.HaversineMiles(*lat, *lon, c.CentroidLat, c.CentroidLon)
			if best < 0 || mi < bestMi {
				best, bestMi = i, mi
			}
		}
		if best >= 0 {
			return m.counties[best], MatchNearestCentroid, nil
		}
	}

	if i, ok := m.defaults[state]; ok {
		return m.counties[i], MatchStateDefault, nil
	}

	return County{}, "", eris.Errorf("refdata: no county mapping for %q, %s", city, state)
}

func metroKey(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + state
}
