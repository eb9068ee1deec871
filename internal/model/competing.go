package model

// CompetingProject is one row of the awarded-projects registry used for
// proximity competition checks. Coordinates are nil when the registry row
// could not be geocoded; such rows are skipped during distance checks, never
// treated as distance zero.
type CompetingProject struct {
	Name      string   `json:"name"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	AwardYear int      `json:"award_year"`
	Units     int      `json:"units,omitempty"`
	DealType  DealType `json:"deal_type,omitempty"`
}

// HasCoordinates reports whether the project row carries a usable location.
func (p CompetingProject) HasCoordinates() bool {
	return p.Lat != nil && p.Lon != nil
}
