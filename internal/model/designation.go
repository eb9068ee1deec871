package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// DesignationKind identifies which federal or state program a designation
// row belongs to.
type DesignationKind string

const (
	DesignationQCT         DesignationKind = "qct"         // Qualified Census Tract (tract-keyed)
	DesignationDDA         DesignationKind = "dda"         // Difficult Development Area (ZIP-keyed)
	DesignationOpportunity DesignationKind = "opportunity" // state opportunity map (tract-keyed)
)

// ParseDesignationKind normalizes dataset kind labels.
func ParseDesignationKind(s string) (DesignationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qct", "qualified census tract":
		return DesignationQCT, nil
	case "dda", "difficult development area":
		return DesignationDDA, nil
	case "opportunity", "opportunity area", "opp":
		return DesignationOpportunity, nil
	default:
		return "", eris.Errorf("model: unknown designation kind %q", s)
	}
}

// OpportunityTier is the state opportunity-map resource tier. Ordered from
// none upward; any tier above OppTierNone confers basis-boost eligibility.
type OpportunityTier string

const (
	OppTierNone     OpportunityTier = "none"
	OppTierModerate OpportunityTier = "moderate"
	OppTierHigh     OpportunityTier = "high"
	OppTierHighest  OpportunityTier = "highest"
)

var oppTierRank = map[OpportunityTier]int{
	OppTierNone:     0,
	OppTierModerate: 1,
	OppTierHigh:     2,
	OppTierHighest:  3,
}

// Rank orders tiers for highest-wins comparisons. Unknown tiers rank below none.
func (t OpportunityTier) Rank() int {
	if r, ok := oppTierRank[t]; ok {
		return r
	}
	return -1
}

// ParseOpportunityTier normalizes dataset tier labels.
func ParseOpportunityTier(s string) (OpportunityTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return OppTierNone, nil
	case "moderate", "moderate resource":
		return OppTierModerate, nil
	case "high", "high resource":
		return OppTierHigh, nil
	case "highest", "highest resource":
		return OppTierHighest, nil
	default:
		return OppTierNone, eris.Errorf("model: unknown opportunity tier %q", s)
	}
}

// Designation is one row of the loaded designation dataset. QCT rows are
// tract-keyed, DDA rows are ZIP-keyed, opportunity rows may be either.
type Designation struct {
	Kind       DesignationKind `json:"kind"`
	StateFIPS  string          `json:"state_fips,omitempty"`
	CountyFIPS string          `json:"county_fips,omitempty"`
	Tract      float64         `json:"tract,omitempty"`
	ZIP        string          `json:"zip,omitempty"`
	Tier       OpportunityTier `json:"tier,omitempty"`
}

// TractKeyed reports whether the designation joins on census tract rather
// than ZIP code. DDA designations are always ZIP-keyed.
func (d Designation) TractKeyed() bool {
	if d.Kind == DesignationDDA {
		return false
	}
	return d.ZIP == ""
}
