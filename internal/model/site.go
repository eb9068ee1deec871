package model

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// DealType distinguishes the two tax-credit execution paths. Competitive
// 9% deals are subject to proximity knockout rules; 4% bond deals are not.
type DealType string

const (
	Deal9Percent DealType = "9%"
	Deal4Percent DealType = "4%"
)

// Competitive reports whether the deal type goes through the competitive
// allocation round.
func (d DealType) Competitive() bool {
	return d == Deal9Percent
}

// ParseDealType normalizes user and CSV input into a DealType.
func ParseDealType(s string) (DealType, error) {
	switch strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "%")) {
	case "9":
		return Deal9Percent, nil
	case "4":
		return Deal4Percent, nil
	default:
		return "", eris.Errorf("model: unknown deal type %q", s)
	}
}

// Site is a candidate acquisition site as entered by an analyst or loaded
// from a batch CSV. Lat/Lon are optional; absent coordinates are resolved
// through the geocoder.
type Site struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	ZIP            string   `json:"zip,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`
	Acres          float64  `json:"acres"`
	DensityPerAcre float64  `json:"density_per_acre"` // proposed units per acre
	AskingPriceUSD float64  `json:"asking_price_usd"`
	DealType       DealType `json:"deal_type"`
}

// ProposedUnits derives the unit count from acreage and proposed density.
func (s Site) ProposedUnits() int {
	return int(math.Round(s.Acres * s.DensityPerAcre))
}

// HasCoordinates reports whether the site already carries a usable
// coordinate pair.
func (s Site) HasCoordinates() bool {
	return s.Lat != nil && s.Lon != nil
}
