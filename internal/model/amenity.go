package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// AmenityCategory is a scored QAP amenity category.
type AmenityCategory string

const (
	CategoryTransit    AmenityCategory = "transit"
	CategoryPark       AmenityCategory = "park"
	CategoryGrocery    AmenityCategory = "grocery"
	CategoryElementary AmenityCategory = "elementary"
	CategoryMedical    AmenityCategory = "medical"
)

// Categories lists all scored categories in report order.
func Categories() []AmenityCategory {
	return []AmenityCategory{
		CategoryTransit,
		CategoryPark,
		CategoryGrocery,
		CategoryElementary,
		CategoryMedical,
	}
}

// ParseAmenityCategory normalizes dataset category labels.
func ParseAmenityCategory(s string) (AmenityCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transit", "transit_stop", "stop":
		return CategoryTransit, nil
	case "park", "public_park":
		return CategoryPark, nil
	case "grocery", "grocery_store", "supermarket":
		return CategoryGrocery, nil
	case "elementary", "school", "elementary_school":
		return CategoryElementary, nil
	case "medical", "clinic", "medical_clinic":
		return CategoryMedical, nil
	default:
		return "", eris.Errorf("model: unknown amenity category %q", s)
	}
}

// Amenity is one row of the amenity dataset. Transit rows additionally
// carry the HQTA flag and the weekday departure schedule.
type Amenity struct {
	Category   AmenityCategory `json:"category"`
	Name       string          `json:"name"`
	Lat        float64         `json:"lat"`
	Lon        float64         `json:"lon"`
	HQTA       bool            `json:"hqta,omitempty"`
	Departures []string        `json:"departures,omitempty"` // "HH:MM", sorted
}
