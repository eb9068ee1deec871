// Package amenity scores site proximity to the five QAP amenity
// categories. Distances are nearest-edge when a parcel boundary exists,
// centroid otherwise, rounded to two decimals before any tier comparison
// so stored distances and awarded points can never disagree.
package amenity

import "github.com/parkstone-group/sitescore-cli/internal/model"

// tier is one distance band. Bands are ordered ascending and compared
// with <=, so a distance exactly on a boundary takes the better band.
type tier struct {
	maxMiles float64
	points   int
}

var categoryTiers = map[model.AmenityCategory][]tier{
	model.CategoryPark:       {{0.50, 3}, {0.75, 2}},
	model.CategoryGrocery:    {{0.50, 5}, {1.00, 4}, {1.50, 3}},
	model.CategoryElementary: {{0.25, 3}, {0.75, 2}},
	model.CategoryMedical:    {{0.50, 3}, {1.00, 2}},
}

// Transit bands carry the frequency and density gates, so they are
// handled apart from the plain lookup tables.
const (
	transitFullMiles  = 0.33
	transitBaseMiles  = 0.50
	transitFullPoints = 7
	transitBasePoints = 5
)

// pointsFor maps a rounded distance to points for the plain categories.
func pointsFor(category model.AmenityCategory, distanceMi float64) int {
	for _, t := range categoryTiers[category] {
		if distanceMi <= t.maxMiles {
			return t.points
		}
	}
	return 0
}
