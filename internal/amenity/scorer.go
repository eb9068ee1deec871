package amenity

import (
	"fmt"

	"github.com/parkstone-group/sitescore-cli/internal/geospatial"
	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// Location is the distance basis for one site. With a parcel boundary,
// distances run to the nearest edge; with only a centroid they are point
// distances and every score is flagged approximate.
type Location struct {
	Lat    float64
	Lon    float64
	Parcel *geospatial.Parcel
}

// Approximate reports whether scores from this location use the centroid
// fallback.
func (l Location) Approximate() bool {
	return l.Parcel == nil
}

// DistanceMiles measures from the site to an amenity point.
func (l Location) DistanceMiles(lat, lon float64) float64 {
	if l.Parcel != nil {
		return l.Parcel.DistanceMiles(lat, lon)
	}
	return geospatial.HaversineMiles(l.Lat, l.Lon, lat, lon)
}

// Scorer awards per-category points from the amenity inventory. Safe for
// concurrent use once built.
type Scorer struct {
	byCategory     map[model.AmenityCategory][]model.Amenity
	highDensityMin float64
}

// NewScorer indexes the inventory by category. highDensityMin is the
// units-per-acre threshold gating the 7-point transit tier; zero means
// the statewide default of 25.
func NewScorer(amenities []model.Amenity, highDensityMin float64) *Scorer {
	if highDensityMin <= 0 {
		highDensityMin = 25
	}
	s := &Scorer{
		byCategory:     make(map[model.AmenityCategory][]model.Amenity),
		highDensityMin: highDensityMin,
	}
	for _, a := range amenities {
		s.byCategory[a.Category] = append(s.byCategory[a.Category], a)
	}
	return s
}

// Score evaluates every category independently and returns them in report
// order. Categories with no scoring candidate still produce an entry so
// the zero is explicit, carrying the nearest candidate when one exists.
func (s *Scorer) Score(loc Location, densityPerAcre float64) []model.CategoryScore {
	categories := model.Categories()
	out := make([]model.CategoryScore, 0, len(categories))
	for _, cat := range categories {
		out = append(out, s.scoreCategory(cat, loc, densityPerAcre))
	}
	return out
}

type evaluated struct {
	points int
	dist   float64
	name   string
	detail string
}

func (s *Scorer) scoreCategory(category model.AmenityCategory, loc Location, densityPerAcre float64) model.CategoryScore {
	cs := model.CategoryScore{Category: category}

	candidates := s.byCategory[category]
	if len(candidates) == 0 {
		cs.Detail = "no candidates"
		return cs
	}
	cs.Approximate = loc.Approximate()

	var best, nearest evaluated
	hasBest := false
	for i, a := range candidates {
		e := evaluated{
			dist: geospatial.RoundMiles(loc.DistanceMiles(a.Lat, a.Lon)),
			name: a.Name,
		}
		if category == model.CategoryTransit {
			e.points, e.detail = s.transitPoints(a, e.dist, densityPerAcre)
		} else {
			e.points = pointsFor(category, e.dist)
		}

		if i == 0 || e.dist < nearest.dist {
			nearest = e
		}
		if e.points > 0 && (!hasBest || e.points > best.points ||
			(e.points == best.points && e.dist < best.dist)) {
			best, hasBest = e, true
		}
	}

	chosen := nearest
	if hasBest {
		chosen = best
	}
	cs.Points = chosen.points
	cs.DistanceMi = chosen.dist
	cs.AmenityName = chosen.name
	cs.Detail = chosen.detail
	return cs
}

// transitPoints applies the frequency and density gates. Both transit
// bands require a qualified stop; within the inner band the full 7 points
// additionally require site density above the high-density threshold.
func (s *Scorer) transitPoints(a model.Amenity, distanceMi, densityPerAcre float64) (int, string) {
	if distanceMi > transitBaseMiles {
		return 0, fmt.Sprintf("beyond %.2f mi", transitBaseMiles)
	}
	qualified, detail := qualifyTransit(a)
	if !qualified {
		return 0, detail
	}
	if distanceMi <= transitFullMiles && densityPerAcre > s.highDensityMin {
		return transitFullPoints, detail
	}
	return transitBasePoints, detail
}
