package geospatial

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// Parcel wraps a validated parcel boundary polygon. Coordinates are
// lon/lat (XY) in WGS84, matching shapefile and GeoJSON conventions.
type Parcel struct {
	poly *geom.Polygon
}

// NewParcel validates and wraps a polygon. A usable polygon has at least
// one ring of 4 or more coordinates with finite values; anything else is
// ErrInvalidGeometry.
func NewParcel(poly *geom.Polygon) (*Parcel, error) {
	if poly == nil || poly.NumLinearRings() == 0 {
		return nil, eris.Wrap(model.ErrInvalidGeometry, "geospatial: polygon has no rings")
	}
	for i := 0; i < poly.NumLinearRings(); i++ {
		ring := poly.LinearRing(i)
		if ring.NumCoords() < 4 {
			return nil, eris.Wrapf(model.ErrInvalidGeometry, "geospatial: ring %d has %d coords", i, ring.NumCoords())
		}
		for j := 0; j < ring.NumCoords(); j++ {
			c := ring.Coord(j)
			if math.IsNaN(c[0]) || math.IsNaN(c[1]) || math.IsInf(c[0], 0) || math.IsInf(c[1], 0) {
				return nil, eris.Wrapf(model.ErrInvalidGeometry, "geospatial: ring %d has non-finite coord", i)
			}
		}
	}
	return &Parcel{poly: poly}, nil
}

// Centroid returns the vertex-average center of the outer ring. Parcel
// polygons are small enough that planar averaging is adequate.
func (p *Parcel) Centroid() (lat, lon float64) {
	ring := p.poly.LinearRing(0)
	n := ring.NumCoords()
	// The closing coordinate repeats the first; drop it from the average.
	if n > 1 {
		first, last := ring.Coord(0), ring.Coord(n-1)
		if first[0] == last[0] && first[1] == last[1] {
			n--
		}
	}
	var sumLat, sumLon float64
	for i := 0; i < n; i++ {
		c := ring.Coord(i)
		sumLon += c[0]
		sumLat += c[1]
	}
	return sumLat / float64(n), sumLon / float64(n)
}

// Contains reports whether the point falls inside the parcel (outer ring
// minus holes), by ray casting.
func (p *Parcel) Contains(lat, lon float64) bool {
	if !ringContains(p.poly.LinearRing(0), lat, lon) {
		return false
	}
	for i := 1; i < p.poly.NumLinearRings(); i++ {
		if ringContains(p.poly.LinearRing(i), lat, lon) {
			return false
		}
	}
	return true
}

// DistanceMiles returns the distance from the parcel boundary to the
// point: zero when the point is inside the parcel, otherwise the minimum
// distance over all boundary segments.
func (p *Parcel) DistanceMiles(lat, lon float64) float64 {
	if p.Contains(lat, lon) {
		return 0
	}
	min := math.Inf(1)
	for i := 0; i < p.poly.NumLinearRings(); i++ {
		ring := p.poly.LinearRing(i)
		for j := 0; j+1 < ring.NumCoords(); j++ {
			a, b := ring.Coord(j), ring.Coord(j+1)
			d := pointSegmentMiles(lat, lat, lon, a[1], a[0], b[1], b[0])
			if d < min {
				min = d
			}
		}
	}
	return min
}

func ringContains(ring *geom.LinearRing, lat, lon float64) bool {
	inside := false
	n := ring.NumCoords()
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		ci, cj := ring.Coord(i), ring.Coord(j)
		yi, xi := ci[1], ci[0]
		yj, xj := cj[1], cj[0]
		if (yi > lat) != (yj > lat) && lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
