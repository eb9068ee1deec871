// Package geospatial provides the distance math the scoring engines run on:
// great-circle point distances and nearest-edge distances against parcel
// boundary polygons. All distances are statute miles.
package geospatial

import "math"

const (
	// Mean Earth radius in statute miles.
	earthRadiusMi = 3958.7613

	milesPerDegree = earthRadiusMi * math.Pi / 180
)

// HaversineMiles returns the great-circle distance between two coordinates
// in statute miles.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * earthRadiusMi * math.Asin(math.Min(1, math.Sqrt(a)))
}

// RoundMiles rounds a distance to the 2 decimals carried on score rows.
func RoundMiles(mi float64) float64 {
	return math.Round(mi*100) / 100
}

// localXY projects a coordinate onto a tangent plane centered at the
// reference latitude. Accurate to well under a foot at the radii the
// scoring rules use.
func localXY(refLat, lat, lon float64) (x, y float64) {
	x = lon * milesPerDegree * math.Cos(refLat*math.Pi/180)
	y = lat * milesPerDegree
	return x, y
}

// pointSegmentMiles returns the distance from point p to the segment a-b,
// all projected onto the tangent plane at refLat.
func pointSegmentMiles(refLat, pLat, pLon, aLat, aLon, bLat, bLon float64) float64 {
	px, py := localXY(refLat, pLat, pLon)
	ax, ay := localXY(refLat, aLat, aLon)
	bx, by := localXY(refLat, bLat, bLon)

	abx, aby := bx-ax, by-ay
	apx, apy := px-ax, py-ay

	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return math.Hypot(apx, apy)
	}

	t := (apx*abx + apy*aby) / lenSq
	t = math.Max(0, math.Min(1, t))

	cx := ax + t*abx
	cy := ay + t*aby
	return math.Hypot(px-cx, py-cy)
}
