package refdata

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/parkstone-group/sitescore-cli/internal/geospatial"
	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// LoadParcels reads parcel boundary polygons from a shapefile, keyed by the
// site_id attribute. Shapes that fail geometry validation are dropped with a
// warning; the affected site falls back to centroid distances.
func LoadParcels(path string) (map[string]*geospatial.Parcel, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: open parcel shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idField := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(strings.TrimSpace(name), "site_id") {
			idField = i
			break
		}
	}
	if idField < 0 {
		return nil, eris.Errorf("refdata: parcel shapefile %s has no site_id field", path)
	}

	out := make(map[string]*geospatial.Parcel)
	row := 0
	for reader.Next() {
		row++
		_, shape := reader.Shape()

		siteID := strings.TrimSpace(strings.TrimRight(reader.Attribute(idField), "\x00"))
		if siteID == "" {
			zap.L().Warn("refdata: skipping parcel with empty site_id", zap.Int("row", row))
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			zap.L().Warn("refdata: skipping non-polygon parcel shape",
				zap.String("site_id", siteID),
				zap.Int("row", row))
			continue
		}

		parcel, err := geospatial.NewParcel(polygonRings(poly))
		if err != nil {
			zap.L().Warn("refdata: dropping parcel with invalid geometry",
				zap.String("site_id", siteID),
				zap.Int("row", row),
				zap.Bool("invalid_geometry", eris.Is(err, model.ErrInvalidGeometry)),
				zap.Error(err))
			continue
		}
		out[siteID] = parcel
	}

	return out, nil
}

// polygonRings converts a shapefile polygon into a go-geom polygon. The
// first part is the outer ring; subsequent parts become holes.
func polygonRings(p *shp.Polygon) *geom.Polygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("refdata: skipping malformed parcel ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if poly.NumLinearRings() == 0 {
		return nil
	}
	return poly
}
