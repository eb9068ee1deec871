// Package boundary joins resolved census geography against the loaded
// designation dataset. Resolution is a pure lookup; an empty result means
// "no special designation", never an error.
package boundary

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// tractEpsilon guards the tract join against formatting drift such as
// trailing-zero padding. Tract numbers two hundredths apart are different
// tracts, closer than that is the same tract written two ways.
const tractEpsilon = 0.01

// Resolver indexes the designation dataset for per-site lookups. It is
// built once at startup and safe for concurrent use.
type Resolver struct {
	byCounty map[string][]model.Designation
	byZIP    map[string][]model.Designation
}

// NewResolver indexes tract-keyed rows by state+county FIPS and ZIP-keyed
// rows by their 5-digit ZIP.
func NewResolver(designations []model.Designation) *Resolver {
	r := &Resolver{
		byCounty: make(map[string][]model.Designation),
		byZIP:    make(map[string][]model.Designation),
	}
	for _, d := range designations {
		if d.TractKeyed() {
			key := d.StateFIPS + d.CountyFIPS
			r.byCounty[key] = append(r.byCounty[key], d)
		} else {
			r.byZIP[d.ZIP] = append(r.byZIP[d.ZIP], d)
		}
	}
	return r
}

// Resolve returns every designation covering the referenced geography.
// Tract-keyed rows match on (state, county) FIPS plus tract number within
// tractEpsilon; ZIP-keyed rows match on exact 5-digit ZIP equality.
func (r *Resolver) Resolve(ref model.TractReference) ([]model.Designation, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	var out []model.Designation
	for _, d := range r.byCounty[ref.CountyGEOID()] {
		if math.Abs(d.Tract-ref.Tract) < tractEpsilon {
			out = append(out, d)
		}
	}
	if zip := padZIP(ref.ZIP); zip != "" {
		out = append(out, r.byZIP[zip]...)
	}
	return out, nil
}

// validateRef rejects malformed references. A reference that is well
// formed but matches nothing is not an error.
func validateRef(ref model.TractReference) error {
	if len(ref.StateFIPS) != 2 || !isDigits(ref.StateFIPS) {
		return eris.Wrapf(model.ErrBoundaryNotFound, "boundary: bad state fips %q", ref.StateFIPS)
	}
	if len(ref.CountyFIPS) != 3 || !isDigits(ref.CountyFIPS) {
		return eris.Wrapf(model.ErrBoundaryNotFound, "boundary: bad county fips %q", ref.CountyFIPS)
	}
	if ref.Tract <= 0 || ref.Tract >= 10000 {
		return eris.Wrapf(model.ErrBoundaryNotFound, "boundary: tract %v out of range", ref.Tract)
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func padZIP(zip string) string {
	if zip == "" {
		return ""
	}
	for len(zip) < 5 {
		zip = "0" + zip
	}
	return zip
}
