package model

import "github.com/rotisserie/eris"

// Failure classes surfaced on output rows. Wrap these with eris so the
// pipeline can classify any error with FailureReason.
var (
	// ErrGeocodeFailure marks a site whose address could not be resolved
	// to coordinates after all retry attempts.
	ErrGeocodeFailure = eris.New("geocode failure")

	// ErrBoundaryNotFound marks malformed geography input: bad FIPS
	// components, a non-positive tract, or an unusable ZIP. A site with
	// well-formed geography and no designations is NOT an error.
	ErrBoundaryNotFound = eris.New("boundary not found")

	// ErrInvalidGeometry marks an unusable parcel polygon.
	ErrInvalidGeometry = eris.New("invalid geometry")

	// ErrDataSourceUnavailable marks a reference dataset that failed to
	// load. Always fatal before any site is evaluated.
	ErrDataSourceUnavailable = eris.New("data source unavailable")

	// ErrInvalidDesignationSet marks malformed designation rows reaching
	// the eligibility engine.
	ErrInvalidDesignationSet = eris.New("invalid designation set")
)

// FailureReason maps an error to the short reason string recorded on
// skipped and failed output rows.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case eris.Is(err, ErrGeocodeFailure):
		return "geocode_failure"
	case eris.Is(err, ErrBoundaryNotFound):
		return "boundary_not_found"
	case eris.Is(err, ErrInvalidGeometry):
		return "invalid_geometry"
	case eris.Is(err, ErrDataSourceUnavailable):
		return "data_source_unavailable"
	case eris.Is(err, ErrInvalidDesignationSet):
		return "invalid_designation_set"
	default:
		return "internal_error"
	}
}
