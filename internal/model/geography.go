package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// TractReference identifies the census geography a coordinate falls in.
// Tract carries the decimal tract number (GEOID "208710" is tract 2087.10).
type TractReference struct {
	StateFIPS  string  `json:"state_fips"`
	CountyFIPS string  `json:"county_fips"`
	Tract      float64 `json:"tract"`
	ZIP        string  `json:"zip,omitempty"`
	GEOID      string  `json:"geoid,omitempty"`
}

// CountyGEOID returns the 5-digit state+county FIPS key.
func (t TractReference) CountyGEOID() string {
	return t.StateFIPS + t.CountyFIPS
}

// String renders the reference for logs and explanations.
func (t TractReference) String() string {
	return fmt.Sprintf("%s%s tract %.2f", t.StateFIPS, t.CountyFIPS, t.Tract)
}

// ParseTractCode converts a tract identifier into its decimal number.
// Accepts the 6-digit GEOID suffix form ("208710"), shorter unpadded
// variants ("020300"), and the already-decimal form ("2087.10").
func ParseTractCode(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.New("model: empty tract code")
	}
	if strings.Contains(s, ".") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, eris.Wrapf(err, "model: parse tract code %q", s)
		}
		return v, nil
	}
	// GEOID form: 4 integer digits then 2 decimal digits, zero-padded.
	for len(s) < 6 {
		s = "0" + s
	}
	if len(s) != 6 {
		return 0, eris.Errorf("model: tract code %q is not 6 digits", s)
	}
	v, err := strconv.ParseFloat(s[:4]+"."+s[4:], 64)
	if err != nil {
		return 0, eris.Wrapf(err, "model: parse tract code %q", s)
	}
	return v, nil
}
