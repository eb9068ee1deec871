package refdata

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// RentBasis names the fallback level a rent figure came from.
const (
	RentBasisCounty  = "county"
	RentBasisState   = "state"
	RentBasisDefault = "default"
)

// RentTable holds achievable monthly rents by county with statewide
// fallbacks. Rows with an empty county column set the state fallback.
type RentTable struct {
	byCounty map[string]float64
	byState  map[string]float64
}

// LoadRents reads the monthly rent table.
func LoadRents(path, encoding string) (*RentTable, error) {
	reader, closer, err := openCSV(path, encoding)
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read rents header from %s", path)
	}
	colIdx := mapColumns(header)

	t := &RentTable{
		byCounty: make(map[string]float64),
		byState:  make(map[string]float64),
	}
	row := 1 // header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: read rents row %d", row)
		}

		state := strings.ToUpper(getCol(record, colIdx, "state"))
		if state == "" {
			return nil, eris.Errorf("refdata: rents row %d: missing state", row)
		}
		rent := parseFloatOr(getCol(record, colIdx, "monthly_rent"), 0)
		if rent <= 0 {
			return nil, eris.Errorf("refdata: rents row %d: missing monthly rent", row)
		}

		county := getCol(record, colIdx, "county")
		if county == "" {
			t.byState[state] = rent
		} else {
			t.byCounty[rentKey(county, state)] = rent
		}
	}

	return t, nil
}

// Len returns the number of county-level rent rows.
func (t *RentTable) Len() int {
	return len(t.byCounty)
}

// Lookup resolves a monthly rent for a county, falling back to the state
// figure. The second return names the level that matched; ok is false when
// neither level has a row and the caller should use its configured default.
func (t *RentTable) Lookup(county, state string) (rent float64, basis string, ok bool) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if r, found := t.byCounty[rentKey(county, state)]; found {
		return r, RentBasisCounty, true
	}
	if r, found := t.byState[state]; found {
		return r, RentBasisState, true
	}
	return 0, RentBasisDefault, false
}

func rentKey(county, state string) string {
	county = strings.ToLower(strings.TrimSpace(county))
	county = strings.TrimSuffix(county, " county")
	return county + "|" + state
}
