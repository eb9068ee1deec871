package refdata

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// LoadDesignations reads the combined designation table. Each row is one
// designated area: QCTs and opportunity areas keyed by census tract, DDAs
// keyed by ZIP code. Tract codes may appear in decimal or raw GEOID form,
// ZIPs are zero-padded to 5 digits.
func LoadDesignations(path, encoding string) ([]model.Designation, error) {
	reader, closer, err := openCSV(path, encoding)
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read designations header from %s", path)
	}
	colIdx := mapColumns(header)

	var out []model.Designation
	row := 1 // header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: read designations row %d", row)
		}

		kind, err := model.ParseDesignationKind(getCol(record, colIdx, "kind"))
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: designations row %d", row)
		}

		d := model.Designation{Kind: kind}
		zip := normalizeZIP(getCol(record, colIdx, "zip"))
		switch {
		case kind == model.DesignationDDA:
			if zip == "" {
				return nil, eris.Errorf("refdata: designations row %d: dda row missing zip", row)
			}
			d.ZIP = zip
		case kind == model.DesignationOpportunity && zip != "":
			// Opportunity areas may be published by ZIP instead of tract.
			d.ZIP = zip
		default:
			d.StateFIPS = normalizeFIPSState(getCol(record, colIdx, "state_fips"))
			d.CountyFIPS = normalizeFIPSCounty(getCol(record, colIdx, "county_fips"))
			tract, err := model.ParseTractCode(getCol(record, colIdx, "tract"))
			if err != nil {
				return nil, eris.Wrapf(err, "refdata: designations row %d", row)
			}
			d.Tract = tract
			if d.StateFIPS == "" || d.CountyFIPS == "" {
				return nil, eris.Errorf("refdata: designations row %d: %s row missing county identity", row, kind)
			}
		}

		if kind == model.DesignationOpportunity {
			tier, err := model.ParseOpportunityTier(getCol(record, colIdx, "tier"))
			if err != nil {
				return nil, eris.Wrapf(err, "refdata: designations row %d", row)
			}
			if tier == model.OppTierNone {
				return nil, eris.Errorf("refdata: designations row %d: opportunity row missing tier", row)
			}
			d.Tier = tier
		}

		out = append(out, d)
	}

	return out, nil
}
