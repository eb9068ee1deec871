package refdata

import (
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// LoadProjects reads the awarded-projects registry used for competition
// checks. Rows without usable coordinates are kept; the competition engine
// reports them as unresolved rather than treating them as distance zero.
func LoadProjects(path, encoding string) ([]model.CompetingProject, error) {
	reader, closer, err := openCSV(path, encoding)
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read projects header from %s", path)
	}
	colIdx := mapColumns(header)

	var out []model.CompetingProject
	row := 1 // header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: read projects row %d", row)
		}

		name := getCol(record, colIdx, "name")
		if name == "" {
			return nil, eris.Errorf("refdata: projects row %d: missing name", row)
		}
		awardYear := parseIntOr(getCol(record, colIdx, "award_year"), 0)
		if awardYear == 0 {
			return nil, eris.Errorf("refdata: projects row %d: missing award year", row)
		}

		p := model.CompetingProject{
			Name:      name,
			AwardYear: awardYear,
			Units:     parseIntOr(getCol(record, colIdx, "units"), 0),
		}

		latRaw := getCol(record, colIdx, "lat")
		lonRaw := getCol(record, colIdx, "lon")
		if latRaw != "" && lonRaw != "" {
			lat := parseFloatOr(latRaw, 0)
			lon := parseFloatOr(lonRaw, 0)
			if lat != 0 || lon != 0 {
				p.Lat = &lat
				p.Lon = &lon
			}
		}
		if p.Lat == nil {
			zap.L().Warn("refdata: project has no usable coordinates",
				zap.String("name", name),
				zap.Int("row", row))
		}

		if dt := getCol(record, colIdx, "deal_type"); dt != "" {
			parsed, err := model.ParseDealType(dt)
			if err != nil {
				return nil, eris.Wrapf(err, "refdata: projects row %d", row)
			}
			p.DealType = parsed
		}

		out = append(out, p)
	}

	return out, nil
}
