package refdata

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// LoadSites reads candidate sites for a batch run. Coordinates are optional;
// sites without them are geocoded during evaluation. Rows keep their file
// order so batch output is stable across runs.
func LoadSites(path, encoding string) ([]model.Site, error) {
	reader, closer, err := openCSV(path, encoding)
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read sites header from %s", path)
	}
	colIdx := mapColumns(header)

	var out []model.Site
	row := 1 // header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: read sites row %d", row)
		}

		dealType, err := model.ParseDealType(getCol(record, colIdx, "deal_type"))
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: sites row %d", row)
		}

		s := model.Site{
			ID:             getCol(record, colIdx, "id"),
			Name:           getCol(record, colIdx, "name"),
			Address:        getCol(record, colIdx, "address"),
			City:           getCol(record, colIdx, "city"),
			State:          getCol(record, colIdx, "state"),
			ZIP:            normalizeZIP(getCol(record, colIdx, "zip")),
			Acres:          parseFloatOr(getCol(record, colIdx, "acres"), 0),
			DensityPerAcre: parseFloatOr(getCol(record, colIdx, "density_per_acre"), 0),
			AskingPriceUSD: parseFloatOr(getCol(record, colIdx, "asking_price"), 0),
			DealType:       dealType,
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("site-%03d", len(out)+1)
		}
		if s.Name == "" {
			s.Name = s.Address
		}

		latRaw := getCol(record, colIdx, "lat")
		lonRaw := getCol(record, colIdx, "lon")
		if latRaw != "" && lonRaw != "" {
			lat := parseFloatOr(latRaw, 0)
			lon := parseFloatOr(lonRaw, 0)
			s.Lat = &lat
			s.Lon = &lon
		}

		if s.Address == "" && !s.HasCoordinates() {
			return nil, eris.Errorf("refdata: sites row %d: needs an address or coordinates", row)
		}

		out = append(out, s)
	}

	return out, nil
}
