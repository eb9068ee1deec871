package refdata

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/parkstone-group/sitescore-cli/internal/model"
)

var clockRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// LoadAmenities reads the amenity inventory. Transit rows may carry an
// hqta flag and a pipe-separated list of weekday departure times in HH:MM
// form; other categories ignore both columns.
func LoadAmenities(path, encoding string) ([]model.Amenity, error) {
	reader, closer, err := openCSV(path, encoding)
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read amenities header from %s", path)
	}
	colIdx := mapColumns(header)

	var out []model.Amenity
	row := 1 // header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: read amenities row %d", row)
		}

		category, err := model.ParseAmenityCategory(getCol(record, colIdx, "category"))
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: amenities row %d", row)
		}

		latRaw := getCol(record, colIdx, "lat")
		lonRaw := getCol(record, colIdx, "lon")
		if latRaw == "" || lonRaw == "" {
			return nil, eris.Errorf("refdata: amenities row %d: missing coordinates", row)
		}

		a := model.Amenity{
			Category: category,
			Name:     getCol(record, colIdx, "name"),
			Lat:      parseFloatOr(latRaw, 0),
			Lon:      parseFloatOr(lonRaw, 0),
		}

		if category == model.CategoryTransit {
			a.HQTA = parseBool(getCol(record, colIdx, "hqta"))
			departures, err := parseDepartures(getCol(record, colIdx, "departures"))
			if err != nil {
				return nil, eris.Wrapf(err, "refdata: amenities row %d", row)
			}
			a.Departures = departures
		}

		out = append(out, a)
	}

	return out, nil
}

// parseDepartures splits a pipe-separated HH:MM list and returns it sorted.
func parseDepartures(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !clockRe.MatchString(p) {
			return nil, eris.Errorf("refdata: malformed departure time %q", p)
		}
		if len(p) == 4 {
			p = "0" + p
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
