// Package refdata loads the reference datasets the screening engines run
// against: designation tables, the awarded-projects registry, amenity
// inventories, the county mapping table, rent tables and optional parcel
// boundaries. Everything is loaded once at startup; a load failure is
// fatal before any site is evaluated.
package refdata

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// openCSV opens a CSV file, decoding from the configured charset. HUD
// publishes some tables as Windows-1252, so "utf-8" is only the default.
func openCSV(path, encoding string) (*csv.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "refdata: open %s", path)
	}

	var r io.Reader = f
	enc := strings.ToLower(strings.TrimSpace(encoding))
	if enc != "" && enc != "utf-8" && enc != "utf8" {
		e, err := htmlindex.Get(enc)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, nil, eris.Wrapf(err, "refdata: unsupported charset %q", encoding)
		}
		r = e.NewDecoder().Reader(f)
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader, f, nil
}

// mapColumns builds a case-insensitive column name to index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

// getCol gets a column value by name from a CSV record, returning empty
// string if not found.
func getCol(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[strings.ToLower(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseFloatOr parses a float, returning def on empty or malformed input.
func parseFloatOr(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// parseIntOr parses an int, returning def on empty or malformed input.
func parseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// parseBool reads the flag spellings that show up in agency CSVs.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true
	default:
		return false
	}
}

// normalizeFIPSState zero-pads a state FIPS code to 2 digits.
func normalizeFIPSState(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if len(code) == 1 {
		return "0" + code
	}
	return code
}

// normalizeFIPSCounty zero-pads a county FIPS code to 3 digits.
func normalizeFIPSCounty(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for len(code) < 3 {
		code = "0" + code
	}
	return code
}

// normalizeZIP zero-pads a ZIP code to 5 digits. Spreadsheet round-trips
// strip leading zeros from New England ZIPs.
func normalizeZIP(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for len(code) < 5 {
		code = "0" + code
	}
	return code
}
