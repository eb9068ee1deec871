package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkstone-group/sitescore-cli/internal/resilience"
)

// censusOneLineResponse is the JSON response from the Census single-address API.
type censusOneLineResponse struct {
	Result struct {
		AddressMatches []censusAddressMatch `json:"addressMatches"`
	} `json:"result"`
}

type censusAddressMatch struct {
	Coordinates struct {
		X float64 `json:"x"` // longitude
		Y float64 `json:"y"` // latitude
	} `json:"coordinates"`
	MatchedAddress string `json:"matchedAddress"`
}

// censusGeographiesResponse is the JSON response from the coordinates
// lookup. Layer names vary by vintage, so geographies stay raw until the
// layer scan.
type censusGeographiesResponse struct {
	Result struct {
		Geographies map[string][]censusGeography `json:"geographies"`
	} `json:"result"`
}

type censusGeography struct {
	GEOID  string `json:"GEOID"`
	State  string `json:"STATE"`
	County string `json:"COUNTY"`
	Tract  string `json:"TRACT"`
	ZCTA5  string `json:"ZCTA5"`
}

// Geocode resolves a single address via the one-line endpoint. An address
// with no match returns Matched=false and no error.
func (c *censusClient) Geocode(ctx context.Context, addr AddressInput) (*Result, error) {
	params := url.Values{
		"address":   {formatOneLine(addr)},
		"benchmark": {c.benchmark},
		"format":    {"json"},
	}

	body, err := c.get(ctx, "/locations/onelineaddress", params)
	if err != nil {
		return nil, err
	}

	var resp censusOneLineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: census parse response")
	}

	if len(resp.Result.AddressMatches) == 0 {
		zap.L().Debug("geocode: no address match", zap.String("address", addr.Street))
		return &Result{Matched: false}, nil
	}

	match := resp.Result.AddressMatches[0]
	return &Result{
		Latitude:       match.Coordinates.Y,
		Longitude:      match.Coordinates.X,
		MatchedAddress: match.MatchedAddress,
		Matched:        true,
	}, nil
}

// ResolveTract resolves a coordinate to its census tract and ZCTA via the
// geographies endpoint.
func (c *censusClient) ResolveTract(ctx context.Context, lat, lon float64) (*TractInfo, error) {
	params := url.Values{
		"x":         {strconv.FormatFloat(lon, 'f', 6, 64)},
		"y":         {strconv.FormatFloat(lat, 'f', 6, 64)},
		"benchmark": {c.benchmark},
		"vintage":   {c.vintage},
		"layers":    {"all"},
		"format":    {"json"},
	}

	body, err := c.get(ctx, "/geographies/coordinates", params)
	if err != nil {
		return nil, err
	}

	var resp censusGeographiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: census parse geographies")
	}

	info := &TractInfo{}
	for layer, geos := range resp.Result.Geographies {
		if len(geos) == 0 {
			continue
		}
		name := strings.ToLower(layer)
		switch {
		case strings.Contains(name, "census tracts"):
			info.StateFIPS = geos[0].State
			info.CountyFIPS = geos[0].County
			info.TractCode = geos[0].Tract
			info.GEOID = geos[0].GEOID
		case strings.Contains(name, "zip code tabulation areas"):
			if geos[0].ZCTA5 != "" {
				info.ZIP = geos[0].ZCTA5
			} else {
				info.ZIP = geos[0].GEOID
			}
		}
	}

	if info.TractCode == "" {
		return nil, eris.Wrapf(ErrNoMatch, "geocode: no tract at %.6f,%.6f", lat, lon)
	}
	return info, nil
}

// get performs a rate-limited GET and returns the response body. Retryable
// upstream statuses come back wrapped as transient.
func (c *censusClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: census rate limit")
	}

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: census build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: census request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("geocode: census returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: census read body")
	}
	return body, nil
}

// formatOneLine joins address parts into the single-line form the API wants.
func formatOneLine(addr AddressInput) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{addr.Street, addr.City, addr.State, addr.ZipCode} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
