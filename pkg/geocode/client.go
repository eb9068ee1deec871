// Package geocode resolves street addresses to coordinates and coordinates
// to census geography via the Census Geocoder API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrNoMatch is returned when the Census API has no geography for a
// coordinate or no match for an address. It is permanent: retrying the
// same input cannot succeed.
var ErrNoMatch = eris.New("geocode: no match")

// Client talks to the Census Geocoder.
type Client interface {
	// Geocode resolves a single street address to coordinates.
	Geocode(ctx context.Context, addr AddressInput) (*Result, error)

	// ResolveTract resolves a coordinate to its census tract and ZCTA.
	ResolveTract(ctx context.Context, lat, lon float64) (*TractInfo, error)
}

// AddressInput represents an address to geocode.
type AddressInput struct {
	Street  string
	City    string
	State   string
	ZipCode string
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude       float64
	Longitude      float64
	MatchedAddress string
	Matched        bool
}

// TractInfo is the census geography for a coordinate. TractCode is the
// raw 6-digit GEOID suffix; ZIP is the ZCTA when the vintage exposes one.
type TractInfo struct {
	StateFIPS  string
	CountyFIPS string
	TractCode  string
	GEOID      string
	ZIP        string
}

// Option configures the client.
type Option func(*censusClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *censusClient) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the Census Geocoder base URL.
func WithBaseURL(u string) Option {
	return func(c *censusClient) {
		c.baseURL = u
	}
}

// WithBenchmark sets the benchmark dataset name.
func WithBenchmark(b string) Option {
	return func(c *censusClient) {
		c.benchmark = b
	}
}

// WithVintage sets the geography vintage used for tract lookups.
func WithVintage(v string) Option {
	return func(c *censusClient) {
		c.vintage = v
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *censusClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type censusClient struct {
	httpClient *http.Client
	baseURL    string
	benchmark  string
	vintage    string
	limiter    *rate.Limiter
}

// NewClient creates a Census Geocoder client with the given options.
func NewClient(opts ...Option) Client {
	c := &censusClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://geocoding.geo.census.gov/geocoder",
		benchmark:  "Public_AR_Current",
		vintage:    "Current_Current",
		limiter:    rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
