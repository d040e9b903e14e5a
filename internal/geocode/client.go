package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultSearchURL = "https://nominatim.openstreetmap.org/search"
	defaultUserAgent = "rumah-finder/1.0"
	defaultTimeout   = 10 * time.Second
)

// Result is the top match for a geocoding query.
type Result struct {
	Coordinate
	DisplayName string `json:"display_name"`
}

// Searcher looks up the top match for a free-text query. found is false when
// the service returned no results.
type Searcher interface {
	Search(ctx context.Context, query string) (res Result, found bool, err error)
}

// Client queries a Nominatim-compatible search endpoint.
type Client struct {
	httpClient *http.Client
	userAgent  string

	// Overridable for testing.
	searchURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSearchURL points the client at a different search endpoint.
func WithSearchURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.searchURL = u
		}
	}
}

// WithUserAgent sets the User-Agent sent to the service.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout bounds each lookup.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a geocoding client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		searchURL:  defaultSearchURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResult is one element of the service's JSON array. Coordinates
// arrive as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search returns the first result for query, restricted to Indonesia.
func (c *Client) Search(ctx context.Context, query string) (res Result, found bool, err error) {
	params := url.Values{
		"q":            {query},
		"format":       {"json"},
		"limit":        {"1"},
		"countrycodes": {"id"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, false, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Result{}, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Result{}, false, fmt.Errorf("decoding response: %w", err)
	}
	if len(results) == 0 {
		return Result{}, false, nil
	}

	top := results[0]
	lat, err := strconv.ParseFloat(top.Lat, 64)
	if err != nil {
		return Result{}, false, fmt.Errorf("parsing lat %q: %w", top.Lat, err)
	}
	lon, err := strconv.ParseFloat(top.Lon, 64)
	if err != nil {
		return Result{}, false, fmt.Errorf("parsing lon %q: %w", top.Lon, err)
	}

	return Result{
		Coordinate:  Coordinate{Lat: Round6(lat), Lon: Round6(lon)},
		DisplayName: top.DisplayName,
	}, true, nil
}
