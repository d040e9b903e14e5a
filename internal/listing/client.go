package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/rumah-finder/internal/filter"
	"github.com/evcraddock/rumah-finder/internal/logging"
)

// Client is an HTTP client for the property listing API.
type Client struct {
	baseURL    string
	token      string
	strict     bool
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithStrictSchema validates every response against its JSON schema and
// fails on mismatch instead of normalizing legacy shapes.
func WithStrictSchema(strict bool) Option {
	return func(c *Client) { c.strict = strict }
}

// WithLogger sets the logger used for normalization warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a property API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches one page of listings matching p.
func (c *Client) List(ctx context.Context, p filter.ServerParams) (*Page, error) {
	body, err := c.get(ctx, "/properties", p.Values())
	if err != nil {
		return nil, err
	}
	page, err := c.decodePage(body)
	if err != nil {
		return nil, fmt.Errorf("decoding listings: %w", err)
	}
	return page, nil
}

// Count returns the number of listings matching p, ignoring pagination.
func (c *Client) Count(ctx context.Context, p filter.ServerParams) (int, error) {
	body, err := c.get(ctx, "/properties/count", p.CountValues())
	if err != nil {
		return 0, err
	}
	if c.strict {
		if err := validate("count", body); err != nil {
			return 0, err
		}
	}

	var resp struct {
		Data struct {
			Count *int `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decoding count: %w", err)
	}
	if resp.Data.Count == nil {
		return 0, fmt.Errorf("decoding count: missing data.count")
	}
	return *resp.Data.Count, nil
}

// Search returns up to limit listings whose title matches keyword.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]Property, error) {
	s := filter.Default()
	s.Keyword = keyword
	page, err := c.List(ctx, filter.BuildServerParams(s, limit))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Newest returns the limit most recently created listings.
func (c *Client) Newest(ctx context.Context, limit int) ([]Property, error) {
	page, err := c.List(ctx, filter.BuildServerParams(filter.Default(), limit))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Favorites returns the IDs of listings the current session has favorited.
func (c *Client) Favorites(ctx context.Context) ([]int64, error) {
	body, err := c.get(ctx, "/favorites", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []int64 `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding favorites: %w", err)
	}
	return resp.Data, nil
}

// get performs a GET request and returns the raw response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	id := logging.RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set(logging.RequestIDHeader, id)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.do(req)
}

// do executes an HTTP request and handles error responses.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("closing response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errResp) == nil {
			if errResp.Error != "" {
				return nil, fmt.Errorf("%s", errResp.Error)
			}
			if errResp.Message != "" {
				return nil, fmt.Errorf("%s", errResp.Message)
			}
		}
		return nil, fmt.Errorf("server error: %s", http.StatusText(resp.StatusCode))
	}

	return body, nil
}
