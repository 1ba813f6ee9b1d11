// Package overpass queries the OpenStreetMap Overpass API for seamark and
// marina features.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultURL       = "https://overpass-api.de/api/interpreter"
	DefaultUserAgent = "MarineNavigator/1.0 (github.com/ngmaloney/marine-navigator)"
	DefaultTimeout   = 30 * time.Second
)

// Config configures a Client. Zero values select the defaults.
type Config struct {
	URL               string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client is a rate-limited Overpass API client. Identical queries issued
// concurrently share a single HTTP request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	group      singleflight.Group
}

// NewClient creates a new Overpass client
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}

	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Element is a node or way returned by Overpass. Nodes carry Lat/Lon, ways
// carry Geometry (out geom) and/or Center (out center).
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      *float64          `json:"lat,omitempty"`
	Lon      *float64          `json:"lon,omitempty"`
	Center   *LatLon           `json:"center,omitempty"`
	Geometry []LatLon          `json:"geometry,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// LatLon is a coordinate pair in an Overpass response
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns the OSM identifier, e.g. "node/123".
func (e Element) Key() string {
	return fmt.Sprintf("%s/%d", e.Type, e.ID)
}

// Position returns the best single coordinate for the element.
func (e Element) Position() (LatLon, bool) {
	switch {
	case e.Lat != nil && e.Lon != nil:
		return LatLon{Lat: *e.Lat, Lon: *e.Lon}, true
	case e.Center != nil:
		return *e.Center, true
	case len(e.Geometry) > 0:
		return e.Geometry[0], true
	}
	return LatLon{}, false
}

type response struct {
	Elements []Element `json:"elements"`
}

// Query runs an Overpass QL query and returns the decoded elements
func (c *Client) Query(ctx context.Context, query string) ([]Element, error) {
	v, err, _ := c.group.Do(query, func() (any, error) {
		return c.do(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Element), nil
}

func (c *Client) do(ctx context.Context, query string) ([]Element, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: waiting for rate limiter")
	}

	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: creating request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: executing request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("overpass: API returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "overpass: decoding response")
	}
	return out.Elements, nil
}
