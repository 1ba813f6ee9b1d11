// Package geocoding resolves place names and coordinate literals into
// route endpoints.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent    = "MarineNavigator/1.0 (github.com/ngmaloney/marine-navigator)" // Required by Nominatim ToS
)

// ErrNoResults is returned when the geocoder finds nothing for a query
var ErrNoResults = eris.New("geocoding: no results")

var coordinatePattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*[,\s]\s*(-?\d+(?:\.\d+)?)\s*$`)

// Geocoder converts place names to coordinates
type Geocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGeocoder creates a new geocoder. Empty arguments select the defaults.
func NewGeocoder(baseURL, userAgent string) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Geocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// Nominatim usage policy: at most one request per second
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// nominatimResponse represents the Nominatim API response
type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// ParseCoordinates parses "lat,lon" or "lat lon" literals.
func ParseCoordinates(s string) (*models.Location, bool) {
	m := coordinatePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || geo.ValidateCoordinate(lat, lon) != nil {
		return nil, false
	}
	return &models.Location{Lat: lat, Lon: lon, Name: fmt.Sprintf("%.4f, %.4f", lat, lon)}, true
}

// Geocode converts a query (coordinates, harbour, town, address) to a location
func (g *Geocoder) Geocode(ctx context.Context, query string) (*models.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, eris.New("geocoding: query cannot be empty")
	}

	if loc, ok := ParseCoordinates(query); ok {
		return loc, nil
	}

	params := url.Values{}
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("q", query)
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocoding: waiting for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocoding: creating request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocoding: executing request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocoding: nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, eris.Wrap(err, "geocoding: decoding response")
	}
	if len(results) == 0 {
		return nil, eris.Wrapf(ErrNoResults, "query %q", query)
	}

	result := results[0]
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocoding: parsing latitude")
	}
	lon, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocoding: parsing longitude")
	}

	return &models.Location{Lat: lat, Lon: lon, Name: result.DisplayName}, nil
}
