// Package marinas finds coastal facilities near a position and keeps the
// user's favorites.
package marinas

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/database"
	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/overpass"
)

const (
	snapshotPrefix = "marinas:near:"
	FavoritesKey   = "marinas:favorites"

	DefaultRadiusNM  = 10.0
	DefaultMemoryTTL = 15 * time.Minute
	DefaultMaxAge    = 7 * 24 * time.Hour
)

// FeatureSource runs Overpass queries. *overpass.Client satisfies it.
type FeatureSource interface {
	Query(ctx context.Context, query string) ([]overpass.Element, error)
}

// SearchResult holds marinas sorted nearest first and where they came from
type SearchResult struct {
	Marinas   []models.Marina   `json:"marinas"`
	Source    models.DataSource `json:"source"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Options configures a Directory
type Options struct {
	Source    FeatureSource
	Store     database.KV
	MemoryTTL time.Duration
	MaxAge    time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// Directory searches for marinas with the same memory, live, snapshot
// fallback order as the hazard catalog.
type Directory struct {
	source FeatureSource
	store  database.KV
	memory *expirable.LRU[string, SearchResult]
	maxAge time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewDirectory creates a marina directory
func NewDirectory(opts Options) *Directory {
	if opts.MemoryTTL <= 0 {
		opts.MemoryTTL = DefaultMemoryTTL
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Directory{
		source: opts.Source,
		store:  opts.Store,
		memory: expirable.NewLRU[string, SearchResult](32, nil, opts.MemoryTTL),
		maxAge: opts.MaxAge,
		log:    opts.Logger.Named("marinas"),
		now:    opts.Now,
	}
}

func searchKey(lat, lon, radiusNM float64) string {
	return fmt.Sprintf("%.2f,%.2f,%.1f", lat, lon, radiusNM)
}

// FindNearby returns marinas within radiusNM of the position. Upstream
// failures degrade to cached or empty results.
func (d *Directory) FindNearby(ctx context.Context, lat, lon, radiusNM float64) (SearchResult, error) {
	if err := geo.ValidateCoordinate(lat, lon); err != nil {
		return SearchResult{}, eris.Wrap(err, "marinas: search origin")
	}
	if radiusNM <= 0 || math.IsNaN(radiusNM) || math.IsInf(radiusNM, 0) {
		return SearchResult{}, eris.Errorf("marinas: invalid radius %v", radiusNM)
	}

	key := searchKey(lat, lon, radiusNM)
	res, ok := d.lookup(ctx, key, lat, lon, radiusNM)
	if !ok {
		return SearchResult{Marinas: []models.Marina{}, Source: models.SourceUnavailable}, nil
	}

	// distances are relative to the caller's exact position, not the cache key
	marinas := make([]models.Marina, 0, len(res.Marinas))
	for _, m := range res.Marinas {
		m.Distance = geo.Distance(lat, lon, m.Lat, m.Lon)
		m.Bearing = geo.Bearing(lat, lon, m.Lat, m.Lon)
		if m.Distance > radiusNM {
			continue
		}
		marinas = append(marinas, m)
	}
	d.markFavorites(marinas)
	models.SortByDistance(marinas)
	res.Marinas = marinas
	return res, nil
}

func (d *Directory) lookup(ctx context.Context, key string, lat, lon, radiusNM float64) (SearchResult, bool) {
	if res, ok := d.memory.Get(key); ok {
		res.Source = models.SourceMemory
		return res, true
	}

	if d.source != nil {
		elements, err := d.source.Query(ctx, overpass.MarinaQuery(lat, lon, geo.NMToMeters(radiusNM)))
		if err == nil {
			res := SearchResult{Marinas: ParseAll(elements), Source: models.SourceLive, FetchedAt: d.now()}
			d.memory.Add(key, res)
			if d.store != nil {
				if err := database.SetJSON(d.store, snapshotPrefix+key, res); err != nil {
					d.log.Warn("failed to persist marina snapshot", zap.Error(err))
				}
			}
			return res, true
		}
		d.log.Warn("live marina search failed, trying cache", zap.String("key", key), zap.Error(err))
	}

	if d.store != nil {
		var res SearchResult
		ok, err := database.GetJSON(d.store, snapshotPrefix+key, &res)
		if err != nil {
			d.log.Warn("unreadable marina snapshot", zap.String("key", key), zap.Error(err))
		}
		if ok && d.now().Sub(res.FetchedAt) < d.maxAge {
			res.Source = models.SourceCache
			return res, true
		}
	}
	return SearchResult{}, false
}

// Parse converts an Overpass marina element. Elements without a position
// are rejected.
func Parse(e overpass.Element) (models.Marina, bool) {
	pos, ok := e.Position()
	if !ok {
		return models.Marina{}, false
	}
	tags := e.Tags
	category := strings.ToLower(tags["seamark:small_craft_facility:category"])
	yes := func(keys ...string) bool {
		for _, k := range keys {
			switch strings.ToLower(tags[k]) {
			case "yes", "true", "1":
				return true
			}
		}
		return false
	}

	f := models.MarinaFacilities{
		Fuel:        yes("fuel", "fuel:diesel", "fuel:petrol") || strings.Contains(category, "fuel_station"),
		Water:       yes("drinking_water", "water_point") || strings.Contains(category, "water_tap"),
		Electricity: yes("electricity", "power_supply") || strings.Contains(category, "electrical_supply"),
		Pumpout:     yes("sanitary_dump_station", "pumpout") || strings.Contains(category, "pump-out"),
		Repairs:     yes("boatyard", "repair") || strings.Contains(category, "boatyard"),
		Moorings:    yes("mooring", "moorings") || strings.Contains(category, "visitor_berth") || strings.Contains(category, "visitors_mooring"),
		Showers:     yes("shower", "showers") || strings.Contains(category, "shower"),
	}

	name := firstTag(tags, "name", "seamark:name")
	if name == "" {
		name = "Unnamed marina"
	}

	return models.Marina{
		ID:         e.Key(),
		Name:       name,
		Lat:        pos.Lat,
		Lon:        pos.Lon,
		Amenities:  f.Labels(),
		Facilities: f,
		Phone:      firstTag(tags, "phone", "contact:phone"),
		Website:    firstTag(tags, "website", "contact:website", "url"),
		VHFChannel: firstTag(tags, "vhf", "vhf_channel", "seamark:radio_station:channel"),
	}, true
}

// ParseAll converts every usable element
func ParseAll(elements []overpass.Element) []models.Marina {
	out := make([]models.Marina, 0, len(elements))
	for _, e := range elements {
		if m, ok := Parse(e); ok {
			out = append(out, m)
		}
	}
	return out
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

// Filter keeps marinas that offer every facility set in want
func Filter(marinas []models.Marina, want models.MarinaFacilities) []models.Marina {
	out := make([]models.Marina, 0, len(marinas))
	for _, m := range marinas {
		if m.Facilities.Covers(want) {
			out = append(out, m)
		}
	}
	return out
}
