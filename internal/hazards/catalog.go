// Package hazards maintains the nautical hazard catalog and evaluates
// routes against it.
package hazards

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/database"
	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/overpass"
)

const (
	// SnapshotPrefix prefixes every persisted hazard snapshot key
	SnapshotPrefix = "hazards:"

	DefaultMemoryTTL = 15 * time.Minute
	DefaultMaxAge    = 7 * 24 * time.Hour

	memoryEntries = 64
)

// FeatureSource runs Overpass queries. *overpass.Client satisfies it.
type FeatureSource interface {
	Query(ctx context.Context, query string) ([]overpass.Element, error)
}

// FetchResult is the hazard set for a bounding box and its provenance.
type FetchResult struct {
	BBox      models.BoundingBox      `json:"bbox"`
	Hazards   []models.NauticalHazard `json:"hazards"`
	Source    models.DataSource       `json:"source"`
	FetchedAt time.Time               `json:"fetched_at"`
}

// Age returns how old the data is relative to now. Unavailable results
// report zero.
func (r FetchResult) Age(now time.Time) time.Duration {
	if r.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(r.FetchedAt)
}

// Options configures a Catalog
type Options struct {
	Source    FeatureSource // nil disables live fetches
	Store     database.KV   // nil disables snapshots
	MemoryTTL time.Duration
	MaxAge    time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// Catalog fetches hazards for a bounding box, falling back through a memory
// cache, the live feature service and persisted snapshots.
type Catalog struct {
	source FeatureSource
	store  database.KV
	memory *expirable.LRU[string, FetchResult]
	maxAge time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewCatalog creates a new hazard catalog
func NewCatalog(opts Options) *Catalog {
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

	return &Catalog{
		source: opts.Source,
		store:  opts.Store,
		memory: expirable.NewLRU[string, FetchResult](memoryEntries, nil, opts.MemoryTTL),
		maxAge: opts.MaxAge,
		log:    opts.Logger.Named("hazards"),
		now:    opts.Now,
	}
}

// Fetch returns the hazards for bbox. Only an invalid box produces an error;
// every upstream failure degrades to cached or empty data, reported through
// FetchResult.Source.
func (c *Catalog) Fetch(ctx context.Context, bbox models.BoundingBox) (FetchResult, error) {
	if err := bbox.Validate(); err != nil {
		return FetchResult{}, eris.Wrap(err, "hazards: fetch")
	}
	key := bbox.CacheKey()

	if res, ok := c.memory.Get(key); ok {
		res.Source = models.SourceMemory
		return res, nil
	}

	if c.source != nil {
		elements, err := c.source.Query(ctx, overpass.SeamarkQuery(bbox.South, bbox.West, bbox.North, bbox.East))
		if err == nil {
			res := FetchResult{
				BBox:      bbox,
				Hazards:   ClassifyAll(elements),
				Source:    models.SourceLive,
				FetchedAt: c.now(),
			}
			c.memory.Add(key, res)
			c.saveSnapshot(SnapshotPrefix+key, res)
			c.log.Debug("fetched hazards",
				zap.String("bbox", key),
				zap.Int("count", len(res.Hazards)))
			return res, nil
		}
		c.log.Warn("live hazard fetch failed, trying cache",
			zap.String("bbox", key),
			zap.Error(err))
	}

	if res, ok := c.findSnapshot(bbox); ok {
		c.log.Info("using cached hazard data",
			zap.String("bbox", key),
			zap.String("source", string(res.Source)),
			zap.Duration("age", res.Age(c.now())))
		return res, nil
	}

	c.log.Warn("no hazard data available", zap.String("bbox", key))
	return FetchResult{BBox: bbox, Source: models.SourceUnavailable}, nil
}

func (c *Catalog) saveSnapshot(key string, res FetchResult) {
	if c.store == nil {
		return
	}
	if err := database.SetJSON(c.store, key, res); err != nil {
		c.log.Warn("failed to persist hazard snapshot", zap.String("key", key), zap.Error(err))
	}
}

// snapshots loads every readable snapshot. Unreadable ones are skipped.
func (c *Catalog) snapshots() map[string]FetchResult {
	if c.store == nil {
		return nil
	}
	keys, err := c.store.Keys(SnapshotPrefix)
	if err != nil {
		c.log.Warn("listing hazard snapshots failed", zap.Error(err))
		return nil
	}

	out := make(map[string]FetchResult, len(keys))
	for _, k := range keys {
		var res FetchResult
		ok, err := database.GetJSON(c.store, k, &res)
		if err != nil || !ok {
			continue
		}
		out[k] = res
	}
	return out
}

// expired reports whether a snapshot is past the maximum age. Imported
// chart data never expires.
func (c *Catalog) expired(res FetchResult) bool {
	if res.Source == models.SourceImported {
		return false
	}
	return c.now().Sub(res.FetchedAt) >= c.maxAge
}

// findSnapshot picks the most recent non-expired snapshot overlapping bbox.
func (c *Catalog) findSnapshot(bbox models.BoundingBox) (FetchResult, bool) {
	var best FetchResult
	found := false
	for _, res := range c.snapshots() {
		if !res.BBox.Overlaps(bbox) || c.expired(res) {
			continue
		}
		if !found || res.FetchedAt.After(best.FetchedAt) {
			best = res
			found = true
		}
	}
	if !found {
		return FetchResult{}, false
	}
	if best.Source != models.SourceImported {
		best.Source = models.SourceCache
	}
	return best, true
}

// ImportSnapshot stores hazards loaded from a chart extract so they serve
// as offline fallback for any overlapping box. Importing under the same name
// replaces the previous import.
func (c *Catalog) ImportSnapshot(name string, hazards []models.NauticalHazard) (FetchResult, error) {
	if c.store == nil {
		return FetchResult{}, eris.New("hazards: import requires a store")
	}
	if len(hazards) == 0 {
		return FetchResult{}, eris.New("hazards: nothing to import")
	}

	points := make([]geo.Point, 0, len(hazards))
	for _, h := range hazards {
		points = append(points, h.Point())
		points = append(points, h.Polygon...)
	}

	res := FetchResult{
		BBox:      models.BoundingBoxOf(points),
		Hazards:   hazards,
		Source:    models.SourceImported,
		FetchedAt: c.now(),
	}
	key := SnapshotPrefix + "import:" + strings.ToLower(strings.TrimSpace(name))
	if err := database.SetJSON(c.store, key, res); err != nil {
		return FetchResult{}, eris.Wrap(err, "hazards: storing import")
	}
	c.log.Info("imported hazards", zap.String("key", key), zap.Int("count", len(hazards)))
	return res, nil
}

// PruneExpired removes snapshots older than the maximum age along with any
// that can no longer be decoded. It returns the number removed.
func (c *Catalog) PruneExpired() (int, error) {
	if c.store == nil {
		return 0, nil
	}
	keys, err := c.store.Keys(SnapshotPrefix)
	if err != nil {
		return 0, eris.Wrap(err, "hazards: listing snapshots")
	}

	removed := 0
	for _, k := range keys {
		var res FetchResult
		ok, err := database.GetJSON(c.store, k, &res)
		if ok && err == nil && !c.expired(res) {
			continue
		}
		if err := c.store.Remove(k); err != nil {
			return removed, eris.Wrapf(err, "hazards: removing %s", k)
		}
		removed++
	}
	return removed, nil
}

// StartPruner runs PruneExpired on the given cron schedule (for example
// "@every 6h"). The returned function stops the scheduler and waits for a
// running prune to finish.
func (c *Catalog) StartPruner(schedule string) (func(), error) {
	cr := cron.New()
	_, err := cr.AddFunc(schedule, func() {
		n, err := c.PruneExpired()
		if err != nil {
			c.log.Warn("hazard snapshot prune failed", zap.Error(err))
			return
		}
		c.log.Info("pruned hazard snapshots", zap.Int("removed", n))
	})
	if err != nil {
		return nil, eris.Wrapf(err, "hazards: invalid prune schedule %q", schedule)
	}
	cr.Start()
	return func() { <-cr.Stop().Done() }, nil
}
