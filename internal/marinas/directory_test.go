package marinas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/database"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/overpass"
)

type fakeSource struct {
	calls    int
	err      error
	elements []overpass.Element
}

func (f *fakeSource) Query(ctx context.Context, query string) ([]overpass.Element, error) {
	f.calls++
	return f.elements, f.err
}

func marinaNode(id int64, lat, lon float64, tags map[string]string) overpass.Element {
	return overpass.Element{Type: "node", ID: id, Lat: &lat, Lon: &lon, Tags: tags}
}

// Chatham harbour and two nearby marinas
const originLat, originLon = 41.6688, -69.9597

var sampleElements = []overpass.Element{
	marinaNode(1, 41.70, -69.96, map[string]string{"leisure": "marina", "name": "Far Marina", "fuel": "yes"}),
	marinaNode(2, 41.67, -69.96, map[string]string{"leisure": "marina", "name": "Near Marina", "sanitary_dump_station": "yes", "vhf": "9"}),
	{Type: "way", ID: 3, Center: &overpass.LatLon{Lat: 41.68, Lon: -69.95}, Tags: map[string]string{"leisure": "marina"}},
	{Type: "way", ID: 4, Tags: map[string]string{"leisure": "marina", "name": "No position"}},
}

func newTestDirectory(src FeatureSource, kv database.KV, now func() time.Time) *Directory {
	return NewDirectory(Options{Source: src, Store: kv, Logger: zap.NewNop(), Now: now})
}

func TestFindNearby_Live(t *testing.T) {
	src := &fakeSource{elements: sampleElements}
	d := newTestDirectory(src, database.NewMemoryStore(), nil)

	res, err := d.FindNearby(context.Background(), originLat, originLon, 10)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, res.Source)
	require.Len(t, res.Marinas, 3)

	assert.Equal(t, "Near Marina", res.Marinas[0].Name)
	assert.Equal(t, "Far Marina", res.Marinas[2].Name)
	assert.Equal(t, "Unnamed marina", res.Marinas[1].Name)
	for i := 1; i < len(res.Marinas); i++ {
		assert.LessOrEqual(t, res.Marinas[i-1].Distance, res.Marinas[i].Distance)
	}
	assert.True(t, res.Marinas[0].Facilities.Pumpout)
	assert.Equal(t, "9", res.Marinas[0].VHFChannel)

	res, err = d.FindNearby(context.Background(), originLat, originLon, 10)
	require.NoError(t, err)
	assert.Equal(t, models.SourceMemory, res.Source)
	assert.Equal(t, 1, src.calls)
}

func TestFindNearby_RadiusFilter(t *testing.T) {
	d := newTestDirectory(&fakeSource{elements: sampleElements}, nil, nil)
	res, err := d.FindNearby(context.Background(), originLat, originLon, 1)
	require.NoError(t, err)
	for _, m := range res.Marinas {
		assert.LessOrEqual(t, m.Distance, 1.0)
	}
	assert.Len(t, res.Marinas, 2)
}

func TestFindNearby_Fallbacks(t *testing.T) {
	kv := database.NewMemoryStore()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base

	_, err := newTestDirectory(&fakeSource{elements: sampleElements}, kv, func() time.Time { return now }).
		FindNearby(context.Background(), originLat, originLon, 10)
	require.NoError(t, err)

	offline := &fakeSource{err: errors.New("timeout")}

	now = base.Add(24 * time.Hour)
	res, err := newTestDirectory(offline, kv, func() time.Time { return now }).
		FindNearby(context.Background(), originLat, originLon, 10)
	require.NoError(t, err)
	assert.Equal(t, models.SourceCache, res.Source)
	assert.Len(t, res.Marinas, 3)

	now = base.Add(8 * 24 * time.Hour)
	res, err = newTestDirectory(offline, kv, func() time.Time { return now }).
		FindNearby(context.Background(), originLat, originLon, 10)
	require.NoError(t, err)
	assert.Equal(t, models.SourceUnavailable, res.Source)
	assert.Empty(t, res.Marinas)
}

func TestFindNearby_InvalidInput(t *testing.T) {
	d := newTestDirectory(nil, nil, nil)
	_, err := d.FindNearby(context.Background(), 91, 0, 10)
	assert.Error(t, err)
	_, err = d.FindNearby(context.Background(), 0, 0, 0)
	assert.Error(t, err)
}

func TestParse_Facilities(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want models.MarinaFacilities
	}{
		{"fuel tag", map[string]string{"fuel": "yes"}, models.MarinaFacilities{Fuel: true}},
		{"seamark fuel station", map[string]string{"seamark:small_craft_facility:category": "fuel_station;slipway"}, models.MarinaFacilities{Fuel: true}},
		{"pumpout", map[string]string{"sanitary_dump_station": "yes"}, models.MarinaFacilities{Pumpout: true}},
		{"boatyard", map[string]string{"boatyard": "yes"}, models.MarinaFacilities{Repairs: true}},
		{"everything", map[string]string{
			"fuel": "yes", "drinking_water": "yes", "electricity": "yes", "sanitary_dump_station": "yes",
			"boatyard": "yes", "mooring": "yes", "shower": "yes",
		}, models.MarinaFacilities{Fuel: true, Water: true, Electricity: true, Pumpout: true, Repairs: true, Moorings: true, Showers: true}},
		{"explicit no", map[string]string{"fuel": "no"}, models.MarinaFacilities{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Parse(marinaNode(1, 0, 0, tt.tags))
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Facilities)
			assert.Equal(t, tt.want.Labels(), m.Amenities)
		})
	}
}

func TestFilter(t *testing.T) {
	marinas := ParseAll(sampleElements)
	require.Len(t, marinas, 3)

	fuel := Filter(marinas, models.MarinaFacilities{Fuel: true})
	require.Len(t, fuel, 1)
	assert.Equal(t, "Far Marina", fuel[0].Name)

	assert.Len(t, Filter(marinas, models.MarinaFacilities{}), 3)
	assert.Empty(t, Filter(marinas, models.MarinaFacilities{Fuel: true, Pumpout: true}))
}

func TestFavorites(t *testing.T) {
	kv := database.NewMemoryStore()
	d := newTestDirectory(&fakeSource{elements: sampleElements}, kv, nil)

	favs, err := d.Favorites()
	require.NoError(t, err)
	assert.Empty(t, favs)

	res, err := d.FindNearby(context.Background(), originLat, originLon, 10)
	require.NoError(t, err)
	require.NoError(t, d.AddFavorite(res.Marinas[0]))
	require.NoError(t, d.AddFavorite(res.Marinas[0]))

	favs, err = d.Favorites()
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.True(t, favs[0].IsFavorite)
	assert.Equal(t, 0.0, favs[0].Distance)

	res, err = d.FindNearby(context.Background(), originLat, originLon, 10)
	require.NoError(t, err)
	assert.True(t, res.Marinas[0].IsFavorite)
	assert.False(t, res.Marinas[1].IsFavorite)

	require.NoError(t, d.RemoveFavorite(favs[0].ID))
	favs, err = d.Favorites()
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = newTestDirectory(nil, nil, nil).Favorites()
	assert.Error(t, err)
}
