package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ngmaloney/marine-navigator/internal/geo"
)

func TestRouteLegs(t *testing.T) {
	r := Route{Waypoints: []Waypoint{
		{ID: "a", Lat: 0, Lon: 0, Type: WaypointStart},
		{ID: "b", Lat: 0, Lon: 1, Type: WaypointIntermediate},
		{ID: "c", Lat: 1, Lon: 1, Type: WaypointDestination},
	}}

	legs := r.Legs()
	assert.Len(t, legs, 2)
	assert.Equal(t, "a", legs[0].From.ID)
	assert.Equal(t, "b", legs[0].To.ID)
	assert.Equal(t, 1, legs[1].Index)
	assert.InDelta(t, 60.04, legs[0].Distance, 0.1)

	assert.Nil(t, (&Route{}).Legs())
	assert.Nil(t, (&Route{}).Start())
	assert.Equal(t, "c", r.Destination().ID)
}

func TestRouteClone(t *testing.T) {
	r := Route{Waypoints: []Waypoint{{ID: "a"}, {ID: "b"}}}
	c := r.Clone()
	c.Waypoints[0].ID = "changed"
	assert.Equal(t, "a", r.Waypoints[0].ID)
}

func TestBoundingBox(t *testing.T) {
	b := BoundingBoxOf([]geo.Point{{Lat: 41.5, Lon: -70.5}, {Lat: 42.0, Lon: -70.0}})
	assert.Equal(t, BoundingBox{South: 41.5, West: -70.5, North: 42.0, East: -70.0}, b)

	padded := b.Pad(0.1)
	assert.InDelta(t, 41.4, padded.South, 1e-9)
	assert.InDelta(t, -69.9, padded.East, 1e-9)
	assert.True(t, padded.Contains(geo.Point{Lat: 41.45, Lon: -70.55}))
	assert.False(t, b.Contains(geo.Point{Lat: 41.45, Lon: -70.55}))

	tests := []struct {
		name  string
		other BoundingBox
		want  bool
	}{
		{"identical", b, true},
		{"shared edge", BoundingBox{South: 42.0, West: -70.5, North: 43, East: -70.0}, true},
		{"disjoint", BoundingBox{South: 43, West: -70.5, North: 44, East: -70.0}, false},
		{"contained", BoundingBox{South: 41.6, West: -70.4, North: 41.7, East: -70.3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(b))
		})
	}
}

func TestBoundingBoxCacheKey(t *testing.T) {
	a := BoundingBox{South: 41.501, West: -70.499, North: 42.004, East: -70.001}
	b := BoundingBox{South: 41.499, West: -70.501, North: 41.996, East: -69.999}
	assert.Equal(t, "41.50,-70.50,42.00,-70.00", a.CacheKey())
	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestBoundingBoxValidate(t *testing.T) {
	assert.NoError(t, BoundingBox{South: 0, West: 0, North: 1, East: 1}.Validate())
	assert.Error(t, BoundingBox{South: 1, West: 0, North: 0, East: 1}.Validate())
	assert.Error(t, BoundingBox{South: 0, West: 0, North: 95, East: 1}.Validate())
}

func TestHazardSeverityRank(t *testing.T) {
	order := []HazardSeverity{HazardInfo, HazardWarning, HazardDanger, HazardCritical}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1].Rank(), order[i].Rank())
	}
	assert.Equal(t, 0, HazardSeverity("bogus").Rank())
}

func TestRouteAnalysisHasCritical(t *testing.T) {
	a := RouteAnalysis{Hazards: []HazardMatch{{Hazard: NauticalHazard{Severity: HazardDanger}}}}
	assert.False(t, a.HasCritical())
	a.Hazards = append(a.Hazards, HazardMatch{Hazard: NauticalHazard{Severity: HazardCritical}})
	assert.True(t, a.HasCritical())
}

func TestDataSourceDegraded(t *testing.T) {
	assert.False(t, SourceLive.Degraded())
	assert.False(t, SourceMemory.Degraded())
	assert.True(t, SourceCache.Degraded())
	assert.True(t, SourceImported.Degraded())
	assert.True(t, SourceUnavailable.Degraded())
}

func TestNavigationAlertExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		alert NavigationAlert
		want  bool
	}{
		{"sticky alert never expires", NavigationAlert{Timestamp: now.Add(-time.Hour)}, false},
		{"fresh auto-close", NavigationAlert{AutoClose: true, Timestamp: now.Add(-time.Second)}, false},
		{"old auto-close", NavigationAlert{AutoClose: true, Timestamp: now.Add(-10 * time.Second)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.alert.IsExpired(now, 5*time.Second))
		})
	}
}

func TestNavigationAlertSameAs(t *testing.T) {
	a := NavigationAlert{Type: AlertLowSpeed, Message: "slow", Severity: SeverityInfo, Timestamp: time.Unix(1, 0)}
	b := a
	b.Timestamp = time.Unix(99, 0)
	assert.True(t, a.SameAs(b))
	b.Message = "other"
	assert.False(t, a.SameAs(b))
}

func TestMarinaFacilities(t *testing.T) {
	f := MarinaFacilities{Fuel: true, Water: true, Pumpout: true}
	assert.Equal(t, []string{"Fuel", "Water", "Pump-out"}, f.Labels())
	assert.True(t, f.Covers(MarinaFacilities{Fuel: true}))
	assert.True(t, f.Covers(MarinaFacilities{}))
	assert.False(t, f.Covers(MarinaFacilities{Fuel: true, Showers: true}))
	assert.Empty(t, MarinaFacilities{}.Labels())
}

func TestSortByDistance(t *testing.T) {
	ms := []Marina{{ID: "far", Distance: 5}, {ID: "near", Distance: 1}, {ID: "mid", Distance: 2}}
	SortByDistance(ms)
	assert.Equal(t, "near", ms[0].ID)
	assert.Equal(t, "mid", ms[1].ID)
	assert.Equal(t, "far", ms[2].ID)
}
