package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ngmaloney/marine-navigator/internal/models"
)

func testRoute() models.Route {
	return models.Route{
		ID:   "route_1",
		Name: "Start to Harbor",
		Waypoints: []models.Waypoint{
			{ID: "wp_1", Name: "Start", Lat: 0, Lon: 0, Type: models.WaypointStart},
			{ID: "wp_2", Name: "Harbor", Lat: 0, Lon: 0.1, Type: models.WaypointDestination},
		},
		TotalDistance: 6.0,
		EstimatedTime: 1.2,
		AverageSpeed:  5,
		CreatedAt:     time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "0m"},
		{0.2, "12m"},
		{1, "1h 00m"},
		{4.2, "4h 12m"},
		{25.5, "25h 30m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.hours), "hours=%v", tt.hours)
	}
}

func TestFormatRoute(t *testing.T) {
	var buf bytes.Buffer
	formatRoute(&buf, testRoute())

	output := buf.String()
	assert.Contains(t, output, "Start to Harbor (route_1)")
	assert.Contains(t, output, "Distance: 6.0 NM")
	assert.Contains(t, output, "Time: 1h 12m")
	assert.Contains(t, output, "LEG NM")
	assert.Contains(t, output, "Harbor")
	assert.Contains(t, output, "destination")
	assert.Contains(t, output, "090°")
}

func TestFormatRoutesList(t *testing.T) {
	var buf bytes.Buffer
	formatRoutesList(&buf, []models.Route{testRoute()})

	output := buf.String()
	assert.Contains(t, output, "WAYPOINTS")
	assert.Contains(t, output, "Start to Harbor")
	assert.Contains(t, output, "route_1")
	assert.Contains(t, output, "6.0 NM")
	assert.Contains(t, output, "2025-06-15 10:30")
}

func TestFormatAnalysis_Unsafe(t *testing.T) {
	depth := 0.5
	a := &models.RouteAnalysis{
		IsSafe: false,
		Hazards: []models.HazardMatch{{
			Hazard: models.NauticalHazard{
				ID:          "node/1",
				Type:        models.HazardRock,
				Description: "Rock awash",
				Severity:    models.HazardCritical,
			},
			DistanceFromRoute: 120,
			WaypointSegment:   0,
		}},
		MinDepth:        &depth,
		Warnings:        []string{"CRITICAL: Rock awash 120 m from leg 1 (Start to Harbor)"},
		Recommendations: []string{"Reroute."},
		DataSource:      models.SourceCache,
		DataAge:         3 * time.Hour,
	}

	var buf bytes.Buffer
	formatAnalysis(&buf, a)

	output := buf.String()
	assert.Contains(t, output, "Verdict: UNSAFE")
	assert.Contains(t, output, "Hazard data: cache (3h0m0s old)")
	assert.Contains(t, output, "Minimum charted depth: 0.5 m")
	assert.Contains(t, output, "critical")
	assert.Contains(t, output, "120 m")
	assert.Contains(t, output, "Warnings:")
	assert.Contains(t, output, "  - Reroute.")
}

func TestFormatAnalysis_SafeLive(t *testing.T) {
	a := &models.RouteAnalysis{
		IsSafe:          true,
		Hazards:         []models.HazardMatch{},
		Warnings:        []string{},
		Recommendations: []string{"No charted hazards were found within the safety margin."},
		DataSource:      models.SourceLive,
	}

	var buf bytes.Buffer
	formatAnalysis(&buf, a)

	output := buf.String()
	assert.Contains(t, output, "Verdict: SAFE")
	assert.Contains(t, output, "Hazard data: live\n")
	assert.NotContains(t, output, "SEVERITY")
	assert.NotContains(t, output, "Warnings:")
	assert.Contains(t, output, "Recommendations:")
}

func TestFormatMarinas(t *testing.T) {
	marinas := []models.Marina{
		{ID: "node/7", Name: "Town Wharf", Distance: 1.3, Bearing: 315, VHFChannel: "9",
			Amenities: []string{"Fuel", "Water"}, IsFavorite: true},
		{ID: "way/8", Name: "Boatyard", Distance: 3, Bearing: 90},
	}

	var buf bytes.Buffer
	formatMarinas(&buf, marinas)

	output := buf.String()
	assert.Contains(t, output, "★ Town Wharf")
	assert.Contains(t, output, "1.3 NM")
	assert.Contains(t, output, "315° NW")
	assert.Contains(t, output, "Fuel, Water")
	assert.Contains(t, output, "090° E")
	assert.Contains(t, output, "way/8")
}
