package models

import (
	"time"

	"github.com/ngmaloney/marine-navigator/internal/geo"
)

// HazardType classifies a nautical hazard
type HazardType string

const (
	HazardReef                HazardType = "reef"
	HazardShallowWater        HazardType = "shallow_water"
	HazardWreck               HazardType = "wreck"
	HazardRock                HazardType = "rock"
	HazardRestrictedArea      HazardType = "restricted_area"
	HazardMilitaryZone        HazardType = "military_zone"
	HazardAnchorageProhibited HazardType = "anchorage_prohibited"
	HazardFishingProhibited   HazardType = "fishing_prohibited"
	HazardSpeedLimit          HazardType = "speed_limit"
	HazardTrafficSeparation   HazardType = "traffic_separation"
	HazardCableArea           HazardType = "cable_area"
	HazardPipeline            HazardType = "pipeline"
)

// HazardSeverity is ordered info < warning < danger < critical.
type HazardSeverity string

const (
	HazardInfo     HazardSeverity = "info"
	HazardWarning  HazardSeverity = "warning"
	HazardDanger   HazardSeverity = "danger"
	HazardCritical HazardSeverity = "critical"
)

// Rank returns the ordinal of the severity; unknown values rank lowest.
func (s HazardSeverity) Rank() int {
	switch s {
	case HazardInfo:
		return 1
	case HazardWarning:
		return 2
	case HazardDanger:
		return 3
	case HazardCritical:
		return 4
	default:
		return 0
	}
}

const (
	// DepthAwash marks a hazard whose top is at the water surface.
	DepthAwash = 0.0
	// DepthCovers marks a hazard that covers and uncovers with the tide.
	DepthCovers = -1.0
)

// NauticalHazard is an immutable hazard record from the feature service or
// an imported chart extract. Radius is in meters (0 when unknown). Depth is
// the charted water depth over the hazard in meters; see DepthAwash and
// DepthCovers for the sentinel values.
type NauticalHazard struct {
	ID          string         `json:"id"`
	Type        HazardType     `json:"type"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
	Radius      float64        `json:"radius,omitempty"`
	Polygon     []geo.Point    `json:"polygon,omitempty"`
	Depth       *float64       `json:"depth,omitempty"`
	Description string         `json:"description,omitempty"`
	Severity    HazardSeverity `json:"severity"`
	Source      string         `json:"source"`
}

// Point returns the hazard reference position.
func (h NauticalHazard) Point() geo.Point {
	return geo.Point{Lat: h.Lat, Lon: h.Lon}
}

// HazardMatch attaches a hazard to the leg it threatens.
type HazardMatch struct {
	Hazard            NauticalHazard `json:"hazard"`
	DistanceFromRoute float64        `json:"distance_from_route"` // meters
	WaypointSegment   int            `json:"waypoint_segment"`
}

// DataSource records where hazard data for an analysis came from.
type DataSource string

const (
	SourceLive        DataSource = "live"
	SourceMemory      DataSource = "memory"
	SourceCache       DataSource = "cache"
	SourceImported    DataSource = "imported"
	SourceUnavailable DataSource = "unavailable"
)

// Degraded reports whether the data did not come from a fresh fetch.
func (d DataSource) Degraded() bool {
	return d == SourceCache || d == SourceImported || d == SourceUnavailable
}

// RouteAnalysis is the derived safety verdict for a route. It is never
// persisted.
type RouteAnalysis struct {
	IsSafe          bool          `json:"is_safe"`
	Hazards         []HazardMatch `json:"hazards"`
	MinDepth        *float64      `json:"min_depth,omitempty"`
	Warnings        []string      `json:"warnings"`
	Recommendations []string      `json:"recommendations"`
	DataSource      DataSource    `json:"data_source"`
	DataAge         time.Duration `json:"data_age"`
}

// HasCritical reports whether any attached hazard is critical.
func (a *RouteAnalysis) HasCritical() bool {
	for _, m := range a.Hazards {
		if m.Hazard.Severity == HazardCritical {
			return true
		}
	}
	return false
}
