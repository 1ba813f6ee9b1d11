package models

import (
	"time"

	"github.com/ngmaloney/marine-navigator/internal/geo"
)

// Position is the vessel position as seen by the route engine.
type Position struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Heading float64 `json:"heading"` // degrees true
	Speed   float64 `json:"speed"`   // knots
}

// Point returns the position as a geo.Point.
func (p Position) Point() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon}
}

// Fix is a raw reading from a position sensor. Speed and heading are
// optional because many receivers only report them while moving.
type Fix struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	SpeedMPS   *float64  `json:"speed_mps,omitempty"`
	HeadingDeg *float64  `json:"heading_deg,omitempty"`
	Accuracy   float64   `json:"accuracy"` // meters
	Timestamp  time.Time `json:"timestamp"`
}

// Point returns the fix position as a geo.Point.
func (f Fix) Point() geo.Point {
	return geo.Point{Lat: f.Lat, Lon: f.Lon}
}

// NavigationState is a snapshot of progress along the active route.
type NavigationState struct {
	CurrentPosition Position  `json:"current_position"`
	Heading         float64   `json:"heading"`
	Speed           float64   `json:"speed"`
	NextWaypoint    *Waypoint `json:"next_waypoint,omitempty"`
	DistanceToNext  float64   `json:"distance_to_next"` // nautical miles
	BearingToNext   float64   `json:"bearing_to_next"`
	ETAToNext       float64   `json:"eta_to_next"` // minutes
	Progress        float64   `json:"progress"`    // 0-100
}

// Finished reports whether the snapshot is the terminal one.
func (s *NavigationState) Finished() bool {
	return s.NextWaypoint == nil
}
