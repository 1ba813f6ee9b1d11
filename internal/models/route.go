package models

import (
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ngmaloney/marine-navigator/internal/geo"
)

// Location is a named position supplied by the user or a geocoder.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`
}

// Point returns the location as a geo.Point.
func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Lat, Lon: l.Lon}
}

// WaypointType marks the role of a waypoint within a route
type WaypointType string

const (
	WaypointStart        WaypointType = "start"
	WaypointIntermediate WaypointType = "waypoint"
	WaypointDestination  WaypointType = "destination"
)

// Waypoint is a single node of a route. Identity is the ID; order within a
// route defines the leg sequence.
type Waypoint struct {
	ID        string       `json:"id"`
	Lat       float64      `json:"lat"`
	Lon       float64      `json:"lon"`
	Name      string       `json:"name"`
	Type      WaypointType `json:"type"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
}

// Point returns the waypoint position as a geo.Point.
func (w Waypoint) Point() geo.Point {
	return geo.Point{Lat: w.Lat, Lon: w.Lon}
}

// Route is an ordered waypoint sequence. TotalDistance (nautical miles) and
// EstimatedTime (hours) always reflect the current waypoints at AverageSpeed.
type Route struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Waypoints     []Waypoint `json:"waypoints"`
	TotalDistance float64    `json:"total_distance"`
	EstimatedTime float64    `json:"estimated_time"`
	AverageSpeed  float64    `json:"average_speed"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Leg is the straight segment between two consecutive waypoints
type Leg struct {
	Index    int
	From     Waypoint
	To       Waypoint
	Distance float64 // nautical miles
}

// Legs returns the route's legs in order.
func (r *Route) Legs() []Leg {
	if len(r.Waypoints) < 2 {
		return nil
	}
	legs := make([]Leg, 0, len(r.Waypoints)-1)
	for i := 0; i+1 < len(r.Waypoints); i++ {
		from, to := r.Waypoints[i], r.Waypoints[i+1]
		legs = append(legs, Leg{
			Index:    i,
			From:     from,
			To:       to,
			Distance: geo.Distance(from.Lat, from.Lon, to.Lat, to.Lon),
		})
	}
	return legs
}

// Clone returns a deep copy so callers can derive new routes without
// aliasing the waypoint slice.
func (r Route) Clone() Route {
	c := r
	c.Waypoints = make([]Waypoint, len(r.Waypoints))
	copy(c.Waypoints, r.Waypoints)
	return c
}

// Start returns the first waypoint, or nil for an empty route.
func (r *Route) Start() *Waypoint {
	if len(r.Waypoints) == 0 {
		return nil
	}
	return &r.Waypoints[0]
}

// Destination returns the last waypoint, or nil for an empty route.
func (r *Route) Destination() *Waypoint {
	if len(r.Waypoints) == 0 {
		return nil
	}
	return &r.Waypoints[len(r.Waypoints)-1]
}

// BoundingBox is an axis-aligned lat/lon box.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundingBoxOf returns the extent of the given points. The zero box is
// returned for no points.
func BoundingBoxOf(points []geo.Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{South: points[0].Lat, North: points[0].Lat, West: points[0].Lon, East: points[0].Lon}
	for _, p := range points[1:] {
		b.South = math.Min(b.South, p.Lat)
		b.North = math.Max(b.North, p.Lat)
		b.West = math.Min(b.West, p.Lon)
		b.East = math.Max(b.East, p.Lon)
	}
	return b
}

// Pad grows the box by deg degrees on every side, clamped to valid ranges.
func (b BoundingBox) Pad(deg float64) BoundingBox {
	return BoundingBox{
		South: math.Max(-90, b.South-deg),
		West:  math.Max(-180, b.West-deg),
		North: math.Min(90, b.North+deg),
		East:  math.Min(180, b.East+deg),
	}
}

// Validate checks that the box corners are valid and ordered.
func (b BoundingBox) Validate() error {
	if err := geo.ValidateCoordinate(b.South, b.West); err != nil {
		return err
	}
	if err := geo.ValidateCoordinate(b.North, b.East); err != nil {
		return err
	}
	if b.South > b.North || b.West > b.East {
		return eris.Errorf("bounding box corners out of order: %s", b.CacheKey())
	}
	return nil
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b BoundingBox) Contains(p geo.Point) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lon >= b.West && p.Lon <= b.East
}

// Overlaps reports whether the two boxes share any area or edge.
func (b BoundingBox) Overlaps(o BoundingBox) bool {
	return b.South <= o.North && o.South <= b.North && b.West <= o.East && o.West <= b.East
}

// Center returns the middle of the box.
func (b BoundingBox) Center() geo.Point {
	return geo.Point{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

// CacheKey is a coarse fingerprint of the box rounded to 0.01 degrees.
// Nearby boxes that round differently miss each other's cache entries.
func (b BoundingBox) CacheKey() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", b.South, b.West, b.North, b.East)
}
