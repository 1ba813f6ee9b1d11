// Package route builds and maintains navigation routes and derives the
// per-fix navigation state from them.
package route

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
)

const (
	// DefaultAverageSpeedKnots is used when a route is generated without a speed.
	DefaultAverageSpeedKnots = 5.0

	// DefaultArrivalThresholdNM is the distance at which a waypoint counts as reached.
	DefaultArrivalThresholdNM = 0.1
)

var (
	ErrRouteTooShort = eris.New("route: at least two waypoints are required")
	ErrInvalidIndex  = eris.New("route: waypoint index out of range")
	ErrInvalidSpeed  = eris.New("route: speed must be a positive finite number")
	ErrNotFound      = eris.New("route: not found")
)

// now is swapped in tests
var now = time.Now

func newRouteID() string {
	return fmt.Sprintf("route_%d_%s", now().UnixMilli(), uuid.NewString()[:8])
}

func newWaypointID() string {
	return "wp_" + uuid.NewString()
}

func validateSpeed(knots float64) error {
	if math.IsNaN(knots) || math.IsInf(knots, 0) || knots <= 0 {
		return eris.Wrapf(ErrInvalidSpeed, "got %v", knots)
	}
	return nil
}

func waypointFrom(loc models.Location, typ models.WaypointType, fallbackName string) models.Waypoint {
	name := loc.Name
	if name == "" {
		name = fallbackName
	}
	return models.Waypoint{
		ID:   newWaypointID(),
		Lat:  loc.Lat,
		Lon:  loc.Lon,
		Name: name,
		Type: typ,
	}
}

// GenerateRoute creates a two-waypoint route from start to destination.
// A zero averageSpeedKnots selects DefaultAverageSpeedKnots.
func GenerateRoute(start, destination models.Location, averageSpeedKnots float64) (*models.Route, error) {
	if err := geo.ValidateCoordinate(start.Lat, start.Lon); err != nil {
		return nil, eris.Wrap(err, "route start")
	}
	if err := geo.ValidateCoordinate(destination.Lat, destination.Lon); err != nil {
		return nil, eris.Wrap(err, "route destination")
	}
	if averageSpeedKnots == 0 {
		averageSpeedKnots = DefaultAverageSpeedKnots
	}
	if err := validateSpeed(averageSpeedKnots); err != nil {
		return nil, err
	}

	startName := start.Name
	if startName == "" {
		startName = "Start"
	}
	destName := destination.Name
	if destName == "" {
		destName = "Destination"
	}

	r := &models.Route{
		ID:   newRouteID(),
		Name: fmt.Sprintf("%s to %s", startName, destName),
		Waypoints: []models.Waypoint{
			waypointFrom(start, models.WaypointStart, "Start"),
			waypointFrom(destination, models.WaypointDestination, "Destination"),
		},
		AverageSpeed: averageSpeedKnots,
		CreatedAt:    now(),
	}
	Recalculate(r)
	return r, nil
}

// AddWaypoint returns a copy of r with loc inserted just before the destination.
func AddWaypoint(r models.Route, loc models.Location) (models.Route, error) {
	return AddWaypointAt(r, loc, len(r.Waypoints)-1)
}

// AddWaypointAt returns a copy of r with loc inserted at index, which must
// fall strictly between the start and the destination (1 <= index <= len-1).
func AddWaypointAt(r models.Route, loc models.Location, index int) (models.Route, error) {
	if len(r.Waypoints) < 2 {
		return models.Route{}, ErrRouteTooShort
	}
	if index < 1 || index > len(r.Waypoints)-1 {
		return models.Route{}, eris.Wrapf(ErrInvalidIndex, "index %d for %d waypoints", index, len(r.Waypoints))
	}
	if err := geo.ValidateCoordinate(loc.Lat, loc.Lon); err != nil {
		return models.Route{}, eris.Wrap(err, "waypoint")
	}

	wp := waypointFrom(loc, models.WaypointIntermediate, fmt.Sprintf("Waypoint %d", index))

	out := r
	out.Waypoints = make([]models.Waypoint, 0, len(r.Waypoints)+1)
	out.Waypoints = append(out.Waypoints, r.Waypoints[:index]...)
	out.Waypoints = append(out.Waypoints, wp)
	out.Waypoints = append(out.Waypoints, r.Waypoints[index:]...)

	Recalculate(&out)
	return out, nil
}

// RemoveWaypoint returns a copy of r without the intermediate waypoint id.
// The start and destination cannot be removed.
func RemoveWaypoint(r models.Route, id string) (models.Route, error) {
	for i, wp := range r.Waypoints {
		if wp.ID != id {
			continue
		}
		if i == 0 || i == len(r.Waypoints)-1 {
			return models.Route{}, eris.Wrapf(ErrInvalidIndex, "cannot remove %s waypoint", wp.Type)
		}
		out := r
		out.Waypoints = make([]models.Waypoint, 0, len(r.Waypoints)-1)
		out.Waypoints = append(out.Waypoints, r.Waypoints[:i]...)
		out.Waypoints = append(out.Waypoints, r.Waypoints[i+1:]...)
		Recalculate(&out)
		return out, nil
	}
	return models.Route{}, eris.Wrapf(ErrNotFound, "waypoint %s", id)
}

// SetAverageSpeed returns a copy of r planned at knots.
func SetAverageSpeed(r models.Route, knots float64) (models.Route, error) {
	if err := validateSpeed(knots); err != nil {
		return models.Route{}, err
	}
	out := r.Clone()
	out.AverageSpeed = knots
	Recalculate(&out)
	return out, nil
}

// LegDistances returns the length of each leg in nautical miles
func LegDistances(r models.Route) []float64 {
	legs := r.Legs()
	out := make([]float64, len(legs))
	for i, l := range legs {
		out[i] = l.Distance
	}
	return out
}

// Recalculate refreshes TotalDistance and EstimatedTime in place.
func Recalculate(r *models.Route) {
	total := 0.0
	for _, d := range LegDistances(*r) {
		total += d
	}
	r.TotalDistance = total
	if r.AverageSpeed > 0 {
		r.EstimatedTime = total / r.AverageSpeed
	} else {
		r.EstimatedTime = 0
	}
}

// IsNearWaypoint reports whether the position is within thresholdNM of the
// waypoint. The boundary counts as near.
func IsNearWaypoint(lat, lon, waypointLat, waypointLon, thresholdNM float64) bool {
	return geo.Distance(lat, lon, waypointLat, waypointLon) <= thresholdNM
}

// CalculateNavigationState derives the navigation snapshot for pos while
// heading from Waypoints[currentIndex] to Waypoints[currentIndex+1]. When no
// next waypoint exists the terminal snapshot is returned.
func CalculateNavigationState(pos models.Position, r models.Route, currentIndex int) models.NavigationState {
	state := models.NavigationState{
		CurrentPosition: pos,
		Heading:         pos.Heading,
		Speed:           pos.Speed,
	}

	if currentIndex < 0 || currentIndex+1 >= len(r.Waypoints) {
		state.Progress = 100
		return state
	}

	next := r.Waypoints[currentIndex+1]
	state.NextWaypoint = &next
	state.DistanceToNext = geo.Distance(pos.Lat, pos.Lon, next.Lat, next.Lon)
	state.BearingToNext = geo.Bearing(pos.Lat, pos.Lon, next.Lat, next.Lon)

	speed := pos.Speed
	if speed <= 0 {
		speed = r.AverageSpeed
	}
	if speed > 0 {
		state.ETAToNext = state.DistanceToNext / speed * 60
	}

	legs := LegDistances(r)
	total, completed := 0.0, 0.0
	for i, d := range legs {
		total += d
		if i < currentIndex {
			completed += d
		}
	}
	if total > 0 {
		state.Progress = completed / total * 100
	}
	return state
}
