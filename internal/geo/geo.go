// Package geo provides the spherical and flat-earth helpers used for route
// planning, hazard proximity and dead reckoning.
//
// Segment distances and metre/degree offsets use a local equirectangular
// projection. That is accurate at the scale of a single route leg but
// degrades near the poles and across wide longitude spans.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

const (
	// EarthRadiusNM is the mean earth radius in nautical miles.
	EarthRadiusNM = 3440.065

	// MetersPerDegree is the equirectangular scale for one degree of latitude.
	MetersPerDegree = 111320.0

	// MetersPerNM is the length of one nautical mile.
	MetersPerNM = 1852.0

	knotsPerMeterPerSecond = 1.94384
)

// ErrInvalidCoordinate is returned for NaN, infinite or out-of-range coordinates.
var ErrInvalidCoordinate = eris.New("geo: invalid coordinate")

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ValidateCoordinate rejects coordinates that would otherwise produce NaN
// distances further down the pipeline.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return eris.Wrapf(ErrInvalidCoordinate, "non-finite value (%v, %v)", lat, lon)
	}
	if lat < -90 || lat > 90 {
		return eris.Wrapf(ErrInvalidCoordinate, "latitude %.6f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return eris.Wrapf(ErrInvalidCoordinate, "longitude %.6f out of range", lon)
	}
	return nil
}

// Validate checks the point with ValidateCoordinate.
func (p Point) Validate() error {
	return ValidateCoordinate(p.Lat, p.Lon)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Distance returns the great-circle (Haversine) distance in nautical miles.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := radians(lat1)
	lat2Rad := radians(lat2)
	deltaLat := radians(lat2 - lat1)
	deltaLon := radians(lon2 - lon1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusNM * c
}

// DistanceBetween is Distance for two points.
func DistanceBetween(a, b Point) float64 {
	return Distance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Bearing returns the initial great-circle bearing from the first point to
// the second, in degrees within [0,360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	deltaLon := radians(lon2 - lon1)

	y := math.Sin(deltaLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLon)

	return NormalizeHeading(degrees(math.Atan2(y, x)))
}

// BearingBetween is Bearing for two points.
func BearingBetween(a, b Point) float64 {
	return Bearing(a.Lat, a.Lon, b.Lat, b.Lon)
}

// NormalizeHeading reduces h to [0,360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// HeadingDifference returns the smallest angle between two headings, always
// in the range [0,180].
func HeadingDifference(a, b float64) float64 {
	d := math.Abs(NormalizeHeading(a) - NormalizeHeading(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// DistanceFromLineSegment returns the distance in meters from p to the
// segment a-b. The projection parameter is clamped so the result is the
// distance to the segment, not to the infinite line through it.
func DistanceFromLineSegment(p, a, b Point) float64 {
	cosLat := math.Cos(radians(p.Lat))
	project := func(q Point) (float64, float64) {
		return q.Lon * MetersPerDegree * cosLat, q.Lat * MetersPerDegree
	}

	px, py := project(p)
	ax, ay := project(a)
	bx, by := project(b)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy

	t := 0.0
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}

	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}

// OffsetMeters moves p east and north by the given number of meters using
// the equirectangular approximation.
func OffsetMeters(p Point, east, north float64) Point {
	return Point{
		Lat: p.Lat + north/MetersPerDegree,
		Lon: p.Lon + east/(MetersPerDegree*math.Cos(radians(p.Lat))),
	}
}

// Destination returns the point reached by travelling distanceNM along the
// great circle leaving p at the given initial bearing.
func Destination(p Point, bearing, distanceNM float64) Point {
	delta := distanceNM / EarthRadiusNM
	theta := radians(bearing)
	phi1 := radians(p.Lat)
	lambda1 := radians(p.Lon)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))

	lon := math.Mod(degrees(lambda2)+540, 360) - 180
	return Point{Lat: degrees(phi2), Lon: lon}
}

func NMToMeters(nm float64) float64 { return nm * MetersPerNM }

func MetersToNM(m float64) float64 { return m / MetersPerNM }

// KnotsFromMetersPerSecond converts a sensor speed to knots.
func KnotsFromMetersPerSecond(mps float64) float64 { return mps * knotsPerMeterPerSecond }

// Compass converts a heading into the closest of the eight compass points.
func Compass(heading float64) string {
	h := NormalizeHeading(heading + 22.5) // now [0,45) is north, etc.
	idx := int(h/45) % 8
	return [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}[idx]
}
