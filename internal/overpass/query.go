package overpass

import "fmt"

// SeamarkQuery selects every seamark-tagged node and way inside the box,
// with full way geometry.
func SeamarkQuery(south, west, north, east float64) string {
	bbox := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", south, west, north, east)
	return fmt.Sprintf(`[out:json][timeout:25];
(
  node["seamark:type"](%[1]s);
  way["seamark:type"](%[1]s);
);
out geom;`, bbox)
}

// MarinaQuery selects leisure=marina nodes and ways within radiusMeters of
// the point. Ways are reduced to their center.
func MarinaQuery(lat, lon, radiusMeters float64) string {
	around := fmt.Sprintf("around:%.0f,%.6f,%.6f", radiusMeters, lat, lon)
	return fmt.Sprintf(`[out:json][timeout:25];
(
  node["leisure"="marina"](%[1]s);
  way["leisure"="marina"](%[1]s);
);
out center tags;`, around)
}
