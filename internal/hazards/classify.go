package hazards

import (
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/overpass"
)

// SourceOpenStreetMap tags hazards that came from the Overpass API
const SourceOpenStreetMap = "openstreetmap"

type hazardClass struct {
	Type     models.HazardType
	Severity models.HazardSeverity
	Radius   float64 // meters
	Label    string
}

var unknownClass = hazardClass{models.HazardRestrictedArea, models.HazardWarning, 100, "Charted feature"}

// seamarkClasses maps seamark:type values to hazard classes.
var seamarkClasses = map[string]hazardClass{
	"rock":                {models.HazardRock, models.HazardDanger, 50, "Rock"},
	"wreck":               {models.HazardWreck, models.HazardDanger, 100, "Wreck"},
	"obstruction":         {models.HazardRock, models.HazardWarning, 50, "Obstruction"},
	"reef":                {models.HazardReef, models.HazardDanger, 150, "Reef"},
	"seabed_area":         {models.HazardShallowWater, models.HazardWarning, 200, "Shallow area"},
	"shoal":               {models.HazardShallowWater, models.HazardWarning, 200, "Shoal"},
	"restricted_area":     {models.HazardRestrictedArea, models.HazardWarning, 200, "Restricted area"},
	"military_area":       {models.HazardMilitaryZone, models.HazardCritical, 500, "Military area"},
	"separation_zone":     {models.HazardTrafficSeparation, models.HazardWarning, 200, "Traffic separation zone"},
	"separation_line":     {models.HazardTrafficSeparation, models.HazardWarning, 200, "Traffic separation line"},
	"separation_boundary": {models.HazardTrafficSeparation, models.HazardWarning, 200, "Traffic separation boundary"},
	"cable_submarine":     {models.HazardCableArea, models.HazardInfo, 50, "Submarine cable"},
	"cable_area":          {models.HazardCableArea, models.HazardInfo, 50, "Cable area"},
	"pipeline_submarine":  {models.HazardPipeline, models.HazardInfo, 50, "Submarine pipeline"},
	"pipeline_area":       {models.HazardPipeline, models.HazardInfo, 50, "Pipeline area"},
}

var (
	coralReef       = hazardClass{models.HazardReef, models.HazardDanger, 150, "Coral reef"}
	noAnchoring     = hazardClass{models.HazardAnchorageProhibited, models.HazardInfo, 200, "No anchoring area"}
	noFishing       = hazardClass{models.HazardFishingProhibited, models.HazardInfo, 200, "No fishing area"}
	speedRestricted = hazardClass{models.HazardSpeedLimit, models.HazardInfo, 200, "Speed restricted area"}
)

// classFor resolves the hazard class for a seamark type, refining by tags.
func classFor(seamarkType string, tags map[string]string) hazardClass {
	switch seamarkType {
	case "seabed_area":
		surface := strings.ToLower(firstTag(tags, "seamark:seabed_area:surface", "surface"))
		if strings.Contains(surface, "coral") {
			return coralReef
		}
	case "restricted_area":
		restriction := strings.ToLower(firstTag(tags, "seamark:restricted_area:restriction", "restriction"))
		switch {
		case strings.Contains(restriction, "no_anchoring"):
			return noAnchoring
		case strings.Contains(restriction, "no_fishing"):
			return noFishing
		case strings.Contains(restriction, "speed"), firstTag(tags, "maxspeed", "seamark:restricted_area:maxspeed") != "":
			return speedRestricted
		}
	}

	if c, ok := seamarkClasses[seamarkType]; ok {
		return c
	}
	return unknownClass
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

// parseDepth extracts the water depth over a hazard from its tags.
// awash maps to models.DepthAwash and covers to models.DepthCovers. A charted
// drying height means the feature stands clear of the water, treated as awash.
func parseDepth(seamarkType string, tags map[string]string) *float64 {
	level := strings.ToLower(firstTag(tags, "seamark:"+seamarkType+":water_level", "water_level"))
	switch level {
	case "awash", "dry", "always_dry":
		d := models.DepthAwash
		return &d
	case "covers", "covers_and_uncovers", "part-submerged":
		d := models.DepthCovers
		return &d
	}

	if v := firstTag(tags, "seamark:"+seamarkType+":depth", "depth", "seamark:depth"); v != "" {
		if d, ok := parseMeters(v); ok {
			return &d
		}
	}

	if v := firstTag(tags, "seamark:"+seamarkType+":height"); v != "" {
		if _, ok := parseMeters(v); ok {
			d := models.DepthAwash
			return &d
		}
	}
	return nil
}

func parseMeters(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "m"))
	d, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	return d, true
}

// escalate raises physical obstructions that reach the surface to critical.
func escalate(h *models.NauticalHazard) {
	if h.Depth == nil || *h.Depth > 0 {
		return
	}
	switch h.Type {
	case models.HazardRock, models.HazardWreck, models.HazardReef:
		h.Severity = models.HazardCritical
	}
}

func describe(class hazardClass, tags map[string]string, depth *float64) string {
	desc := class.Label
	if name := firstTag(tags, "seamark:name", "name"); name != "" {
		desc += ": " + name
	}
	if depth != nil {
		switch *depth {
		case models.DepthAwash:
			desc += " (awash)"
		case models.DepthCovers:
			desc += " (covers and uncovers)"
		default:
			desc += " (" + strconv.FormatFloat(*depth, 'f', 1, 64) + " m)"
		}
	}
	return desc
}

// Classify converts an Overpass element into a hazard. Elements without a
// seamark:type or a usable position are rejected.
func Classify(e overpass.Element) (models.NauticalHazard, bool) {
	seamarkType := e.Tags["seamark:type"]
	if seamarkType == "" {
		return models.NauticalHazard{}, false
	}

	class := classFor(seamarkType, e.Tags)
	depth := parseDepth(seamarkType, e.Tags)

	h := models.NauticalHazard{
		ID:          "osm:" + e.Key(),
		Type:        class.Type,
		Radius:      class.Radius,
		Depth:       depth,
		Description: describe(class, e.Tags, depth),
		Severity:    class.Severity,
		Source:      SourceOpenStreetMap,
	}

	if len(e.Geometry) > 1 {
		outline := make([]geo.Point, len(e.Geometry))
		for i, p := range e.Geometry {
			outline[i] = geo.Point{Lat: p.Lat, Lon: p.Lon}
		}
		center, extent, ok := outlineExtent(outline)
		if !ok {
			return models.NauticalHazard{}, false
		}
		h.Lat, h.Lon = center.Lat, center.Lon
		h.Polygon = outline
		h.Radius = math.Max(h.Radius, extent)
	} else {
		pos, ok := e.Position()
		if !ok {
			return models.NauticalHazard{}, false
		}
		h.Lat, h.Lon = pos.Lat, pos.Lon
	}

	if err := geo.ValidateCoordinate(h.Lat, h.Lon); err != nil {
		return models.NauticalHazard{}, false
	}

	escalate(&h)
	return h, true
}

// ClassifyAll classifies every usable element, dropping the rest.
func ClassifyAll(elements []overpass.Element) []models.NauticalHazard {
	out := make([]models.NauticalHazard, 0, len(elements))
	for _, e := range elements {
		if h, ok := Classify(e); ok {
			out = append(out, h)
		}
	}
	return out
}

// outlineExtent returns the centre of the outline's bounding box and the
// distance in meters from that centre to the farthest vertex.
func outlineExtent(outline []geo.Point) (geo.Point, float64, bool) {
	flat := make([]float64, 0, len(outline)*2)
	for _, p := range outline {
		flat = append(flat, p.Lon, p.Lat)
	}
	ls := geom.NewLineStringFlat(geom.XY, flat)
	bounds := ls.Bounds()
	if bounds.IsEmpty() {
		return geo.Point{}, 0, false
	}

	center := geo.Point{
		Lat: (bounds.Min(1) + bounds.Max(1)) / 2,
		Lon: (bounds.Min(0) + bounds.Max(0)) / 2,
	}

	farthest := 0.0
	for _, p := range outline {
		farthest = math.Max(farthest, geo.NMToMeters(geo.DistanceBetween(center, p)))
	}
	return center, farthest, true
}
