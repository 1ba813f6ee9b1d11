package hazards

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
)

// importClasses resolves TYPE values that name a hazard type directly
var importClasses = map[models.HazardType]hazardClass{
	models.HazardReef:                seamarkClasses["reef"],
	models.HazardShallowWater:        seamarkClasses["shoal"],
	models.HazardWreck:               seamarkClasses["wreck"],
	models.HazardRock:                seamarkClasses["rock"],
	models.HazardRestrictedArea:      seamarkClasses["restricted_area"],
	models.HazardMilitaryZone:        seamarkClasses["military_area"],
	models.HazardAnchorageProhibited: noAnchoring,
	models.HazardFishingProhibited:   noFishing,
	models.HazardSpeedLimit:          speedRestricted,
	models.HazardTrafficSeparation:   seamarkClasses["separation_zone"],
	models.HazardCableArea:           seamarkClasses["cable_area"],
	models.HazardPipeline:            seamarkClasses["pipeline_area"],
}

// classForImport accepts either a seamark type or one of our hazard type
// names in the TYPE column.
func classForImport(typ string) hazardClass {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if c, ok := seamarkClasses[typ]; ok {
		return c
	}
	if c, ok := importClasses[models.HazardType(typ)]; ok {
		return c
	}
	return unknownClass
}

// ImportShapefile reads point, polyline and polygon features from a
// shapefile. Attribute columns TYPE, NAME and DEPTH are matched
// case-insensitively; DEPTH may be numeric meters or "awash"/"covers".
func ImportShapefile(path, source string) ([]models.NauticalHazard, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "hazards: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	attr := func(col string) string {
		idx, ok := fieldIdx[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var out []models.NauticalHazard
	for reader.Next() {
		n, shape := reader.Shape()
		outline := shapePoints(shape)
		if len(outline) == 0 {
			continue
		}

		class := classForImport(attr("type"))
		tags := map[string]string{"name": attr("name"), "water_level": attr("depth"), "depth": attr("depth")}
		depth := parseDepth("", tags)

		h := models.NauticalHazard{
			ID:          fmt.Sprintf("%s:%d", source, n),
			Type:        class.Type,
			Radius:      class.Radius,
			Depth:       depth,
			Description: describe(class, tags, depth),
			Severity:    class.Severity,
			Source:      source,
		}

		if len(outline) == 1 {
			h.Lat, h.Lon = outline[0].Lat, outline[0].Lon
		} else {
			center, extent, ok := outlineExtent(outline)
			if !ok {
				continue
			}
			h.Lat, h.Lon = center.Lat, center.Lon
			h.Polygon = outline
			if extent > h.Radius {
				h.Radius = extent
			}
		}
		if err := geo.ValidateCoordinate(h.Lat, h.Lon); err != nil {
			continue
		}

		escalate(&h)
		out = append(out, h)
	}
	return out, nil
}

func shapePoints(shape shp.Shape) []geo.Point {
	convert := func(pts []shp.Point) []geo.Point {
		out := make([]geo.Point, len(pts))
		for i, p := range pts {
			out[i] = geo.Point{Lat: p.Y, Lon: p.X}
		}
		return out
	}

	switch s := shape.(type) {
	case *shp.Point:
		return []geo.Point{{Lat: s.Y, Lon: s.X}}
	case *shp.PointZ:
		return []geo.Point{{Lat: s.Y, Lon: s.X}}
	case *shp.PointM:
		return []geo.Point{{Lat: s.Y, Lon: s.X}}
	case *shp.PolyLine:
		return convert(s.Points)
	case *shp.Polygon:
		return convert(s.Points)
	case *shp.PolygonZ:
		return convert(s.Points)
	default:
		return nil
	}
}
