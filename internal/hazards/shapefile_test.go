package hazards

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/marine-navigator/internal/models"
)

func writePointShapefile(t *testing.T, path string, rows [][3]string, points []shp.Point) {
	t.Helper()
	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("TYPE", 32),
		shp.StringField("NAME", 64),
		shp.StringField("DEPTH", 16),
	}))
	for i, p := range points {
		p := p
		n := w.Write(&p)
		for col, v := range rows[i] {
			require.NoError(t, w.WriteAttribute(int(n), col, v))
		}
	}
	w.Close()
}

func TestImportShapefile_Points(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hazards.shp")
	writePointShapefile(t,
		path,
		[][3]string{
			{"rock", "Bishop Rock", "awash"},
			{"wreck", "", "8.5"},
			{"shallow_water", "Middle Ground", ""},
			{"mystery", "", ""},
		},
		[]shp.Point{{X: -70.1, Y: 41.6}, {X: -70.2, Y: 41.7}, {X: -70.3, Y: 41.8}, {X: -70.4, Y: 41.9}},
	)

	hazards, err := ImportShapefile(path, "chart")
	require.NoError(t, err)
	require.Len(t, hazards, 4)

	rock := hazards[0]
	assert.Equal(t, "chart:0", rock.ID)
	assert.Equal(t, models.HazardRock, rock.Type)
	assert.Equal(t, models.HazardCritical, rock.Severity, "awash rock escalates")
	assert.Equal(t, 41.6, rock.Lat)
	assert.Equal(t, -70.1, rock.Lon)
	assert.Equal(t, "Rock: Bishop Rock (awash)", rock.Description)
	assert.Equal(t, "chart", rock.Source)

	wreck := hazards[1]
	assert.Equal(t, models.HazardWreck, wreck.Type)
	require.NotNil(t, wreck.Depth)
	assert.Equal(t, 8.5, *wreck.Depth)
	assert.Equal(t, models.HazardDanger, wreck.Severity)

	assert.Equal(t, models.HazardShallowWater, hazards[2].Type)
	assert.Nil(t, hazards[2].Depth)
	assert.Equal(t, models.HazardRestrictedArea, hazards[3].Type)
	assert.Equal(t, 100.0, hazards[3].Radius)
}

func TestImportShapefile_Polygon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("type", 32)}))

	ring := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 0.02}, {X: 0.02, Y: 0.02}, {X: 0.02, Y: 0}, {X: 0, Y: 0}}
	polygon := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
	n := w.Write(&polygon)
	require.NoError(t, w.WriteAttribute(int(n), 0, "military_area"))
	w.Close()

	hazards, err := ImportShapefile(path, "chart")
	require.NoError(t, err)
	require.Len(t, hazards, 1)

	h := hazards[0]
	assert.Equal(t, models.HazardMilitaryZone, h.Type)
	assert.InDelta(t, 0.01, h.Lat, 1e-9)
	assert.InDelta(t, 0.01, h.Lon, 1e-9)
	assert.Len(t, h.Polygon, 5)
	assert.Greater(t, h.Radius, 1000.0)
}

func TestImportShapefile_Missing(t *testing.T) {
	_, err := ImportShapefile(filepath.Join(t.TempDir(), "nope.shp"), "chart")
	assert.Error(t, err)
}

func TestClassForImport(t *testing.T) {
	assert.Equal(t, models.HazardAnchorageProhibited, classForImport("anchorage_prohibited").Type)
	assert.Equal(t, models.HazardReef, classForImport(" REEF ").Type)
	assert.Equal(t, models.HazardTrafficSeparation, classForImport("traffic_separation").Type)
	assert.Equal(t, unknownClass, classForImport(""))
}
