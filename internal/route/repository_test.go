package route

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/marine-navigator/internal/database"
	"github.com/ngmaloney/marine-navigator/internal/models"
)

func TestRepository_SaveAndList(t *testing.T) {
	repo := NewRepository(database.NewMemoryStore())

	routes, err := repo.GetSavedRoutes()
	require.NoError(t, err)
	assert.Empty(t, routes)

	r1, err := GenerateRoute(chatham, boston, 5)
	require.NoError(t, err)
	r1.Name = "Weekend"
	require.NoError(t, repo.SaveRoute(*r1))

	r2, err := GenerateRoute(boston, chatham, 6)
	require.NoError(t, err)
	r2.Name = "Delivery"
	require.NoError(t, repo.SaveRoute(*r2))

	routes, err = repo.GetSavedRoutes()
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "Delivery", routes[0].Name)
	assert.Equal(t, "Weekend", routes[1].Name)
}

func TestRepository_SaveReplacesByName(t *testing.T) {
	repo := NewRepository(database.NewMemoryStore())

	r1, err := GenerateRoute(chatham, boston, 5)
	require.NoError(t, err)
	r1.Name = "Same"
	require.NoError(t, repo.SaveRoute(*r1))

	r2, err := GenerateRoute(boston, chatham, 7)
	require.NoError(t, err)
	r2.Name = "Same"
	require.NoError(t, repo.SaveRoute(*r2))

	routes, err := repo.GetSavedRoutes()
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, r2.ID, routes[0].ID)
	assert.Equal(t, 7.0, routes[0].AverageSpeed)
}

func TestRepository_GetAndDelete(t *testing.T) {
	repo := NewRepository(database.NewMemoryStore())

	r, err := GenerateRoute(chatham, boston, 5)
	require.NoError(t, err)
	require.NoError(t, repo.SaveRoute(*r))

	byID, err := repo.GetRoute(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Name, byID.Name)

	byName, err := repo.GetRoute(r.Name)
	require.NoError(t, err)
	assert.Equal(t, r.ID, byName.ID)
	assert.InDelta(t, r.TotalDistance, byName.TotalDistance, 1e-9)
	assert.Len(t, byName.Waypoints, 2)

	require.NoError(t, repo.DeleteRoute(r.ID))
	_, err = repo.GetRoute(r.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, repo.DeleteRoute("unknown"))
}

func TestRepository_CorruptData(t *testing.T) {
	kv := database.NewMemoryStore()
	require.NoError(t, kv.Set(SavedRoutesKey, "not json"))

	repo := NewRepository(kv)
	_, err := repo.GetSavedRoutes()
	assert.Error(t, err)
	assert.Error(t, repo.SaveRoute(models.Route{Name: "x"}))
}
