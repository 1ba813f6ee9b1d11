package route

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/ngmaloney/marine-navigator/internal/database"
	"github.com/ngmaloney/marine-navigator/internal/models"
)

// SavedRoutesKey is the KV key holding the JSON list of saved routes
const SavedRoutesKey = "routes:saved"

// Repository handles persistence for saved routes
type Repository struct {
	kv database.KV
}

// NewRepository creates a new route repository
func NewRepository(kv database.KV) *Repository {
	return &Repository{kv: kv}
}

// SaveRoute stores r, replacing any saved route with the same name
func (repo *Repository) SaveRoute(r models.Route) error {
	routes, err := repo.GetSavedRoutes()
	if err != nil {
		return err
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now()
	}

	replaced := false
	for i := range routes {
		if routes[i].Name == r.Name {
			routes[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		routes = append(routes, r)
	}

	if err := database.SetJSON(repo.kv, SavedRoutesKey, routes); err != nil {
		return eris.Wrap(err, "saving route")
	}
	return nil
}

// GetSavedRoutes returns every saved route ordered by name
func (repo *Repository) GetSavedRoutes() ([]models.Route, error) {
	var routes []models.Route
	if _, err := database.GetJSON(repo.kv, SavedRoutesKey, &routes); err != nil {
		return nil, eris.Wrap(err, "loading saved routes")
	}
	sort.SliceStable(routes, func(i, j int) bool { return routes[i].Name < routes[j].Name })
	return routes, nil
}

// GetRoute finds a saved route by id or by name
func (repo *Repository) GetRoute(nameOrID string) (*models.Route, error) {
	routes, err := repo.GetSavedRoutes()
	if err != nil {
		return nil, err
	}
	for i := range routes {
		if routes[i].ID == nameOrID || routes[i].Name == nameOrID {
			return &routes[i], nil
		}
	}
	return nil, eris.Wrapf(ErrNotFound, "route %q", nameOrID)
}

// DeleteRoute removes a saved route by id or name. Deleting an unknown
// route is not an error.
func (repo *Repository) DeleteRoute(nameOrID string) error {
	routes, err := repo.GetSavedRoutes()
	if err != nil {
		return err
	}

	kept := routes[:0]
	for _, r := range routes {
		if r.ID != nameOrID && r.Name != nameOrID {
			kept = append(kept, r)
		}
	}

	if err := database.SetJSON(repo.kv, SavedRoutesKey, kept); err != nil {
		return eris.Wrap(err, "deleting route")
	}
	return nil
}
