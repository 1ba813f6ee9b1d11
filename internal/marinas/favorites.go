package marinas

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/ngmaloney/marine-navigator/internal/database"
	"github.com/ngmaloney/marine-navigator/internal/models"
)

var errNoStore = eris.New("marinas: favorites require a store")

// Favorites returns the saved favorite marinas ordered by name
func (d *Directory) Favorites() ([]models.Marina, error) {
	if d.store == nil {
		return nil, errNoStore
	}
	var favs []models.Marina
	if _, err := database.GetJSON(d.store, FavoritesKey, &favs); err != nil {
		return nil, eris.Wrap(err, "marinas: loading favorites")
	}
	sort.SliceStable(favs, func(i, j int) bool { return favs[i].Name < favs[j].Name })
	return favs, nil
}

// AddFavorite saves m, replacing an existing favorite with the same id
func (d *Directory) AddFavorite(m models.Marina) error {
	favs, err := d.Favorites()
	if err != nil {
		return err
	}
	m.IsFavorite = true
	m.Distance, m.Bearing = 0, 0

	replaced := false
	for i := range favs {
		if favs[i].ID == m.ID {
			favs[i] = m
			replaced = true
		}
	}
	if !replaced {
		favs = append(favs, m)
	}
	return database.SetJSON(d.store, FavoritesKey, favs)
}

// RemoveFavorite deletes the favorite with the given id, if present
func (d *Directory) RemoveFavorite(id string) error {
	favs, err := d.Favorites()
	if err != nil {
		return err
	}
	kept := favs[:0]
	for _, m := range favs {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	return database.SetJSON(d.store, FavoritesKey, kept)
}

func (d *Directory) markFavorites(marinas []models.Marina) {
	if d.store == nil {
		return
	}
	favs, err := d.Favorites()
	if err != nil {
		return
	}
	ids := make(map[string]bool, len(favs))
	for _, f := range favs {
		ids[f.ID] = true
	}
	for i := range marinas {
		marinas[i].IsFavorite = ids[marinas[i].ID]
	}
}
