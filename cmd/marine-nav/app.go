package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/database"
	"github.com/ngmaloney/marine-navigator/internal/geocoding"
	"github.com/ngmaloney/marine-navigator/internal/hazards"
	"github.com/ngmaloney/marine-navigator/internal/marinas"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/navigation"
	"github.com/ngmaloney/marine-navigator/internal/overpass"
	"github.com/ngmaloney/marine-navigator/internal/route"
)

// services bundles the components a command needs. Close releases the
// database.
type services struct {
	store    *database.SQLiteStore
	routes   *route.Repository
	catalog  *hazards.Catalog
	analyzer *hazards.Analyzer
	marinas  *marinas.Directory
	geocoder *geocoding.Geocoder
}

func openServices() (*services, error) {
	store, err := database.OpenSQLite(cfg.Data.DBPath)
	if err != nil {
		return nil, eris.Wrap(err, "open database")
	}

	client := overpass.NewClient(overpass.Config{
		URL:               cfg.Overpass.URL,
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.Overpass.Timeout(),
		RequestsPerSecond: cfg.Overpass.RequestsPerSecond,
	})

	catalog := hazards.NewCatalog(hazards.Options{
		Source: client,
		Store:  store,
		MaxAge: cfg.Hazards.CacheMaxAge(),
	})

	return &services{
		store:    store,
		routes:   route.NewRepository(store),
		catalog:  catalog,
		analyzer: hazards.NewAnalyzer(catalog, nil),
		marinas: marinas.NewDirectory(marinas.Options{
			Source: client,
			Store:  store,
			MaxAge: cfg.Hazards.CacheMaxAge(),
		}),
		geocoder: geocoding.NewGeocoder(cfg.Nominatim.URL, cfg.UserAgent),
	}, nil
}

func (s *services) Close() {
	if err := s.store.Close(); err != nil {
		zap.L().Warn("closing database", zap.Error(err))
	}
}

// locate resolves a place name or "lat,lon" literal. Place names are
// shortened to the first part of the geocoder's display name.
func (s *services) locate(ctx context.Context, query string) (models.Location, error) {
	loc, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		return models.Location{}, eris.Wrapf(err, "locate %q", query)
	}
	if _, literal := geocoding.ParseCoordinates(query); !literal {
		if i := strings.Index(loc.Name, ","); i > 0 {
			loc.Name = loc.Name[:i]
		}
	}
	if loc.Name == "" {
		loc.Name = strings.TrimSpace(query)
	}
	return *loc, nil
}

func vesselOptions(draft, margin float64) hazards.AnalyzeOptions {
	if draft <= 0 {
		draft = cfg.Vessel.DraftMeters
	}
	if margin <= 0 {
		margin = cfg.Vessel.SafetyMarginMeters
	}
	return hazards.AnalyzeOptions{VesselDraft: draft, SafetyMargin: margin}
}

func navigationThresholds() navigation.Thresholds {
	n := cfg.Navigation
	return navigation.Thresholds{
		ArrivalNM:          n.ArrivalThresholdNM,
		ApproachNM:         n.ApproachThresholdNM,
		CourseDeviationDeg: n.CourseDeviationDegrees,
		LowSpeedKnots:      n.LowSpeedKnots,
	}
}
