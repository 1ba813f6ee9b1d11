package hazards

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
	"github.com/ngmaloney/marine-navigator/internal/route"
)

const (
	DefaultVesselDraft  = 2.0   // meters
	DefaultSafetyMargin = 500.0 // meters

	// underKeelClearance is added to the draft when judging charted depths.
	underKeelClearance = 1.0
	// minimumSafeDepth forces rerouting regardless of draft.
	minimumSafeDepth = 1.0

	avoidanceFactor = 1.5
	bboxPadding     = 0.1 // degrees

	chartDisclaimer = "Always verify the route against official nautical charts and current Notices to Mariners."
)

// AnalyzeOptions are the vessel parameters used by the analyzer. Zero values
// select the defaults.
type AnalyzeOptions struct {
	VesselDraft  float64 // meters
	SafetyMargin float64 // meters
}

func (o AnalyzeOptions) withDefaults() AnalyzeOptions {
	if o.VesselDraft <= 0 {
		o.VesselDraft = DefaultVesselDraft
	}
	if o.SafetyMargin <= 0 {
		o.SafetyMargin = DefaultSafetyMargin
	}
	return o
}

// HazardFetcher supplies hazards for a box. *Catalog satisfies it.
type HazardFetcher interface {
	Fetch(ctx context.Context, bbox models.BoundingBox) (FetchResult, error)
}

// Analyzer evaluates routes against the hazard catalog
type Analyzer struct {
	hazards HazardFetcher
	log     *zap.Logger
	now     func() time.Time
}

// NewAnalyzer creates a route analyzer. A nil logger uses zap.L().
func NewAnalyzer(hazards HazardFetcher, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.L()
	}
	return &Analyzer{hazards: hazards, log: logger.Named("analyzer"), now: time.Now}
}

// AnalyzeRouteHazards fetches hazards around the waypoints and evaluates
// every leg against them.
func (a *Analyzer) AnalyzeRouteHazards(ctx context.Context, waypoints []models.Waypoint, opts AnalyzeOptions) (*models.RouteAnalysis, error) {
	if len(waypoints) < 2 {
		return nil, route.ErrRouteTooShort
	}
	points := make([]geo.Point, len(waypoints))
	for i, wp := range waypoints {
		if err := geo.ValidateCoordinate(wp.Lat, wp.Lon); err != nil {
			return nil, eris.Wrapf(err, "waypoint %d", i)
		}
		points[i] = wp.Point()
	}
	opts = opts.withDefaults()

	bbox := models.BoundingBoxOf(points).Pad(bboxPadding)
	res, err := a.hazards.Fetch(ctx, bbox)
	if err != nil {
		return nil, eris.Wrap(err, "analyzing route")
	}

	analysis := evaluate(waypoints, res.Hazards, opts)
	analysis.DataSource = res.Source
	analysis.DataAge = res.Age(a.now())
	analysis.Recommendations = recommend(analysis, len(res.Hazards), opts)
	if res.Source == models.SourceUnavailable {
		analysis.Warnings = append(analysis.Warnings, "Hazard data is unavailable for this area")
	}

	a.log.Info("route analyzed",
		zap.Int("waypoints", len(waypoints)),
		zap.Int("hazards", len(analysis.Hazards)),
		zap.Bool("safe", analysis.IsSafe),
		zap.String("data_source", string(analysis.DataSource)))
	return analysis, nil
}

// evaluate attaches hazards to legs and derives the verdict. It does not
// fill in recommendations or data provenance.
func evaluate(waypoints []models.Waypoint, hazards []models.NauticalHazard, opts AnalyzeOptions) *models.RouteAnalysis {
	r := models.Route{Waypoints: waypoints}
	analysis := &models.RouteAnalysis{
		Hazards:  []models.HazardMatch{},
		Warnings: []string{},
	}

	for _, leg := range r.Legs() {
		for _, h := range hazards {
			d := geo.DistanceFromLineSegment(h.Point(), leg.From.Point(), leg.To.Point())
			if d >= opts.SafetyMargin+h.Radius {
				continue
			}
			analysis.Hazards = append(analysis.Hazards, models.HazardMatch{
				Hazard:            h,
				DistanceFromRoute: d,
				WaypointSegment:   leg.Index,
			})
			analysis.Warnings = append(analysis.Warnings, hazardWarning(h, d, leg))
			if h.Depth != nil && (analysis.MinDepth == nil || *h.Depth < *analysis.MinDepth) {
				depth := *h.Depth
				analysis.MinDepth = &depth
			}
		}
	}

	required := opts.VesselDraft + underKeelClearance
	shallow := analysis.MinDepth != nil && *analysis.MinDepth < required
	if shallow {
		analysis.Warnings = append(analysis.Warnings, fmt.Sprintf(
			"Minimum charted depth %.1f m is below the required %.1f m (draft %.1f m plus %.1f m clearance)",
			*analysis.MinDepth, required, opts.VesselDraft, underKeelClearance))
	}

	analysis.IsSafe = !analysis.HasCritical() && !shallow
	return analysis
}

func hazardWarning(h models.NauticalHazard, distance float64, leg models.Leg) string {
	where := fmt.Sprintf("%.0f m from leg %d (%s to %s)", distance, leg.Index+1, leg.From.Name, leg.To.Name)
	switch h.Severity {
	case models.HazardCritical:
		return fmt.Sprintf("CRITICAL: %s %s", h.Description, where)
	case models.HazardDanger:
		return fmt.Sprintf("DANGER: %s %s", h.Description, where)
	case models.HazardWarning:
		return fmt.Sprintf("Caution: %s %s", h.Description, where)
	default:
		return fmt.Sprintf("Note: %s %s", h.Description, where)
	}
}

func recommend(a *models.RouteAnalysis, available int, opts AnalyzeOptions) []string {
	var recs []string

	if !a.IsSafe {
		recs = append(recs, "This route is not safe as planned. Reroute around the flagged hazards before departure.")
	}

	seen := map[string]bool{}
	for _, m := range a.Hazards {
		if m.Hazard.Severity != models.HazardCritical || seen[m.Hazard.ID] {
			continue
		}
		seen[m.Hazard.ID] = true
		recs = append(recs, fmt.Sprintf("Add an avoidance waypoint to keep clear of %s on leg %d.",
			m.Hazard.Description, m.WaypointSegment+1))
	}

	if a.MinDepth != nil && *a.MinDepth < opts.VesselDraft+underKeelClearance {
		recs = append(recs, "Check tide tables and plan to pass shallow areas near high water, or choose deeper water.")
	}

	if a.IsSafe && len(a.Hazards) > 0 {
		recs = append(recs, fmt.Sprintf("Keep a proper lookout for the %d charted hazard(s) near the route.", len(a.Hazards)))
	}

	switch a.DataSource {
	case models.SourceUnavailable:
		recs = append(recs, "Hazard data could not be retrieved. Hazards along this route are unknown; navigate with extra caution.")
	case models.SourceCache:
		recs = append(recs, fmt.Sprintf("Hazard data comes from a cached snapshot %s old and may be out of date.", formatAge(a.DataAge)))
	case models.SourceImported:
		recs = append(recs, "Hazard data comes from an imported chart extract and may be incomplete.")
	default:
		if available == 0 {
			recs = append(recs, "No hazard data was returned for this area. Absence of data does not mean absence of hazards.")
		} else if len(a.Hazards) == 0 {
			recs = append(recs, "No charted hazards were found within the safety margin.")
		}
	}

	return append(recs, chartDisclaimer)
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days", int(d.Hours()/24))
	}
}

// SuggestHazardAvoidance proposes a waypoint abeam the middle of the leg,
// offset perpendicular to it by (radius + margin) x 1.5 meters on the side
// away from the hazard. It returns nil for a zero-length leg.
func SuggestHazardAvoidance(h models.NauticalHazard, legStart, legEnd models.Waypoint, safetyMargin float64) *models.Waypoint {
	mid := geo.Point{
		Lat: (legStart.Lat + legEnd.Lat) / 2,
		Lon: (legStart.Lon + legEnd.Lon) / 2,
	}
	cosLat := math.Cos(mid.Lat * math.Pi / 180)

	dx := (legEnd.Lon - legStart.Lon) * geo.MetersPerDegree * cosLat
	dy := (legEnd.Lat - legStart.Lat) * geo.MetersPerDegree
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}

	// left-hand normal of the leg direction
	nx, ny := -dy/length, dx/length

	hx := (h.Lon - mid.Lon) * geo.MetersPerDegree * cosLat
	hy := (h.Lat - mid.Lat) * geo.MetersPerDegree
	if nx*hx+ny*hy > 0 {
		nx, ny = -nx, -ny
	}

	offset := (h.Radius + safetyMargin) * avoidanceFactor
	p := geo.OffsetMeters(mid, nx*offset, ny*offset)

	return &models.Waypoint{
		ID:   "avoid_" + uuid.NewString()[:8],
		Lat:  p.Lat,
		Lon:  p.Lon,
		Name: "Avoid " + h.Description,
		Type: models.WaypointIntermediate,
	}
}

// RequiresRerouting reports whether the route should be changed before use.
func RequiresRerouting(a *models.RouteAnalysis) bool {
	if a == nil {
		return false
	}
	if !a.IsSafe || a.HasCritical() {
		return true
	}
	return a.MinDepth != nil && *a.MinDepth < minimumSafeDepth
}

// PlanAvoidance repeatedly analyzes r and inserts an avoidance waypoint for
// the worst attached hazard until the route no longer requires rerouting or
// maxIterations waypoints have been added. Convergence is not guaranteed;
// the caller must inspect the returned analysis.
func (a *Analyzer) PlanAvoidance(ctx context.Context, r models.Route, opts AnalyzeOptions, maxIterations int) (models.Route, *models.RouteAnalysis, error) {
	opts = opts.withDefaults()
	current := r.Clone()

	for i := 0; ; i++ {
		analysis, err := a.AnalyzeRouteHazards(ctx, current.Waypoints, opts)
		if err != nil {
			return current, nil, err
		}
		if !RequiresRerouting(analysis) || i >= maxIterations {
			return current, analysis, nil
		}

		target, ok := worstMatch(analysis)
		if !ok {
			return current, analysis, nil
		}
		seg := target.WaypointSegment
		wp := SuggestHazardAvoidance(target.Hazard, current.Waypoints[seg], current.Waypoints[seg+1], opts.SafetyMargin)
		if wp == nil {
			return current, analysis, nil
		}

		next, err := route.AddWaypointAt(current, models.Location{Lat: wp.Lat, Lon: wp.Lon, Name: wp.Name}, seg+1)
		if err != nil {
			return current, analysis, err
		}
		a.log.Info("inserted avoidance waypoint",
			zap.String("hazard", target.Hazard.ID),
			zap.Int("leg", seg),
			zap.Int("iteration", i+1))
		current = next
	}
}

// worstMatch picks the first critical hazard, falling back to the
// shallowest one.
func worstMatch(a *models.RouteAnalysis) (models.HazardMatch, bool) {
	for _, m := range a.Hazards {
		if m.Hazard.Severity == models.HazardCritical {
			return m, true
		}
	}
	var best models.HazardMatch
	found := false
	for _, m := range a.Hazards {
		if m.Hazard.Depth == nil {
			continue
		}
		if !found || *m.Hazard.Depth < *best.Hazard.Depth {
			best = m
			found = true
		}
	}
	return best, found
}
