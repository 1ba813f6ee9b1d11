package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/models"
)

// formatDuration renders hours as "4h 12m"
func formatDuration(hours float64) string {
	d := time.Duration(hours * float64(time.Hour)).Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

func formatRoute(w io.Writer, r models.Route) {
	fmt.Fprintf(w, "%s (%s)\n", r.Name, r.ID)
	fmt.Fprintf(w, "Distance: %.1f NM  Speed: %.1f kn  Time: %s\n\n",
		r.TotalDistance, r.AverageSpeed, formatDuration(r.EstimatedTime))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tLAT\tLON\tLEG NM\tCOURSE")
	for i, wp := range r.Waypoints {
		leg, course := "-", "-"
		if i > 0 {
			prev := r.Waypoints[i-1]
			leg = fmt.Sprintf("%.2f", geo.Distance(prev.Lat, prev.Lon, wp.Lat, wp.Lon))
			course = fmt.Sprintf("%03.0f°", geo.Bearing(prev.Lat, prev.Lon, wp.Lat, wp.Lon))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.5f\t%.5f\t%s\t%s\n", i, wp.Name, wp.Type, wp.Lat, wp.Lon, leg, course)
	}
	tw.Flush() //nolint:errcheck
}

func formatRoutesList(w io.Writer, routes []models.Route) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tWAYPOINTS\tDISTANCE\tTIME\tCREATED")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f NM\t%s\t%s\n",
			r.Name, r.ID, len(r.Waypoints), r.TotalDistance,
			formatDuration(r.EstimatedTime), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush() //nolint:errcheck
}

func formatAnalysis(w io.Writer, a *models.RouteAnalysis) {
	verdict := "SAFE"
	if !a.IsSafe {
		verdict = "UNSAFE"
	}
	fmt.Fprintf(w, "Verdict: %s\n", verdict)

	source := string(a.DataSource)
	if a.DataSource.Degraded() && a.DataAge > 0 {
		source += fmt.Sprintf(" (%s old)", a.DataAge.Round(time.Minute))
	}
	fmt.Fprintf(w, "Hazard data: %s\n", source)
	if a.MinDepth != nil {
		fmt.Fprintf(w, "Minimum charted depth: %.1f m\n", *a.MinDepth)
	}

	if len(a.Hazards) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEVERITY\tTYPE\tLEG\tDISTANCE\tDESCRIPTION")
		for _, m := range a.Hazards {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f m\t%s\n",
				m.Hazard.Severity, m.Hazard.Type, m.WaypointSegment+1, m.DistanceFromRoute, m.Hazard.Description)
		}
		tw.Flush() //nolint:errcheck
	}

	writeList(w, "Warnings", a.Warnings)
	writeList(w, "Recommendations", a.Recommendations)
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func formatMarinas(w io.Writer, marinas []models.Marina) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDISTANCE\tBEARING\tVHF\tFACILITIES\t")
	for _, m := range marinas {
		name := m.Name
		if m.IsFavorite {
			name = "★ " + name
		}
		vhf := m.VHFChannel
		if vhf == "" {
			vhf = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f NM\t%03.0f° %s\t%s\t%s\t\n",
			m.ID, name, m.Distance, m.Bearing, geo.Compass(m.Bearing), vhf, strings.Join(m.Amenities, ", "))
	}
	tw.Flush() //nolint:errcheck
}
