package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/ngmaloney/marine-navigator/internal/geo"
	"github.com/ngmaloney/marine-navigator/internal/navigation"
)

func (m Model) renderPhase() string {
	switch m.phase {
	case navigation.PhaseNavigating:
		return successStyle.Render("● Navigating")
	case navigation.PhasePaused:
		return alertWarningStyle.Render("❚❚ Paused")
	case navigation.PhaseDestinationReached:
		return successStyle.Render("✓ Destination reached")
	case navigation.PhaseStopped:
		return mutedStyle.Render("■ Stopped")
	default:
		return mutedStyle.Render("○ Idle")
	}
}

func (m Model) renderNavigation() string {
	s := m.state
	var lines []string

	if s.NextWaypoint != nil {
		lines = append(lines,
			fmt.Sprintf("%s %s", labelStyle.Render("Next:"), valueStyle.Render(s.NextWaypoint.Name)),
			fmt.Sprintf("%s %.2f NM  %s %03.0f° (%s)",
				labelStyle.Render("Distance:"), s.DistanceToNext,
				labelStyle.Render("Bearing:"), s.BearingToNext, geo.Compass(s.BearingToNext)),
			fmt.Sprintf("%s %s", labelStyle.Render("ETA:"), formatETA(s.ETAToNext)),
		)
	} else {
		lines = append(lines, successStyle.Render("Arrived"))
	}

	pos := s.CurrentPosition
	lines = append(lines,
		fmt.Sprintf("%s %.5f, %.5f", labelStyle.Render("Position:"), pos.Lat, pos.Lon),
		fmt.Sprintf("%s %03.0f°  %s %.1f kn",
			labelStyle.Render("Heading:"), s.Heading, labelStyle.Render("Speed:"), s.Speed),
		"",
		fmt.Sprintf("%s %.0f%%", m.progress.ViewAs(s.Progress/100), s.Progress),
	)

	return strings.Join(lines, "\n")
}

func (m Model) renderDeadReckoning() string {
	dr := m.deadReckoning
	return alertWarningStyle.Render(fmt.Sprintf(
		"⚠ GPS lost %s ago. Estimated position %.5f, %.5f (%.2f NM on %03.0f°)",
		dr.Elapsed.Round(time.Second), dr.Estimated.Lat, dr.Estimated.Lon, dr.DistanceNM, dr.Heading))
}

// formatETA renders minutes as "42 min" or "3 h 05 min"
func formatETA(minutes float64) string {
	if minutes <= 0 {
		return "--"
	}
	total := int(minutes + 0.5)
	if total < 60 {
		return fmt.Sprintf("%d min", total)
	}
	return fmt.Sprintf("%d h %02d min", total/60, total%60)
}
