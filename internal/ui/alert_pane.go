package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/marine-navigator/internal/models"
)

// getAlertStyle returns the appropriate style for an alert severity
func getAlertStyle(severity models.AlertSeverity) lipgloss.Style {
	switch severity {
	case models.SeverityError:
		return alertErrorStyle
	case models.SeverityWarning:
		return alertWarningStyle
	case models.SeveritySuccess:
		return alertSuccessStyle
	case models.SeverityInfo:
		return alertInfoStyle
	default:
		return valueStyle
	}
}

func alertIcon(severity models.AlertSeverity) string {
	switch severity {
	case models.SeverityError:
		return "✗"
	case models.SeverityWarning:
		return "⚠"
	case models.SeveritySuccess:
		return "✓"
	default:
		return "•"
	}
}

// renderAlerts renders the alert log, newest first
func (m Model) renderAlerts() string {
	alerts := m.alerts.Alerts()
	if len(alerts) == 0 {
		return successStyle.Render("✓ No alerts")
	}

	lines := make([]string, 0, len(alerts))
	for i := len(alerts) - 1; i >= 0; i-- {
		a := alerts[i]
		lines = append(lines, getAlertStyle(a.Severity).Render(
			fmt.Sprintf("%s %s  %s", alertIcon(a.Severity), a.Timestamp.Format("15:04:05"), a.Message)))
	}
	return strings.Join(lines, "\n")
}
