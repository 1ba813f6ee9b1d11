package models

import "time"

// AlertType identifies what a navigation alert is about
type AlertType string

const (
	AlertWaypointApproaching AlertType = "waypoint-approaching"
	AlertWaypointReached     AlertType = "waypoint-reached"
	AlertOffCourse           AlertType = "off-course"
	AlertDestinationReached  AlertType = "destination-reached"
	AlertLowSpeed            AlertType = "low-speed"
	AlertCourseCorrection    AlertType = "course-correction"
	AlertGPSError            AlertType = "gps-error"
	AlertPermissionDenied    AlertType = "permission-denied"
)

// AlertSeverity represents how an alert should be presented
type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
	SeveritySuccess AlertSeverity = "success"
	SeverityError   AlertSeverity = "error"
)

// NavigationAlert is a user-facing message raised during navigation
type NavigationAlert struct {
	Type      AlertType     `json:"type"`
	Message   string        `json:"message"`
	Severity  AlertSeverity `json:"severity"`
	Timestamp time.Time     `json:"timestamp"`
	AutoClose bool          `json:"auto_close"` // dismissed automatically after a short delay
}

// SameAs reports whether two alerts carry the same content, ignoring time.
func (a *NavigationAlert) SameAs(o NavigationAlert) bool {
	return a.Type == o.Type && a.Message == o.Message && a.Severity == o.Severity
}

// IsExpired checks whether an auto-close alert has outlived ttl
func (a *NavigationAlert) IsExpired(now time.Time, ttl time.Duration) bool {
	if !a.AutoClose {
		return false
	}
	return now.Sub(a.Timestamp) >= ttl
}
