package navigation

import (
	"context"
	"errors"
	"time"

	"github.com/ngmaloney/marine-navigator/internal/models"
)

// Subscription is an active sensor watch. Cancel must be safe to call more
// than once.
type Subscription interface {
	Cancel()
}

// PositionSource delivers position fixes, e.g. a GPS receiver.
type PositionSource interface {
	RequestPermission(ctx context.Context) error
	WatchPosition(onFix func(models.Fix), onError func(error)) (Subscription, error)
}

// OrientationSource delivers compass headings in degrees.
type OrientationSource interface {
	RequestPermission(ctx context.Context) error
	WatchOrientation(onHeading func(float64)) (Subscription, error)
}

// Haptics plays a vibration pattern of alternating on/off durations.
type Haptics interface {
	Vibrate(pattern []time.Duration)
}

// Speech reads a message aloud.
type Speech interface {
	Speak(text string)
}

// Capabilities are the optional device outputs. Nil members are no-ops.
type Capabilities struct {
	Haptics Haptics
	Speech  Speech
}

func (c Capabilities) vibrate(pattern []time.Duration) {
	if c.Haptics != nil {
		c.Haptics.Vibrate(pattern)
	}
}

func (c Capabilities) speak(text string) {
	if c.Speech != nil {
		c.Speech.Speak(text)
	}
}

var (
	waypointPattern    = []time.Duration{200 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}
	destinationPattern = []time.Duration{
		500 * time.Millisecond, 200 * time.Millisecond,
		500 * time.Millisecond, 200 * time.Millisecond,
		500 * time.Millisecond,
	}
)

// PositionErrorKind classifies sensor failures
type PositionErrorKind string

const (
	ErrPermissionDenied    PositionErrorKind = "permission-denied"
	ErrPositionUnavailable PositionErrorKind = "position-unavailable"
	ErrTimeout             PositionErrorKind = "timeout"
)

// PositionError is reported by position sources
type PositionError struct {
	Kind    PositionErrorKind
	Message string
}

func (e *PositionError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// errorKind classifies an arbitrary sensor error. Untyped errors count as
// the position being unavailable; context deadlines count as timeouts.
func errorKind(err error) PositionErrorKind {
	var pe *PositionError
	switch {
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return ErrPositionUnavailable
	}
}

func sensorAlertMessage(kind PositionErrorKind) string {
	switch kind {
	case ErrPermissionDenied:
		return "Location permission denied. Enable location access to continue navigating."
	case ErrTimeout:
		return "Timed out waiting for a GPS fix. Position may be out of date."
	default:
		return "GPS position unavailable. Check that the receiver has a clear view of the sky."
	}
}
