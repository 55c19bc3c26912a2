package sgp4

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrDecayed matches every *DecayError with errors.Is.
var ErrDecayed = errors.New("sgp4: orbit decayed")

// DecayReason names the model limit that was violated.
type DecayReason string

const (
	ReasonPerigeeBelowSurface DecayReason = "perigee below the Earth's surface"
	ReasonMeanMotion          DecayReason = "mean motion not positive"
	ReasonSemiMajorAxis       DecayReason = "semi-major axis below 0.95 Earth radii"
	ReasonEccentricity        DecayReason = "eccentricity outside [-0.001, 1)"
	ReasonSemiLatusRectum     DecayReason = "semi-latus rectum negative"
)

// DecayError is returned when the element set can no longer be represented by
// the model, typically because the object has re-entered. It is terminal: later
// times will not recover.
type DecayError struct {
	Tsince float64     // Time since epoch in minutes when the limit was hit
	Reason DecayReason // The specific limit that was violated
	Value  float64     // The value that caused the violation
}

// Error returns the error message for DecayError.
func (e *DecayError) Error() string {
	return fmt.Sprintf("sgp4: orbit decayed at tsince %.2f min: %s (value: %.6e)", e.Tsince, e.Reason, e.Value)
}

// Is reports whether target is ErrDecayed.
func (e *DecayError) Is(target error) bool {
	return target == ErrDecayed
}

func decayed(tsince float64, reason DecayReason, value float64) error {
	return &DecayError{Tsince: tsince, Reason: reason, Value: value}
}
