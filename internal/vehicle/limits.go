package vehicle

import (
	"errors"
	"fmt"
)

// allowed ranges for the gauge ceilings
const (
	MinMaxRPM   = 3000
	MaxMaxRPM   = 12000
	MinMaxSpeed = 100
	MaxMaxSpeed = 400
)

var (
	ErrRPMOutOfRange   = errors.New("max rpm out of range")
	ErrSpeedOutOfRange = errors.New("max speed out of range")
)

// Limits holds the gauge ceilings of a session. They are set once before
// the first tick and never change during a run.
type Limits struct {
	MaxRPM   float64
	MaxSpeed float64
}

// NewLimits validates the operator supplied ceilings.
// The error message is meant to be shown to the operator.
func NewLimits(maxRPM, maxSpeed int) (Limits, error) {
	if maxRPM < MinMaxRPM || maxRPM > MaxMaxRPM {
		return Limits{}, fmt.Errorf("%w (%d-%d): %d. Please retry",
			ErrRPMOutOfRange, MinMaxRPM, MaxMaxRPM, maxRPM)
	}
	if maxSpeed < MinMaxSpeed || maxSpeed > MaxMaxSpeed {
		return Limits{}, fmt.Errorf("%w (%d-%d km/h): %d. Please retry",
			ErrSpeedOutOfRange, MinMaxSpeed, MaxMaxSpeed, maxSpeed)
	}
	return Limits{MaxRPM: float64(maxRPM), MaxSpeed: float64(maxSpeed)}, nil
}
