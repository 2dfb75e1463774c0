package vehicle

import (
	"strconv"
	"time"
)

const (
	IdleRPM     = 750.0
	NeutralGear = 0
	// Temperature of a fresh session (°C)
	InitialTemperature = 90.0
)

// State is the simulator record. It is owned by exactly one tick source,
// which passes it to Tick and keeps the returned value.
type State struct {
	RPM         float64
	Speed       float64 // km/h
	Throttle    float64 // smoothed throttle position in percent
	TurboBoost  float64 // deviation from atmospheric pressure (bar)
	Boost       float64 // 1 + TurboBoost
	Load        float64 // percent
	Temperature float64 // coolant temperature (°C)
	Gear        int     // 0 = neutral, 1..MaxGear
	Stalled     bool
	Limits      Limits
	Elapsed     time.Duration // simulated run time
}

func NewState(l Limits) State {
	return State{
		Gear:        NeutralGear,
		Temperature: InitialTemperature,
		Boost:       1,
		Limits:      l,
	}
}

// GearUp shifts one gear up. Only possible while the clutch is held.
func (s State) GearUp(clutchHeld bool) State {
	if clutchHeld && s.Gear < MaxGear {
		s.Gear++
	}
	return s
}

// GearDown shifts one gear down. Only possible while the clutch is held.
func (s State) GearDown(clutchHeld bool) State {
	if clutchHeld && s.Gear > NeutralGear {
		s.Gear--
	}
	return s
}

// Restart brings a stalled engine back to idle. No-op if not stalled.
func (s State) Restart() State {
	if s.Stalled {
		s.Stalled = false
		s.RPM = IdleRPM
	}
	return s
}

func (s State) GearLabel() string {
	if s.Gear == NeutralGear {
		return "N"
	}
	return strconv.Itoa(s.Gear)
}
