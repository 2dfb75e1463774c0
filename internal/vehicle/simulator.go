package vehicle

import (
	"math"
	"time"

	"github.com/samber/lo"
)

// Inputs are sampled once per tick. Throttle and Clutch are live states,
// GearUp, GearDown and Restart are edge triggered events.
type Inputs struct {
	Throttle bool
	Clutch   bool
	GearUp   bool
	GearDown bool
	Restart  bool
}

// per tick gains of the exponential approach (x += (target-x)*gain)
const (
	throttleGain    = 0.05
	rpmGainLow      = 0.1
	rpmGainHigh     = 0.2
	speedGain       = 0.05
	boostGain       = 0.03
	temperatureGain = 0.01
)

const (
	MinTurboBoost  = -0.5
	MaxTurboBoost  = 1.5
	MinTemperature = 80.0
	MaxTemperature = 110.0

	finalDrive        = 4.0
	tireCircumference = 2.0 // meters
	// the gear ratios were tuned for a car with this top speed (km/h)
	referenceMaxSpeed = 240.0
	maxStallRPM       = 500.0
)

var gearRatios = [...]float64{3.8, 2.0, 1.4, 1.0, 0.8}

const MaxGear = len(gearRatios)

// StallRPM is the rpm below which the engine stalls when the clutch is
// released in gear.
func (l Limits) StallRPM() float64 {
	return math.Min(maxStallRPM, l.MaxRPM*0.1)
}

// Tick advances the state by one step of duration dt.
//
// Pending edge events are applied first: restart (only while stalled), then
// gear shifts (only while the clutch is held).
func Tick(s State, in Inputs, dt time.Duration) State {
	s.Elapsed += dt
	if in.Restart {
		s = s.Restart()
	}
	if in.GearUp {
		s = s.GearUp(in.Clutch)
	}
	if in.GearDown {
		s = s.GearDown(in.Clutch)
	}

	if s.Stalled {
		s.RPM = 0
		s.Speed = 0
		s.Throttle = 0
		s.Load = 0
		s.TurboBoost = 0
		s.Boost = 1
		return s
	}

	maxRPM := s.Limits.MaxRPM
	maxSpeed := s.Limits.MaxSpeed

	targetThrottle := 0.0
	if in.Throttle {
		targetThrottle = 100
	}
	s.Throttle = approach(s.Throttle, targetThrottle, throttleGain)
	s.Throttle = lo.Clamp(s.Throttle, 0, 100)

	targetRPM := IdleRPM + (s.Throttle/100)*(maxRPM-IdleRPM)
	rpmGain := rpmGainLow
	if s.RPM >= maxRPM*0.5 {
		rpmGain = rpmGainHigh
	}
	rpmStep := (targetRPM - s.RPM) * rpmGain

	// the stall check uses the rpm before this tick's step
	if !in.Clutch && s.Gear != NeutralGear && s.RPM < s.Limits.StallRPM() {
		s.Stalled = true
		s.RPM = 0
		s.Speed = 0
		s.Throttle = 0
	} else {
		s.RPM = lo.Clamp(s.RPM+rpmStep, IdleRPM, maxRPM)
	}

	targetSpeed := 0.0
	if !in.Clutch && s.Gear != NeutralGear {
		raw := (s.RPM * tireCircumference * 60) / (gearRatios[s.Gear-1] * finalDrive * 1000)
		targetSpeed = (raw / referenceMaxSpeed) * maxSpeed
	}
	s.Speed = lo.Clamp(approach(s.Speed, targetSpeed, speedGain), 0, maxSpeed)

	targetBoost := lo.Clamp((s.Throttle/100)*(s.RPM/maxRPM)*1.5, MinTurboBoost, MaxTurboBoost)
	s.TurboBoost = lo.Clamp(approach(s.TurboBoost, targetBoost, boostGain), MinTurboBoost, MaxTurboBoost)
	s.Boost = 1 + s.TurboBoost

	s.Load = lo.Clamp((s.Throttle/100)*80+(s.TurboBoost/MaxTurboBoost)*20, 0, 100)

	targetTemp := 90 + (s.RPM/maxRPM)*20
	s.Temperature = lo.Clamp(approach(s.Temperature, targetTemp, temperatureGain),
		MinTemperature, MaxTemperature)

	return s
}

func approach(current, target, gain float64) float64 {
	return current + (target-current)*gain
}
