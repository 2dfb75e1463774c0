//nolint:funlen // tests
package vehicle

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const dt = 50 * time.Millisecond

func defaultLimits(t *testing.T) Limits {
	t.Helper()
	l, err := NewLimits(8000, 240)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func checkInvariants(t *testing.T, s State) {
	t.Helper()
	if s.Stalled {
		if s.RPM != 0 {
			t.Errorf("stalled rpm = %v, want 0", s.RPM)
		}
	} else if s.RPM < IdleRPM || s.RPM > s.Limits.MaxRPM {
		t.Errorf("rpm %v outside [%v,%v]", s.RPM, IdleRPM, s.Limits.MaxRPM)
	}
	if s.Speed < 0 || s.Speed > s.Limits.MaxSpeed {
		t.Errorf("speed %v outside [0,%v]", s.Speed, s.Limits.MaxSpeed)
	}
	if s.Throttle < 0 || s.Throttle > 100 {
		t.Errorf("throttle %v outside [0,100]", s.Throttle)
	}
	if s.Boost < 0.5 || s.Boost > 2.5 {
		t.Errorf("boost %v outside [0.5,2.5]", s.Boost)
	}
	if s.Load < 0 || s.Load > 100 {
		t.Errorf("load %v outside [0,100]", s.Load)
	}
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		t.Errorf("temperature %v outside [80,110]", s.Temperature)
	}
	if s.Gear < 0 || s.Gear > MaxGear {
		t.Errorf("gear %v outside [0,%v]", s.Gear, MaxGear)
	}
}

func TestNewLimits(t *testing.T) {
	tests := []struct {
		name     string
		rpm      int
		speed    int
		wantErr  error
		wantLims Limits
	}{
		{"defaults", 8000, 240, nil, Limits{MaxRPM: 8000, MaxSpeed: 240}},
		{"lower bounds", 3000, 100, nil, Limits{MaxRPM: 3000, MaxSpeed: 100}},
		{"upper bounds", 12000, 400, nil, Limits{MaxRPM: 12000, MaxSpeed: 400}},
		{"rpm too low", 2999, 240, ErrRPMOutOfRange, Limits{}},
		{"rpm too high", 12001, 240, ErrRPMOutOfRange, Limits{}},
		{"speed too low", 8000, 99, ErrSpeedOutOfRange, Limits{}},
		{"speed too high", 8000, 401, ErrSpeedOutOfRange, Limits{}},
		{"both invalid reports rpm first", 0, 0, ErrRPMOutOfRange, Limits{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLimits(tt.rpm, tt.speed)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewLimits() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.wantLims {
				t.Errorf("NewLimits() = %v, want %v", got, tt.wantLims)
			}
		})
	}
}

func TestLimits_StallRPM(t *testing.T) {
	tests := []struct {
		maxRPM float64
		want   float64
	}{
		{8000, 500},
		{5000, 500},
		{3000, 300},
		{4000, 400},
		{12000, 500},
	}
	for _, tt := range tests {
		if got := (Limits{MaxRPM: tt.maxRPM}).StallRPM(); !almostEqual(got, tt.want) {
			t.Errorf("StallRPM(%v) = %v, want %v", tt.maxRPM, got, tt.want)
		}
	}
}

func TestNewState(t *testing.T) {
	s := NewState(defaultLimits(t))
	want := State{
		Temperature: 90,
		Boost:       1,
		Limits:      Limits{MaxRPM: 8000, MaxSpeed: 240},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("NewState() mismatch (-want +got):\n%s", diff)
	}
	if s.GearLabel() != "N" {
		t.Errorf("GearLabel() = %q, want N", s.GearLabel())
	}
}

func TestTick_FirstTickFromFreshState(t *testing.T) {
	s := Tick(NewState(defaultLimits(t)), Inputs{}, dt)
	want := State{
		RPM:         750,
		Boost:       1,
		Temperature: 90.01875,
		Limits:      s.Limits,
		Elapsed:     dt,
	}
	opt := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(want, s, opt); diff != "" {
		t.Errorf("Tick() mismatch (-want +got):\n%s", diff)
	}
}

func TestTick_SingleStepInFirstGear(t *testing.T) {
	s := NewState(defaultLimits(t))
	s.RPM = 750
	s.Gear = 1
	got := Tick(s, Inputs{Throttle: true}, dt)
	want := State{
		RPM:         786.25,
		Speed:       0.3103618421052632,
		Throttle:    5,
		TurboBoost:  0.0002211328125,
		Boost:       1.0002211328125,
		Load:        4.0029484375,
		Temperature: 90.01965625,
		Gear:        1,
		Limits:      s.Limits,
		Elapsed:     dt,
	}
	opt := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("Tick() mismatch (-want +got):\n%s", diff)
	}
}

func TestTick_TenStepsInFirstGear(t *testing.T) {
	s := NewState(defaultLimits(t))
	s.RPM = 750
	s.Gear = 1
	for i := 0; i < 10; i++ {
		s = Tick(s, Inputs{Throttle: true}, dt)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"rpm", s.RPM, 2027.5254836438307},
		{"speed", s.Speed, 4.379781736411296},
		{"throttle", s.Throttle, 40.126306076162116},
		{"temperature", s.Temperature, 90.31900714303407},
		{"load", s.Load, 32.35100223661984},
		{"boost", s.Boost, 1.0187468031767615},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if s.Elapsed != 500*time.Millisecond {
		t.Errorf("Elapsed = %v, want 500ms", s.Elapsed)
	}
}

func TestTick_FullThrottleScenario(t *testing.T) {
	s := NewState(defaultLimits(t))
	s.RPM = 750
	s.Gear = 1
	prevRPM := s.RPM
	for i := 0; i < 200; i++ {
		s = Tick(s, Inputs{Throttle: true}, dt)
		checkInvariants(t, s)
		if s.Stalled {
			t.Fatalf("stalled at tick %d", i)
		}
		if s.RPM < prevRPM {
			t.Fatalf("rpm dropped at tick %d: %v -> %v", i, prevRPM, s.RPM)
		}
		prevRPM = s.RPM
	}
	if !almostEqual(s.RPM, 7999.678099681613) {
		t.Errorf("rpm = %v, want ~8000", s.RPM)
	}
	// 8000*2*60/(3.8*4*1000) = 63.16
	if math.Abs(s.Speed-63.2) > 0.2 {
		t.Errorf("speed = %v, want ~63.2", s.Speed)
	}
	if !almostEqual(s.Speed, 63.12985234795139) {
		t.Errorf("speed = %v, want 63.12985234795139", s.Speed)
	}
	if s.Temperature <= 100 {
		t.Errorf("temperature = %v, expected to rise above 100", s.Temperature)
	}
}

func TestTick_StallTransition(t *testing.T) {
	tests := []struct {
		name     string
		rpm      float64
		gear     int
		throttle bool
		turbo    float64
		maxRPM   int
	}{
		{"gear 2 at 400 rpm", 400, 2, false, 0, 8000},
		{"gear 2 at 400 rpm with throttle", 400, 2, true, 0.3, 8000},
		{"gear 5 just below stall rpm", 499.99, 5, true, 0, 8000},
		{"low limit engine", 299, 1, false, 0, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLimits(tt.maxRPM, 240)
			if err != nil {
				t.Fatal(err)
			}
			s := NewState(l)
			s.RPM = tt.rpm
			s.Gear = tt.gear
			s.TurboBoost = tt.turbo
			s.Speed = 30
			got := Tick(s, Inputs{Throttle: tt.throttle}, dt)
			if !got.Stalled {
				t.Fatal("expected stalled engine")
			}
			if got.RPM != 0 || got.Speed != 0 || got.Throttle != 0 {
				t.Errorf("rpm/speed/throttle = %v/%v/%v, want zeros", got.RPM, got.Speed, got.Throttle)
			}
			checkInvariants(t, got)
		})
	}
}

func TestTick_NoStallWithClutchOrNeutral(t *testing.T) {
	tests := []struct {
		name   string
		gear   int
		clutch bool
	}{
		{"clutch held in gear", 3, true},
		{"neutral, clutch released", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(defaultLimits(t))
			s.RPM = 100
			s.Gear = tt.gear
			got := Tick(s, Inputs{Clutch: tt.clutch}, dt)
			if got.Stalled {
				t.Fatal("unexpected stall")
			}
			if got.RPM != IdleRPM {
				t.Errorf("rpm = %v, want idle", got.RPM)
			}
		})
	}
}

func TestTick_StalledStaysStalled(t *testing.T) {
	s := NewState(defaultLimits(t))
	s.RPM = 400
	s.Gear = 2
	s.TurboBoost = 0.3
	s = Tick(s, Inputs{}, dt)
	if !s.Stalled {
		t.Fatal("expected stall")
	}
	inputs := []Inputs{
		{Throttle: true},
		{Clutch: true},
		{Throttle: true, Clutch: true, GearUp: true},
		{},
	}
	for i := 0; i < 40; i++ {
		s = Tick(s, inputs[i%len(inputs)], dt)
		if !s.Stalled {
			t.Fatalf("left stalled state without restart at tick %d", i)
		}
		want := State{Boost: 1, Stalled: true}
		got := State{
			RPM: s.RPM, Speed: s.Speed, Throttle: s.Throttle, Load: s.Load,
			TurboBoost: s.TurboBoost, Boost: s.Boost, Stalled: s.Stalled,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("stalled outputs mismatch at tick %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestRestart(t *testing.T) {
	s := NewState(defaultLimits(t))
	s.RPM = 400
	s.Gear = 2
	s = Tick(s, Inputs{}, dt)

	r := s.Restart()
	if r.Stalled || r.RPM != IdleRPM || r.Speed != 0 {
		t.Errorf("Restart() = stalled %v rpm %v speed %v", r.Stalled, r.RPM, r.Speed)
	}

	// restart on a running engine does nothing
	running := NewState(defaultLimits(t))
	running.RPM = 3000
	if diff := cmp.Diff(running, running.Restart()); diff != "" {
		t.Errorf("Restart() on running engine changed state:\n%s", diff)
	}
}

func TestTick_RestartEvent(t *testing.T) {
	s := NewState(defaultLimits(t))
	s.RPM = 400
	s.Gear = 2
	s = Tick(s, Inputs{}, dt)

	// restart while keeping the clutch held, engine must stay alive
	s = Tick(s, Inputs{Restart: true, Clutch: true}, dt)
	if s.Stalled {
		t.Fatal("restart event did not restart the engine")
	}
	if s.RPM != IdleRPM {
		t.Errorf("rpm after restart = %v, want %v", s.RPM, IdleRPM)
	}
}

func TestGearShift(t *testing.T) {
	s := NewState(defaultLimits(t))

	if got := s.GearUp(false); got.Gear != 0 {
		t.Errorf("GearUp without clutch changed gear to %d", got.Gear)
	}
	if got := s.GearDown(true); got.Gear != 0 {
		t.Errorf("GearDown in neutral = %d, want 0", got.Gear)
	}
	for i := 1; i <= 7; i++ {
		s = s.GearUp(true)
	}
	if s.Gear != MaxGear {
		t.Errorf("gear = %d, want %d", s.Gear, MaxGear)
	}
	if got := s.GearDown(false); got.Gear != MaxGear {
		t.Errorf("GearDown without clutch changed gear to %d", got.Gear)
	}
	if got := s.GearDown(true); got.Gear != MaxGear-1 || got.GearLabel() != "4" {
		t.Errorf("GearDown = %d (%s), want 4", got.Gear, got.GearLabel())
	}
}

func TestTick_GearEvents(t *testing.T) {
	s := NewState(defaultLimits(t))
	s = Tick(s, Inputs{GearUp: true}, dt)
	if s.Gear != 0 {
		t.Fatalf("gear event without clutch applied, gear = %d", s.Gear)
	}
	s = Tick(s, Inputs{GearUp: true, Clutch: true}, dt)
	if s.Gear != 1 {
		t.Fatalf("gear = %d, want 1", s.Gear)
	}
	// no direct effect on speed while the clutch is held
	if s.Speed != 0 {
		t.Errorf("speed = %v, want 0", s.Speed)
	}
	s = Tick(s, Inputs{GearDown: true, Clutch: true}, dt)
	if s.Gear != 0 {
		t.Fatalf("gear = %d, want 0", s.Gear)
	}
}

func TestTick_ConvergesToIdle(t *testing.T) {
	s := NewState(defaultLimits(t))
	s.RPM = 5000
	s.Speed = 80
	prevRPM, prevSpeed := s.RPM, s.Speed
	for i := 0; i < 100; i++ {
		s = Tick(s, Inputs{Clutch: true}, dt)
		checkInvariants(t, s)
		if s.RPM > prevRPM || s.Speed > prevSpeed {
			t.Fatalf("not monotonic at tick %d: rpm %v->%v speed %v->%v",
				i, prevRPM, s.RPM, prevSpeed, s.Speed)
		}
		prevRPM, prevSpeed = s.RPM, s.Speed
	}
	if math.Abs(s.RPM-IdleRPM) > 0.1 {
		t.Errorf("rpm = %v, want ~%v", s.RPM, IdleRPM)
	}
	if s.Speed > 1 {
		t.Errorf("speed = %v, want ~0", s.Speed)
	}
}

func TestTick_ClampInvariants(t *testing.T) {
	for _, lim := range [][2]int{{3000, 100}, {8000, 240}, {12000, 400}} {
		l, err := NewLimits(lim[0], lim[1])
		if err != nil {
			t.Fatal(err)
		}
		s := NewState(l)
		// drive through a pattern of inputs including shifts and stalls
		for i := 0; i < 3000; i++ {
			in := Inputs{
				Throttle: (i/37)%3 != 0,
				Clutch:   (i/53)%4 == 0,
				GearUp:   i%97 == 0,
				GearDown: i%211 == 0,
				Restart:  i%301 == 0,
			}
			s = Tick(s, in, dt)
			checkInvariants(t, s)
		}
	}
}
