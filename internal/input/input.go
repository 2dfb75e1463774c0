package input

import (
	"errors"
	"sync"

	"github.com/mpapenbr/go-dashsim/internal/vehicle"
)

var (
	// ErrExhausted is returned by samplers that have no more input (e.g. a finished script)
	ErrExhausted = errors.New("input exhausted")
	// ErrQuit is returned when the operator requested to quit
	ErrQuit = errors.New("quit requested")
)

// Sampler is polled by the tick source once per tick.
type Sampler interface {
	Sample() (vehicle.Inputs, error)
}

// SamplerFunc adapts a function to the Sampler interface
type SamplerFunc func() (vehicle.Inputs, error)

func (f SamplerFunc) Sample() (vehicle.Inputs, error) { return f() }

// Controls latches operator input between two ticks.
// Throttle and clutch are live states, the remaining requests are delivered
// to exactly one tick.
type Controls struct {
	mu       sync.Mutex
	throttle bool
	clutch   bool
	gearUp   int
	gearDown int
	restart  bool
	quit     bool
}

var _ Sampler = (*Controls)(nil)

func NewControls() *Controls {
	return &Controls{}
}

func (c *Controls) SetThrottle(b bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.throttle = b
}

func (c *Controls) SetClutch(b bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clutch = b
}

func (c *Controls) RequestGearUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gearUp++
}

func (c *Controls) RequestGearDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gearDown++
}

func (c *Controls) RequestRestart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restart = true
}

func (c *Controls) Quit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quit = true
}

// Sample returns the current input. Multiple gear requests issued between
// two ticks are delivered one per tick.
func (c *Controls) Sample() (vehicle.Inputs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quit {
		return vehicle.Inputs{}, ErrQuit
	}
	ret := vehicle.Inputs{
		Throttle: c.throttle,
		Clutch:   c.clutch,
		Restart:  c.restart,
	}
	c.restart = false
	if c.gearUp > 0 {
		ret.GearUp = true
		c.gearUp--
	}
	if c.gearDown > 0 {
		ret.GearDown = true
		c.gearDown--
	}
	return ret, nil
}
