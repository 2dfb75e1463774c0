package input

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/go-dashsim/internal/vehicle"
)

const (
	ShiftUp   = "up"
	ShiftDown = "down"
)

var ErrInvalidScript = errors.New("invalid script")

// Step holds the input for a number of consecutive ticks.
// Shift and Restart are fired on the first tick of the step.
type Step struct {
	Ticks    int    `yaml:"ticks"`
	Throttle bool   `yaml:"throttle"`
	Clutch   bool   `yaml:"clutch"`
	Shift    string `yaml:"shift,omitempty"`
	Restart  bool   `yaml:"restart,omitempty"`
}

// Script replays a fixed sequence of steps.
//
//	steps:
//	  - {ticks: 5, clutch: true, shift: up}
//	  - {ticks: 200, throttle: true}
type Script struct {
	Steps []Step `yaml:"steps"`

	step int // current step
	tick int // tick within the current step
}

var _ Sampler = (*Script)(nil)

func LoadScript(filename string) (*Script, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	s := &Script{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Script) validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScript)
	}
	for i, st := range s.Steps {
		if st.Ticks <= 0 {
			return fmt.Errorf("%w: step %d: ticks must be > 0", ErrInvalidScript, i+1)
		}
		switch st.Shift {
		case "", ShiftUp, ShiftDown:
		default:
			return fmt.Errorf("%w: step %d: unknown shift %q", ErrInvalidScript, i+1, st.Shift)
		}
	}
	return nil
}

// TotalTicks is the number of ticks the script provides input for
func (s *Script) TotalTicks() int {
	ret := 0
	for _, st := range s.Steps {
		ret += st.Ticks
	}
	return ret
}

func (s *Script) Sample() (vehicle.Inputs, error) {
	if s.step >= len(s.Steps) {
		return vehicle.Inputs{}, ErrExhausted
	}
	st := s.Steps[s.step]
	ret := vehicle.Inputs{Throttle: st.Throttle, Clutch: st.Clutch}
	if s.tick == 0 {
		ret.GearUp = st.Shift == ShiftUp
		ret.GearDown = st.Shift == ShiftDown
		ret.Restart = st.Restart
	}
	s.tick++
	if s.tick >= st.Ticks {
		s.step++
		s.tick = 0
	}
	return ret, nil
}
