package telemetry

import (
	"errors"
	"time"

	"github.com/mpapenbr/go-dashsim/internal/vehicle"
)

// Sample is one row of telemetry as consumed by displays and recorders
type Sample struct {
	Time        time.Duration `json:"time"` // since start of the session
	RPM         float64       `json:"rpm"`
	Speed       float64       `json:"speed"`
	Throttle    float64       `json:"throttle"`
	Temperature float64       `json:"temp"`
	Load        float64       `json:"load"`
	Boost       float64       `json:"boost"`
	Gear        string        `json:"gear"`
	Stalled     bool          `json:"stalled"`
}

func FromState(s vehicle.State) Sample {
	return Sample{
		Time:        s.Elapsed,
		RPM:         s.RPM,
		Speed:       s.Speed,
		Throttle:    s.Throttle,
		Temperature: s.Temperature,
		Load:        s.Load,
		Boost:       s.Boost,
		Gear:        s.GearLabel(),
		Stalled:     s.Stalled,
	}
}

// Sink receives samples in tick order
type Sink interface {
	Write(s Sample) error
}

type SinkFunc func(s Sample) error

func (f SinkFunc) Write(s Sample) error { return f(s) }

// MultiSink writes to all sinks, returning the joined errors
type MultiSink []Sink

func (m MultiSink) Write(s Sample) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Write(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
