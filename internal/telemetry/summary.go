package telemetry

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

type Summary struct {
	Samples  int
	Duration time.Duration
	MaxRPM   float64
	MaxSpeed float64
	AvgSpeed float64
	MaxTemp  float64
	Stalls   int // number of transitions into the stalled state
}

func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	field := func(f func(s Sample) float64) []float64 {
		return lo.Map(samples, func(s Sample, _ int) float64 { return f(s) })
	}
	speeds := field(func(s Sample) float64 { return s.Speed })
	ret := Summary{
		Samples:  len(samples),
		Duration: samples[len(samples)-1].Time - samples[0].Time,
		MaxRPM:   slices.Max(field(func(s Sample) float64 { return s.RPM })),
		MaxSpeed: slices.Max(speeds),
		AvgSpeed: lo.Sum(speeds) / float64(len(speeds)),
		MaxTemp:  slices.Max(field(func(s Sample) float64 { return s.Temperature })),
	}
	stalled := false
	for _, s := range samples {
		if s.Stalled && !stalled {
			ret.Stalls++
		}
		stalled = s.Stalled
	}
	return ret
}

func (s Summary) String() string {
	return fmt.Sprintf("samples: %d duration: %s max rpm: %.0f max speed: %.1f km/h "+
		"avg speed: %.1f km/h max temp: %.1f°C stalls: %d",
		s.Samples, s.Duration, s.MaxRPM, s.MaxSpeed, s.AvgSpeed, s.MaxTemp, s.Stalls)
}
