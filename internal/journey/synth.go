package journey

import (
	"math"
	"math/rand"
	"time"

	"github.com/samber/lo"
)

// parameters of the synthesized driving profile
const (
	meanSpeed  = 50.0
	speedDev   = 4.0
	minSpeed   = 40.0
	maxSpeed   = 60.0
	baseRPM    = 800.0
	rpmPerKmh  = 50.0
	rpmJitter  = 100.0
	minRPM     = 700.0
	maxRPM     = 4000.0
	pointDelta = time.Second
)

type (
	SynthOption func(cfg *synthConfig)
	synthConfig struct {
		seed  int64
		start time.Time
	}
)

func WithSeed(seed int64) SynthOption {
	return func(cfg *synthConfig) { cfg.seed = seed }
}

func WithStart(t time.Time) SynthOption {
	return func(cfg *synthConfig) { cfg.start = t }
}

// Synthesize creates a plausible journey along route: one point per
// coordinate, one second apart, with speed around 50 km/h and an rpm
// derived from the speed. The same seed yields the same journey.
func Synthesize(route []Coordinate, opts ...SynthOption) []Point {
	cfg := &synthConfig{seed: 1, start: time.Now().Truncate(time.Second)}
	for _, opt := range opts {
		opt(cfg)
	}
	//nolint:gosec // no crypto here
	rng := rand.New(rand.NewSource(cfg.seed))
	ret := make([]Point, len(route))
	for i, c := range route {
		speed := math.Round(lo.Clamp(rng.NormFloat64()*speedDev+meanSpeed, minSpeed, maxSpeed)*10) / 10
		rpm := baseRPM + speed*rpmPerKmh + (rng.Float64()*2-1)*rpmJitter
		ret[i] = Point{
			Timestamp: cfg.start.Add(time.Duration(i) * pointDelta),
			RPM:       int(lo.Clamp(rpm, minRPM, maxRPM)),
			Speed:     speed,
			Lat:       c.Lat,
			Lon:       c.Lon,
		}
	}
	return ret
}
