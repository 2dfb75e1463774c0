package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/log"
)

const DefaultInterval = 500 * time.Millisecond

var ErrNoSamples = errors.New("no samples to play")

type (
	Option func(p *Player)
	// Player emits recorded samples at a fixed interval, the way a recorded
	// journey is shown on the dashboard.
	Player struct {
		interval time.Duration
		sinks    []telemetry.Sink
		log      *log.Logger
	}
)

func WithInterval(d time.Duration) Option {
	return func(p *Player) { p.interval = d }
}

func WithSinks(sinks ...telemetry.Sink) Option {
	return func(p *Player) { p.sinks = append(p.sinks, sinks...) }
}

func WithLogger(l *log.Logger) Option {
	return func(p *Player) { p.log = l }
}

func NewPlayer(opts ...Option) *Player {
	ret := &Player{interval: DefaultInterval}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Play emits one sample per interval, the first one immediately.
// It returns the number of samples played.
func (p *Player) Play(ctx context.Context, samples []telemetry.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	if p.log == nil {
		p.log = log.FromContextOrDefault(ctx).Named("playback")
	}
	p.log.Info("Playing journey",
		log.Int("samples", len(samples)),
		log.Duration("interval", p.interval))

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	sink := telemetry.MultiSink(p.sinks)
	stopped := func(i int) (int, error) {
		p.log.Info("Journey playback stopped", log.Int("played", i))
		return i, nil
	}
	for i := range samples {
		if ctx.Err() != nil {
			return stopped(i)
		}
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return stopped(i)
			case <-tick:
			}
		}
		if err := sink.Write(samples[i]); err != nil {
			return i, fmt.Errorf("sample %d: %w", i+1, err)
		}
	}
	p.log.Info("Journey playback finished", log.Int("played", len(samples)))
	return len(samples), nil
}
