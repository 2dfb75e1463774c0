//nolint:funlen // keep things together
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpapenbr/go-dashsim/internal/input"
	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/internal/vehicle"
	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/broadcast"
)

const (
	DefaultTickInterval = 50 * time.Millisecond
	durationBatch       = 200
)

type (
	Config struct {
		tickInterval time.Duration
		input        input.Sampler
		sinks        []telemetry.Sink
		broadcaster  *broadcast.Broadcaster[telemetry.Sample]
		maxTicks     int
		realtime     bool
		name         string
		key          string
		log          *log.Logger
	}
	Option func(cfg *Config)
)

// Session is the tick source. It owns the vehicle state and advances it
// once per tick with the inputs sampled at that tick.
type Session struct {
	key   string
	cfg   *Config
	log   *log.Logger
	mu    sync.Mutex
	state vehicle.State
	ticks int
}

// idle provides no input at all
var idle = input.SamplerFunc(func() (vehicle.Inputs, error) {
	return vehicle.Inputs{}, nil
})

func defaultConfig() *Config {
	return &Config{
		tickInterval: DefaultTickInterval,
		input:        idle,
		realtime:     true,
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(cfg *Config) { cfg.tickInterval = d }
}

func WithInput(s input.Sampler) Option {
	return func(cfg *Config) { cfg.input = s }
}

func WithSinks(sinks ...telemetry.Sink) Option {
	return func(cfg *Config) { cfg.sinks = append(cfg.sinks, sinks...) }
}

// WithBroadcaster publishes every sample to b. The broadcaster is closed
// when Run returns.
func WithBroadcaster(b *broadcast.Broadcaster[telemetry.Sample]) Option {
	return func(cfg *Config) { cfg.broadcaster = b }
}

// WithMaxTicks stops the session after n ticks. 0 means unlimited.
func WithMaxTicks(n int) Option {
	return func(cfg *Config) { cfg.maxTicks = n }
}

// WithRealtime controls if ticks are paced by the tick interval.
// Without pacing the session runs as fast as possible, the simulated time
// still advances by the tick interval per tick.
func WithRealtime(b bool) Option {
	return func(cfg *Config) { cfg.realtime = b }
}

func WithName(name string) Option {
	return func(cfg *Config) { cfg.name = name }
}

// WithKey sets the session key. A random UUID is used otherwise.
func WithKey(key string) Option {
	return func(cfg *Config) { cfg.key = key }
}

func WithLogger(l *log.Logger) Option {
	return func(cfg *Config) { cfg.log = l }
}

func NewSession(l vehicle.Limits, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tickInterval <= 0 {
		cfg.tickInterval = DefaultTickInterval
	}
	key := cfg.key
	if key == "" {
		key = uuid.New().String()
	}
	if cfg.name == "" {
		cfg.name = "session " + time.Now().Format("20060102-150405")
	}
	return &Session{
		key:   key,
		cfg:   cfg,
		log:   cfg.log,
		state: vehicle.NewState(l),
	}
}

func (s *Session) Key() string  { return s.key }
func (s *Session) Name() string { return s.cfg.name }

func (s *Session) TickInterval() time.Duration { return s.cfg.tickInterval }

// State returns the current vehicle state
func (s *Session) State() vehicle.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ticks returns the number of processed ticks
func (s *Session) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Run processes ticks until the context is done, the tick limit is reached
// or the input is exhausted. Ticks are processed strictly one after another.
// An error is returned if sampling the input or writing to a sink fails.
func (s *Session) Run(ctx context.Context) error {
	if s.log == nil {
		s.log = log.FromContextOrDefault(ctx).Named("session")
	}
	s.log = s.log.With(log.String("session", s.key))
	if s.cfg.broadcaster != nil {
		defer s.cfg.broadcaster.Close()
	}
	s.log.Info("Session started",
		log.String("name", s.cfg.name),
		log.Duration("tick", s.cfg.tickInterval),
		log.Bool("realtime", s.cfg.realtime),
		log.Int("maxTicks", s.cfg.maxTicks))

	var ticker *time.Ticker
	if s.cfg.realtime {
		ticker = time.NewTicker(s.cfg.tickInterval)
		defer ticker.Stop()
	}
	durations := make([]time.Duration, 0, durationBatch)
	for s.cfg.maxTicks == 0 || s.Ticks() < s.cfg.maxTicks {
		if ticker != nil {
			select {
			case <-ctx.Done():
				s.log.Debug("Run received ctx.Done")
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			s.log.Debug("Run received ctx.Done")
			return nil
		}

		start := time.Now()
		in, err := s.cfg.input.Sample()
		switch {
		case errors.Is(err, input.ErrExhausted):
			s.log.Info("Input exhausted", log.Int("ticks", s.Ticks()))
			return nil
		case errors.Is(err, input.ErrQuit):
			s.log.Info("Session stopped by operator", log.Int("ticks", s.Ticks()))
			return nil
		case err != nil:
			return fmt.Errorf("sampling input: %w", err)
		}
		if err := s.step(in); err != nil {
			return err
		}
		durations = append(durations, time.Since(start))
		if len(durations) == durationBatch {
			s.logDurations("tick", durations)
			durations = durations[:0]
		}
	}
	s.log.Info("Tick limit reached", log.Int("ticks", s.Ticks()))
	return nil
}

func (s *Session) step(in vehicle.Inputs) error {
	s.mu.Lock()
	prev := s.state
	next := vehicle.Tick(prev, in, s.cfg.tickInterval)
	s.state = next
	s.ticks++
	s.mu.Unlock()

	switch {
	case !prev.Stalled && next.Stalled:
		s.log.Warn("Engine stalled",
			log.Int("gear", next.Gear),
			log.Float("speed", next.Speed),
			log.Duration("elapsed", next.Elapsed))
	case prev.Stalled && !next.Stalled:
		s.log.Info("Engine restarted", log.Duration("elapsed", next.Elapsed))
	}
	if prev.Gear != next.Gear {
		s.log.Debug("Gear changed",
			log.String("from", prev.GearLabel()),
			log.String("to", next.GearLabel()))
	}

	sample := telemetry.FromState(next)
	if err := telemetry.MultiSink(s.cfg.sinks).Write(sample); err != nil {
		return fmt.Errorf("writing sample: %w", err)
	}
	if s.cfg.broadcaster != nil {
		s.cfg.broadcaster.Broadcast(sample)
	}
	return nil
}

func (s *Session) logDurations(msg string, durations []time.Duration) {
	myLog := s.log.Named("durations")
	minTime := 1 * time.Second
	maxTime := time.Duration(0)
	sum := int64(0)
	avg := time.Duration(0)
	zeroDurations := 0
	validDurations := 0
	for _, v := range durations {
		if v.Nanoseconds() == 0 {
			zeroDurations++
			continue
		}
		validDurations++
		if v < minTime {
			minTime = v
		}
		if v > maxTime {
			maxTime = v
		}
		sum += v.Nanoseconds()
	}
	if validDurations > 0 {
		avg = time.Duration(sum / int64(validDurations))
	}
	over := 0
	for _, v := range durations {
		if v > s.cfg.tickInterval {
			over++
		}
	}
	myLog.Debug(msg,
		log.Int("zeroDurations", zeroDurations),
		log.Int("validDurations", validDurations),
		log.Int("overTickInterval", over),
		log.Duration("min", minTime),
		log.Duration("max", maxTime),
		log.Duration("avg", avg),
		log.String("last", strings.Join(lastN(durations, 5), ",")))
}

func lastN(durations []time.Duration, n int) []string {
	if len(durations) > n {
		durations = durations[len(durations)-n:]
	}
	ret := make([]string, len(durations))
	for i, d := range durations {
		ret[i] = d.String()
	}
	return ret
}
