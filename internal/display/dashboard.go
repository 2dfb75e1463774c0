package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/internal/vehicle"
	"github.com/mpapenbr/go-dashsim/log"
)

const (
	DefaultRefresh = 200 * time.Millisecond
	gaugeWidth     = 20
	controls       = "t: throttle, c: clutch, w: gear up, s: gear down"
)

type Mode int

const (
	ModeSimulation Mode = iota
	ModePlayback
)

type (
	Option    func(d *Dashboard)
	Dashboard struct {
		w       io.Writer
		limits  vehicle.Limits
		refresh time.Duration
		mode    Mode
		log     *log.Logger
	}
)

func WithRefresh(d time.Duration) Option {
	return func(db *Dashboard) { db.refresh = d }
}

func WithMode(m Mode) Option {
	return func(db *Dashboard) { db.mode = m }
}

func WithLogger(l *log.Logger) Option {
	return func(db *Dashboard) { db.log = l }
}

// NewDashboard creates a terminal dashboard. The limits scale the rpm and
// speed gauges.
func NewDashboard(w io.Writer, limits vehicle.Limits, opts ...Option) *Dashboard {
	ret := &Dashboard{
		w:       w,
		limits:  limits,
		refresh: DefaultRefresh,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.refresh <= 0 {
		ret.refresh = DefaultRefresh
	}
	return ret
}

// Run renders the latest sample from ch once per refresh interval until ch
// is closed or the context is done. The last sample is always rendered.
func (d *Dashboard) Run(ctx context.Context, ch <-chan telemetry.Sample) error {
	if d.log == nil {
		d.log = log.FromContextOrDefault(ctx).Named("display")
	}
	ticker := time.NewTicker(d.refresh)
	defer ticker.Stop()

	var latest *telemetry.Sample
	rendered := true
	flush := func() error {
		if rendered || latest == nil {
			return nil
		}
		rendered = true
		_, err := fmt.Fprintln(d.w, d.Render(*latest))
		return err
	}
	for {
		select {
		case <-ctx.Done():
			d.log.Debug("Run received ctx.Done")
			return flush()
		case s, more := <-ch:
			if !more {
				d.log.Debug("sample channel closed")
				return flush()
			}
			latest = &s
			rendered = false
		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

// Render formats a sample as one dashboard line
func (d *Dashboard) Render(s telemetry.Sample) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "RPM %s %5.0f | ", Gauge(s.RPM, d.limits.MaxRPM, gaugeWidth), s.RPM)
	fmt.Fprintf(&b, "SPD %s %5.1f km/h | ", Gauge(s.Speed, d.limits.MaxSpeed, gaugeWidth), s.Speed)
	fmt.Fprintf(&b, "THR %3.0f%% | TEMP %5.1f°C | LOAD %3.0f%% | BOOST %.1f bar | GEAR %s | %s | %s",
		s.Throttle, s.Temperature, s.Load, s.Boost, s.Gear, FormatRuntime(s.Time), d.status(s))
	return b.String()
}

func (d *Dashboard) status(s telemetry.Sample) string {
	switch {
	case d.mode == ModePlayback:
		return "Playing journey..."
	case s.Stalled:
		return "Engine stalled! Send 'r' to restart (" + controls + ")"
	default:
		return "Simulation mode on (" + controls + ")"
	}
}

// Gauge renders value as a bar of the given width relative to maxValue
func Gauge(value, maxValue float64, width int) string {
	filled := 0
	if maxValue > 0 {
		filled = int(value / maxValue * float64(width))
	}
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// FormatRuntime formats d as mm:ss. Minutes are not wrapped at 60.
func FormatRuntime(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
