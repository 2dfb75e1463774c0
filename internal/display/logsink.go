package display

import (
	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/log"
)

// LogSink logs every n-th sample. Used when no dashboard is shown.
type LogSink struct {
	log   *log.Logger
	every int
	count int
}

var _ telemetry.Sink = (*LogSink)(nil)

func NewLogSink(l *log.Logger, every int) *LogSink {
	return &LogSink{log: l, every: max(1, every)}
}

func (l *LogSink) Write(s telemetry.Sample) error {
	l.count++
	if l.count%l.every != 0 {
		return nil
	}
	l.log.Info("telemetry",
		log.String("runtime", FormatRuntime(s.Time)),
		log.Float("rpm", s.RPM),
		log.Float("speed", s.Speed),
		log.Float("throttle", s.Throttle),
		log.Float("temp", s.Temperature),
		log.Float("load", s.Load),
		log.Float("boost", s.Boost),
		log.String("gear", s.Gear),
		log.Bool("stalled", s.Stalled))
	return nil
}
