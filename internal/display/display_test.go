package display

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/internal/vehicle"
	"github.com/mpapenbr/go-dashsim/log"
)

func testLimits(t *testing.T) vehicle.Limits {
	t.Helper()
	l, err := vehicle.NewLimits(8000, 200)
	require.NoError(t, err)
	return l
}

func TestGauge(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		max   float64
		want  string
	}{
		{"empty", 0, 100, "[..........]"},
		{"half", 50, 100, "[#####.....]"},
		{"full", 100, 100, "[##########]"},
		{"above max", 150, 100, "[##########]"},
		{"negative", -5, 100, "[..........]"},
		{"zero max", 10, 0, "[..........]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gauge(tt.value, tt.max, 10))
		})
	}
}

func TestFormatRuntime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{1500 * time.Millisecond, "00:01"},
		{75 * time.Second, "01:15"},
		{61 * time.Minute, "61:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRuntime(tt.d))
	}
}

func TestRender(t *testing.T) {
	s := telemetry.Sample{
		Time: 83 * time.Second, RPM: 4000, Speed: 50, Throttle: 40,
		Temperature: 92.25, Load: 33, Boost: 1.26, Gear: "3",
	}
	d := NewDashboard(io.Discard, testLimits(t))
	got := d.Render(s)
	assert.Contains(t, got, "RPM [##########..........]  4000")
	assert.Contains(t, got, "SPD [#####...............]  50.0 km/h")
	assert.Contains(t, got, "BOOST 1.3 bar")
	assert.Contains(t, got, "GEAR 3")
	assert.Contains(t, got, "01:23")
	assert.Contains(t, got, "Simulation mode on")

	s.Stalled = true
	assert.Contains(t, d.Render(s), "Engine stalled! Send 'r' to restart")

	p := NewDashboard(io.Discard, testLimits(t), WithMode(ModePlayback))
	assert.Contains(t, p.Render(s), "Playing journey...")
}

func TestDashboard_Run(t *testing.T) {
	buf := &bytes.Buffer{}
	d := NewDashboard(buf, testLimits(t),
		WithRefresh(time.Hour),
		WithLogger(log.New(io.Discard, log.DebugLevel)))
	ch := make(chan telemetry.Sample, 3)
	ch <- telemetry.Sample{RPM: 1000, Gear: "1"}
	ch <- telemetry.Sample{RPM: 2000, Gear: "2"}
	close(ch)

	require.NoError(t, d.Run(context.Background(), ch))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "only the latest sample is rendered")
	assert.Contains(t, lines[0], "GEAR 2")
}

func TestDashboard_RunContextDone(t *testing.T) {
	buf := &bytes.Buffer{}
	d := NewDashboard(buf, testLimits(t), WithLogger(log.New(io.Discard, log.DebugLevel)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx, make(chan telemetry.Sample)))
	assert.Empty(t, buf.String())
}

func TestLogSink(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := NewLogSink(log.New(buf, log.InfoLevel), 3)
	for i := 1; i <= 7; i++ {
		require.NoError(t, sink.Write(telemetry.Sample{RPM: float64(i * 100), Gear: "1"}))
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"rpm":300`)
	assert.Contains(t, lines[1], `"rpm":600`)
}
