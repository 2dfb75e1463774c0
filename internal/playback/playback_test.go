package playback

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/log"
)

func samples(n int) []telemetry.Sample {
	ret := make([]telemetry.Sample, n)
	for i := range ret {
		ret[i] = telemetry.Sample{Time: time.Duration(i) * time.Second, RPM: float64(800 + i)}
	}
	return ret
}

func quietLogger() *log.Logger { return log.New(io.Discard, log.DebugLevel) }

func TestPlay(t *testing.T) {
	var got []telemetry.Sample
	p := NewPlayer(
		WithInterval(2*time.Millisecond),
		WithLogger(quietLogger()),
		WithSinks(telemetry.SinkFunc(func(s telemetry.Sample) error {
			got = append(got, s)
			return nil
		})))
	start := time.Now()
	n, err := p.Play(context.Background(), samples(5))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, samples(5), got)
	assert.GreaterOrEqual(t, time.Since(start), 8*time.Millisecond)
}

func TestPlay_NoSamples(t *testing.T) {
	_, err := NewPlayer(WithLogger(quietLogger())).Play(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestPlay_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	played := 0
	p := NewPlayer(
		WithInterval(time.Millisecond),
		WithLogger(quietLogger()),
		WithSinks(telemetry.SinkFunc(func(telemetry.Sample) error {
			played++
			if played == 2 {
				cancel()
			}
			return nil
		})))
	n, err := p.Play(ctx, samples(10))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPlay_SinkError(t *testing.T) {
	errBroken := errors.New("broken")
	p := NewPlayer(
		WithInterval(0),
		WithLogger(quietLogger()),
		WithSinks(telemetry.SinkFunc(func(s telemetry.Sample) error {
			if s.RPM == 802 {
				return errBroken
			}
			return nil
		})))
	n, err := p.Play(context.Background(), samples(5))
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, 2, n)
}
