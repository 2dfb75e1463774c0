package framelog

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
)

func TestFrameLog(t *testing.T) {
	session := Session{
		Key: "0e5c", Name: "warmup", MaxRPM: 8000, MaxSpeed: 240,
		TickInterval: 50 * time.Millisecond, Version: "0.1.0",
	}
	samples := []telemetry.Sample{
		{Time: 50 * time.Millisecond, RPM: 786.25, Speed: 0.3103618421052632, Throttle: 5,
			Temperature: 90.01965625, Load: 4.0029484375, Boost: 1.0002211328125, Gear: "1"},
		{Time: 100 * time.Millisecond, Gear: "N", Stalled: true},
		{Time: 150 * time.Millisecond, Gear: "-"},
	}

	buf := bytes.NewBuffer(make([]byte, 0, 100))
	writer := NewFrameLog(WithWriter(buf))
	require.NoError(t, writer.LogSession(session))
	for _, s := range samples {
		require.NoError(t, writer.Write(s))
	}
	assert.Equal(t, 4, writer.Count())

	gotSession, gotSamples, err := ReadAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NotNil(t, gotSession)
	if diff := cmp.Diff(session, *gotSession); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(samples, gotSamples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameLog_ReadNext(t *testing.T) {
	_, err := NewFrameLog().ReadNext()
	assert.ErrorIs(t, err, ErrNoReader)

	_, err = NewFrameLog(WithReader(&bytes.Buffer{})).ReadNext()
	assert.ErrorIs(t, err, io.EOF)

	// unknown type, zero length payload
	_, err = NewFrameLog(WithReader(bytes.NewReader([]byte{9, 0, 0}))).ReadNext()
	assert.ErrorIs(t, err, ErrUnknownFrame)

	// payload shorter than announced
	_, err = NewFrameLog(WithReader(bytes.NewReader([]byte{MsgSample, 10, 0, 1}))).ReadNext()
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
}

func TestFrameLog_NoWriter(t *testing.T) {
	fl := NewFrameLog()
	require.NoError(t, fl.Write(telemetry.Sample{}))
	assert.Equal(t, 0, fl.Count())
}
