package framelog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/log"
)

type (
	// FrameLog writes and reads telemetry as a sequence of binary frames.
	// Each frame is a header (type, payload length) followed by the payload.
	FrameLog struct {
		w     io.Writer
		r     io.Reader
		m     sync.Mutex
		count int
	}
	Option func(*FrameLog)
	header struct {
		MsgType byte
		MsgLen  uint16
	}
	// Session describes the recording, written as the first frame
	Session struct {
		Key          string        `yaml:"key"`
		Name         string        `yaml:"name"`
		MaxRPM       int           `yaml:"maxRpm"`
		MaxSpeed     int           `yaml:"maxSpeed"`
		TickInterval time.Duration `yaml:"tickInterval"`
		Version      string        `yaml:"version"`
	}
	// Frame is the result of ReadNext. Exactly one of Session and Sample is set.
	Frame struct {
		Type    byte
		Session *Session
		Sample  *telemetry.Sample
	}
	samplePayload struct {
		TimeMs      int64
		RPM         float64
		Speed       float64
		Throttle    float64
		Temperature float64
		Load        float64
		Boost       float64
		Gear        [4]byte
		Stalled     bool
	}
)

const (
	MsgUnknown byte = iota
	MsgSession
	MsgSample
)

var (
	ErrNoReader     = errors.New("no reader")
	ErrUnknownFrame = errors.New("unknown frame type")
)

var _ telemetry.Sink = (*FrameLog)(nil)

func NewFrameLog(opts ...Option) *FrameLog {
	ret := &FrameLog{}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithWriter(w io.Writer) Option {
	return func(fl *FrameLog) {
		fl.w = w
	}
}

func WithReader(r io.Reader) Option {
	return func(fl *FrameLog) {
		fl.r = r
	}
}

// Count returns the number of frames written
func (f *FrameLog) Count() int {
	f.m.Lock()
	defer f.m.Unlock()
	return f.count
}

func (f *FrameLog) LogSession(s Session) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return f.log(MsgSession, b)
}

// Write logs a sample frame
func (f *FrameLog) Write(s telemetry.Sample) error {
	p := samplePayload{
		TimeMs:      s.Time.Milliseconds(),
		RPM:         s.RPM,
		Speed:       s.Speed,
		Throttle:    s.Throttle,
		Temperature: s.Temperature,
		Load:        s.Load,
		Boost:       s.Boost,
		Stalled:     s.Stalled,
	}
	copy(p.Gear[:], s.Gear)
	buf := bytes.Buffer{}
	if err := binary.Write(&buf, binary.LittleEndian, p); err != nil {
		return err
	}
	return f.log(MsgSample, buf.Bytes())
}

func (f *FrameLog) log(t byte, b []byte) error {
	if f.w == nil {
		return nil
	}
	if len(b) > math.MaxUint16 {
		return fmt.Errorf("frame too large: %d bytes", len(b))
	}
	f.m.Lock()
	defer f.m.Unlock()
	h := header{MsgType: t, MsgLen: uint16(len(b))}
	if err := binary.Write(f.w, binary.LittleEndian, h); err != nil {
		return err
	}
	if _, err := f.w.Write(b); err != nil {
		return err
	}
	f.count++
	return nil
}

// ReadNext returns the next frame. io.EOF is returned at the end of the log.
func (f *FrameLog) ReadNext() (Frame, error) {
	if f.r == nil {
		return Frame{}, ErrNoReader
	}

	h := header{}
	if err := binary.Read(f.r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		log.Error("could not read header", log.ErrorField(err))
		return Frame{}, err
	}

	b := make([]byte, h.MsgLen)
	if _, err := io.ReadFull(f.r, b); err != nil {
		return Frame{}, err
	}

	switch h.MsgType {
	case MsgSession:
		s := Session{}
		if err := yaml.Unmarshal(b, &s); err != nil {
			return Frame{}, err
		}
		return Frame{Type: MsgSession, Session: &s}, nil
	case MsgSample:
		p := samplePayload{}
		if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &p); err != nil {
			return Frame{}, err
		}
		s := telemetry.Sample{
			Time:        time.Duration(p.TimeMs) * time.Millisecond,
			RPM:         p.RPM,
			Speed:       p.Speed,
			Throttle:    p.Throttle,
			Temperature: p.Temperature,
			Load:        p.Load,
			Boost:       p.Boost,
			Gear:        strings.TrimRight(string(p.Gear[:]), "\x00"),
			Stalled:     p.Stalled,
		}
		return Frame{Type: MsgSample, Sample: &s}, nil
	default:
		return Frame{}, fmt.Errorf("%w: %d", ErrUnknownFrame, h.MsgType)
	}
}

// ReadAll reads all frames from r. The session is nil if the log has no
// session frame.
func ReadAll(r io.Reader) (*Session, []telemetry.Sample, error) {
	fl := NewFrameLog(WithReader(r))
	var session *Session
	samples := []telemetry.Sample{}
	for {
		frame, err := fl.ReadNext()
		if errors.Is(err, io.EOF) {
			return session, samples, nil
		}
		if err != nil {
			return nil, nil, err
		}
		switch frame.Type {
		case MsgSession:
			session = frame.Session
		case MsgSample:
			samples = append(samples, *frame.Sample)
		}
	}
}
