package journey

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
)

// TimeLayout is the timestamp layout of journey files
const TimeLayout = "2006-01-02 15:04:05"

var (
	Header = []string{"timestamp", "rpm", "speed", "lat", "lon"}

	ErrInvalidJourney = errors.New("invalid journey")
)

// Point is one row of a journey as written by the GPS logger
type Point struct {
	Timestamp time.Time
	RPM       int
	Speed     float64
	Lat       float64
	Lon       float64
}

func (p Point) record() []string {
	return []string{
		p.Timestamp.Format(TimeLayout),
		strconv.Itoa(p.RPM),
		strconv.FormatFloat(p.Speed, 'f', -1, 64),
		strconv.FormatFloat(p.Lat, 'f', -1, 64),
		strconv.FormatFloat(p.Lon, 'f', -1, 64),
	}
}

// Writer writes journey csv files. Each row is flushed immediately.
type Writer struct {
	w *csv.Writer
}

func NewWriter(w io.Writer) (*Writer, error) {
	ret := &Writer{w: csv.NewWriter(w)}
	if err := ret.WriteRecord(Header); err != nil {
		return nil, err
	}
	return ret, nil
}

func (w *Writer) WriteRecord(rec []string) error {
	if err := w.w.Write(rec); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

func (w *Writer) WritePoint(p Point) error {
	return w.WriteRecord(p.record())
}

// Read reads a journey csv. Timestamps may be given in TimeLayout or as
// seconds.
func Read(r io.Reader) ([]Point, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)
	reader.TrimLeadingSpace = true
	recs, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJourney, err)
	}
	if len(recs) == 0 || !strings.EqualFold(recs[0][0], Header[0]) {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidJourney)
	}
	ret := make([]Point, 0, len(recs)-1)
	for i, rec := range recs[1:] {
		p, err := parsePoint(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidJourney, i+2, err)
		}
		ret = append(ret, p)
	}
	return ret, nil
}

func parsePoint(rec []string) (Point, error) {
	ts, err := parseTimestamp(rec[0])
	if err != nil {
		return Point{}, err
	}
	nums := make([]float64, 4)
	for i := range nums {
		if nums[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64); err != nil {
			return Point{}, fmt.Errorf("column %s: %w", Header[i+1], err)
		}
	}
	return Point{
		Timestamp: ts,
		RPM:       int(nums[0]),
		Speed:     nums[1],
		Lat:       nums[2],
		Lon:       nums[3],
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(TimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("column timestamp: unsupported value %q", s)
	}
	return time.Unix(0, 0).Add(time.Duration(math.Round(secs * float64(time.Second)))), nil
}

// ToSamples converts journey points to telemetry samples for playback.
// Sample times are relative to the first point. Journeys carry no engine
// data besides rpm, so the other gauges stay at zero.
func ToSamples(points []Point) []telemetry.Sample {
	if len(points) == 0 {
		return nil
	}
	start := points[0].Timestamp
	ret := make([]telemetry.Sample, len(points))
	for i, p := range points {
		ret[i] = telemetry.Sample{
			Time:  p.Timestamp.Sub(start),
			RPM:   float64(p.RPM),
			Speed: p.Speed,
			Gear:  "-",
		}
	}
	return ret
}
