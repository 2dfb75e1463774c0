package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// column names of the dashboard csv format
const (
	ColTimestamp = "timestamp"
	ColRPM       = "rpm"
	ColSpeed     = "speed"
	ColThrottle  = "throttle"
	ColTemp      = "temp"
	ColLoad      = "load"
	ColBoost     = "boost"
	ColGear      = "gear"
	ColStalled   = "stalled"
)

var (
	Header = []string{
		ColTimestamp, ColRPM, ColSpeed, ColThrottle, ColTemp, ColLoad, ColBoost, ColGear, ColStalled,
	}
	requiredColumns = Header[:8]

	ErrMissingColumn = errors.New("missing column")
	ErrEmptyFile     = errors.New("empty csv")
)

// CSVWriter writes samples in dashboard csv format. Every row is flushed
// so the file can be followed while recording.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

var _ Sink = (*CSVWriter)(nil)

// NewCSVWriter writes the header immediately. If w is an io.Closer it is
// closed by Close.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	ret := &CSVWriter{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		ret.closer = c
	}
	if err := ret.writeRow(Header); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *CSVWriter) Write(s Sample) error {
	stalled := "0"
	if s.Stalled {
		stalled = "1"
	}
	return c.writeRow([]string{
		formatFloat(s.Time.Seconds()),
		formatFloat(s.RPM),
		formatFloat(s.Speed),
		formatFloat(s.Throttle),
		formatFloat(s.Temperature),
		formatFloat(s.Load),
		formatFloat(s.Boost),
		s.Gear,
		stalled,
	})
}

func (c *CSVWriter) writeRow(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	if c.closer != nil {
		return c.closer.Close()
	}
	return c.w.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// ReadCSV reads a dashboard csv. Columns are located by header name, so
// their order does not matter and unknown columns are ignored.
//
//nolint:cyclop // column parsing
func ReadCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	reader.FieldsPerRecord = len(header)

	ret := []Sample{}
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		num := func(col string) (float64, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[col]]), 64)
			if err != nil {
				return 0, fmt.Errorf("line %d, column %s: %w", line, col, err)
			}
			return v, nil
		}
		s := Sample{Gear: strings.TrimSpace(rec[idx[ColGear]])}
		var ts float64
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{ColTimestamp, &ts},
			{ColRPM, &s.RPM},
			{ColSpeed, &s.Speed},
			{ColThrottle, &s.Throttle},
			{ColTemp, &s.Temperature},
			{ColLoad, &s.Load},
			{ColBoost, &s.Boost},
		} {
			if *f.dst, err = num(f.col); err != nil {
				return nil, err
			}
		}
		s.Time = time.Duration(math.Round(ts * float64(time.Second)))
		if i, ok := idx[ColStalled]; ok {
			s.Stalled = strings.TrimSpace(rec[i]) == "1"
		}
		ret = append(ret, s)
	}
	return ret, nil
}
