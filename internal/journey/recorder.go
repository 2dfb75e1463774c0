package journey

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/mpapenbr/go-dashsim/log"
)

// prefixes of the messages the logger firmware prints on startup
var skipPrefixes = []string{"timestamp", "NEO-6M"}

// Recorder copies the rows sent by the GPS logger into a journey csv
type Recorder struct {
	w   *Writer
	log *log.Logger
}

func NewRecorder(w *Writer, l *log.Logger) *Recorder {
	return &Recorder{w: w, log: l}
}

// Record reads lines from r until EOF or until the context is done and
// returns the number of rows written. Lines with a field count other than
// five are skipped.
func (rec *Recorder) Record(ctx context.Context, r io.Reader) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	written := 0
	for {
		select {
		case <-ctx.Done():
			rec.log.Debug("Record received ctx.Done")
			return written, nil
		case err := <-errCh:
			return written, err
		case line := <-lines:
			fields, ok := parseLine(line)
			if !ok {
				rec.log.Debug("Skipping line", log.String("line", line))
				continue
			}
			if err := rec.w.WriteRecord(fields); err != nil {
				return written, err
			}
			written++
			rec.log.Debug("Recorded", log.String("line", strings.Join(fields, ",")))
		}
	}
}

func parseLine(line string) ([]string, bool) {
	line = strings.TrimSpace(strings.ToValidUTF8(line, ""))
	if line == "" {
		return nil, false
	}
	for _, p := range skipPrefixes {
		if strings.HasPrefix(line, p) {
			return nil, false
		}
	}
	fields := strings.Split(line, ",")
	if len(fields) != len(Header) {
		return nil, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, true
}
