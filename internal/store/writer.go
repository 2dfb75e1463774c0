package store

import (
	"context"

	"github.com/mpapenbr/go-dashsim/internal/telemetry"
)

const DefaultBatchSize = 100

// SessionWriter buffers samples and appends them to a stored session in
// batches. Close writes the remaining samples.
type SessionWriter struct {
	ctx   context.Context
	store *Store
	key   string
	batch int
	buf   []telemetry.Sample
}

var _ telemetry.Sink = (*SessionWriter)(nil)

func (s *Store) NewSessionWriter(ctx context.Context, key string, batch int) *SessionWriter {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &SessionWriter{
		ctx:   ctx,
		store: s,
		key:   key,
		batch: batch,
		buf:   make([]telemetry.Sample, 0, batch),
	}
}

func (w *SessionWriter) Write(s telemetry.Sample) error {
	w.buf = append(w.buf, s)
	if len(w.buf) >= w.batch {
		return w.Flush()
	}
	return nil
}

func (w *SessionWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.store.AppendSamples(w.ctx, w.key, w.buf); err != nil {
		return err
	}
	w.buf = w.buf[:0]
	return nil
}

func (w *SessionWriter) Close() error {
	return w.Flush()
}
