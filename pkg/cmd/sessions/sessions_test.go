package sessions

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/go-dashsim/internal/store"
	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/pkg/config"
)

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewCliArgs()
	cfg.StoreFile = filepath.Join(t.TempDir(), "sessions.db")
	st, err := store.Open(ctx, cfg.StoreFile)
	require.NoError(t, err)
	require.NoError(t, st.CreateSession(ctx, store.Info{
		Key: "abc", Name: "warmup", Source: store.SourceSimulation,
		CreatedAt: time.Now(), MaxRPM: 8000, MaxSpeed: 240, TickInterval: 50 * time.Millisecond,
	}))
	require.NoError(t, st.AppendSamples(ctx, "abc", []telemetry.Sample{{Gear: "N"}, {Gear: "1"}}))
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	require.NoError(t, listSessions(ctx, cfg, buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "KEY"))
	assert.Equal(t, []string{"abc", "warmup", "simulation"}, strings.Fields(lines[1])[:3])
	assert.Contains(t, lines[1], "50ms")

	deleteKey = "abc"
	defer func() { deleteKey = "" }()
	require.NoError(t, listSessions(ctx, cfg, buf))
	assert.ErrorIs(t, listSessions(ctx, cfg, buf), store.ErrSessionNotFound)
}
