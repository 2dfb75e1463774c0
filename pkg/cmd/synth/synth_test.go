package synth

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/go-dashsim/internal/journey"
	"github.com/mpapenbr/go-dashsim/pkg/config"
)

func TestSynthesize(t *testing.T) {
	route := filepath.Join(t.TempDir(), "route.yml")
	require.NoError(t, os.WriteFile(route,
		[]byte("polyline: '_p~iF~ps|U_ulLnnqC_mqNvxq`@'\n"), 0o600))
	cfg := config.NewCliArgs()
	cfg.RouteFile = route
	cfg.Seed = 3
	cfg.StartTime = "2024-05-01 10:00:00"

	buf := &bytes.Buffer{}
	require.NoError(t, synthesize(context.Background(), cfg, buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "timestamp,rpm,speed,lat,lon", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "2024-05-01 10:00:02,"), lines[3])
	assert.True(t, strings.HasSuffix(lines[3], ",43.252,-126.453"), lines[3])

	points, err := journey.Read(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Len(t, points, 3)
}

func TestParseStart(t *testing.T) {
	got, err := parseStart("2024-05-01T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	_, err = parseStart("tomorrow")
	assert.Error(t, err)

	now, err := parseStart("")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, 2*time.Second)
}
