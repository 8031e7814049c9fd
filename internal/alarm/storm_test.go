package alarm

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chrissnell/vantaged/internal/weather"
)

func TestStormArchiveAppendAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storms.txt")
	sa := NewStormArchive(path)

	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sa.Append(weather.StormInterval{Start: base, End: base.Add(time.Hour), TotalRainfall: 0.42}))
	require.NoError(t, sa.Append(weather.StormInterval{Start: base.Add(48 * time.Hour), End: base.Add(49 * time.Hour), TotalRainfall: 1.1}))

	got, err := sa.Query(base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.InDelta(t, 0.42, got[0].TotalRainfall, 0.001)
}

func TestStormArchiveQueryMissingFileReturnsEmpty(t *testing.T) {
	sa := NewStormArchive(filepath.Join(t.TempDir(), "missing.txt"))
	got, err := sa.Query(time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Empty(t, got)
}
