package wind

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProcessWindSampleIgnoresCalm(t *testing.T) {
	tr := New("", nil)
	tr.ProcessWindSample(time.Now(), 90, 0)
	require.Empty(t, tr.DominantDirectionsForPastHour())
	require.True(t, tr.windowEnd.IsZero(), "a calm sample must not open a window")
}

func TestWindowPicksMostSampledSlice(t *testing.T) {
	tr := New("", nil)
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	// North (slice 0, center 0) gets two samples, East (slice 4,
	// center 90) gets one at 88 degrees; North must win.
	tr.ProcessWindSample(base, 0, 5)
	tr.ProcessWindSample(base.Add(time.Minute), 0, 5)
	tr.ProcessWindSample(base.Add(2*time.Minute), 88, 5)

	// Push past the 10 minute window to force it closed.
	tr.ProcessWindSample(base.Add(11*time.Minute), 0, 5)

	dirs := tr.DominantDirectionsForPastHour()
	require.Contains(t, dirs, "N")
	require.NotContains(t, dirs, "E")
}

func TestDominantDirectionExpiresAfterAnHour(t *testing.T) {
	tr := New("", nil)
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	tr.ProcessWindSample(base, 0, 5)
	tr.ProcessWindSample(base.Add(11*time.Minute), 0, 5) // closes window 1, N wins

	require.Contains(t, tr.DominantDirectionsForPastHour(), "N")

	// Jump forward over an hour from the dominance time and close
	// another window; the old memory must have expired.
	far := base.Add(2 * time.Hour)
	tr.ProcessWindSample(far, 180, 5)
	tr.ProcessWindSample(far.Add(11*time.Minute), 180, 5)

	dirs := tr.DominantDirectionsForPastHour()
	require.NotContains(t, dirs, "N")
}

func TestRawHeadingNearNorthBoundaryRemapsToNorth(t *testing.T) {
	tr := New("", nil)
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	// spec.md §8: raw headings in 348.76°..359.99° must land in the
	// N slice, not fall through every slice's range untallied.
	tr.ProcessWindSample(base, 348.76, 5)
	tr.ProcessWindSample(base.Add(time.Minute), 359.99, 5)
	tr.ProcessWindSample(base.Add(11*time.Minute), 0, 5) // close the window

	require.Contains(t, tr.DominantDirectionsForPastHour(), "N")
}

func TestCheckpointRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wind.chk")
	tr := New(path, nil)
	// Restore keeps only dominance times within the past hour of the
	// wall clock, so the samples are placed just before now.
	base := time.Now().Add(-20 * time.Minute)
	tr.ProcessWindSample(base, 0, 5)
	tr.ProcessWindSample(base.Add(11*time.Minute), 0, 5)
	require.Contains(t, tr.DominantDirectionsForPastHour(), "N")

	tr2 := New(path, nil)
	require.Contains(t, tr2.DominantDirectionsForPastHour(), "N")
}

func TestRestoreDiscardsCorruptCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wind.chk")
	require.NoError(t, os.WriteFile(path, []byte("not a valid line\n"), 0o644))

	tr := New(path, nil)
	require.Empty(t, tr.DominantDirectionsForPastHour())
}
