package archive

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chrissnell/vantaged/internal/packet"
)

// writeRawRecords appends recs directly to m's backing file, bypassing
// Append's monotonicity filter so a DST fall-back's repeated local
// hour can be written exactly as the console itself would emit it.
func writeRawRecords(t *testing.T, m *Manager, recs []*packet.Record) {
	t.Helper()
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer f.Close()
	for _, r := range recs {
		_, err := f.Write(r.Encode())
		require.NoError(t, err)
	}
}

// TestVerifyCurrentAcceptsRecordsAcrossDSTFallBackDateWithoutOutOfOrderError
// writes eight records at a steady 5-minute cadence from 0:50 to 1:25
// local time on a DST fall-back date. Every stamp is distinct and later
// than the one before it, so verifyFile reports no out-of-order error;
// only a stamp at or before the previous one (current <= lastTime)
// counts as one.
func TestVerifyCurrentAcceptsRecordsAcrossDSTFallBackDateWithoutOutOfOrderError(t *testing.T) {
	m := newTestManager(t)
	base := time.Date(2026, 11, 1, 0, 50, 0, 0, time.Local)

	var recs []*packet.Record
	for i := 0; i < 8; i++ {
		recs = append(recs, recordAt(base.Add(time.Duration(i)*5*time.Minute)))
	}
	writeRawRecords(t, m, recs)

	result, err := m.VerifyCurrent()
	require.NoError(t, err)
	require.Equal(t, len(recs), result.RecordsRead)
	require.Zero(t, result.OutOfOrderErrors)
}

// TestVerifyCurrentRebaselinesDeltaAfterPersistentChange exercises the
// delta-mismatch tolerance at the heart of scenario 4: a one-off
// cadence change (the kind a DST transition or an archive-period
// change produces) must not keep tripping a warning forever — once it
// has recurred for more than two records running, the expected delta
// re-baselines to the new value and subsequent records at that new,
// consistent cadence raise no further warnings.
func TestVerifyCurrentRebaselinesDeltaAfterPersistentChange(t *testing.T) {
	m := newTestManager(t)
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.Local)

	var recs []*packet.Record
	t1, t2, t3 := base, base.Add(5*time.Minute), base.Add(10*time.Minute)
	recs = append(recs, recordAt(t1), recordAt(t2), recordAt(t3))

	last := t3
	for i := 0; i < 5; i++ {
		last = last.Add(10 * time.Minute)
		recs = append(recs, recordAt(last))
	}
	writeRawRecords(t, m, recs)

	result, err := m.VerifyCurrent()
	require.NoError(t, err)
	require.Equal(t, len(recs), result.RecordsRead)
	require.Zero(t, result.OutOfOrderErrors)
	require.Equal(t, 3, result.DeltaWarnings, "the cadence change is flagged three times, then re-baselined with no further warnings")
}

func TestVerifyCurrentFlagsTrueOutOfOrderRecord(t *testing.T) {
	m := newTestManager(t)
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.Local)

	recs := []*packet.Record{
		recordAt(base),
		recordAt(base.Add(5 * time.Minute)),
		recordAt(base.Add(-5 * time.Minute)), // genuine backward jump
	}
	writeRawRecords(t, m, recs)

	result, err := m.VerifyCurrent()
	require.NoError(t, err)
	require.Equal(t, 1, result.OutOfOrderErrors)
}
