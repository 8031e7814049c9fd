package alarm

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/packet"
)

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func TestDefaultDefinitionsHasExpectedCount(t *testing.T) {
	defs := defaultDefinitions()
	require.Len(t, defs, NumAlarms)

	seen := make(map[int]bool)
	for _, d := range defs {
		require.False(t, seen[d.Bit], "bit %d assigned twice", d.Bit)
		seen[d.Bit] = true
	}
}

func TestManagerOpensAndClosesAlarmOnBitTransition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.history")
	m := New(path, testLogger())

	var loop packet.Loop
	loop.AlarmBits[0] = true
	m.ProcessLoop(&loop)

	triggered := m.Triggered()
	require.Len(t, triggered, 1)
	require.Equal(t, "barometer falling rate", triggered[0].Name)

	loop.AlarmBits[0] = false
	m.ProcessLoop(&loop)
	require.Empty(t, m.Triggered())

	history, err := m.history.Query(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "barometer falling rate", history[0].Name)
}

func TestLoadThresholdsMarksArmedAlarms(t *testing.T) {
	m := New("", testLogger())
	eeprom := make([]byte, 4096)
	// barometer falling rate threshold (2 bytes at 0x52) set to a
	// non-sentinel value.
	eeprom[0x52] = 0x10
	eeprom[0x53] = 0x00

	m.LoadThresholds(eeprom)
	require.True(t, m.alarms[0].ThresholdSet)
}
