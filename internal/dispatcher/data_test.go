package dispatcher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chrissnell/vantaged/internal/alarm"
	"github.com/chrissnell/vantaged/internal/archive"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/measurement"
	"github.com/chrissnell/vantaged/internal/packet"
)

func newTestArchive(t *testing.T) *archive.Manager {
	t.Helper()
	dec := decode.NewDecoder(0.01, nil)
	m, err := archive.Open(t.TempDir(), 5*time.Minute, dec, testLogger())
	require.NoError(t, err)
	return m
}

func recordAt(at time.Time, outsideTemp float64) *packet.Record {
	r := &packet.Record{
		Year: at.Year(), Month: int(at.Month()), Day: at.Day(),
		Hour: at.Hour(), Minute: at.Minute(),
		RecordType: packet.RecordTypeRevB,
	}
	r.OutsideTemperatureAvg = measurement.Valid(outsideTemp)
	return r
}

func TestQueryArchiveReturnsRecordsInRange(t *testing.T) {
	am := newTestArchive(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	_, err := am.Append([]*packet.Record{recordAt(base, 50), recordAt(base.Add(5*time.Minute), 55)})
	require.NoError(t, err)

	d := New(testLogger())
	RegisterDataHandlers(d, DataDeps{Archive: am})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "query-archive", Arguments: Arguments{
		{"start-time": base.Add(-time.Hour).Format(timeLayout)},
		{"end-time": base.Add(time.Hour).Format(timeLayout)},
	}})
	require.Equal(t, ResultSuccess, resp.Result)
	records := resp.Data.(map[string]any)["records"].([]*packet.Record)
	require.Len(t, records, 2)
}

func TestQueryArchiveMissingTimeRangeFails(t *testing.T) {
	am := newTestArchive(t)
	d := New(testLogger())
	RegisterDataHandlers(d, DataDeps{Archive: am})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "query-archive"})
	require.Equal(t, ResultFailure, resp.Result)
	require.Contains(t, resp.Data.(map[string]string)["error"], "start-time")
}

func TestQueryArchiveSummaryAggregatesRecords(t *testing.T) {
	am := newTestArchive(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	_, err := am.Append([]*packet.Record{recordAt(base, 50), recordAt(base.Add(5*time.Minute), 60)})
	require.NoError(t, err)

	d := New(testLogger())
	RegisterDataHandlers(d, DataDeps{Archive: am})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "query-archive-summary", Arguments: Arguments{
		{"start-time": base.Add(-time.Hour).Format(timeLayout)},
		{"end-time": base.Add(time.Hour).Format(timeLayout)},
	}})
	require.Equal(t, ResultSuccess, resp.Result)
	summary := resp.Data.(summaryResult)
	require.Equal(t, 2, summary.RecordCount)
	require.InDelta(t, 55.0, summary.OutsideTemperatureAvg, 0.01)
	require.InDelta(t, 60.0, summary.OutsideTemperatureHigh, 0.01)
	require.InDelta(t, 50.0, summary.OutsideTemperatureLow, 0.01)
}

func TestQueryAlarmHistoryRequiresManager(t *testing.T) {
	d := New(testLogger())
	RegisterDataHandlers(d, DataDeps{Archive: newTestArchive(t)})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "query-alarm-history"})
	require.Equal(t, ResultFailure, resp.Result)
}

func TestQueryAlarmHistoryReturnsEvents(t *testing.T) {
	historyPath := filepath.Join(t.TempDir(), "alarms.log")
	am := alarm.New(historyPath, testLogger())

	d := New(testLogger())
	RegisterDataHandlers(d, DataDeps{Archive: newTestArchive(t), AlarmMgr: am})
	d.Start(context.Background())

	resp := d.Dispatch(context.Background(), Request{Command: "query-alarm-history", Arguments: Arguments{
		{"start-time": time.Now().Add(-time.Hour).Format(timeLayout)},
		{"end-time": time.Now().Add(time.Hour).Format(timeLayout)},
	}})
	require.Equal(t, ResultSuccess, resp.Result)
}
