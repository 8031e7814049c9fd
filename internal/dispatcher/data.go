package dispatcher

import (
	"context"
	"time"

	"github.com/chrissnell/vantaged/internal/alarm"
	"github.com/chrissnell/vantaged/internal/archive"
	"github.com/chrissnell/vantaged/internal/packet"
	"github.com/chrissnell/vantaged/internal/protocol"
)

const timeLayout = "2006-01-02T15:04:05"

func parseTimeRange(args Arguments) (start, end time.Time, err error) {
	startStr, ok := args.Get("start-time")
	if !ok {
		return start, end, protocol.NewError(protocol.ArgumentInvalid, "missing start-time argument")
	}
	endStr, ok := args.Get("end-time")
	if !ok {
		return start, end, protocol.NewError(protocol.ArgumentInvalid, "missing end-time argument")
	}
	start, err = time.ParseInLocation(timeLayout, startStr, time.Local)
	if err != nil {
		return start, end, protocol.Newf(protocol.ArgumentInvalid, "invalid start-time %q", startStr)
	}
	end, err = time.ParseInLocation(timeLayout, endStr, time.Local)
	if err != nil {
		return start, end, protocol.Newf(protocol.ArgumentInvalid, "invalid end-time %q", endStr)
	}
	return start, end, nil
}

// DataDeps bundles the data-bound handlers' collaborators, none of
// which ever touch the serial transport (spec.md §5).
type DataDeps struct {
	Archive      *archive.Manager
	AlarmMgr     *alarm.Manager
	StormArchive *alarm.StormArchive
}

// RegisterDataHandlers wires every data-bound command named in
// spec.md §6 against deps, matching DataCommandHandler.cpp's
// dataCommandList table.
func RegisterDataHandlers(d *Dispatcher, deps DataDeps) {
	am := deps.Archive

	d.RegisterData("query-archive", func(ctx context.Context, args Arguments) (any, error) {
		start, end, err := parseTimeRange(args)
		if err != nil {
			return nil, err
		}
		recs, err := am.Query(start, end)
		if err != nil {
			return nil, protocol.Wrap(protocol.ArchiveIo, err)
		}
		return map[string]any{"records": recs}, nil
	})

	d.RegisterData("query-archive-statistics", func(ctx context.Context, _ Arguments) (any, error) {
		oldest, newest, count := am.Range()
		return map[string]any{
			"oldestRecordTime": oldest.Format(timeLayout),
			"newestRecordTime": newest.Format(timeLayout),
			"recordCount":      count,
		}, nil
	})

	d.RegisterData("query-archive-summary", func(ctx context.Context, args Arguments) (any, error) {
		start, end, err := parseTimeRange(args)
		if err != nil {
			return nil, err
		}
		recs, err := am.Query(start, end)
		if err != nil {
			return nil, protocol.Wrap(protocol.ArchiveIo, err)
		}
		return summarize(recs), nil
	})

	d.RegisterData("clear-extended-archive", func(ctx context.Context, _ Arguments) (any, error) {
		if err := am.Backup(time.Now()); err != nil {
			return nil, protocol.Wrap(protocol.ArchiveIo, err)
		}
		return nil, am.Clear()
	})

	if deps.StormArchive != nil {
		d.RegisterData("query-storm-archive", func(ctx context.Context, args Arguments) (any, error) {
			start, end, err := parseTimeRange(args)
			if err != nil {
				return nil, err
			}
			storms, err := deps.StormArchive.Query(start, end)
			if err != nil {
				return nil, protocol.Wrap(protocol.ArchiveIo, err)
			}
			return map[string]any{"storms": storms}, nil
		})
	}

	if deps.AlarmMgr != nil {
		d.RegisterData("query-alarm-history", func(ctx context.Context, args Arguments) (any, error) {
			start, end, err := parseTimeRange(args)
			if err != nil {
				return nil, err
			}
			events, err := deps.AlarmMgr.History().Query(start, end)
			if err != nil {
				return nil, protocol.Wrap(protocol.ArchiveIo, err)
			}
			return map[string]any{"alarmHistory": events}, nil
		})
	}
}

// summaryResult is this module's own SummaryReport.formatJSON
// stand-in: one set of aggregate stats over the whole queried archive
// range, with no per-period breakdown.
type summaryResult struct {
	RecordCount            int     `json:"recordCount"`
	OutsideTemperatureAvg  float64 `json:"outsideTemperatureAvg"`
	OutsideTemperatureHigh float64 `json:"outsideTemperatureHigh"`
	OutsideTemperatureLow  float64 `json:"outsideTemperatureLow"`
	TotalRainfall          float64 `json:"totalRainfall"`
	AvgWindSpeed           float64 `json:"avgWindSpeed"`
}

func summarize(recs []*packet.Record) summaryResult {
	var r summaryResult
	if len(recs) == 0 {
		return r
	}
	r.OutsideTemperatureLow = posInf
	r.OutsideTemperatureHigh = negInf
	var tempSum, windSum float64
	var tempCount, windCount int
	for _, rec := range recs {
		if v, ok := rec.OutsideTemperatureAvg.Get(); ok {
			tempSum += v
			tempCount++
			if v > r.OutsideTemperatureHigh {
				r.OutsideTemperatureHigh = v
			}
			if v < r.OutsideTemperatureLow {
				r.OutsideTemperatureLow = v
			}
		}
		if v, ok := rec.Rainfall.Get(); ok {
			r.TotalRainfall += v
		}
		if v, ok := rec.AvgWindSpeed.Get(); ok {
			windSum += v
			windCount++
		}
	}
	r.RecordCount = len(recs)
	if tempCount > 0 {
		r.OutsideTemperatureAvg = tempSum / float64(tempCount)
	} else {
		r.OutsideTemperatureHigh = 0
		r.OutsideTemperatureLow = 0
	}
	if windCount > 0 {
		r.AvgWindSpeed = windSum / float64(windCount)
	}
	return r
}

const (
	posInf = 1e18
	negInf = -1e18
)
