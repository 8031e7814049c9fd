package archive

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/packet"
)

// VerifyResult summarizes one pass over an archive file.
type VerifyResult struct {
	RecordsRead      int
	OutOfOrderErrors int
	DeltaWarnings    int
	FirstTime        time.Time
	LastTime         time.Time
}

// OK reports whether the file had no out-of-order records and no
// unresolved delta warnings.
func (r VerifyResult) OK() bool {
	return r.OutOfOrderErrors == 0 && r.DeltaWarnings == 0
}

// VerifyCurrent verifies the manager's own archive file and appends a
// summary to its verify log.
func (m *Manager) VerifyCurrent() (VerifyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, err := verifyFile(m.path, m.decoder)
	if err != nil {
		return result, err
	}
	m.appendVerifyLogLocked(result)
	return result, nil
}

func (m *Manager) appendVerifyLogLocked(r VerifyResult) {
	f, err := os.OpenFile(m.verifyLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		m.logger.Warnw("failed to open archive verify log", "error", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s: %d records, %d out-of-order, %d delta warnings, range %s..%s\n",
		time.Now().Format(time.RFC3339), r.RecordsRead, r.OutOfOrderErrors, r.DeltaWarnings,
		r.FirstTime.Format(time.RFC3339), r.LastTime.Format(time.RFC3339))
}

// verifyFile scans path sequentially, flagging out-of-order records
// (current time ≤ previous) and inconsistent inter-record time deltas.
// A delta mismatch is tolerated until it has recurred for 3
// consecutive records, at which point the expected delta is
// re-baselined to the new value — this absorbs archive-period changes
// and the hour the console skips when DST starts, which raise delta
// warnings but no out-of-order error. A record whose stamp repeats or
// precedes the previous one (as when the console repeats the 1 AM hour
// at the end of DST) is counted as out-of-order.
func verifyFile(path string, dec *decode.Decoder) (VerifyResult, error) {
	var result VerifyResult

	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("archive: open for verify: %w", err)
	}
	defer f.Close()

	buf := make([]byte, packet.RecordSize)
	var lastTime time.Time
	var lastDelta time.Duration
	deltaMismatchRun := 0

	for {
		_, err := io.ReadFull(f, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("archive: read record %d: %w", result.RecordsRead, err)
		}
		rec, err := packet.Decode(buf, dec)
		if err != nil {
			return result, fmt.Errorf("archive: decode record %d: %w", result.RecordsRead, err)
		}
		result.RecordsRead++
		current := rec.EpochTime(time.Local)
		if result.FirstTime.IsZero() {
			result.FirstTime = current
		}

		if !lastTime.IsZero() && !current.After(lastTime) {
			result.OutOfOrderErrors++
		}

		if !lastTime.IsZero() {
			delta := current.Sub(lastTime)
			if result.RecordsRead > 2 && delta != lastDelta {
				deltaMismatchRun++
				result.DeltaWarnings++
				if deltaMismatchRun > 2 {
					lastDelta = delta
				}
			} else {
				deltaMismatchRun = 0
			}
			if result.RecordsRead == 2 {
				lastDelta = delta
			}
		}

		lastTime = current
		result.LastTime = current
	}
	return result, nil
}
