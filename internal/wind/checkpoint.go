package wind

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

// checkpoint lines are "<center> <dominantUnixTime> <sampleCount>",
// one per slice, in slice order. A trailing human-readable time is
// appended for anyone tailing the file; it is not parsed back.
const checkpointLineFormat = "%5.1f %10d %5d  %s\n"

func (t *Tracker) saveCheckpoint() {
	if t.checkpoint == "" {
		return
	}
	f, err := os.Create(t.checkpoint)
	if err != nil {
		if t.logger != nil {
			t.logger.Warnw("failed to open wind direction checkpoint for writing", "path", t.checkpoint, "error", err)
		}
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, s := range t.slices {
		var unix int64
		readable := "Never"
		if !s.dominantAt.IsZero() {
			unix = s.dominantAt.Unix()
			readable = s.dominantAt.Format("15:04:05")
		}
		fmt.Fprintf(w, checkpointLineFormat, s.center, unix, s.sampleCount, readable)
	}
	w.Flush()
}

// restoreCheckpoint loads prior dominance state, discarding the whole
// file on any parse failure or on a dominant time that lies in the
// future (a sign of clock skew or file corruption, per the source's
// own sanity check), and forgetting memories older than an hour.
func (t *Tracker) restoreCheckpoint() {
	if t.checkpoint == "" {
		return
	}
	f, err := os.Open(t.checkpoint)
	if err != nil {
		return
	}
	defer f.Close()

	now := time.Now()
	var newest time.Time

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var center float64
		var unix int64
		var count int
		if _, err := fmt.Sscanf(scanner.Text(), "%f %d %d", &center, &unix, &count); err != nil {
			t.clearAll()
			return
		}

		dtime := time.Time{}
		if unix > 0 {
			dtime = time.Unix(unix, 0)
		}
		if dtime.After(newest) {
			newest = dtime
		}
		if dtime.After(now) {
			t.clearAll()
			return
		}

		if !dtime.IsZero() && now.Sub(dtime) <= DominantDuration {
			for _, s := range t.slices {
				if s.inSlice(center) {
					s.dominantAt = dtime
					s.sampleCount = count
					t.dominantForHour = append(t.dominantForHour, s.name)
				}
			}
		}
	}

	if !newest.IsZero() && now.Sub(newest) > AgeSpan {
		for _, s := range t.slices {
			s.clearSamples()
		}
	}

	if !newest.IsZero() {
		t.windowStart = newest
		t.windowEnd = newest.Add(AgeSpan)
		for !t.windowEnd.After(now) {
			t.windowStart = t.windowStart.Add(AgeSpan)
			t.windowEnd = t.windowEnd.Add(AgeSpan)
		}
	}
}

func (t *Tracker) clearAll() {
	for _, s := range t.slices {
		s.clearAll()
	}
	t.dominantForHour = nil
}
