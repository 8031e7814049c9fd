package wind

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker keeps up to 16 compass slices, each scored over a tumbling
// 10-minute window, remembering each window's winner for an hour —
// the dominant-wind-direction model a Vantage console's own display
// approximates. Safe for concurrent use; typically registered as a
// weather.Subscriber alongside the current-weather pipeline.
type Tracker struct {
	mu sync.Mutex

	slices          [NumSlices]*slice
	windowStart     time.Time
	windowEnd       time.Time
	dominantForHour []string

	checkpoint string
	logger     *zap.SugaredLogger
}

// New constructs a Tracker, restoring its prior state from
// checkpointPath if present and still fresh (see restoreCheckpoint).
func New(checkpointPath string, logger *zap.SugaredLogger) *Tracker {
	t := &Tracker{
		slices:     newSlices(),
		checkpoint: checkpointPath,
		logger:     logger,
	}
	t.restoreCheckpoint()
	return t
}

// ProcessWindSample scores one wind observation. A zero speed carries
// no heading information and is ignored, matching the console's
// calm-wind handling.
func (t *Tracker) ProcessWindSample(at time.Time, heading, speed float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	windowEnded := t.checkForEndOfWindow(at)

	if speed <= 0.0 {
		return
	}

	if t.windowEnd.IsZero() || windowEnded {
		t.startWindow(at)
	}

	// Normalize so the north slice's wraparound (348.75-360, 0-11.25)
	// is a single contiguous range ending just under 0.
	if heading > MaxHeading-HalfSlice {
		heading -= MaxHeading
	}

	for _, s := range t.slices {
		s.addSample(heading)
	}
}

// checkForEndOfWindow ends the active window if at has passed it.
func (t *Tracker) checkForEndOfWindow(at time.Time) bool {
	if t.windowEnd.IsZero() {
		return false
	}
	if !at.Before(t.windowEnd) {
		t.endWindow(at)
		return true
	}
	return false
}

// startWindow opens a new 10-minute scoring window anchored at at,
// rebasing on a large gap rather than replaying every skipped window.
func (t *Tracker) startWindow(at time.Time) {
	for _, s := range t.slices {
		s.clearSamples()
	}

	switch {
	case t.windowStart.IsZero():
		t.windowStart = at.Truncate(time.Minute)
	case t.windowEnd.Add(DominantDuration).Before(at):
		if t.logger != nil {
			t.logger.Debugw("resetting wind direction window after large sample gap", "at", at)
		}
		t.windowStart = at.Truncate(time.Minute)
	default:
		for !at.Before(t.windowStart.Add(AgeSpan)) {
			t.windowStart = t.windowStart.Add(AgeSpan)
		}
	}

	t.windowEnd = t.windowStart.Add(AgeSpan)
	t.saveCheckpoint()
}

// endWindow closes the active window: the slice with the most samples
// (ties favor the lower-indexed, more northerly slice) is recorded as
// dominant until at, then all per-window counts reset. Dominance
// memories older than an hour are forgotten, and the window clock
// itself resets once nothing is currently dominant.
func (t *Tracker) endWindow(at time.Time) {
	if winner := t.findDominant(); winner != nil {
		winner.dominantAt = t.windowEnd
	}

	for _, s := range t.slices {
		s.clearSamples()
		if !s.dominantAt.IsZero() && s.dominantAt.Add(DominantDuration).Before(at) {
			s.dominantAt = time.Time{}
		}
	}

	if t.dominantCount() == 0 {
		t.windowStart = time.Time{}
		t.windowEnd = time.Time{}
	}

	t.dominantForHour = t.dominantForHour[:0]
	for _, s := range t.slices {
		if s.hasDominantTime() {
			t.dominantForHour = append(t.dominantForHour, s.name)
		}
	}
}

func (t *Tracker) findDominant() *slice {
	var best *slice
	for _, s := range t.slices {
		if s.sampleCount > 0 && (best == nil || s.sampleCount > best.sampleCount) {
			best = s
		}
	}
	return best
}

func (t *Tracker) dominantCount() int {
	n := 0
	for _, s := range t.slices {
		if s.hasDominantTime() {
			n++
		}
	}
	return n
}

// DominantDirectionsForPastHour reports the compass slices that have
// won a 10-minute window within the last hour, in slice order
// (N..NNW), not in the order they became dominant.
func (t *Tracker) DominantDirectionsForPastHour() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.dominantForHour))
	copy(out, t.dominantForHour)
	return out
}
