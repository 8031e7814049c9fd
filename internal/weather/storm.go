package weather

import (
	"sync"
	"time"

	"github.com/chrissnell/vantaged/internal/packet"
)

// StormInterval is one completed storm, per spec.md §3's Storm
// interval type. Persistence and range queries live in
// internal/alarm's storm archive; this package only detects the
// start/end transition.
type StormInterval struct {
	Start         time.Time
	End           time.Time
	TotalRainfall float64
}

// StormDetector watches each LOOP for the console's storm-start/
// storm-rain fields: a cleared-to-set transition with positive storm
// rain opens a storm, and a set-to-cleared transition closes it and
// reports the finished interval via onClosed. Grounded on spec.md
// §4.5's storm-detector subscriber description.
type StormDetector struct {
	mu       sync.Mutex
	open     bool
	start    time.Time
	rain     float64
	onClosed func(StormInterval)
}

// NewStormDetector constructs a detector that reports each completed
// storm to onClosed (typically internal/alarm's storm archive).
func NewStormDetector(onClosed func(StormInterval)) *StormDetector {
	return &StormDetector{onClosed: onClosed}
}

func (s *StormDetector) ProcessLoop(p *packet.Loop) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ongoing := p.IsStormOngoing()
	rain, _ := p.StormRain.Get()

	switch {
	case !s.open && ongoing:
		s.open = true
		s.start = time.Date(p.StormStartYear, time.Month(p.StormStartMonth), p.StormStartDay,
			0, 0, 0, 0, time.Local)
	case s.open && !ongoing:
		s.open = false
		if s.onClosed != nil {
			s.onClosed(StormInterval{Start: s.start, End: time.Now(), TotalRainfall: s.rain})
		}
	}
	if ongoing {
		s.rain = rain
	}
	return true
}

func (s *StormDetector) ProcessLoop2(*packet.Loop2) bool { return true }

// ArchiveTrigger watches LOOP's "next archive record" cursor and
// invokes onRollover whenever it changes, the signal the console has
// written a new archive record and a DMPAFT sync is worth scheduling.
type ArchiveTrigger struct {
	mu         sync.Mutex
	last       uint16
	haveLast   bool
	onRollover func()
}

func NewArchiveTrigger(onRollover func()) *ArchiveTrigger {
	return &ArchiveTrigger{onRollover: onRollover}
}

func (a *ArchiveTrigger) ProcessLoop(p *packet.Loop) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.haveLast && p.NextRecord != a.last {
		if a.onRollover != nil {
			a.onRollover()
		}
	}
	a.last = p.NextRecord
	a.haveLast = true
	return true
}

func (a *ArchiveTrigger) ProcessLoop2(*packet.Loop2) bool { return true }
