package weather

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/vantaged/internal/packet"
)

// GustDiagnostics is a Subscriber that supplements the decoder's fixed
// conversions with rolling wind-speed variance/standard-deviation
// statistics, giving context for how gusty current conditions are
// relative to the trailing sample window. No dispatcher command
// reports these statistics; query-console-diagnostics returns the
// protocol engine's packet counters only. This is pure diagnostic enrichment — it
// never substitutes for a console-reported value.
type GustDiagnostics struct {
	mu      sync.Mutex
	window  []float64
	maxSize int
}

// NewGustDiagnostics constructs a tracker retaining the last windowSize
// wind-speed samples.
func NewGustDiagnostics(windowSize int) *GustDiagnostics {
	if windowSize <= 0 {
		windowSize = 60
	}
	return &GustDiagnostics{maxSize: windowSize}
}

func (g *GustDiagnostics) ProcessLoop(p *packet.Loop) bool {
	if speed, ok := p.WindSpeed.Get(); ok {
		g.add(speed)
	}
	return true
}

func (g *GustDiagnostics) ProcessLoop2(p *packet.Loop2) bool {
	if speed, ok := p.WindSpeed2MinAvg.Get(); ok {
		g.add(speed)
	}
	return true
}

func (g *GustDiagnostics) add(speed float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.window = append(g.window, speed)
	if len(g.window) > g.maxSize {
		g.window = g.window[len(g.window)-g.maxSize:]
	}
}

// Stats reports mean, standard deviation, and sample count over the
// current window. ok is false when fewer than 2 samples have been
// collected (variance is undefined below that).
type Stats struct {
	Mean    float64
	StdDev  float64
	Samples int
}

func (g *GustDiagnostics) Stats() (Stats, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.window) < 2 {
		return Stats{Samples: len(g.window)}, false
	}
	mean, std := stat.MeanStdDev(g.window, nil)
	return Stats{Mean: mean, StdDev: std, Samples: len(g.window)}, true
}
