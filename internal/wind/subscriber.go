package wind

import (
	"time"

	"github.com/chrissnell/vantaged/internal/packet"
)

// ProcessLoop feeds the instantaneous LOOP wind sample into the
// tumbling-window tracker, implementing weather.Subscriber. Invalid
// wind fields (sensor not present) are treated as no sample at all.
func (t *Tracker) ProcessLoop(p *packet.Loop) bool {
	speed, speedOK := p.WindSpeed.Get()
	dir, dirOK := p.WindDirection.Get()
	if speedOK && dirOK {
		t.ProcessWindSample(time.Now(), float64(dir), speed)
	}
	return true
}

// ProcessLoop2 feeds the LOOP2 instantaneous wind sample the same way.
func (t *Tracker) ProcessLoop2(p *packet.Loop2) bool {
	speed, speedOK := p.WindSpeed.Get()
	dir, dirOK := p.WindDirection.Get()
	if speedOK && dirOK {
		t.ProcessWindSample(time.Now(), float64(dir), speed)
	}
	return true
}
