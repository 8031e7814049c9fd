package alarm

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/packet"
)

// Event is one alarm open/close transition, appended to the history
// file when it closes.
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Manager owns the named alarm table, compares each LOOP's alarm
// bitmap against the previous one, and records open/close events.
// Implements weather.Subscriber via structural typing.
type Manager struct {
	mu      sync.Mutex
	alarms  []Alarm
	byBit   map[int]*Alarm
	open    map[int]time.Time
	history *History
	logger  *zap.SugaredLogger
}

// New constructs a Manager with the default ~86-alarm table,
// persisting closed events to historyPath.
func New(historyPath string, logger *zap.SugaredLogger) *Manager {
	m := &Manager{
		alarms:  make([]Alarm, 0, NumAlarms),
		byBit:   make(map[int]*Alarm, NumAlarms),
		open:    make(map[int]time.Time),
		history: NewHistory(historyPath),
		logger:  logger,
	}
	for _, def := range defaultDefinitions() {
		m.alarms = append(m.alarms, Alarm{Definition: def})
	}
	for i := range m.alarms {
		m.byBit[m.alarms[i].Bit] = &m.alarms[i]
	}
	return m
}

// LoadThresholds applies raw EEPROM threshold bytes for every alarm,
// marking each armed if its stored value differs from its
// "not set" sentinel.
func (m *Manager) LoadThresholds(eeprom []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alarms {
		a := &m.alarms[i]
		end := int(a.EEPROMAddr) + a.EEPROMSize
		if end > len(eeprom) {
			continue
		}
		raw := 0
		for j := 0; j < a.EEPROMSize; j++ {
			raw |= int(eeprom[int(a.EEPROMAddr)+j]) << (8 * j)
		}
		a.ThresholdRaw = raw
		a.ThresholdSet = raw != a.EEPROMNotSetVal
	}
}

// History returns the manager's alarm-event history store, for
// range queries from the data command dispatcher.
func (m *Manager) History() *History {
	return m.history
}

// Triggered returns a snapshot of the currently triggered alarms.
func (m *Manager) Triggered() []Alarm {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Alarm
	for _, a := range m.alarms {
		if a.Triggered {
			out = append(out, a)
		}
	}
	return out
}

// ProcessLoop compares the packet's alarm bitmap to the previous
// reading: a 0→1 transition opens an alarm event, 1→0 closes it and
// appends the finished event to the history file.
func (m *Manager) ProcessLoop(p *packet.Loop) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for bit, set := range p.AlarmBits {
		a, known := m.byBit[bit]
		wasOpen := m.open[bit]

		switch {
		case set && wasOpen.IsZero():
			m.open[bit] = now
			if known {
				a.Triggered = true
			}
		case !set && !wasOpen.IsZero():
			delete(m.open, bit)
			if known {
				a.Triggered = false
				if err := m.history.Append(Event{Name: a.Name, Start: wasOpen, End: now}); err != nil && m.logger != nil {
					m.logger.Warnw("failed to append alarm history", "alarm", a.Name, "error", err)
				}
			}
		}
	}
	return true
}

func (m *Manager) ProcessLoop2(*packet.Loop2) bool { return true }
