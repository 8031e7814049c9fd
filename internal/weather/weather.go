// Package weather drives the current-weather pipeline: the LPS
// LOOP/LOOP2 loop and fan-out to subscribers, grounded on
// original_source/source/vp2/CurrentWeatherPublisher.cpp and
// spec.md §4.5. Multicast publication of the resulting snapshot is
// out of scope here (an external collaborator, per spec.md §1) —
// this package only builds the snapshot and hands it to subscribers.
package weather

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/packet"
	"github.com/chrissnell/vantaged/internal/protocol"
)

// Subscriber receives each decoded packet in wire order and reports
// whether the pipeline should keep running. Implementations that only
// care about one packet type return true unconditionally from the
// other method.
type Subscriber interface {
	ProcessLoop(p *packet.Loop) (more bool)
	ProcessLoop2(p *packet.Loop2) (more bool)
}

// Snapshot combines the most recent LOOP and LOOP2 into one current
// conditions reading, the Go analogue of CurrentWeather::setLoopData/
// setLoop2Data accumulating into one object before publication.
type Snapshot struct {
	Loop        *packet.Loop
	Loop2       *packet.Loop2
	ObservedAt  time.Time
	DominantDir []string
}

// Pipeline drives LPS over an Engine and fans decoded packets out to
// registered subscribers in registration order, stopping the
// underlying loop as soon as any subscriber asks to stop. Per
// spec.md §5, the listener list is only mutated at startup/shutdown
// while no LPS loop is active — Register is not safe to call
// concurrently with Run.
type Pipeline struct {
	engine      *protocol.Engine
	decoder     *decode.Decoder
	logger      *zap.SugaredLogger
	subscribers []Subscriber

	latest Snapshot
}

// New constructs a Pipeline over an already-woken Engine.
func New(engine *protocol.Engine, decoder *decode.Decoder, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{engine: engine, decoder: decoder, logger: logger}
}

// Register adds a subscriber. Subscribers are invoked in the order
// they were registered.
func (p *Pipeline) Register(s Subscriber) {
	p.subscribers = append(p.subscribers, s)
}

// Latest returns the most recently assembled snapshot.
func (p *Pipeline) Latest() Snapshot {
	return p.latest
}

// Run drives n LOOP/LOOP2 pairs (an "LPS 3 <2n>" session) and fans
// each decoded packet out to every subscriber in order. It returns
// when the session completes normally, a subscriber asks to stop, or
// the protocol engine reports an unrecoverable error.
func (p *Pipeline) Run(ctx context.Context, pairs int) error {
	return p.engine.LPS(ctx, pairs*2, p.decoder, func(loop *packet.Loop, loop2 *packet.Loop2) bool {
		now := time.Now()
		if loop != nil {
			p.latest.Loop = loop
			p.latest.ObservedAt = now
			for _, s := range p.subscribers {
				if !s.ProcessLoop(loop) {
					return false
				}
			}
		}
		if loop2 != nil {
			p.latest.Loop2 = loop2
			p.latest.ObservedAt = now
			for _, s := range p.subscribers {
				if !s.ProcessLoop2(loop2) {
					return false
				}
			}
		}
		return true
	})
}
