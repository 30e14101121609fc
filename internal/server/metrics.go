package server

import (
	"time"

	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/internal/core/observability/log"
)

// tickObserver watches batch delivery on the bus. Delivery runs inside the
// tick, so a slow broadcast delays the simulation.
type tickObserver struct {
	logger log.Log
	budget time.Duration
}

func (o *tickObserver) OnPublish(topic string, b bus.Batch) {
	o.logger.Debug("Publishing batch",
		log.String("topic", topic),
		log.Uint64("tick", b.Tick),
		log.Int("deltas", len(b.Deltas)))
}

func (o *tickObserver) OnDelivered(topic string, handlers int, _ error, durationMicros int64) {
	if d := time.Duration(durationMicros) * time.Microsecond; d > o.budget {
		o.logger.Warn("Slow batch delivery",
			log.String("topic", topic),
			log.Int("handlers", handlers),
			log.Duration("took", d))
	}
}

// worthSending drops ticks that changed nothing and carry no checksum.
func worthSending(b bus.Batch) bool {
	return len(b.Deltas) > 0 || b.HasChecksum
}

// Metrics returns the delivery counters of the server's bus.
func (s *Server) Metrics() bus.Metrics { return s.bus.Metrics() }
