package bus

import "github.com/zeusync/arena/internal/core/world"

// Bus is a thread-safe, in-process pub/sub bus carrying per-tick delta
// batches from the simulation to its consumers.
//
// Key characteristics:
// - Topic fan-out: handlers subscribe to a topic and receive every batch
// published to it, in subscription order.
// - Synchronous delivery: Publish calls handlers in the caller goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are only collected while observers are
// registered.
//
// Handlers run on the tick goroutine and must not block; hand heavy work to
// another goroutine.
type Bus interface {
	// Publish delivers b to every active subscriber of topic.
	Publish(topic string, b Batch) error
	// PublishWithFilters drops b silently if any filter rejects it.
	PublishWithFilters(topic string, b Batch, filters ...Filter) error

	Subscribe(topic string, handler Handler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is a no-op.
	Unsubscribe(sub Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// Metrics returns a snapshot of the counters collected while observed.
	Metrics() Metrics
	Topics() []TopicInfo
}

// Batch is the output of one simulation tick.
type Batch struct {
	Tick   uint64
	Time   float64
	Deltas []world.Delta
	// Checksum is the authoritative state hash, set only on ticks where it
	// was computed.
	Checksum    uint64
	HasChecksum bool
}

type (
	Handler func(b Batch) error
	// Filter decides whether a batch is delivered at all.
	Filter func(b Batch) bool
)

// Subscription is a registered handler. Cancel is safe to call repeatedly.
type Subscription interface {
	ID() string
	Topic() string
	IsActive() bool
	Cancel() error
}

// Observer is notified about deliveries. It must return quickly.
type Observer interface {
	OnPublish(topic string, b Batch)
	OnDelivered(topic string, handlers int, err error, durationMicros int64)
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
	Topics            uint64
}

type TopicInfo struct {
	Name string
	Subs int
}
