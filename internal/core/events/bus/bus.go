package bus

import (
	"cmp"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Well-known topics.
const (
	TopicDeltas = "deltas"
)

type subscription struct {
	id     string
	topic  string
	bus    *inMemoryBus
	mu     sync.Mutex
	active bool
	handle Handler
}

func (s *subscription) ID() string { return s.id }
func (s *subscription) Topic() string { return s.topic }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.mu.Unlock()
	s.bus.remove(s)
	return nil
}

// inMemoryBus is the default Bus.
type inMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[string][]*subscription
	metrics   Metrics
	observers map[Observer]struct{}
}

func New() Bus {
	return &inMemoryBus{
		handlers:  make(map[string][]*subscription),
		observers: make(map[Observer]struct{}),
	}
}

func (b *inMemoryBus) Publish(topic string, batch Batch) error {
	return b.deliver(topic, batch)
}

func (b *inMemoryBus) PublishWithFilters(topic string, batch Batch, filters ...Filter) error {
	for _, f := range filters {
		if !f(batch) {
			b.mu.Lock()
			if len(b.observers) > 0 {
				b.metrics.DroppedByFilters++
			}
			b.mu.Unlock()
			return nil
		}
	}
	return b.deliver(topic, batch)
}

func (b *inMemoryBus) Subscribe(topic string, handler Handler) (Subscription, error) {
	s := &subscription{id: uuid.NewString(), topic: topic, bus: b, active: true, handle: handler}
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], s)
	b.mu.Unlock()
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[s.topic] = slices.DeleteFunc(b.handlers[s.topic], func(x *subscription) bool { return x == s })
	if len(b.handlers[s.topic]) == 0 {
		delete(b.handlers, s.topic)
	}
}

func (b *inMemoryBus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) Topics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.handlers))
	for name, subs := range b.handlers {
		out = append(out, TopicInfo{Name: name, Subs: len(subs)})
	}
	slices.SortFunc(out, func(x, y TopicInfo) int { return cmp.Compare(x.Name, y.Name) })
	return out
}

func (b *inMemoryBus) deliver(topic string, batch Batch) error {
	start := time.Now()
	b.mu.RLock()
	subs := slices.Clone(b.handlers[topic])
	observers := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(topic, batch)
	}

	var all error
	delivered := 0
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := s.handle(batch); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) == 0 {
		return all
	}
	dur := time.Since(start).Microseconds()
	for _, obs := range observers {
		obs.OnDelivered(topic, delivered, all, dur)
	}
	b.mu.Lock()
	b.metrics.Published++
	b.metrics.DeliveredHandlers += uint64(delivered)
	if all != nil {
		b.metrics.Errors++
	}
	b.metrics.Topics = uint64(len(b.handlers))
	var active uint64
	for _, subs := range b.handlers {
		active += uint64(len(subs))
	}
	b.metrics.SubscribersActive = active
	b.mu.Unlock()
	return all
}
