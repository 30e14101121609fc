// Package signal provides the synchronous observer primitives the simulation is
// wired with: a typed Event with explicit subscription handles and a
// single-shot countdown Scheduler.
//
// Nothing here is safe for concurrent use. The simulation mutates state from a
// single goroutine per tick, and so do the handlers it fires.
package signal

// Handler receives the value an Event is fired with.
type Handler[T any] func(T)

type entry[T any] struct {
	fn      Handler[T]
	removed bool
	// removedAt is the number of fires started when the entry was removed.
	// Only fires that started earlier still invoke it.
	removedAt uint64
}

// Event is an ordered set of handlers.
//
// Firing is reentrant-safe: a handler may subscribe, unsubscribe (itself or
// others) or fire the same event again. A handler removed while a fire is in
// progress is still invoked by that fire but by no fire started afterwards,
// nested ones included. Handlers subscribed during a fire are first invoked by
// the next one.
type Event[T any] struct {
	entries []*entry[T]
	depth   int
	dirty   bool
	fires   uint64
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	cancel func()
}

// Unsubscribe detaches the handler. Calling it more than once is a no-op, as
// is calling it on a nil Subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

// Active reports whether the handler is still attached.
func (s *Subscription) Active() bool {
	return s != nil && s.cancel != nil
}

// Subscribe appends fn to the handler list.
func (e *Event[T]) Subscribe(fn Handler[T]) *Subscription {
	en := &entry[T]{fn: fn}
	e.entries = append(e.entries, en)
	return &Subscription{cancel: func() { e.remove(en) }}
}

// Once subscribes fn so that it detaches itself after its first invocation.
func (e *Event[T]) Once(fn Handler[T]) *Subscription {
	var sub *Subscription
	sub = e.Subscribe(func(v T) {
		sub.Unsubscribe()
		fn(v)
	})
	return sub
}

// Fire invokes every handler that was attached when the fire started, in
// subscription order.
func (e *Event[T]) Fire(v T) {
	n := len(e.entries)
	seq := e.fires
	e.fires++
	e.depth++
	for i := 0; i < n; i++ {
		en := e.entries[i]
		if en.fn == nil || (en.removed && en.removedAt <= seq) {
			continue
		}
		en.fn(v)
	}
	e.depth--
	if e.depth == 0 && e.dirty {
		e.compact()
	}
}

// Len returns the number of attached handlers, excluding ones whose removal
// is still pending.
func (e *Event[T]) Len() int {
	n := 0
	for _, en := range e.entries {
		if !en.removed {
			n++
		}
	}
	return n
}

// Clear detaches every handler.
func (e *Event[T]) Clear() {
	for _, en := range e.entries {
		e.remove(en)
	}
}

func (e *Event[T]) remove(en *entry[T]) {
	if en.removed {
		return
	}
	en.removed = true
	en.removedAt = e.fires
	if e.depth > 0 {
		e.dirty = true
		return
	}
	e.compact()
}

func (e *Event[T]) compact() {
	kept := e.entries[:0]
	for _, en := range e.entries {
		if en.removed {
			en.fn = nil
			continue
		}
		kept = append(kept, en)
	}
	for i := len(kept); i < len(e.entries); i++ {
		e.entries[i] = nil
	}
	e.entries = kept
	e.dirty = false
}
