package world

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/observability/log"
)

// World is the object registry and clock of one simulation instance.
//
// A World is not safe for concurrent use. Exactly one master world mutates
// authoritative player state; follower worlds only predict.
type World struct {
	objects map[ObjectID]Object
	order   []ObjectID
	nextID  ObjectID

	time   float64
	master bool

	journal []Delta
	logger  log.Log

	// Updated fires with dt after every object has been updated.
	Updated       signal.Event[float64]
	ObjectAdded   signal.Event[Object]
	ObjectRemoved signal.Event[Object]
}

type Option func(*World)

func WithLogger(l log.Log) Option {
	return func(w *World) { w.logger = l }
}

// New creates an empty world. master selects authoritative execution.
func New(master bool, opts ...Option) *World {
	w := &World{
		objects: make(map[ObjectID]Object),
		master:  master,
		logger:  log.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Master() bool { return w.master }
func (w *World) Time() float64 { return w.time }
func (w *World) Logger() log.Log { return w.logger }
func (w *World) Len() int { return len(w.order) }

// Add registers o under a fresh id and returns it. Adding an object that is
// already registered returns its current id.
func (w *World) Add(o Object) ObjectID {
	e := o.Base()
	if e.inWorld && e.world == w {
		return e.id
	}
	for {
		w.nextID++
		if _, taken := w.objects[w.nextID]; !taken {
			break
		}
	}
	w.insert(o, w.nextID)
	return e.id
}

// AddWithID registers o under a caller-chosen id, e.g. a player re-entering
// after respawn or a follower mirroring the master's ids.
func (w *World) AddWithID(o Object, id ObjectID) error {
	e := o.Base()
	if e.inWorld {
		return fmt.Errorf("add object %d: %w", id, ErrAlreadyInWorld)
	}
	if _, taken := w.objects[id]; taken {
		return fmt.Errorf("add object %d: %w", id, ErrDuplicateID)
	}
	w.insert(o, id)
	return nil
}

func (w *World) insert(o Object, id ObjectID) {
	e := o.Base()
	e.id = id
	e.world = w
	e.self = o
	e.inWorld = true

	w.objects[id] = o
	w.order = append(w.order, id)

	e.record(added(o))
	w.ObjectAdded.Fire(o)
}

func added(o Object) Delta {
	e := o.Base()
	d := Delta{
		Kind:       DeltaObjectAdded,
		Object:     e.id,
		Position:   e.position,
		Rotation:   e.rotation,
		ObjectKind: e.kind,
	}
	if c, ok := e.shape.(*geometry.Circle); ok {
		d.Radius = c.Radius
	}
	if desc, ok := o.(interface{ describe(*Delta) }); ok {
		desc.describe(&d)
	}
	return d
}

// Snapshot describes every registered object as an ObjectAdded delta, for
// observers that join late.
func (w *World) Snapshot() []Delta {
	out := make([]Delta, 0, len(w.order))
	for _, id := range w.order {
		d := added(w.objects[id])
		d.Time = w.time
		out = append(out, d)
	}
	return out
}

// Remove unregisters the object with the given id. It takes effect
// immediately, including for an update pass in progress.
func (w *World) Remove(id ObjectID) error {
	o, ok := w.objects[id]
	if !ok {
		return fmt.Errorf("remove object %d: %w", id, ErrObjectNotFound)
	}
	e := o.Base()
	e.record(Delta{Kind: DeltaObjectRemoved})
	e.inWorld = false

	delete(w.objects, id)
	if i := slices.Index(w.order, id); i >= 0 {
		w.order = slices.Delete(w.order, i, i+1)
	}
	w.ObjectRemoved.Fire(o)
	return nil
}

func (w *World) Get(id ObjectID) (Object, bool) {
	o, ok := w.objects[id]
	return o, ok
}

// Player returns the registered player with the given id.
func (w *World) Player(id ObjectID) (*Player, bool) {
	p, ok := w.objects[id].(*Player)
	return p, ok
}

// Objects returns a snapshot of the registered objects in insertion order.
func (w *World) Objects() []Object {
	out := make([]Object, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.objects[id])
	}
	return out
}

// Update advances the clock by dt and updates every object registered when the
// pass starts. Objects removed during the pass are skipped.
func (w *World) Update(dt float64) {
	w.time += dt
	for _, o := range w.Objects() {
		if !o.Base().inWorld {
			continue
		}
		o.Update(dt)
	}
	w.Updated.Fire(dt)
}

// GetColliders returns the shaped objects touching shape placed at pos, in
// insertion order. A zero filter matches every kind.
func (w *World) GetColliders(shape geometry.Shape, pos geometry.Vec2, filter Kind, ignored ...Object) []Object {
	var out []Object
	box := shape.Bounds(pos)
	for _, id := range w.order {
		o := w.objects[id]
		e := o.Base()
		if e.shape == nil || (filter != 0 && e.kind != filter) {
			continue
		}
		if slices.ContainsFunc(ignored, func(i Object) bool { return i != nil && i.Base() == e }) {
			continue
		}
		if !box.Intersects(e.shape.Bounds(e.position)) {
			continue
		}
		if touches(shape, pos, e.shape, e.position) {
			out = append(out, o)
		}
	}
	return out
}

// touches is Overlap with rectangles always on the query side, so a query
// centered inside a pillar counts as a hit.
func touches(a geometry.Shape, pa geometry.Vec2, b geometry.Shape, pb geometry.Vec2) bool {
	if _, ok := b.(*geometry.Rectangle); ok {
		return geometry.Overlap(b, pb, a, pa)
	}
	return geometry.Overlap(a, pa, b, pb)
}

// Record appends d to the delta journal, stamping it with the world time.
func (w *World) Record(d Delta) {
	d.Time = w.time
	w.journal = append(w.journal, d)
}

// Drain returns and clears the delta journal.
func (w *World) Drain() []Delta {
	out := w.journal
	w.journal = nil
	return out
}

// Checksum hashes the authoritative state of every registered player: health,
// power, score and cooldown timestamps, ordered by id.
func (w *World) Checksum() uint64 {
	players := make([]*Player, 0, len(w.order))
	for _, id := range w.order {
		if p, ok := w.objects[id].(*Player); ok {
			players = append(players, p)
		}
	}
	return Checksum(players...)
}

// Checksum hashes the authoritative state of players in id order, whether or
// not they are currently in a world.
func Checksum(players ...*Player) uint64 {
	players = slices.Clone(players)
	slices.SortFunc(players, func(a, b *Player) int { return cmp.Compare(a.id, b.id) })

	h := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	for _, p := range players {
		put(uint64(p.id))
		put(math.Float64bits(p.health))
		put(math.Float64bits(p.power))
		put(uint64(int64(p.score)))
		put(math.Float64bits(p.lastAbility))
		keys := make([]AbilityID, 0, len(p.cooldowns))
		for k := range p.cooldowns {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			put(uint64(k))
			put(math.Float64bits(p.cooldowns[k]))
		}
	}
	return h.Sum64()
}
