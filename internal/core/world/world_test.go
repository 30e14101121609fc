package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/geometry"
)

type probe struct {
	Entity
	updates  int
	onUpdate func()
}

func newProbe() *probe {
	return &probe{Entity: newEntity(KindWall, nil, false)}
}

func (p *probe) Update(float64) {
	p.updates++
	if p.onUpdate != nil {
		p.onUpdate()
	}
}

func TestWorld_AddAssignsUniqueIDs(t *testing.T) {
	w := New(true)
	a, b := newProbe(), newProbe()

	idA := w.Add(a)
	idB := w.Add(b)

	assert.NotEqual(t, idA, idB)
	assert.Equal(t, idA, w.Add(a), "re-adding returns the current id")
	assert.Equal(t, 2, w.Len())

	got, ok := w.Get(idB)
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestWorld_AddWithID(t *testing.T) {
	w := New(true)
	a := newProbe()
	require.NoError(t, w.AddWithID(a, 7))
	assert.Equal(t, ObjectID(7), a.ID())

	err := w.AddWithID(newProbe(), 7)
	assert.ErrorIs(t, err, ErrDuplicateID)

	err = w.AddWithID(a, 8)
	assert.ErrorIs(t, err, ErrAlreadyInWorld)

	require.NoError(t, w.Remove(7))
	assert.NoError(t, w.AddWithID(newProbe(), 7), "ids are reusable after removal")
}

func TestWorld_RemoveUnknown(t *testing.T) {
	w := New(true)
	assert.ErrorIs(t, w.Remove(42), ErrObjectNotFound)
}

func TestWorld_UpdateSkipsObjectsRemovedMidPass(t *testing.T) {
	w := New(true)
	a, b := newProbe(), newProbe()
	w.Add(a)
	w.Add(b)
	a.onUpdate = func() { _ = w.Remove(b.ID()) }

	var fired float64
	w.Updated.Subscribe(func(dt float64) { fired = dt })

	w.Update(0.05)

	assert.Equal(t, 1, a.updates)
	assert.Equal(t, 0, b.updates)
	assert.InDelta(t, 0.05, w.Time(), 1e-12)
	assert.Equal(t, 0.05, fired)
}

func TestWorld_ObjectsKeepInsertionOrder(t *testing.T) {
	w := New(true)
	var ids []ObjectID
	for i := 0; i < 5; i++ {
		ids = append(ids, w.Add(newProbe()))
	}
	require.NoError(t, w.Remove(ids[2]))

	var got []ObjectID
	for _, o := range w.Objects() {
		got = append(got, o.Base().ID())
	}
	assert.Equal(t, []ObjectID{ids[0], ids[1], ids[3], ids[4]}, got)
}

func TestWorld_GetColliders(t *testing.T) {
	w := New(true)
	self := newTestPlayer(w, geometry.V(0, 0))
	near := newTestPlayer(w, geometry.V(10, 0))
	newTestPlayer(w, geometry.V(100, 0))
	wall := verticalWall(w, 12)
	pillar := NewWall(geometry.NewRectangle(40, 40, 0), geometry.V(0, -40))
	w.Add(pillar)

	query := geometry.NewCircle(8)

	all := w.GetColliders(query, geometry.V(5, 0), 0, self)
	assert.Equal(t, []Object{near, wall}, all)

	players := w.GetColliders(query, geometry.V(5, 0), KindPlayer, self)
	assert.Equal(t, []Object{near}, players)

	inside := w.GetColliders(geometry.NewCircle(1), geometry.V(0, -40), KindWall)
	assert.Equal(t, []Object{pillar}, inside, "a query inside a pillar hits it")
}

func TestWorld_JournalRecordsDeltas(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))

	first := w.Drain()
	require.Len(t, first, 1)
	assert.Equal(t, DeltaObjectAdded, first[0].Kind)
	assert.Equal(t, KindPlayer, first[0].ObjectKind)
	assert.Equal(t, "p", first[0].Name)
	assert.Equal(t, 6.0, first[0].Radius)

	p.SetRotation(math.Pi / 2)
	p.SetPosition(geometry.V(1, 2))
	require.NoError(t, w.Remove(p.ID()))

	kinds := []DeltaKind{}
	for _, d := range w.Drain() {
		assert.Equal(t, p.ID(), d.Object)
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []DeltaKind{DeltaRotationChanged, DeltaPositionChanged, DeltaObjectRemoved}, kinds)
	assert.Empty(t, w.Drain())
}

func TestWorld_ChecksumTracksAuthoritativeState(t *testing.T) {
	a, b := New(true), New(true)
	pa := newTestPlayer(a, geometry.V(0, 0))
	pb := newTestPlayer(b, geometry.V(50, 50))

	assert.Equal(t, a.Checksum(), b.Checksum(), "positions are not authoritative state")

	pa.ApplyDamage(10, nil, 101)
	assert.NotEqual(t, a.Checksum(), b.Checksum())

	pb.ApplyDamage(10, nil, 101)
	assert.Equal(t, a.Checksum(), b.Checksum())

	pa.MarkUsed(101, 1.5)
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestWorld_SnapshotDescribesEveryObject(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(1, 1))
	wall := verticalWall(w, 10)
	w.Update(0.5)

	snap := w.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, p.ID(), snap[0].Object)
	assert.Equal(t, KindPlayer, snap[0].ObjectKind)
	assert.Equal(t, ElementEarth, snap[0].Element)
	assert.Equal(t, wall.ID(), snap[1].Object)
	assert.Equal(t, KindWall, snap[1].ObjectKind)
	assert.Equal(t, 0.5, snap[1].Time)
}

func TestChecksum_IncludesPlayersOutsideTheWorld(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	before := Checksum(p)
	require.NoError(t, w.Remove(p.ID()))

	assert.Equal(t, before, Checksum(p))
	assert.NotEqual(t, before, w.Checksum())
}
