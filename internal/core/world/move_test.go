package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/geometry"
)

func newTestPlayer(w *World, pos geometry.Vec2) *Player {
	p := NewPlayer("p", ElementEarth, DefaultTuning())
	p.position = pos
	w.Add(p)
	return p
}

func verticalWall(w *World, x float64) *Wall {
	wall := NewWall(geometry.NewSegment(geometry.V(0, -50), geometry.V(0, 50), geometry.V(-1, 0)), geometry.V(x, 0))
	w.Add(wall)
	return wall
}

func TestMove_StopsAgainstWall(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	wall := verticalWall(w, 10)

	var hits []Object
	p.Collided.Subscribe(func(o Object) { hits = append(hits, o) })

	w.Move(p, geometry.V(10, 0))

	assert.InDelta(t, 10-6-geometry.Spacing, p.Position().X, 1e-9)
	assert.InDelta(t, 0, p.Position().Z, 1e-9)
	require.Len(t, hits, 1, "the wall collision survives the recursive slide")
	assert.Same(t, wall, hits[0])
	assert.False(t, geometry.Overlap(p.Shape(), p.Position(), wall.Shape(), wall.Position()))
}

func TestMove_SlidesAlongWall(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	wall := verticalWall(w, 10)

	w.Move(p, geometry.V(10, 5))

	assert.InDelta(t, 10-6-geometry.Spacing, p.Position().X, 1e-9)
	assert.InDelta(t, 5, p.Position().Z, 1e-9, "tangential component is kept")
	assert.False(t, geometry.Overlap(p.Shape(), p.Position(), wall.Shape(), wall.Position()))
}

func TestMove_TunnelingAborts(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	wall := verticalWall(w, 10)

	var hits []Object
	p.Collided.Subscribe(func(o Object) { hits = append(hits, o) })

	w.Move(p, geometry.V(30, 0))

	assert.Equal(t, geometry.V(0, 0), p.Position(), "jumping across a wall leaves the mover in place")
	require.Len(t, hits, 1)
	assert.Same(t, wall, hits[0])
}

func TestMove_PassableTargetsAreRecorded(t *testing.T) {
	w := New(true)
	mover := newTestPlayer(w, geometry.V(0, 0))
	other := newTestPlayer(w, geometry.V(15, 0))

	var order []string
	mover.Collided.Subscribe(func(Object) { order = append(order, "mover") })
	other.Collided.Subscribe(func(Object) { order = append(order, "other") })

	w.Move(mover, geometry.V(10, 0))

	assert.Equal(t, geometry.V(10, 0), mover.Position(), "players do not block each other")
	assert.Equal(t, []string{"mover", "other"}, order)
}

func TestMove_SlidesOffPillar(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	pillar := NewWall(geometry.NewRectangle(20, 20, 0), geometry.V(30, 0))
	w.Add(pillar)

	w.Move(p, geometry.V(18, 3))

	assert.InDelta(t, 20-6-geometry.Spacing, p.Position().X, 1e-9)
	assert.InDelta(t, 3, p.Position().Z, 1e-9)
}

func TestMove_TwoWallCorner(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	verticalWall(w, 10)
	floor := NewWall(geometry.NewSegment(geometry.V(-50, 0), geometry.V(50, 0), geometry.V(0, -1)), geometry.V(0, 10))
	w.Add(floor)

	w.Move(p, geometry.V(8, 8))

	want := 10 - 6 - geometry.Spacing
	assert.InDelta(t, want, p.Position().X, 1e-9)
	assert.InDelta(t, want, p.Position().Z, 1e-9)
}

func TestMove_IgnoresObjectsOutsideWorld(t *testing.T) {
	w := New(true)
	p := NewPlayer("ghost", ElementAir, DefaultTuning())

	w.Move(p, geometry.V(5, 5))
	assert.Equal(t, geometry.Vec2{}, p.Position())
}
