package world

import (
	"github.com/zeusync/arena/internal/core/geometry"
)

type ObjectID uint32

// Kind classifies objects for collision queries.
type Kind uint8

const (
	KindWall Kind = iota + 1
	KindPlayer
	KindProjectile
)

func (k Kind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindPlayer:
		return "player"
	case KindProjectile:
		return "projectile"
	default:
		return "unknown"
	}
}

// Object is anything the world can hold. Concrete objects embed Entity (or a
// type that embeds it) and override Update and Collide as needed.
type Object interface {
	Base() *Entity
	Update(dt float64)
	Collide(other Object)
}

// Entity carries the state shared by every object.
type Entity struct {
	id       ObjectID
	kind     Kind
	position geometry.Vec2
	rotation float64
	passable bool
	shape    geometry.Shape

	world   *World
	self    Object
	inWorld bool
}

func newEntity(kind Kind, shape geometry.Shape, passable bool) Entity {
	return Entity{kind: kind, shape: shape, passable: passable}
}

func (e *Entity) Base() *Entity { return e }
func (e *Entity) Update(float64) {}
func (e *Entity) Collide(Object) {}
func (e *Entity) ID() ObjectID { return e.id }
func (e *Entity) Kind() Kind { return e.kind }
func (e *Entity) Position() geometry.Vec2 { return e.position }
func (e *Entity) Rotation() float64 { return e.rotation }
func (e *Entity) Passable() bool { return e.passable }
func (e *Entity) Shape() geometry.Shape { return e.shape }

// World returns the world the object was last added to, or nil.
func (e *Entity) World() *World { return e.world }

// InWorld reports whether the object is currently registered.
func (e *Entity) InWorld() bool { return e.inWorld }

// Self returns the concrete object that embeds this entity.
func (e *Entity) Self() Object {
	if e.self == nil {
		return e
	}
	return e.self
}

// SetPosition places the object without collision checks.
func (e *Entity) SetPosition(p geometry.Vec2) {
	if p == e.position {
		return
	}
	e.position = p
	e.record(Delta{Kind: DeltaPositionChanged, Position: p})
}

func (e *Entity) SetRotation(r float64) {
	if r == e.rotation {
		return
	}
	e.rotation = r
	e.record(Delta{Kind: DeltaRotationChanged, Rotation: r})
}

func (e *Entity) Rotate(dr float64) { e.SetRotation(e.rotation + dr) }

// Heading returns the unit vector the object faces.
func (e *Entity) Heading() geometry.Vec2 { return geometry.FromHeading(e.rotation) }

func (e *Entity) record(d Delta) {
	if e.world == nil || !e.inWorld {
		return
	}
	d.Object = e.id
	e.world.Record(d)
}

// Wall is an impassable static obstacle: a segment or a rectangular pillar.
type Wall struct {
	Entity
}

func NewWall(shape geometry.Shape, pos geometry.Vec2) *Wall {
	w := &Wall{Entity: newEntity(KindWall, shape, false)}
	w.position = pos
	return w
}
