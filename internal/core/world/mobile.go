package world

import (
	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/geometry"
)

// Mobile is an object that runs under its own speed and can be pushed by a
// force.
type Mobile struct {
	Entity

	// Collided fires with the other object whenever this object takes part in
	// a collision, as mover or as target.
	Collided signal.Event[Object]

	moving    bool
	speed     float64
	direction float64

	force         geometry.Vec2
	forceStrength float64
	forceAccel    float64
	forceDuration float64
}

func newMobile(kind Kind, shape geometry.Shape, speed float64) Mobile {
	return Mobile{Entity: newEntity(kind, shape, true), speed: speed}
}

func (m *Mobile) Moving() bool { return m.moving }
func (m *Mobile) MoveSpeed() float64 { return m.speed }
func (m *Mobile) MoveDirection() float64 { return m.direction }

// SetMoving starts or stops running in the direction rotation+direction.
func (m *Mobile) SetMoving(moving bool, direction float64) {
	if moving == m.moving && direction == m.direction {
		return
	}
	m.moving = moving
	m.direction = direction
	m.record(Delta{Kind: DeltaMovingChanged, Moving: moving, Direction: direction})
}

func (m *Mobile) SetMoveSpeed(speed float64) { m.speed = speed }

// ScaleSpeed multiplies the move speed, e.g. for slows and charges.
func (m *Mobile) ScaleSpeed(factor float64) { m.speed *= factor }

// UnscaleSpeed reverts a ScaleSpeed with the same factor.
func (m *Mobile) UnscaleSpeed(factor float64) { m.speed /= factor }

// Force returns the current force vector (direction times strength).
func (m *Mobile) Force() geometry.Vec2 {
	if m.forceDuration <= 0 {
		return geometry.Vec2{}
	}
	return m.force.Scale(m.forceStrength)
}

// ApplyForce pushes the object along dir. The strength grows by
// (1 + accel*dt) every update and the force clears once duration runs out.
func (m *Mobile) ApplyForce(dir geometry.Vec2, strength, accel, duration float64) {
	m.force = dir.Normalize()
	m.forceStrength = strength
	m.forceAccel = accel
	m.forceDuration = duration
	m.record(Delta{Kind: DeltaForceChanged, Force: m.Force()})
}

func (m *Mobile) ClearForce() {
	if m.forceDuration <= 0 && m.forceStrength == 0 {
		return
	}
	m.force = geometry.Vec2{}
	m.forceStrength, m.forceAccel, m.forceDuration = 0, 0, 0
	m.record(Delta{Kind: DeltaForceChanged})
}

func (m *Mobile) Update(dt float64) { m.integrate(dt) }

func (m *Mobile) Collide(other Object) { m.Collided.Fire(other) }

func (m *Mobile) integrate(dt float64) {
	if m.world == nil || !m.inWorld {
		return
	}
	self := m.Self()

	if m.forceDuration > 0 {
		m.world.Move(self, m.force.Scale(m.forceStrength*dt))
		m.forceStrength *= 1 + m.forceAccel*dt
		m.forceDuration -= dt
		if m.forceDuration <= 0 {
			m.ClearForce()
		}
	}

	if m.moving && m.speed > 0 && m.inWorld {
		heading := geometry.FromHeading(m.rotation + m.direction)
		m.world.Move(self, heading.Scale(m.speed*dt))
	}
}
