package world

import (
	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/geometry"
)

// Projectile flies forward from its owner until its time to live runs out or
// it hits something other than its owner or another projectile.
type Projectile struct {
	Mobile

	Expired signal.Event[*Projectile]

	owner   *Player
	ttl     float64
	expired bool
}

// NewProjectile creates a projectile at the owner's position facing the
// owner's rotation. It still has to be added to the world.
func NewProjectile(owner *Player, radius, ttl, speed float64) *Projectile {
	p := &Projectile{
		Mobile: newMobile(KindProjectile, geometry.NewCircle(radius), speed),
		owner:  owner,
		ttl:    ttl,
	}
	p.position = owner.position
	p.rotation = owner.rotation
	p.moving = speed > 0
	return p
}

func (p *Projectile) Owner() *Player { return p.owner }
func (p *Projectile) TimeToLive() float64 { return p.ttl }
func (p *Projectile) IsExpired() bool { return p.expired }

// SetMoveSpeed also starts the projectile when the speed becomes positive.
func (p *Projectile) SetMoveSpeed(speed float64) {
	p.speed = speed
	p.moving = speed > 0
}

func (p *Projectile) Update(dt float64) {
	if p.expired {
		return
	}
	p.ttl -= dt
	if p.ttl <= 0 {
		p.Expire()
		return
	}
	p.integrate(dt)
}

func (p *Projectile) Collide(other Object) {
	if p.expired {
		return
	}
	ob := other.Base()
	if ob.kind == KindProjectile || (p.owner != nil && ob == &p.owner.Entity) {
		return
	}
	p.Collided.Fire(other)
	p.Expire()
}

// Expire removes the projectile from the world. Calling it again is a no-op.
func (p *Projectile) Expire() {
	if p.expired {
		return
	}
	p.expired = true
	if p.inWorld {
		_ = p.world.Remove(p.id)
	}
	p.Expired.Fire(p)
}

func (p *Projectile) describe(d *Delta) {
	if p.owner != nil {
		d.Source = p.owner.id
	}
}
