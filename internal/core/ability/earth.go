package ability

import (
	"math"

	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/world"
)

const (
	EarthPrimary    world.AbilityID = 101
	EarthHook       world.AbilityID = 102
	EarthEarthquake world.AbilityID = 103
	EarthPowerSwing world.AbilityID = 104
)

func init() {
	register(Info{ID: EarthPrimary, Name: "earth_primary", Element: world.ElementEarth, Cost: 20, Cooldown: 1},
		func(o *world.Player, i Info) Instance { return newConeStrike(o, i, o.Radius()+8, math.Pi/2, 25) })
	register(Info{ID: EarthHook, Name: "hook", Element: world.ElementEarth, Cost: 50, Cooldown: 4}, newHook)
	register(Info{ID: EarthEarthquake, Name: "earthquake", Element: world.ElementEarth, Cost: 50, Cooldown: 6}, newEarthquake)
	register(Info{ID: EarthPowerSwing, Name: "power_swing", Element: world.ElementEarth, Cost: 30, Cooldown: 4},
		func(o *world.Player, i Info) Instance { return newConeStrike(o, i, 10, math.Pi/2, 50) })
}

// ConeStrike hits every player in a cone in front of the owner once and
// expires immediately.
type ConeStrike struct {
	base
	radius float64
	angle  float64
	damage float64

	Hits []*world.Player
}

func newConeStrike(owner *world.Player, info Info, radius, angle, damage float64) Instance {
	a := &ConeStrike{radius: radius, angle: angle, damage: damage}
	a.base = newBase(owner, info, a)
	return a
}

func (a *ConeStrike) Run() {
	a.base.Run()
	a.Hits = strike(&a.base, forwardCone(a.owner, a.radius, a.angle), a.owner.Position(), a.damage)
	a.Expire()
}

const (
	hookDamage     = 10
	hookSpeed      = 200
	hookRadius     = 12
	hookTTL        = 0.5
	hookRetraction = 200
	hookRelease    = 8
)

// Hook throws a projectile. A player it hits is pulled towards the owner
// until the two touch or the target dies.
type Hook struct {
	base

	Projectile *world.Projectile
	target     *world.Player
	died       *signal.Subscription
}

func newHook(owner *world.Player, info Info) Instance {
	a := &Hook{}
	a.base = newBase(owner, info, a)
	return a
}

// Target returns the hooked player, if any.
func (a *Hook) Target() *world.Player { return a.target }

func (a *Hook) Run() {
	a.base.Run()
	p := world.NewProjectile(a.owner, hookRadius, hookTTL, hookSpeed)
	p.Collided.Subscribe(a.onCollided)
	p.Expired.Once(func(*world.Projectile) {
		if a.target == nil {
			a.Expire()
		}
	})
	a.Projectile = p
	a.world().Add(p)
}

func (a *Hook) onCollided(o world.Object) {
	t, ok := o.(*world.Player)
	if !ok || !a.active || a.target != nil || t.Hooked() || !a.master() {
		return
	}
	a.target = t
	t.SetHooked(true)
	a.died = t.Died.Subscribe(func(*world.Player) { a.Expire() })
	t.ApplyDamage(hookDamage, a.owner, a.info.ID)
}

func (a *Hook) Update(float64) {
	t := a.target
	if t == nil || !a.master() {
		return
	}
	if !t.InWorld() {
		a.Expire()
		return
	}
	if geometry.Overlap(geometry.NewCircle(hookRelease), t.Position(), a.owner.Shape(), a.owner.Position()) {
		a.Expire()
		return
	}
	t.ApplyForce(a.owner.Position().Sub(t.Position()), hookRetraction, 0, math.Inf(1))
}

func (a *Hook) Expire() {
	if !a.active {
		return
	}
	if t := a.target; t != nil {
		a.died.Unsubscribe()
		t.SetHooked(false)
		t.ClearForce()
	}
	a.base.Expire()
	if a.Projectile != nil {
		a.Projectile.Expire()
	}
}

const (
	quakeDamage   = 7
	quakeDuration = 2
	quakeTick     = 0.5
	quakeRadius   = 50
	quakeSlow     = 0.5
	quakeSlowTime = 1.5
)

type slow struct {
	target *world.Player
	timer  *signal.Scheduler
}

// Earthquake damages and slows players around the cast position every tick.
// Each hit starts a slow timer that outlives the instance; the slow lifts
// when the last timer for a target fires.
type Earthquake struct {
	base

	center  geometry.Vec2
	lived   float64
	ticks   int
	slows   []*slow
	updated *signal.Subscription
}

func newEarthquake(owner *world.Player, info Info) Instance {
	a := &Earthquake{center: owner.Position()}
	a.base = newBase(owner, info, a)
	return a
}

func (a *Earthquake) Run() {
	a.base.Run()
	a.updated = a.world().Updated.Subscribe(a.advanceSlows)
}

func (a *Earthquake) Update(dt float64) {
	a.lived += dt
	if a.lived >= quakeDuration {
		a.Expire()
		return
	}
	if !a.master() || a.lived < float64(a.ticks)*quakeTick {
		return
	}
	a.ticks++
	for _, p := range playersIn(a.owner, geometry.NewCircle(quakeRadius), a.center) {
		p.ApplyDamage(quakeDamage, a.owner, a.info.ID)
		if !a.slowed(p) {
			p.ScaleSpeed(quakeSlow)
		}
		s := &slow{target: p, timer: signal.NewScheduler(quakeSlowTime)}
		s.timer.Fired.Once(func(*signal.Scheduler) { a.lift(s) })
		a.slows = append(a.slows, s)
	}
}

// Slowed reports how many slow timers are still running.
func (a *Earthquake) Slowed() int { return len(a.slows) }

func (a *Earthquake) advanceSlows(dt float64) {
	for _, s := range append([]*slow(nil), a.slows...) {
		s.timer.AddTime(dt)
	}
	if len(a.slows) == 0 && !a.active {
		a.updated.Unsubscribe()
	}
}

func (a *Earthquake) lift(s *slow) {
	for i, x := range a.slows {
		if x == s {
			a.slows = append(a.slows[:i], a.slows[i+1:]...)
			break
		}
	}
	if !a.slowed(s.target) {
		s.target.UnscaleSpeed(quakeSlow)
	}
}

func (a *Earthquake) slowed(p *world.Player) bool {
	for _, s := range a.slows {
		if s.target == p {
			return true
		}
	}
	return false
}
