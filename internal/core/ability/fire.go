package ability

import (
	"math"

	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/world"
)

const (
	FirePrimary    world.AbilityID = 201
	FireFlameRush  world.AbilityID = 202
	FireLavaSplash world.AbilityID = 203
	FireRingOfFire world.AbilityID = 204
)

func init() {
	register(Info{ID: FirePrimary, Name: "fire_primary", Element: world.ElementFire, Cost: 20, Cooldown: 1},
		func(o *world.Player, i Info) Instance { return newConeStrike(o, i, o.Radius()+8, math.Pi/2, 18) })
	register(Info{ID: FireFlameRush, Name: "flame_rush", Element: world.ElementFire, Cost: 30, Cooldown: 6}, newFlameRush)
	register(Info{ID: FireLavaSplash, Name: "lava_splash", Element: world.ElementFire, Cost: 30, Cooldown: 6}, newLavaSplash)
	register(Info{ID: FireRingOfFire, Name: "ring_of_fire", Element: world.ElementFire, Cost: 50, Cooldown: 10}, newRingOfFire)
}

const (
	rushMultiplier = 3
	rushDamage     = 20
	rushDuration   = 0.5
	rushRadius     = 12
)

// FlameRush makes the owner charge for a short time. Running into a wall or
// a player ends the charge early with a burst around the owner.
type FlameRush struct {
	base

	// Impact fires with the players caught in the burst when the charge is
	// interrupted by a collision.
	Impact signal.Event[[]*world.Player]

	timer    *signal.Scheduler
	collided *signal.Subscription
	scaled   bool
}

func newFlameRush(owner *world.Player, info Info) Instance {
	a := &FlameRush{timer: signal.NewScheduler(rushDuration)}
	a.base = newBase(owner, info, a)
	a.timer.Fired.Once(func(*signal.Scheduler) { a.Expire() })
	return a
}

func (a *FlameRush) Run() {
	a.base.Run()
	a.owner.SetCharging(true)
	if a.master() {
		a.owner.ScaleSpeed(rushMultiplier)
		a.scaled = true
	}
	a.collided = a.owner.Collided.Subscribe(a.onCollided)
}

func (a *FlameRush) onCollided(o world.Object) {
	if !a.active {
		return
	}
	if o.Base().Passable() && o.Base().Kind() != world.KindPlayer {
		return
	}
	hits := strike(&a.base, geometry.NewCircle(rushRadius), a.owner.Position(), rushDamage)
	a.Impact.Fire(hits)
	a.Expire()
}

func (a *FlameRush) Update(dt float64) { a.timer.AddTime(dt) }

func (a *FlameRush) Expire() {
	if !a.active {
		return
	}
	a.collided.Unsubscribe()
	a.owner.SetCharging(false)
	if a.scaled {
		a.owner.UnscaleSpeed(rushMultiplier)
		a.scaled = false
	}
	a.base.Expire()
}

// LavaSplash hits every player around the owner once.
type LavaSplash struct {
	base
	Hits []*world.Player
}

func newLavaSplash(owner *world.Player, info Info) Instance {
	a := &LavaSplash{}
	a.base = newBase(owner, info, a)
	return a
}

func (a *LavaSplash) Run() {
	a.base.Run()
	a.Hits = strike(&a.base, geometry.NewCircle(30), a.owner.Position(), 25)
	a.Expire()
}

const (
	ringDamage    = 25
	ringDuration  = 3
	ringRadius    = 96
	ringThickness = 8
	ringTick      = 1
)

// RingOfFire burns players standing in a band around the cast position.
// A player is hit at most once per tick.
type RingOfFire struct {
	base

	center  geometry.Vec2
	left    float64
	lastHit map[world.ObjectID]float64
}

func newRingOfFire(owner *world.Player, info Info) Instance {
	a := &RingOfFire{
		center:  owner.Position(),
		left:    ringDuration,
		lastHit: make(map[world.ObjectID]float64),
	}
	a.base = newBase(owner, info, a)
	return a
}

func (a *RingOfFire) Update(dt float64) {
	a.left -= dt
	if a.left <= 0 {
		a.Expire()
		return
	}
	if !a.master() {
		return
	}
	now := a.world().Time()
	for _, p := range playersIn(a.owner, geometry.NewCircle(ringRadius+ringThickness), a.center) {
		if p.Position().Dist(a.center)+p.Radius() <= ringRadius-ringThickness {
			continue
		}
		if last, ok := a.lastHit[p.ID()]; ok && now-last+timeEpsilon < ringTick {
			continue
		}
		a.lastHit[p.ID()] = now
		p.ApplyDamage(ringDamage, a.owner, a.info.ID)
	}
}
