package ability

import (
	"math"

	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/world"
)

const (
	AirPrimary       world.AbilityID = 301
	AirGustOfWind    world.AbilityID = 302
	AirWindWhisk     world.AbilityID = 303
	AirLightningBolt world.AbilityID = 304
)

func init() {
	register(Info{ID: AirPrimary, Name: "air_primary", Element: world.ElementAir, Cost: 20, Cooldown: 1.5},
		func(o *world.Player, i Info) Instance {
			return newBolt(o, i, boltStats{radius: 10, ttl: 10, speed: 100, accel: 500, damage: func(speed float64) float64 {
				return math.Floor(speed / 10)
			}})
		})
	register(Info{ID: AirGustOfWind, Name: "gust_of_wind", Element: world.ElementAir, Cost: 30, Cooldown: 4}, newGust)
	register(Info{ID: AirWindWhisk, Name: "wind_whisk", Element: world.ElementAir, Cost: 30, Cooldown: 6},
		func(o *world.Player, i Info) Instance { return newDash(o, i, 0) })
	register(Info{ID: AirLightningBolt, Name: "lightning_bolt", Element: world.ElementAir, Cost: 50, Cooldown: 6}, newLightning)
}

type boltStats struct {
	radius float64
	ttl    float64
	speed  float64
	accel  float64
	damage func(speed float64) float64
}

// Bolt fires a projectile that damages the first player it hits. The
// instance ends with its projectile.
type Bolt struct {
	base
	stats      boltStats
	Projectile *world.Projectile
}

func newBolt(owner *world.Player, info Info, stats boltStats) Instance {
	a := &Bolt{stats: stats}
	a.base = newBase(owner, info, a)
	return a
}

func (a *Bolt) Run() {
	a.base.Run()
	p := world.NewProjectile(a.owner, a.stats.radius, a.stats.ttl, a.stats.speed)
	p.Collided.Subscribe(func(o world.Object) {
		t, ok := o.(*world.Player)
		if ok && a.master() {
			t.ApplyDamage(a.stats.damage(p.MoveSpeed()), a.owner, a.info.ID)
		}
	})
	p.Expired.Once(func(*world.Projectile) { a.Expire() })
	a.Projectile = p
	a.world().Add(p)
}

func (a *Bolt) Update(dt float64) {
	if a.stats.accel != 0 {
		a.Projectile.SetMoveSpeed(a.Projectile.MoveSpeed() + a.stats.accel*dt)
	}
}

func (a *Bolt) Expire() {
	if !a.active {
		return
	}
	a.base.Expire()
	a.Projectile.Expire()
}

const (
	gustStrength = 300
	gustAccel    = 1
	gustDuration = 0.5
	gustRadius   = 60
)

// Gust pushes the players in front of the owner away from it.
type Gust struct {
	base
	Targets []*world.Player
}

func newGust(owner *world.Player, info Info) Instance {
	a := &Gust{}
	a.base = newBase(owner, info, a)
	return a
}

func (a *Gust) Run() {
	a.base.Run()
	if a.master() {
		a.Targets = playersIn(a.owner, forwardCone(a.owner, gustRadius, 2*math.Pi/3), a.owner.Position())
		for _, p := range a.Targets {
			p.ApplyForce(p.Position().Sub(a.owner.Position()), gustStrength, gustAccel, gustDuration)
		}
	}
	a.Expire()
}

const (
	dashDistance = 100
	dashSamples  = 30
)

// Dash teleports the owner forward, stopping in front of the first wall on
// the way. With a positive damage every player passed through is hit once.
type Dash struct {
	base
	damage float64
	Steps  int
	Hits   []*world.Player
}

func newDash(owner *world.Player, info Info, damage float64) Instance {
	a := &Dash{damage: damage}
	a.base = newBase(owner, info, a)
	return a
}

func (a *Dash) Run() {
	a.base.Run()
	if a.master() {
		seen := make(map[*world.Player]struct{})
		a.Steps = teleport(a.owner, dashDistance, dashSamples, func(p *world.Player) {
			if _, ok := seen[p]; ok || a.damage <= 0 {
				return
			}
			seen[p] = struct{}{}
			a.Hits = append(a.Hits, p)
			p.ApplyDamage(a.damage, a.owner, a.info.ID)
		})
	}
	a.Expire()
}

const lightningRange = 100

// Lightning strikes the nearest player in range.
type Lightning struct {
	base
	Target *world.Player
}

func newLightning(owner *world.Player, info Info) Instance {
	a := &Lightning{}
	a.base = newBase(owner, info, a)
	return a
}

func (a *Lightning) Run() {
	a.base.Run()
	pos := a.owner.Position()
	a.Target = nearest(pos, playersIn(a.owner, geometry.NewCircle(lightningRange), pos))
	if a.Target != nil && a.master() {
		a.Target.ApplyDamage(20, a.owner, a.info.ID)
	}
	a.Expire()
}
