package ability

import (
	"math"

	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/world"
)

const (
	WaterPrimary   world.AbilityID = 401
	WaterGush      world.AbilityID = 402
	WaterTidalWave world.AbilityID = 403
	WaterIceBurst  world.AbilityID = 404
)

func init() {
	register(Info{ID: WaterPrimary, Name: "water_primary", Element: world.ElementWater, Cost: 20, Cooldown: 1},
		func(o *world.Player, i Info) Instance {
			return newBolt(o, i, boltStats{radius: 20, ttl: 20, speed: 200, damage: func(float64) float64 { return 15 }})
		})
	register(Info{ID: WaterGush, Name: "water_gush", Element: world.ElementWater, Cost: 30, Cooldown: 6},
		func(o *world.Player, i Info) Instance { return newDash(o, i, 25) })
	register(Info{ID: WaterTidalWave, Name: "tidal_wave", Element: world.ElementWater, Cost: 30, Cooldown: 5},
		func(o *world.Player, i Info) Instance { return newConeStrike(o, i, 90, math.Pi/2, 20) })
	register(Info{ID: WaterIceBurst, Name: "ice_burst", Element: world.ElementWater, Cost: 50, Cooldown: 15}, newIceBurst)
}

const (
	iceDuration = 1
	iceDamage   = 35
	iceRadius   = 30
)

// IceBurst freezes the owner in place, invulnerable, then shatters and
// damages every player nearby.
type IceBurst struct {
	base
	left float64
	Hits []*world.Player
}

func newIceBurst(owner *world.Player, info Info) Instance {
	a := &IceBurst{left: iceDuration}
	a.base = newBase(owner, info, a)
	return a
}

func (a *IceBurst) Run() {
	a.base.Run()
	a.owner.SetInvulnerable(true)
	a.owner.SetImmobilized(true)
}

func (a *IceBurst) Update(dt float64) {
	a.left -= dt
	if a.left > 0 {
		return
	}
	a.release()
	a.Hits = strike(&a.base, geometry.NewCircle(iceRadius), a.owner.Position(), iceDamage)
	a.Expire()
}

func (a *IceBurst) Expire() {
	if !a.active {
		return
	}
	a.release()
	a.base.Expire()
}

func (a *IceBurst) release() {
	a.owner.SetInvulnerable(false)
	a.owner.SetImmobilized(false)
}
