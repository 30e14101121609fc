// Package ability implements the per-element combat abilities and the gate
// that decides whether a player may use one.
//
// Every ability is an Instance driven through Run, zero or more Update calls
// and Expire. The same code runs on the master and on followers; anything that
// changes health, power, cooldowns, speed or score is guarded by
// world.Master().
package ability

import (
	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/world"
)

// GlobalCooldown is the minimum time between any two ability uses of one
// player, in seconds.
const GlobalCooldown = 0.5

// timeEpsilon lets a use scheduled exactly at last+cooldown through despite
// float drift in the accumulated world clock.
const timeEpsilon = 1e-9

// Instance is one use of an ability.
type Instance interface {
	world.Ability
	Run()
	Owner() *world.Player
}

// Info describes an ability.
type Info struct {
	ID       world.AbilityID
	Name     string
	Element  world.ElementKind
	Cost     float64
	Cooldown float64
}

type entry struct {
	Info
	build func(owner *world.Player, info Info) Instance
}

var catalog = map[world.AbilityID]entry{}

func register(info Info, build func(owner *world.Player, info Info) Instance) {
	catalog[info.ID] = entry{Info: info, build: build}
}

// Lookup returns the description of ability id.
func Lookup(id world.AbilityID) (Info, bool) {
	e, ok := catalog[id]
	return e.Info, ok
}

// base carries the state every instance shares. Concrete instances embed it
// and pass themselves as self so handlers see the concrete value.
type base struct {
	info    Info
	owner   *world.Player
	self    Instance
	active  bool
	expired signal.Event[world.Ability]
}

func newBase(owner *world.Player, info Info, self Instance) base {
	return base{info: info, owner: owner, self: self}
}

func (b *base) ID() world.AbilityID { return b.info.ID }
func (b *base) Info() Info { return b.info }
func (b *base) Owner() *world.Player { return b.owner }
func (b *base) Active() bool { return b.active }
func (b *base) Expired() *signal.Event[world.Ability] { return &b.expired }
func (b *base) Update(float64) {}

// Run activates the instance and, on the master, charges its power cost.
func (b *base) Run() {
	b.active = true
	b.owner.UsePower(b.info.Cost)
}

// Expire deactivates the instance. Only the first call fires Expired.
func (b *base) Expire() {
	if !b.active {
		return
	}
	b.active = false
	b.expired.Fire(b.self)
}

func (b *base) world() *world.World { return b.owner.World() }
func (b *base) master() bool { return b.owner.World().Master() }
