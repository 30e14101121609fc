package ability

import (
	"fmt"

	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/world"
)

// Verdict is the outcome of an ability request. Denials are ordinary results,
// not errors.
type Verdict uint8

const (
	Granted Verdict = iota
	DeniedUnknown
	DeniedDead
	DeniedGlobalCooldown
	DeniedCooldown
	DeniedPower
)

func (v Verdict) String() string {
	switch v {
	case Granted:
		return "granted"
	case DeniedUnknown:
		return "unknown_ability"
	case DeniedDead:
		return "dead"
	case DeniedGlobalCooldown:
		return "global_cooldown"
	case DeniedCooldown:
		return "cooldown"
	case DeniedPower:
		return "insufficient_power"
	default:
		return "unknown"
	}
}

var tables = map[world.ElementKind][4]world.AbilityID{
	world.ElementEarth: {EarthPrimary, EarthHook, EarthEarthquake, EarthPowerSwing},
	world.ElementFire:  {FirePrimary, FireFlameRush, FireLavaSplash, FireRingOfFire},
	world.ElementAir:   {AirPrimary, AirGustOfWind, AirWindWhisk, AirLightningBolt},
	world.ElementWater: {WaterPrimary, WaterGush, WaterTidalWave, WaterIceBurst},
}

// Abilities returns the four ability ids of an element in slot order.
func Abilities(kind world.ElementKind) ([4]world.AbilityID, bool) {
	t, ok := tables[kind]
	return t, ok
}

// Element gates and creates the abilities of one player.
type Element struct {
	owner *world.Player
	kind  world.ElementKind
	slots [4]world.AbilityID
}

func NewElement(owner *world.Player) (*Element, error) {
	slots, ok := tables[owner.Element()]
	if !ok {
		return nil, fmt.Errorf("element %d: %w", owner.Element(), world.ErrUnknownElement)
	}
	return &Element{owner: owner, kind: owner.Element(), slots: slots}, nil
}

func (e *Element) Kind() world.ElementKind { return e.kind }
func (e *Element) Owner() *world.Player { return e.owner }
func (e *Element) Slots() [4]world.AbilityID { return e.slots }

// UseIndex uses the ability in slot index (1..4).
func (e *Element) UseIndex(index int) (Instance, Verdict) {
	if index < 1 || index > len(e.slots) {
		return nil, DeniedUnknown
	}
	return e.Use(e.slots[index-1])
}

// Requestable reports the verdict a UseIndex call would get now, without
// using anything.
func (e *Element) Requestable(index int) Verdict {
	if index < 1 || index > len(e.slots) {
		return DeniedUnknown
	}
	_, v := e.check(e.slots[index-1])
	return v
}

// Use runs ability id for the owner if the gate allows it. On success the
// use is stamped, the instance is tracked by the owner, run, and an
// AbilityUsed delta is recorded.
func (e *Element) Use(id world.AbilityID) (Instance, Verdict) {
	ent, v := e.check(id)
	if v != Granted {
		if w := e.owner.World(); w != nil {
			w.Logger().Debug("ability denied",
				log.Object(uint32(e.owner.ID())),
				log.Int("ability", int(id)),
				log.String("verdict", v.String()),
			)
		}
		return nil, v
	}

	w := e.owner.World()
	e.owner.MarkUsed(id, w.Time())
	w.Record(world.Delta{
		Kind:     world.DeltaAbilityUsed,
		Object:   e.owner.ID(),
		Ability:  id,
		Position: e.owner.Position(),
		Rotation: e.owner.Rotation(),
	})

	inst := ent.build(e.owner, ent.Info)
	e.owner.Track(inst)
	inst.Run()
	return inst, Granted
}

func (e *Element) check(id world.AbilityID) (entry, Verdict) {
	ent, ok := catalog[id]
	if !ok || !e.owns(id) {
		return entry{}, DeniedUnknown
	}
	p := e.owner
	if p.Dead() || !p.InWorld() {
		return entry{}, DeniedDead
	}
	now := p.World().Time()
	if last, ok := p.LastAbilityTime(); ok && now+timeEpsilon < last+GlobalCooldown {
		return entry{}, DeniedGlobalCooldown
	}
	if last, ok := p.LastUse(id); ok && now+timeEpsilon < last+ent.Cooldown {
		return entry{}, DeniedCooldown
	}
	if p.Power() < ent.Cost {
		return entry{}, DeniedPower
	}
	return ent, Granted
}

func (e *Element) owns(id world.AbilityID) bool {
	for _, s := range e.slots {
		if s == id {
			return true
		}
	}
	return false
}
