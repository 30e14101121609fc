package world

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/observability/log"
)

type ElementKind uint8

const (
	ElementEarth ElementKind = iota + 1
	ElementFire
	ElementAir
	ElementWater
)

func (e ElementKind) String() string {
	switch e {
	case ElementEarth:
		return "earth"
	case ElementFire:
		return "fire"
	case ElementAir:
		return "air"
	case ElementWater:
		return "water"
	default:
		return "unknown"
	}
}

func ParseElement(s string) (ElementKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "earth":
		return ElementEarth, nil
	case "fire":
		return ElementFire, nil
	case "air":
		return ElementAir, nil
	case "water":
		return ElementWater, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownElement)
}

type AbilityID uint16

// Ability is the part of an ability instance its owner drives.
type Ability interface {
	ID() AbilityID
	Active() bool
	Update(dt float64)
	Expire()
	Expired() *signal.Event[Ability]
}

// Tuning holds the per-player constants.
type Tuning struct {
	MaxHealth   float64 `yaml:"max_health"`
	MaxPower    float64 `yaml:"max_power"`
	HealthRegen float64 `yaml:"health_regen"` // per second
	PowerRegen  float64 `yaml:"power_regen"`  // per second
	Radius      float64 `yaml:"radius"`
	MoveSpeed   float64 `yaml:"move_speed"`
}

func DefaultTuning() Tuning {
	return Tuning{
		MaxHealth:   100,
		MaxPower:    100,
		HealthRegen: 1,
		PowerRegen:  10,
		Radius:      6,
		MoveSpeed:   100,
	}
}

type Player struct {
	Mobile

	Died       signal.Event[*Player]
	Teleported signal.Event[*Player]

	name    string
	element ElementKind
	tuning  Tuning

	health float64
	power  float64
	score  int
	dead   bool

	charging     bool
	hooked       bool
	invulnerable bool
	immobilized  bool

	abilities []Ability

	// cooldowns and lastAbility are authoritative and only written in master
	// mode (or synced from the master). Followers write predictions to the
	// predicted table instead.
	cooldowns     map[AbilityID]float64
	lastAbility   float64
	predicted     map[AbilityID]float64
	predictedLast float64
}

func NewPlayer(name string, element ElementKind, tuning Tuning) *Player {
	p := &Player{
		Mobile:        newMobile(KindPlayer, geometry.NewCircle(tuning.Radius), tuning.MoveSpeed),
		name:          name,
		element:       element,
		tuning:        tuning,
		health:        tuning.MaxHealth,
		power:         tuning.MaxPower,
		cooldowns:     make(map[AbilityID]float64),
		predicted:     make(map[AbilityID]float64),
		lastAbility:   math.Inf(-1),
		predictedLast: math.Inf(-1),
	}
	return p
}

func (p *Player) Name() string { return p.name }
func (p *Player) Element() ElementKind { return p.element }
func (p *Player) Tuning() Tuning { return p.tuning }
func (p *Player) Radius() float64 { return p.tuning.Radius }
func (p *Player) Health() float64 { return p.health }
func (p *Player) Power() float64 { return p.power }
func (p *Player) Score() int { return p.score }
func (p *Player) Dead() bool { return p.dead }
func (p *Player) Charging() bool { return p.charging }
func (p *Player) Hooked() bool { return p.hooked }
func (p *Player) Invulnerable() bool { return p.invulnerable }
func (p *Player) Immobilized() bool { return p.immobilized }
func (p *Player) SetCharging(v bool) { p.charging = v }
func (p *Player) SetHooked(v bool) { p.hooked = v }
func (p *Player) SetInvulnerable(v bool) { p.invulnerable = v }
func (p *Player) SetImmobilized(v bool) { p.immobilized = v }

func (p *Player) master() bool { return p.world != nil && p.world.master }

func (p *Player) logger() log.Log {
	if p.world == nil {
		return log.NewNop()
	}
	return p.world.logger
}

// SetHealth writes health clamped to [0, MaxHealth]. It performs no authority
// check; gameplay code goes through ApplyDamage.
func (p *Player) SetHealth(v float64) {
	v = clamp(v, 0, p.tuning.MaxHealth)
	if v == p.health {
		return
	}
	p.health = v
	p.recordStatus()
}

// SetPower writes power clamped to [0, MaxPower].
func (p *Player) SetPower(v float64) {
	v = clamp(v, 0, p.tuning.MaxPower)
	if v == p.power {
		return
	}
	p.power = v
	p.recordStatus()
}

func (p *Player) recordStatus() {
	p.record(Delta{Kind: DeltaStatusChanged, Health: p.health, Power: p.power})
}

// UsePower deducts cost in master mode.
func (p *Player) UsePower(cost float64) {
	if !p.master() {
		return
	}
	p.SetPower(p.power - cost)
}

// AddScore is a no-op in follower mode.
func (p *Player) AddScore(n int) {
	if !p.master() || n == 0 {
		return
	}
	p.score += n
	p.record(Delta{Kind: DeltaScoreChanged, Score: p.score})
}

// ApplyDamage reduces health in master mode. A player whose health reaches
// zero dies: its abilities expire, it leaves the world and source scores.
func (p *Player) ApplyDamage(amount float64, source *Player, ability AbilityID) {
	if !p.master() || p.dead || p.invulnerable || amount <= 0 {
		return
	}
	p.SetHealth(p.health - amount)
	p.logger().Debug("player damaged",
		log.Object(uint32(p.id)),
		log.Float64("amount", amount),
		log.Int("ability", int(ability)),
		log.Float64("health", p.health),
	)
	if p.health <= 0 {
		p.die(source, ability)
	}
}

func (p *Player) die(source *Player, ability AbilityID) {
	p.dead = true
	for _, a := range slices.Clone(p.abilities) {
		if a.Active() {
			a.Expire()
		}
	}
	p.ClearForce()
	p.SetMoving(false, p.direction)
	p.charging, p.hooked, p.invulnerable, p.immobilized = false, false, false, false

	fields := []log.Field{log.Object(uint32(p.id)), log.Int("ability", int(ability))}
	if source != nil && source != p {
		source.AddScore(1)
		fields = append(fields, log.Int64("killer", int64(source.id)))
	}
	p.logger().Debug("player died", fields...)

	if p.inWorld {
		_ = p.world.Remove(p.id)
	}
	p.Died.Fire(p)
}

// Respawn brings a dead player back at pos with full health and power under
// its previous id.
func (p *Player) Respawn(pos geometry.Vec2) error {
	if p.world == nil {
		return fmt.Errorf("respawn player %d: %w", p.id, ErrObjectNotFound)
	}
	if p.inWorld {
		return fmt.Errorf("respawn player %d: %w", p.id, ErrAlreadyInWorld)
	}
	p.dead = false
	p.health = p.tuning.MaxHealth
	p.power = p.tuning.MaxPower
	p.position = pos
	return p.world.AddWithID(p, p.id)
}

// Track adds an ability to the active list until it expires.
func (p *Player) Track(a Ability) {
	p.abilities = append(p.abilities, a)
	a.Expired().Once(func(x Ability) {
		p.abilities = slices.DeleteFunc(p.abilities, func(y Ability) bool { return y == x })
	})
}

// Abilities returns a snapshot of the active abilities.
func (p *Player) Abilities() []Ability { return slices.Clone(p.abilities) }

// LastUse returns when ability id was last used, counting predicted uses, and
// false if it never was.
func (p *Player) LastUse(id AbilityID) (float64, bool) {
	a, okA := p.cooldowns[id]
	b, okB := p.predicted[id]
	switch {
	case okA && okB:
		return math.Max(a, b), true
	case okA:
		return a, true
	case okB:
		return b, true
	}
	return 0, false
}

// LastAbilityTime returns when any ability was last used.
func (p *Player) LastAbilityTime() (float64, bool) {
	t := math.Max(p.lastAbility, p.predictedLast)
	return t, !math.IsInf(t, -1)
}

// MarkUsed stamps ability id at time t. Followers only write predictions.
func (p *Player) MarkUsed(id AbilityID, t float64) {
	if p.master() {
		p.cooldowns[id] = t
		p.lastAbility = t
		return
	}
	p.predicted[id] = t
	p.predictedLast = t
}

// SyncCooldown writes an authoritative use reported by the master.
func (p *Player) SyncCooldown(id AbilityID, t float64) {
	p.cooldowns[id] = t
	p.lastAbility = math.Max(p.lastAbility, t)
}

// Cooldowns returns a copy of the authoritative last-use table.
func (p *Player) Cooldowns() map[AbilityID]float64 {
	out := make(map[AbilityID]float64, len(p.cooldowns))
	for k, v := range p.cooldowns {
		out[k] = v
	}
	return out
}

func (p *Player) Update(dt float64) {
	if p.dead {
		return
	}
	if p.master() {
		p.regen(dt)
	}
	for _, a := range slices.Clone(p.abilities) {
		if a.Active() {
			a.Update(dt)
		}
	}
	if p.immobilized || !p.inWorld {
		return
	}
	p.integrate(dt)
}

func (p *Player) regen(dt float64) {
	h := clamp(p.health+p.tuning.HealthRegen*dt, 0, p.tuning.MaxHealth)
	w := clamp(p.power+p.tuning.PowerRegen*dt, 0, p.tuning.MaxPower)
	if h == p.health && w == p.power {
		return
	}
	p.health, p.power = h, w
	p.recordStatus()
}

func (p *Player) describe(d *Delta) {
	d.Name = p.name
	d.Element = p.element
	d.Health = p.health
	d.Power = p.power
	d.Score = p.score
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
