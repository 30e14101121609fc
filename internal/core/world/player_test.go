package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/geometry"
)

type stubAbility struct {
	id      AbilityID
	active  bool
	updates int
	expired signal.Event[Ability]
}

func (s *stubAbility) ID() AbilityID { return s.id }
func (s *stubAbility) Active() bool { return s.active }
func (s *stubAbility) Update(float64) { s.updates++ }
func (s *stubAbility) Expired() *signal.Event[Ability] { return &s.expired }
func (s *stubAbility) Expire() {
	s.active = false
	s.expired.Fire(s)
}

func TestPlayer_DamageIsMasterOnly(t *testing.T) {
	follower := New(false)
	p := newTestPlayer(follower, geometry.V(0, 0))

	p.ApplyDamage(30, nil, 101)
	p.UsePower(50)
	p.AddScore(1)

	assert.Equal(t, 100.0, p.Health())
	assert.Equal(t, 100.0, p.Power())
	assert.Equal(t, 0, p.Score())
}

func TestPlayer_DeathRemovesAndScores(t *testing.T) {
	w := New(true)
	killer := newTestPlayer(w, geometry.V(0, 0))
	victim := newTestPlayer(w, geometry.V(20, 0))

	ab := &stubAbility{id: 204, active: true}
	victim.Track(ab)

	died := 0
	victim.Died.Subscribe(func(*Player) { died++ })

	victim.ApplyDamage(60, killer, 101)
	require.False(t, victim.Dead())
	victim.ApplyDamage(60, killer, 101)

	assert.True(t, victim.Dead())
	assert.Zero(t, victim.Health())
	assert.False(t, victim.InWorld())
	assert.Equal(t, 1, died)
	assert.Equal(t, 1, killer.Score())
	assert.False(t, ab.Active(), "active abilities expire on death")
	assert.Empty(t, victim.Abilities())

	_, ok := w.Get(victim.ID())
	assert.False(t, ok)

	victim.ApplyDamage(10, killer, 101)
	assert.Equal(t, 1, killer.Score(), "the dead take no further damage")
}

func TestPlayer_RespawnKeepsID(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	id := p.ID()
	p.ApplyDamage(1000, nil, 0)
	require.True(t, p.Dead())

	require.NoError(t, p.Respawn(geometry.V(40, 40)))

	assert.Equal(t, id, p.ID())
	assert.False(t, p.Dead())
	assert.Equal(t, 100.0, p.Health())
	assert.Equal(t, 100.0, p.Power())
	assert.Equal(t, geometry.V(40, 40), p.Position())

	got, ok := w.Player(id)
	require.True(t, ok)
	assert.Same(t, p, got)

	assert.ErrorIs(t, p.Respawn(geometry.V(0, 0)), ErrAlreadyInWorld)
}

func TestPlayer_InvulnerableTakesNoDamage(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	p.SetInvulnerable(true)
	p.ApplyDamage(50, nil, 101)
	assert.Equal(t, 100.0, p.Health())
}

func TestPlayer_RegenClamps(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	p.SetPower(95)
	p.SetHealth(50)

	w.Update(1)

	assert.Equal(t, 100.0, p.Power())
	assert.Equal(t, 51.0, p.Health())
}

func TestPlayer_UpdatesTrackedAbilities(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	ab := &stubAbility{id: 101, active: true}
	p.Track(ab)

	w.Update(0.1)
	assert.Equal(t, 1, ab.updates)

	ab.Expire()
	w.Update(0.1)
	assert.Equal(t, 1, ab.updates)
	assert.Empty(t, p.Abilities())
}

func TestPlayer_RunsAlongHeading(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))
	p.SetRotation(math.Pi / 2)
	p.SetMoving(true, 0)

	w.Update(0.5)

	assert.InDelta(t, 0, p.Position().X, 1e-9)
	assert.InDelta(t, 50, p.Position().Z, 1e-9)

	p.SetImmobilized(true)
	w.Update(0.5)
	assert.InDelta(t, 50, p.Position().Z, 1e-9)
}

func TestPlayer_ForceDecaysAndClears(t *testing.T) {
	w := New(true)
	p := newTestPlayer(w, geometry.V(0, 0))

	p.ApplyForce(geometry.V(2, 0), 100, 1, 0.2)
	assert.Equal(t, geometry.V(100, 0), p.Force())

	w.Update(0.1)
	assert.InDelta(t, 10, p.Position().X, 1e-9)
	assert.InDelta(t, 110, p.Force().X, 1e-9, "strength grows by 1+accel*dt")

	w.Update(0.1)
	assert.InDelta(t, 21, p.Position().X, 1e-9)
	assert.Equal(t, geometry.Vec2{}, p.Force(), "force clears when its duration runs out")
}

func TestPlayer_CooldownTables(t *testing.T) {
	master := New(true)
	m := newTestPlayer(master, geometry.V(0, 0))
	m.MarkUsed(101, 2)

	last, ok := m.LastUse(101)
	require.True(t, ok)
	assert.Equal(t, 2.0, last)
	assert.Equal(t, map[AbilityID]float64{101: 2}, m.Cooldowns())

	follower := New(false)
	f := newTestPlayer(follower, geometry.V(0, 0))
	f.MarkUsed(101, 3)

	last, ok = f.LastUse(101)
	require.True(t, ok)
	assert.Equal(t, 3.0, last, "predictions gate follower-side use")
	assert.Empty(t, f.Cooldowns(), "followers never write authoritative timestamps")

	f.SyncCooldown(101, 2.5)
	assert.Equal(t, map[AbilityID]float64{101: 2.5}, f.Cooldowns())

	_, ok = f.LastUse(202)
	assert.False(t, ok)
}

func TestParseElement(t *testing.T) {
	e, err := ParseElement(" Water ")
	require.NoError(t, err)
	assert.Equal(t, ElementWater, e)

	_, err = ParseElement("aether")
	assert.ErrorIs(t, err, ErrUnknownElement)
}
