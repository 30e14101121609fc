package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/ability"
	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/world"
)

func newSim(t *testing.T, master bool) *Simulation {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Tuning.HealthRegen, cfg.Tuning.PowerRegen = 0, 0
	cfg.Spawns = []geometry.Vec2{geometry.V(-50, 0), geometry.V(50, 0)}
	s, err := New(world.New(master), cfg)
	require.NoError(t, err)
	return s
}

func kinds(deltas []world.Delta) []world.DeltaKind {
	out := make([]world.DeltaKind, 0, len(deltas))
	for _, d := range deltas {
		out = append(out, d.Kind)
	}
	return out
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RespawnDelay = -1
	_, err := New(world.New(true), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Tuning.Radius = 0
	_, err = New(world.New(true), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSimulation_JoinCyclesSpawnPoints(t *testing.T) {
	s := newSim(t, true)

	a, err := s.Join("a", world.ElementEarth)
	require.NoError(t, err)
	b, err := s.Join("b", world.ElementFire)
	require.NoError(t, err)
	c, err := s.Join("c", world.ElementAir)
	require.NoError(t, err)

	assert.Equal(t, geometry.V(-50, 0), a.Position())
	assert.Equal(t, geometry.V(50, 0), b.Position())
	assert.Equal(t, geometry.V(-50, 0), c.Position())
	assert.Equal(t, []*world.Player{a, b, c}, s.Players())

	_, err = s.Join("x", world.ElementKind(42))
	assert.ErrorIs(t, err, world.ErrUnknownElement)
}

func TestSimulation_StepAppliesIntents(t *testing.T) {
	s := newSim(t, true)
	p, err := s.Join("a", world.ElementEarth)
	require.NoError(t, err)
	s.World().Drain()

	deltas := s.Step(0.1, []Intent{
		{Player: p.ID(), Kind: IntentRotate, Rotation: 0},
		{Player: p.ID(), Kind: IntentMove, Moving: true},
		{Player: p.ID(), Kind: IntentAbility, Slot: 1},
		{Player: 999, Kind: IntentMove, Moving: true},
	})

	assert.InDelta(t, -40, p.Position().X, 1e-9)
	assert.Equal(t, 80.0, p.Power())
	assert.Contains(t, kinds(deltas), world.DeltaAbilityUsed)
	assert.Contains(t, kinds(deltas), world.DeltaMovingChanged)
	assert.Contains(t, kinds(deltas), world.DeltaPositionChanged)
}

func TestSimulation_AbilityIntentByID(t *testing.T) {
	s := newSim(t, true)
	p, err := s.Join("a", world.ElementWater)
	require.NoError(t, err)

	s.Step(0.1, []Intent{{Player: p.ID(), Kind: IntentAbility, Ability: ability.WaterTidalWave}})
	_, used := p.LastUse(ability.WaterTidalWave)
	assert.True(t, used)

	s.Step(0.1, []Intent{{Player: p.ID(), Kind: IntentAbility, Ability: ability.FirePrimary}})
	_, used = p.LastUse(ability.FirePrimary)
	assert.False(t, used)
}

func TestSimulation_RespawnAfterDelay(t *testing.T) {
	s := newSim(t, true)
	killer, err := s.Join("killer", world.ElementEarth)
	require.NoError(t, err)
	victim, err := s.Join("victim", world.ElementFire)
	require.NoError(t, err)
	id := victim.ID()

	victim.ApplyDamage(1000, killer, ability.EarthPowerSwing)
	require.True(t, victim.Dead())
	assert.False(t, victim.InWorld())
	assert.Equal(t, 1, killer.Score())

	s.Step(1, nil)
	s.Step(1, nil)
	assert.True(t, victim.Dead())

	deltas := s.Step(1, nil)
	assert.False(t, victim.Dead())
	assert.True(t, victim.InWorld())
	assert.Equal(t, id, victim.ID())
	assert.Equal(t, 100.0, victim.Health())
	assert.Equal(t, 100.0, victim.Power())
	assert.Equal(t, geometry.V(-50, 0), victim.Position())
	assert.Contains(t, kinds(deltas), world.DeltaObjectAdded)

	got, ok := s.World().Player(id)
	require.True(t, ok)
	assert.Same(t, victim, got)
}

func TestSimulation_DeadPlayersIgnoreIntents(t *testing.T) {
	s := newSim(t, true)
	p, err := s.Join("a", world.ElementEarth)
	require.NoError(t, err)
	p.ApplyDamage(1000, nil, 0)

	s.Step(0.1, []Intent{{Player: p.ID(), Kind: IntentMove, Moving: true}})
	assert.False(t, p.Moving())
}

func TestSimulation_Leave(t *testing.T) {
	s := newSim(t, true)
	p, err := s.Join("a", world.ElementEarth)
	require.NoError(t, err)

	require.NoError(t, s.Leave(p.ID()))
	assert.False(t, p.InWorld())
	assert.Empty(t, s.Players())
	assert.Zero(t, s.World().Len())

	assert.ErrorIs(t, s.Leave(p.ID()), ErrPlayerNotFound)
}

func TestSimulation_LeaveWhileDead(t *testing.T) {
	s := newSim(t, true)
	p, err := s.Join("a", world.ElementEarth)
	require.NoError(t, err)
	p.ApplyDamage(1000, nil, 0)

	require.NoError(t, s.Leave(p.ID()))
	for i := 0; i < 5; i++ {
		s.Step(1, nil)
	}
	assert.False(t, p.InWorld(), "players who left never respawn")
}

func TestSimulation_ChecksumMatchesAcrossReplicas(t *testing.T) {
	a, b := newSim(t, true), newSim(t, true)
	for _, s := range []*Simulation{a, b} {
		_, err := s.Join("a", world.ElementEarth)
		require.NoError(t, err)
		_, err = s.Join("b", world.ElementFire)
		require.NoError(t, err)
	}
	assert.Equal(t, a.Checksum(), b.Checksum())

	hit := []Intent{{Player: 1, Kind: IntentAbility, Slot: 1}}
	a.Step(0.1, hit)
	assert.NotEqual(t, a.Checksum(), b.Checksum())

	b.Step(0.1, hit)
	assert.Equal(t, a.Checksum(), b.Checksum())
}

func TestSimulation_FollowerChecksumIgnoresPredictions(t *testing.T) {
	s := newSim(t, false)
	p, err := s.Join("a", world.ElementEarth)
	require.NoError(t, err)
	before := s.Checksum()

	s.Step(0.1, []Intent{{Player: p.ID(), Kind: IntentAbility, Slot: 1}})
	_, used := p.LastUse(ability.EarthPrimary)
	assert.True(t, used)
	assert.Equal(t, before, s.Checksum())
}
