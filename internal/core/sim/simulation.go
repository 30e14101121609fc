// Package sim drives a world one tick at a time: it applies player intents,
// advances the world, respawns dead players and hands out the tick's deltas.
package sim

import (
	"fmt"
	"slices"

	"github.com/zeusync/arena/internal/core/ability"
	"github.com/zeusync/arena/internal/core/events/signal"
	"github.com/zeusync/arena/internal/core/geometry"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/world"
)

// DefaultRespawnDelay is the time a dead player waits before re-entering.
const DefaultRespawnDelay = 3.0

type Config struct {
	Tuning       world.Tuning
	RespawnDelay float64
	Spawns       []geometry.Vec2
}

func DefaultConfig() Config {
	return Config{
		Tuning:       world.DefaultTuning(),
		RespawnDelay: DefaultRespawnDelay,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.RespawnDelay < 0:
		return fmt.Errorf("respawn delay %v: %w", c.RespawnDelay, ErrInvalidConfig)
	case c.Tuning.MaxHealth <= 0 || c.Tuning.MaxPower < 0:
		return fmt.Errorf("player tuning: %w", ErrInvalidConfig)
	case c.Tuning.Radius <= 0:
		return fmt.Errorf("player radius %v: %w", c.Tuning.Radius, ErrInvalidConfig)
	}
	return nil
}

type member struct {
	player  *world.Player
	element *ability.Element
	respawn *signal.Scheduler
	died    *signal.Subscription
}

// Simulation owns the players of one world. It is not safe for concurrent
// use; the caller serializes Join, Leave and Step.
type Simulation struct {
	world  *world.World
	config Config
	logger log.Log

	members map[world.ObjectID]*member
	order   []world.ObjectID
	spawn   int
}

func New(w *world.World, config Config) (*Simulation, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Simulation{
		world:   w,
		config:  config,
		logger:  w.Logger().With(log.String("component", "sim")),
		members: make(map[world.ObjectID]*member),
	}, nil
}

func (s *Simulation) World() *world.World { return s.world }
func (s *Simulation) Config() Config { return s.config }

// Player returns a joined player, dead or alive.
func (s *Simulation) Player(id world.ObjectID) (*world.Player, bool) {
	m, ok := s.members[id]
	if !ok {
		return nil, false
	}
	return m.player, true
}

// Players returns the joined players in join order.
func (s *Simulation) Players() []*world.Player {
	out := make([]*world.Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id].player)
	}
	return out
}

// Join spawns a new player at the next spawn point.
func (s *Simulation) Join(name string, element world.ElementKind) (*world.Player, error) {
	p := world.NewPlayer(name, element, s.config.Tuning)
	el, err := ability.NewElement(p)
	if err != nil {
		return nil, fmt.Errorf("join %q: %w", name, err)
	}
	p.SetPosition(s.nextSpawn())
	id := s.world.Add(p)

	m := &member{player: p, element: el}
	m.died = p.Died.Subscribe(func(*world.Player) { s.schedule(m) })
	s.members[id] = m
	s.order = append(s.order, id)

	s.logger.Info("player joined",
		log.Object(uint32(id)),
		log.String("name", name),
		log.String("element", element.String()),
	)
	return p, nil
}

// Leave removes a player for good.
func (s *Simulation) Leave(id world.ObjectID) error {
	m, ok := s.members[id]
	if !ok {
		return fmt.Errorf("leave %d: %w", id, ErrPlayerNotFound)
	}
	m.died.Unsubscribe()
	for _, a := range m.player.Abilities() {
		a.Expire()
	}
	if m.player.InWorld() {
		if err := s.world.Remove(id); err != nil {
			return fmt.Errorf("leave %d: %w", id, err)
		}
	}
	delete(s.members, id)
	s.order = slices.DeleteFunc(s.order, func(x world.ObjectID) bool { return x == id })

	s.logger.Info("player left", log.Object(uint32(id)))
	return nil
}

// Step applies intents in order, advances the world by dt, runs respawn
// timers and returns the coalesced deltas of the tick.
func (s *Simulation) Step(dt float64, intents []Intent) []world.Delta {
	for _, in := range intents {
		s.apply(in)
	}
	s.world.Update(dt)
	for _, id := range slices.Clone(s.order) {
		if m, ok := s.members[id]; ok && m.respawn != nil {
			m.respawn.AddTime(dt)
		}
	}
	return Coalesce(s.world.Drain())
}

// Checksum hashes the authoritative state of every joined player, including
// dead ones.
func (s *Simulation) Checksum() uint64 {
	return world.Checksum(s.Players()...)
}

func (s *Simulation) apply(in Intent) {
	m, ok := s.members[in.Player]
	if !ok {
		s.logger.Debug("intent for unknown player", log.Object(uint32(in.Player)), log.String("kind", in.Kind.String()))
		return
	}
	p := m.player
	if p.Dead() {
		return
	}
	switch in.Kind {
	case IntentMove:
		p.SetMoving(in.Moving, in.Direction)
	case IntentRotate:
		p.SetRotation(geometry.NormalizeAngle(in.Rotation))
	case IntentAbility:
		if in.Ability == 0 {
			m.element.UseIndex(in.Slot)
		} else {
			m.element.Use(in.Ability)
		}
	default:
		s.logger.Debug("unknown intent", log.Object(uint32(in.Player)), log.Int("kind", int(in.Kind)))
	}
}

func (s *Simulation) schedule(m *member) {
	m.respawn = signal.NewScheduler(s.config.RespawnDelay)
	m.respawn.Fired.Once(func(*signal.Scheduler) {
		m.respawn = nil
		if err := m.player.Respawn(s.nextSpawn()); err != nil {
			s.logger.Warn("respawn failed", log.Object(uint32(m.player.ID())), log.Error(err))
			return
		}
		s.logger.Debug("player respawned", log.Object(uint32(m.player.ID())))
	})
}

func (s *Simulation) nextSpawn() geometry.Vec2 {
	if len(s.config.Spawns) == 0 {
		return geometry.Vec2{}
	}
	p := s.config.Spawns[s.spawn%len(s.config.Spawns)]
	s.spawn++
	return p
}
