package injector

import (
	"github.com/zeusync/arena/internal/config"
	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/sim"
	"github.com/zeusync/arena/internal/core/world"
	"github.com/zeusync/arena/internal/level"
	"github.com/zeusync/arena/internal/server"
)

// ConfigPath is the configuration file location; empty uses defaults.
type ConfigPath string

func ProvideConfig(path ConfigPath) (config.Config, error) {
	return config.Load(string(path))
}

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.LogLevel())
}

// ProvideLevel loads the configured level, or the square arena when none
// is set.
func ProvideLevel(cfg config.Config) (*level.Level, error) {
	if cfg.Level == "" {
		return level.Square(cfg.Simulation.ArenaSize), nil
	}
	return level.LoadFile(cfg.Level)
}

// ProvideWorld builds the authoritative world with the level geometry in
// place.
func ProvideWorld(logger *log.Logger, lvl *level.Level) *world.World {
	w := world.New(true, world.WithLogger(logger))
	lvl.Build(w)
	logger.Info("Level built",
		log.String("level", lvl.Name),
		log.Int("walls", len(lvl.Walls)),
		log.Int("pillars", len(lvl.Pillars)),
		log.Int("spawns", len(lvl.Spawns)))
	return w
}

func ProvideSimulation(cfg config.Config, w *world.World, lvl *level.Level) (*sim.Simulation, error) {
	sc := cfg.SimConfig()
	sc.Spawns = lvl.SpawnPoints()
	return sim.New(w, sc)
}

func ProvideBus() bus.Bus { return bus.New() }

func ProvideServerConfig(cfg config.Config) server.Config {
	return server.Config{
		ListenAddr:    cfg.Server.ListenAddr,
		TickInterval:  cfg.TickInterval(),
		ChecksumEvery: cfg.Server.ChecksumEvery,
		MaxClients:    cfg.Server.MaxClients,
		SendBuffer:    cfg.Server.SendBuffer,
		WriteTimeout:  cfg.Server.WriteTimeout,
		MaxFrameSize:  cfg.Server.MaxFrameSize,
	}
}

func ProvideServer(sc server.Config, s *sim.Simulation, b bus.Bus, logger *log.Logger) (*server.Server, error) {
	return server.NewServer(sc, s, b, logger)
}
