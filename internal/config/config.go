// Package config loads the server configuration from a YAML file and ARENA_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/sim"
	"github.com/zeusync/arena/internal/core/world"
)

var ErrInvalidConfig = errors.New("invalid config")

const envPrefix = "ARENA_"

type Config struct {
	Server     Server     `yaml:"server"`
	Simulation Simulation `yaml:"simulation"`
	Log        Log        `yaml:"log"`
	// Level is the path of the level file. Empty selects the built-in
	// square arena.
	Level string `yaml:"level"`
}

type Server struct {
	ListenAddr string `yaml:"listen_addr"`
	// TickRate is the number of simulation steps per second.
	TickRate int `yaml:"tick_rate"`
	// ChecksumEvery attaches the state checksum to every n-th tick.
	ChecksumEvery int           `yaml:"checksum_every"`
	MaxClients    int           `yaml:"max_clients"`
	SendBuffer    int           `yaml:"send_buffer"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	MaxFrameSize  int64         `yaml:"max_frame_size"`
}

type Simulation struct {
	RespawnDelay float64      `yaml:"respawn_delay"`
	ArenaSize    float64      `yaml:"arena_size"`
	Player       world.Tuning `yaml:"player"`
}

type Log struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Server: Server{
			ListenAddr:    "127.0.0.1:8080",
			TickRate:      20,
			ChecksumEvery: 20,
			MaxClients:    64,
			SendBuffer:    64,
			WriteTimeout:  5 * time.Second,
			MaxFrameSize:  64 * 1024,
		},
		Simulation: Simulation{
			RespawnDelay: sim.DefaultRespawnDelay,
			ArenaSize:    400,
			Player:       world.DefaultTuning(),
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path (if not empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err = cfg.decode(f); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s=%q: %w", envPrefix, name, v, ErrInvalidConfig)
		}
		*dst = n
		return nil
	}
	float := func(name string, dst *float64) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s=%q: %w", envPrefix, name, v, ErrInvalidConfig)
		}
		*dst = f
		return nil
	}

	str("LISTEN_ADDR", &c.Server.ListenAddr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LEVEL", &c.Level)
	return errors.Join(
		integer("TICK_RATE", &c.Server.TickRate),
		integer("CHECKSUM_EVERY", &c.Server.ChecksumEvery),
		integer("MAX_CLIENTS", &c.Server.MaxClients),
		float("RESPAWN_DELAY", &c.Simulation.RespawnDelay),
	)
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is empty"))
	}
	if c.Server.TickRate <= 0 || c.Server.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("server.tick_rate %d out of range", c.Server.TickRate))
	}
	if c.Server.ChecksumEvery < 0 {
		errs = append(errs, fmt.Errorf("server.checksum_every %d is negative", c.Server.ChecksumEvery))
	}
	if c.Server.MaxClients <= 0 || c.Server.SendBuffer <= 0 {
		errs = append(errs, errors.New("server.max_clients and server.send_buffer must be positive"))
	}
	if c.Simulation.ArenaSize <= 0 && c.Level == "" {
		errs = append(errs, errors.New("simulation.arena_size must be positive without a level file"))
	}
	if err := c.SimConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		errs = append(errs, fmt.Errorf("log.level %q", c.Log.Level))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// TickInterval is the wall-clock duration of one tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Server.TickRate)
}

// SimConfig returns the simulation settings without spawn points, which come
// from the level.
func (c Config) SimConfig() sim.Config {
	return sim.Config{
		Tuning:       c.Simulation.Player,
		RespawnDelay: c.Simulation.RespawnDelay,
	}
}

func (c Config) LogLevel() log.Level { return log.ParseLevel(c.Log.Level) }
