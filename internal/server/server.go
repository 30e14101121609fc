package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/sim"
	"github.com/zeusync/arena/internal/protocol"
)

// Server runs one arena: it accepts websocket clients, queues their intents
// and steps the simulation at a fixed rate, broadcasting every tick.
type Server struct {
	config Config
	logger log.Log
	codec  protocol.Codec
	bus    bus.Bus
	sub    bus.Subscription
	obs    *tickObserver

	upgrader websocket.Upgrader

	// mu serializes every access to sim, including joins and leaves made by
	// client goroutines between ticks.
	mu      sync.Mutex
	sim     *sim.Simulation
	intents []sim.Intent
	tick    uint64

	// Client management
	clients     sync.Map // map[string]*session
	clientCount int64    // atomic

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	http     *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	group    *errgroup.Group
}

// Config holds server configuration
type Config struct {
	ListenAddr string
	// TickInterval is the simulated and wall-clock duration of a tick.
	TickInterval time.Duration
	// ChecksumEvery attaches the state checksum to every n-th tick; 0 never.
	ChecksumEvery int
	MaxClients    int
	// SendBuffer is the number of frames queued per client before the client
	// is dropped as too slow.
	SendBuffer   int
	WriteTimeout time.Duration
	MaxFrameSize int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:    "127.0.0.1:8080",
		TickInterval:  50 * time.Millisecond,
		ChecksumEvery: 20,
		MaxClients:    64,
		SendBuffer:    64,
		WriteTimeout:  5 * time.Second,
		MaxFrameSize:  64 * 1024,
	}
}

func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("tick interval %v: %w", c.TickInterval, ErrInvalidConfig)
	case c.ChecksumEvery < 0:
		return fmt.Errorf("checksum cadence %d: %w", c.ChecksumEvery, ErrInvalidConfig)
	case c.MaxClients <= 0 || c.SendBuffer <= 0:
		return fmt.Errorf("client limits %d/%d: %w", c.MaxClients, c.SendBuffer, ErrInvalidConfig)
	case c.WriteTimeout <= 0 || c.MaxFrameSize <= 0:
		return fmt.Errorf("write timeout or frame size: %w", ErrInvalidConfig)
	}
	return nil
}

// NewServer creates a server around s and subscribes its broadcaster to b.
func NewServer(config Config, s *sim.Simulation, b bus.Bus, logger log.Log) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	server := &Server{
		config: config,
		logger: logger.With(log.String("component", "server")),
		codec:  protocol.MsgpackCodec{},
		bus:    b,
		sim:    s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	sub, err := b.Subscribe(bus.TopicDeltas, server.broadcast)
	if err != nil {
		return nil, fmt.Errorf("subscribe broadcaster: %w", err)
	}
	server.sub = sub
	server.obs = &tickObserver{logger: server.logger, budget: config.TickInterval / 2}
	b.AddObserver(server.obs)

	server.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Duration("tick", config.TickInterval),
		log.Int("max_clients", config.MaxClients))
	return server, nil
}

// Handler serves the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on the configured address and runs the tick loop until
// Stop is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = ln
	s.http = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: s.config.WriteTimeout}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	s.group = g

	g.Go(func() error {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error { return s.loop(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), s.config.WriteTimeout)
		defer done()
		s.disconnectAll()
		return s.http.Shutdown(shutdownCtx)
	})

	s.logger.Info("Server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address while running.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Wait blocks until the server goroutines exit and returns the first error.
func (s *Server) Wait() error {
	if s.group == nil {
		return ErrServerNotRunning
	}
	return s.group.Wait()
}

// Stop stops the server
func (s *Server) Stop(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")
	s.cancel()
	err := s.group.Wait()
	s.logger.Info("Server stopped", log.Uint64("ticks", s.Tick()))
	return err
}

// Close stops the server if needed and detaches it from the bus.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // Already closed
	}
	if atomic.LoadInt32(&s.running) == 1 {
		_ = s.Stop(context.Background())
	}
	s.disconnectAll()
	s.bus.RemoveObserver(s.obs)
	s.logger.Info("Server closed")
	return s.bus.Unsubscribe(s.sub)
}

// Tick returns the number of completed ticks.
func (s *Server) Tick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Checksum returns the authoritative state hash of the current tick.
func (s *Server) Checksum() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Checksum()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int { return int(atomic.LoadInt64(&s.clientCount)) }

func (s *Server) loop(ctx context.Context) error {
	s.logger.Debug("Tick loop started")
	defer s.logger.Debug("Tick loop stopped")

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()
	dt := s.config.TickInterval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.step(dt); err != nil {
				s.logger.Warn("Tick delivery failed", log.Error(err))
			}
		}
	}
}

// step runs one tick and publishes its batch. Bus handlers run under mu so
// that a welcome frame is always queued before the first batch the new
// client sees.
func (s *Server) step(dt float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	intents := s.intents
	s.intents = nil
	deltas := s.sim.Step(dt, intents)
	s.tick++

	batch := bus.Batch{Tick: s.tick, Time: s.sim.World().Time(), Deltas: deltas}
	if s.config.ChecksumEvery > 0 && s.tick%uint64(s.config.ChecksumEvery) == 0 {
		batch.Checksum = s.sim.Checksum()
		batch.HasChecksum = true
	}
	return s.bus.PublishWithFilters(bus.TopicDeltas, batch, worthSending)
}

func (s *Server) enqueue(in sim.Intent) {
	s.mu.Lock()
	s.intents = append(s.intents, in)
	s.mu.Unlock()
}

func (s *Server) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.intents)
}

// broadcast encodes a batch once and queues it on every joined client.
func (s *Server) broadcast(b bus.Batch) error {
	deltas, err := s.codec.Encode(protocol.FrameDeltas, protocol.Deltas{Tick: b.Tick, Time: b.Time, Deltas: b.Deltas})
	if err != nil {
		return err
	}
	var checksum []byte
	if b.HasChecksum {
		if checksum, err = s.codec.Encode(protocol.FrameChecksum, protocol.Checksum{Tick: b.Tick, Sum: b.Checksum}); err != nil {
			return err
		}
	}

	s.clients.Range(func(_, value any) bool {
		c := value.(*session)
		if !c.joined {
			return true
		}
		if !c.push(deltas) || (checksum != nil && !c.push(checksum)) {
			s.logger.Warn("Dropping slow client", log.String("client_id", c.id))
			c.close()
		}
		return true
	})
	return nil
}

func (s *Server) disconnectAll() {
	s.clients.Range(func(_, value any) bool {
		value.(*session).close()
		return true
	})
}
