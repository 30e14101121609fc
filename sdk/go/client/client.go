// Package client provides a Go client SDK for the arena game server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/sim"
	"github.com/zeusync/arena/internal/core/world"
	"github.com/zeusync/arena/internal/protocol"
)

// Client represents an arena client connection
type Client struct {
	conn  *websocket.Conn
	codec protocol.Codec

	// writeMu serializes websocket writes.
	writeMu sync.Mutex

	// Arena state
	player  atomic.Uint32
	joinMu  sync.Mutex
	joining chan joinResult

	// Event handlers
	frameHandlers map[protocol.FrameType][]FrameHandler
	eventHandlers map[EventType][]EventHandler
	handlerMutex  sync.RWMutex

	// Lifecycle
	connected int32 // atomic bool
	closed    int32 // atomic bool

	// Configuration and logging
	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	// ServerURL is the websocket endpoint, e.g. ws://localhost:8080/ws.
	ServerURL      string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	MaxFrameSize   int64

	// Logging
	LogLevel log.Level
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerURL:      "ws://127.0.0.1:8080/ws",
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxFrameSize:   1024 * 1024, // 1MB
		LogLevel:       log.LevelInfo,
	}
}

// FrameHandler handles one incoming frame. Handlers run on the receiver
// goroutine in arrival order and must not block.
type FrameHandler func(f protocol.Frame) error

// EventHandler defines a function type for handling client events
type EventHandler func(event Event) error

// EventType represents different types of client events
type EventType string

const (
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeJoined       EventType = "joined"
	EventTypeError        EventType = "error"
)

// Event represents a client event
type Event struct {
	Type      EventType
	Timestamp time.Time
	Player    world.ObjectID
	Error     error
}

type joinResult struct {
	welcome protocol.Welcome
	err     error
}

// NewClient creates a new arena client
func NewClient(config Config) *Client {
	return NewClientWithLogger(config, log.New(config.LogLevel))
}

func NewClientWithLogger(config Config, logger log.Log) *Client {
	return &Client{
		codec:         protocol.MsgpackCodec{},
		frameHandlers: make(map[protocol.FrameType][]FrameHandler),
		eventHandlers: make(map[EventType][]EventHandler),
		config:        config,
		logger:        logger.With(log.String("component", "client")),
	}
}

// Connect dials the server and starts the receiver.
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if !atomic.CompareAndSwapInt32(&c.connected, 0, 1) {
		return ErrAlreadyConnected
	}

	c.logger.Info("Connecting to server", log.String("url", c.config.ServerURL))

	connectCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(connectCtx, c.config.ServerURL, nil)
	if err != nil {
		atomic.StoreInt32(&c.connected, 0)
		if resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
			err = fmt.Errorf("%w: %w", ErrServerFull, err)
		}
		if errors.Is(connectCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrConnectionTimeout, err)
		}
		c.logger.Error("Failed to connect to server", log.String("url", c.config.ServerURL), log.Error(err))
		return err
	}
	conn.SetReadLimit(c.config.MaxFrameSize)
	c.conn = conn

	c.logger.Info("Connected to server", log.String("remote_addr", conn.RemoteAddr().String()))

	c.workerGroup.Add(1)
	go func() {
		defer c.workerGroup.Done()
		c.receiver()
	}()

	c.emitEvent(Event{Type: EventTypeConnected, Timestamp: time.Now()})
	return nil
}

// Disconnect closes the connection to the server
func (c *Client) Disconnect() error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return ErrNotConnected
	}

	c.logger.Info("Disconnecting from server")

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.config.WriteTimeout))
	c.writeMu.Unlock()
	_ = c.conn.Close()

	c.workerGroup.Wait()
	c.player.Store(0)

	c.logger.Info("Disconnected from server")
	return nil
}

// Close closes the client and releases all resources
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil // Already closed
	}
	if atomic.LoadInt32(&c.connected) == 1 {
		_ = c.Disconnect()
	}
	c.logger.Info("Client closed")
	return nil
}

// Join enters the arena and waits for the welcome frame.
func (c *Client) Join(ctx context.Context, name string, element world.ElementKind) (protocol.Welcome, error) {
	if c.Player() != 0 {
		return protocol.Welcome{}, ErrAlreadyJoined
	}

	c.joinMu.Lock()
	if c.joining != nil {
		c.joinMu.Unlock()
		return protocol.Welcome{}, ErrJoinInProgress
	}
	result := make(chan joinResult, 1)
	c.joining = result
	c.joinMu.Unlock()
	defer func() {
		c.joinMu.Lock()
		c.joining = nil
		c.joinMu.Unlock()
	}()

	if err := c.send(protocol.FrameJoin, protocol.Join{Name: name, Element: element.String()}); err != nil {
		return protocol.Welcome{}, err
	}

	select {
	case r := <-result:
		return r.welcome, r.err
	case <-ctx.Done():
		return protocol.Welcome{}, ctx.Err()
	}
}

// Player returns the id assigned by the server, or 0 before joining.
func (c *Client) Player() world.ObjectID { return world.ObjectID(c.player.Load()) }

// SendIntent sends one input. The server fills in the player id.
func (c *Client) SendIntent(in sim.Intent) error {
	if c.Player() == 0 {
		return ErrNotJoined
	}
	return c.send(protocol.FrameIntent, in)
}

// Move starts or stops running in direction, relative to the facing.
func (c *Client) Move(moving bool, direction float64) error {
	return c.SendIntent(sim.Intent{Kind: sim.IntentMove, Moving: moving, Direction: direction})
}

func (c *Client) Rotate(rotation float64) error {
	return c.SendIntent(sim.Intent{Kind: sim.IntentRotate, Rotation: rotation})
}

func (c *Client) UseAbility(id world.AbilityID) error {
	return c.SendIntent(sim.Intent{Kind: sim.IntentAbility, Ability: id})
}

// UseSlot uses the ability in slot 1..4 of the player's element.
func (c *Client) UseSlot(slot int) error {
	return c.SendIntent(sim.Intent{Kind: sim.IntentAbility, Slot: slot})
}

// OnFrame registers a handler for a specific frame type
func (c *Client) OnFrame(t protocol.FrameType, handler FrameHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()

	c.frameHandlers[t] = append(c.frameHandlers[t], handler)
	c.logger.Debug("Frame handler registered", log.String("type", t.String()))
}

// OnDeltas is a typed shortcut for OnFrame(protocol.FrameDeltas, ...).
func (c *Client) OnDeltas(handler func(protocol.Deltas)) {
	c.OnFrame(protocol.FrameDeltas, func(f protocol.Frame) error {
		var d protocol.Deltas
		if err := f.Into(&d); err != nil {
			return err
		}
		handler(d)
		return nil
	})
}

// OnChecksum is a typed shortcut for OnFrame(protocol.FrameChecksum, ...).
func (c *Client) OnChecksum(handler func(protocol.Checksum)) {
	c.OnFrame(protocol.FrameChecksum, func(f protocol.Frame) error {
		var sum protocol.Checksum
		if err := f.Into(&sum); err != nil {
			return err
		}
		handler(sum)
		return nil
	})
}

// OnEvent registers an event handler for a specific event type
func (c *Client) OnEvent(eventType EventType, handler EventHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()

	c.eventHandlers[eventType] = append(c.eventHandlers[eventType], handler)
}

// IsConnected returns true if the client is connected
func (c *Client) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

// IsClosed returns true if the client is closed
func (c *Client) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) send(t protocol.FrameType, payload any) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 0 {
		return ErrNotConnected
	}
	data, err := c.codec.Encode(t, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err = c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", t, err)
	}
	return nil
}

// receiver reads frames until the connection fails.
func (c *Client) receiver() {
	c.logger.Debug("Frame receiver started")
	defer c.logger.Debug("Frame receiver stopped")

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.lost(err)
			return
		}
		f, err := c.codec.Decode(data)
		if err != nil {
			c.logger.Warn("Undecodable frame", log.Error(err))
			continue
		}
		c.handleFrame(f)
	}
}

// lost handles the end of the connection. A server-side close also marks the
// client disconnected.
func (c *Client) lost(err error) {
	c.failJoin(ErrNotConnected)
	if atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		c.logger.Warn("Connection lost", log.Error(err))
		_ = c.conn.Close()
		c.player.Store(0)
	}
	c.emitEvent(Event{Type: EventTypeDisconnected, Timestamp: time.Now(), Error: err})
}

func (c *Client) handleFrame(f protocol.Frame) {
	switch f.Type {
	case protocol.FrameWelcome:
		var welcome protocol.Welcome
		if err := f.Into(&welcome); err != nil {
			c.failJoin(err)
			return
		}
		c.player.Store(uint32(welcome.Player))
		c.finishJoin(joinResult{welcome: welcome})
		c.emitEvent(Event{Type: EventTypeJoined, Timestamp: time.Now(), Player: welcome.Player})
	case protocol.FrameError:
		var e protocol.Error
		if err := f.Into(&e); err != nil {
			return
		}
		serverErr := fmt.Errorf("%w: %s", ErrServerRejected, e.Message)
		if !c.failJoin(serverErr) {
			c.emitEvent(Event{Type: EventTypeError, Timestamp: time.Now(), Error: serverErr})
		}
	}

	c.handlerMutex.RLock()
	handlers := c.frameHandlers[f.Type]
	c.handlerMutex.RUnlock()
	for _, h := range handlers {
		if err := h(f); err != nil {
			c.logger.Error("Frame handler error", log.String("type", f.Type.String()), log.Error(err))
		}
	}
}

func (c *Client) finishJoin(r joinResult) bool {
	c.joinMu.Lock()
	defer c.joinMu.Unlock()
	if c.joining == nil {
		return false
	}
	c.joining <- r
	c.joining = nil
	return true
}

func (c *Client) failJoin(err error) bool { return c.finishJoin(joinResult{err: err}) }

// emitEvent calls the handlers of event.Type in registration order.
func (c *Client) emitEvent(event Event) {
	c.handlerMutex.RLock()
	handlers := c.eventHandlers[event.Type]
	c.handlerMutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			c.logger.Error("Event handler error", log.Error(err))
		}
	}
}
