package server

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/world"
	"github.com/zeusync/arena/internal/protocol"
)

// session is one connected websocket client. player and joined are guarded
// by Server.mu.
type session struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	once        sync.Once
	connectedAt time.Time

	player world.ObjectID
	joined bool
}

// push queues a frame without blocking. It reports false when the buffer
// is full.
func (c *session) push(frame []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *session) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.reserve() {
		s.logger.Warn("Maximum clients reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddInt64(&s.clientCount, -1)
		s.logger.Debug("Websocket upgrade failed", log.Error(err))
		return
	}

	c := &session{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, s.config.SendBuffer),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
	s.clients.Store(c.id, c)

	s.logger.Info("Client connected",
		log.String("client_id", c.id),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))

	go s.writeLoop(c)
	s.readLoop(c)
}

// reserve claims a client slot, failing when MaxClients are connected.
func (s *Server) reserve() bool {
	for {
		n := atomic.LoadInt64(&s.clientCount)
		if int(n) >= s.config.MaxClients {
			return false
		}
		if atomic.CompareAndSwapInt64(&s.clientCount, n, n+1) {
			return true
		}
	}
}

func (s *Server) readLoop(c *session) {
	clientLogger := s.logger.With(log.String("client_id", c.id))
	defer func() {
		c.close()
		s.clients.Delete(c.id)
		atomic.AddInt64(&s.clientCount, -1)

		s.mu.Lock()
		if c.joined {
			if err := s.sim.Leave(c.player); err != nil {
				clientLogger.Warn("Leave failed", log.Error(err))
			}
			c.joined = false
		}
		s.mu.Unlock()

		clientLogger.Info("Client disconnected",
			log.Duration("session", time.Since(c.connectedAt)),
			log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))
	}()

	c.conn.SetReadLimit(s.config.MaxFrameSize)
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, websocket.ErrCloseSent) {
				select {
				case <-c.done:
				default:
					clientLogger.Debug("Failed to receive message", log.Error(err))
				}
			}
			return
		}
		if kind != websocket.BinaryMessage {
			s.reject(c, ErrInvalidMessage)
			continue
		}
		frame, err := s.codec.Decode(data)
		if err != nil {
			clientLogger.Debug("Undecodable frame", log.Error(err))
			s.reject(c, err)
			continue
		}
		s.handleFrame(c, frame)
	}
}

func (s *Server) writeLoop(c *session) {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.logger.Debug("Failed to send frame", log.String("client_id", c.id), log.Error(err))
				c.close()
				return
			}
		}
	}
}

func (s *Server) handleFrame(c *session, f protocol.Frame) {
	switch f.Type {
	case protocol.FrameJoin:
		var join protocol.Join
		if err := f.Into(&join); err != nil {
			s.reject(c, err)
			return
		}
		if err := s.join(c, join); err != nil {
			s.reject(c, err)
		}
	case protocol.FrameIntent:
		var in protocol.Intent
		if err := f.Into(&in); err != nil {
			s.reject(c, err)
			return
		}
		s.mu.Lock()
		joined, player := c.joined, c.player
		s.mu.Unlock()
		if !joined {
			s.reject(c, ErrNotJoined)
			return
		}
		in.Player = player
		s.enqueue(in)
	default:
		s.reject(c, ErrInvalidMessage)
	}
}

func (s *Server) join(c *session, join protocol.Join) error {
	element, err := world.ParseElement(join.Element)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c.joined {
		return ErrAlreadyJoined
	}
	p, err := s.sim.Join(join.Name, element)
	if err != nil {
		return err
	}
	welcome, err := s.codec.Encode(protocol.FrameWelcome, protocol.Welcome{
		Player:   p.ID(),
		Tick:     s.tick,
		TickRate: int(time.Second / s.config.TickInterval),
		Snapshot: s.sim.World().Snapshot(),
	})
	if err != nil {
		return err
	}
	c.player, c.joined = p.ID(), true
	c.push(welcome)

	s.logger.Info("Client joined arena",
		log.String("client_id", c.id),
		log.Object(uint32(p.ID())),
		log.String("element", element.String()))
	return nil
}

func (s *Server) reject(c *session, err error) {
	frame, encErr := s.codec.Encode(protocol.FrameError, protocol.Error{Message: err.Error()})
	if encErr != nil {
		return
	}
	c.push(frame)
}
