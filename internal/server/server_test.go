package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/core/events/bus"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/core/sim"
	"github.com/zeusync/arena/internal/core/world"
	"github.com/zeusync/arena/internal/level"
	"github.com/zeusync/arena/internal/protocol"
)

func newArena(t *testing.T, cfg Config) *Server {
	t.Helper()
	w := world.New(true, world.WithLogger(log.NewNop()))
	lvl := level.Square(200)
	lvl.Build(w)
	sc := sim.DefaultConfig()
	sc.Spawns = lvl.SpawnPoints()
	s, err := sim.New(w, sc)
	require.NoError(t, err)

	srv, err := NewServer(cfg, s, bus.New(), log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func serve(t *testing.T, srv *Server) string {
	t.Helper()
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	t.Cleanup(srv.disconnectAll)
	return "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, ft protocol.FrameType, payload any) {
	t.Helper()
	data, err := protocol.Encode(ft, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))
}

func receive(t *testing.T, conn *websocket.Conn) protocol.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	f, err := protocol.Decode(data)
	require.NoError(t, err)
	return f
}

func join(t *testing.T, conn *websocket.Conn, name, element string) protocol.Welcome {
	t.Helper()
	send(t, conn, protocol.FrameJoin, protocol.Join{Name: name, Element: element})
	f := receive(t, conn)
	require.Equal(t, protocol.FrameWelcome, f.Type)
	var welcome protocol.Welcome
	require.NoError(t, f.Into(&welcome))
	return welcome
}

func players(srv *Server) int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.sim.Players())
}

func TestServer_JoinIntentDeltas(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.ChecksumEvery = 1
	srv := newArena(t, cfg)
	conn := dial(t, serve(t, srv))

	welcome := join(t, conn, "ann", "water")
	require.NotZero(t, welcome.Player)
	assert.Equal(t, 20, welcome.TickRate)
	require.Len(t, welcome.Snapshot, 5, "four walls and the player")
	last := welcome.Snapshot[4]
	assert.Equal(t, welcome.Player, last.Object)
	assert.Equal(t, "ann", last.Name)
	assert.Equal(t, world.ElementWater, last.Element)

	// The claimed player id is ignored in favour of the session's.
	send(t, conn, protocol.FrameIntent, protocol.Intent{Player: 999, Kind: sim.IntentMove, Moving: true})
	require.Eventually(t, func() bool { return srv.pending() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, srv.step(0.05))

	f := receive(t, conn)
	require.Equal(t, protocol.FrameDeltas, f.Type)
	var batch protocol.Deltas
	require.NoError(t, f.Into(&batch))
	assert.Equal(t, uint64(1), batch.Tick)

	moved := false
	for _, d := range batch.Deltas {
		if d.Kind == world.DeltaPositionChanged && d.Object == welcome.Player {
			moved = true
		}
	}
	assert.True(t, moved, "position change of the joined player")

	f = receive(t, conn)
	require.Equal(t, protocol.FrameChecksum, f.Type)
	var sum protocol.Checksum
	require.NoError(t, f.Into(&sum))
	assert.Equal(t, uint64(1), sum.Tick)
	assert.Equal(t, srv.Checksum(), sum.Sum)
}

func TestServer_SkipsIdleTicks(t *testing.T) {
	srv := newArena(t, DefaultServerConfig())
	conn := dial(t, serve(t, srv))

	// The first tick carries the level walls.
	require.NoError(t, srv.step(0.05))
	before := srv.Metrics()

	require.NoError(t, srv.step(0.05))
	after := srv.Metrics()
	assert.Equal(t, before.DroppedByFilters+1, after.DroppedByFilters)
	assert.Equal(t, before.Published, after.Published)

	welcome := join(t, conn, "ann", "air")
	require.NoError(t, srv.step(0.05))
	assert.Equal(t, after.Published+1, srv.Metrics().Published)

	f := receive(t, conn)
	require.Equal(t, protocol.FrameDeltas, f.Type)
	var batch protocol.Deltas
	require.NoError(t, f.Into(&batch))
	assert.Equal(t, uint64(3), batch.Tick)
	require.NotEmpty(t, batch.Deltas)
	assert.Equal(t, welcome.Player, batch.Deltas[0].Object)
}

func TestWorthSending(t *testing.T) {
	assert.False(t, worthSending(bus.Batch{Tick: 4}))
	assert.True(t, worthSending(bus.Batch{Tick: 4, HasChecksum: true}))
	assert.True(t, worthSending(bus.Batch{Tick: 4, Deltas: []world.Delta{{Kind: world.DeltaObjectAdded, Object: 1}}}))
}

func TestServer_RejectsBadRequests(t *testing.T) {
	srv := newArena(t, DefaultServerConfig())
	conn := dial(t, serve(t, srv))

	errorOf := func() string {
		f := receive(t, conn)
		require.Equal(t, protocol.FrameError, f.Type)
		var e protocol.Error
		require.NoError(t, f.Into(&e))
		return e.Message
	}

	send(t, conn, protocol.FrameIntent, protocol.Intent{Kind: sim.IntentRotate})
	assert.Contains(t, errorOf(), ErrNotJoined.Error())

	send(t, conn, protocol.FrameJoin, protocol.Join{Name: "x", Element: "plasma"})
	assert.Contains(t, errorOf(), world.ErrUnknownElement.Error())

	send(t, conn, protocol.FrameWelcome, protocol.Welcome{})
	assert.Contains(t, errorOf(), ErrInvalidMessage.Error())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	assert.Contains(t, errorOf(), ErrInvalidMessage.Error())

	join(t, conn, "x", "fire")
	send(t, conn, protocol.FrameJoin, protocol.Join{Name: "x", Element: "fire"})
	assert.Contains(t, errorOf(), ErrAlreadyJoined.Error())
	assert.Equal(t, 1, players(srv))
}

func TestServer_DisconnectLeaves(t *testing.T) {
	srv := newArena(t, DefaultServerConfig())
	url := serve(t, srv)
	conn := dial(t, url)
	join(t, conn, "ann", "earth")
	other := dial(t, url)
	join(t, other, "bob", "air")
	require.Equal(t, 2, players(srv))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return players(srv) == 1 && srv.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestServer_MaxClients(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.MaxClients = 1
	srv := newArena(t, cfg)
	url := serve(t, srv)

	dial(t, url)
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_ReserveIsBounded(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.MaxClients = 3
	srv := newArena(t, cfg)

	var granted int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if srv.reserve() {
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(3), granted)
	assert.Equal(t, 3, srv.Clients())
}

func TestServer_ConcurrentDialsRespectMaxClients(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.MaxClients = 2
	srv := newArena(t, cfg)
	url := serve(t, srv)

	var (
		mu    sync.Mutex
		conns []*websocket.Conn
		full  int
		wg    sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
					full++
				}
				return
			}
			conns = append(conns, conn)
		}()
	}
	wg.Wait()
	for _, conn := range conns {
		t.Cleanup(func() { _ = conn.Close() })
	}
	assert.Len(t, conns, 2)
	assert.Equal(t, 6, full)
	assert.LessOrEqual(t, srv.Clients(), 2)
}

func TestSession_PushDoesNotBlock(t *testing.T) {
	c := &session{send: make(chan []byte, 1), done: make(chan struct{})}
	assert.True(t, c.push([]byte{1}))
	assert.False(t, c.push([]byte{2}), "full buffer")
}

func TestServer_Lifecycle(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.TickInterval = 5 * time.Millisecond
	srv := newArena(t, cfg)

	assert.ErrorIs(t, srv.Stop(context.Background()), ErrServerNotRunning)
	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerAlreadyRunning)

	conn := dial(t, "ws://"+srv.Addr().String()+"/ws")
	join(t, conn, "ann", "fire")
	for {
		if receive(t, conn).Type == protocol.FrameDeltas {
			break
		}
	}
	assert.Positive(t, srv.Tick())

	require.NoError(t, srv.Stop(context.Background()))
	assert.ErrorIs(t, srv.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, srv.Close())
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerClosed)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultServerConfig().Validate())

	cfg := DefaultServerConfig()
	cfg.TickInterval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultServerConfig()
	cfg.SendBuffer = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
