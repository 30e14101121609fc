package injector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/arena/internal/config"
	"github.com/zeusync/arena/internal/core/observability/log"
	"github.com/zeusync/arena/internal/level"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestInitializeServer_Defaults(t *testing.T) {
	srv, err := InitializeServer("")
	require.NoError(t, err)
	require.NotNil(t, srv)
	t.Cleanup(func() { _ = srv.Close() })
	assert.Zero(t, srv.Tick())
}

func TestInitializeServer_LevelFile(t *testing.T) {
	dir := t.TempDir()
	lvl := write(t, dir, "pit.yaml", `
name: pit
walls:
  - {p1: [-10, 0], p2: [10, 0], normal: [0, 1]}
spawns:
  - [0, 5]
`)
	cfg := write(t, dir, "arena.yaml", "level: "+lvl+"\nlog:\n  level: error\n")

	srv, err := InitializeServer(ConfigPath(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
}

func TestInitializeServer_MissingLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := write(t, dir, "arena.yaml", "level: "+filepath.Join(dir, "nope.yaml")+"\n")

	_, err := InitializeServer(ConfigPath(cfg))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProvideWorld_BuildsLevel(t *testing.T) {
	w := ProvideWorld(log.NewNop(), level.Square(100))
	assert.Equal(t, 4, w.Len())
	assert.True(t, w.Master())
}

func TestProvideServerConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.TickRate = 50
	sc := ProvideServerConfig(cfg)
	assert.Equal(t, 20*time.Millisecond, sc.TickInterval)
	assert.Equal(t, cfg.Server.ListenAddr, sc.ListenAddr)
	require.NoError(t, sc.Validate())
}
