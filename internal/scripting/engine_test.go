package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isofacet/server/internal/data"
	"github.com/isofacet/server/internal/pathfind"
)

func newEngine(t *testing.T, scripts map[string]string) *Engine {
	t.Helper()
	dir := t.TempDir()
	for name, src := range scripts {
		path := filepath.Join(dir, "movement", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	e, err := NewEngine(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestEngineFallsBackWithoutScripts(t *testing.T) {
	e := newEngine(t, nil)
	var _ pathfind.DoorPolicy = e

	assert.True(t, e.IgnoresDoors(0x0190, true))
	assert.True(t, e.IgnoresDoors(pathfind.GhostGraphic, false))
	assert.False(t, e.IgnoresDoors(0x0190, false))
	assert.True(t, e.IsDoor(0x0001, data.FlagDoor))
	assert.True(t, e.IsDoor(0x06F6, 0))
	assert.False(t, e.IsDoor(0x0080, data.FlagBlocking))
}

func TestEngineShippedDoorScript(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "scripts", "movement", "doors.lua"))
	require.NoError(t, err)
	e := newEngine(t, map[string]string{"doors.lua": string(src)})

	def := pathfind.DefaultDoors{}
	for _, g := range []uint16{0x0190, 0x03DB, 0x0692, 0x0846, 0x0873, 0x06F5, 0x06F6, 0x0080} {
		for _, dead := range []bool{false, true} {
			assert.Equal(t, def.IgnoresDoors(g, dead), e.IgnoresDoors(g, dead), "graphic 0x%04X dead=%v", g, dead)
		}
		for _, f := range []data.TileFlags{0, data.FlagDoor, data.FlagBlocking} {
			assert.Equal(t, def.IsDoor(g, f), e.IsDoor(g, f), "graphic 0x%04X flags %v", g, f)
		}
	}
}

func TestEngineScriptOverrides(t *testing.T) {
	e := newEngine(t, map[string]string{"rules.lua": `
function ignores_doors(graphic, dead)
  return graphic == 0x0190
end
`})
	assert.True(t, e.IgnoresDoors(0x0190, false))
	assert.False(t, e.IgnoresDoors(0x0191, true), "script replaces the dead rule")
	// is_door is not defined, so the built-in rule applies.
	assert.True(t, e.IsDoor(0x0846, 0))
}

func TestEngineScriptErrorFallsBack(t *testing.T) {
	e := newEngine(t, nil)
	require.NoError(t, e.LoadString(`function is_door(graphic, flags) error("boom") end`))
	assert.True(t, e.IsDoor(0x0692, 0))
	assert.False(t, e.IsDoor(0x0080, 0))
}

func TestEngineLoadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movement", "broken.lua")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("function ("), 0o644))

	_, err := NewEngine(dir, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "broken.lua")
}
