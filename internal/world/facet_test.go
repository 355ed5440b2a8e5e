package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isofacet/server/internal/core/ecs"
	"github.com/isofacet/server/internal/data"
)

// newMap defines a map of w x h chunks where every land cell's graphic
// encodes its chunk, so tests can tell which chunk a tile came from.
func newMap(t *testing.T, w, h int) *data.MapDataTable {
	t.Helper()
	maps := data.NewMapDataTable()
	require.NoError(t, maps.Define(data.MapInfo{Index: 0, Name: "test", Width: w * ChunkSize, Height: h * ChunkSize}))
	for y := 0; y < h*ChunkSize; y++ {
		for x := 0; x < w*ChunkSize; x++ {
			maps.SetLand(0, x, y, uint16((y>>3)*w+(x>>3)+1), int8(x&7))
		}
	}
	return maps
}

func newTestFacet(t *testing.T, maps *data.MapDataTable) *Facet {
	t.Helper()
	f, err := NewFacet(maps, 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	return f
}

func TestNewFacetUnknownMap(t *testing.T) {
	_, err := NewFacet(data.NewMapDataTable(), 3, nil)
	assert.Error(t, err)
}

func TestLoadChunksIdempotent(t *testing.T) {
	f := newTestFacet(t, newMap(t, 32, 32))
	center := Position{X: 100, Y: 100}

	f.LoadChunks(center, 2)
	first := f.Stats()
	assert.Equal(t, 25, first.Loads)
	assert.Equal(t, 25, first.Resident)

	f.LoadChunks(center, 2)
	assert.Equal(t, first, f.Stats())
}

func TestLoadChunksSlotsMatchCoordinates(t *testing.T) {
	f := newTestFacet(t, newMap(t, 32, 32))
	f.LoadChunks(Position{X: 130, Y: 70}, MaxViewDistance)
	require.Equal(t, slotCount, f.Stats().Resident)

	for slot, c := range f.chunks {
		require.NotNil(t, c)
		assert.Equal(t, slot, slotOf(c.X, c.Y))
		for ly := 0; ly < ChunkSize; ly++ {
			for lx := 0; lx < ChunkSize; lx++ {
				tile := c.Tile(lx, ly)
				assert.Equal(t, uint16(c.X*ChunkSize+lx), tile.X)
				assert.Equal(t, uint16(c.Y*ChunkSize+ly), tile.Y)
				assert.Equal(t, uint16(c.Y*32+c.X+1), tile.Land)
				assert.Equal(t, int8(lx), tile.Z)
			}
		}
	}

	tile := f.GetTile(130, 70)
	assert.Equal(t, uint16(130), tile.X)
	assert.Equal(t, uint16(70), tile.Y)
}

func TestLoadChunksWideDistanceKeepsNearest(t *testing.T) {
	f := newTestFacet(t, newMap(t, 32, 32))
	f.LoadChunks(Position{X: 128, Y: 128}, 9)
	st := f.Stats()
	assert.Equal(t, slotCount, st.Loads)
	assert.Zero(t, st.Reloads)
	assert.Equal(t, 19*19-slotCount, st.Skipped)

	// Rings 0..5 fill the ring exactly; everything farther is skipped.
	for cy := 16 - 5; cy <= 16+5; cy++ {
		for cx := 16 - 5; cx <= 16+5; cx++ {
			assert.NotNil(t, f.Chunk(cx, cy), "chunk (%d,%d)", cx, cy)
		}
	}
	assert.Nil(t, f.Chunk(16+6, 16))

	assert.Panics(t, func() { f.LoadChunks(Position{X: 128, Y: 128}, -1) })
}

func TestLoadChunksAcrossUnalignedSeam(t *testing.T) {
	// 16 chunks per axis: chunks 0..4 share slots with 11..15.
	f := newTestFacet(t, newMap(t, 16, 16))
	center := Position{X: 124, Y: 60}
	f.LoadChunks(center, 5)

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := int(center.X)+dx*ChunkSize, int(center.Y)+dy*ChunkSize
			assert.True(t, f.Resident(wrap(x, 128), y), "neighbour chunk of (%d,%d)", x, y)
		}
	}
	assert.True(t, f.NeighborhoodResident(124, 60))
	assert.NotPanics(t, func() { f.GetTile(124, 60) })
	require.NotNil(t, f.Chunk(15, 7))
	require.NotNil(t, f.Chunk(0, 7), "one chunk across the seam beats chunk 11")
	assert.Nil(t, f.Chunk(11, 7))
	assert.NotNil(t, f.Chunk(13, 7), "chunk 13 is nearer than chunk 2")
	assert.Nil(t, f.Chunk(2, 7))

	st := f.Stats()
	assert.Zero(t, st.Reloads)
	assert.Equal(t, 66, st.Loads, "six distinct slots per row")
	assert.Equal(t, 55, st.Skipped)
	assert.Equal(t, 66, st.Resident)
	for slot, c := range f.chunks {
		if c != nil {
			assert.Equal(t, slot, slotOf(c.X, c.Y))
		}
	}

	f.LoadChunks(center, 5)
	assert.Equal(t, 66, f.Stats().Loads, "a second pass changes nothing")
	assert.Zero(t, f.Stats().Reloads)
}

func TestLoadAroundFirstFocusWins(t *testing.T) {
	f := newTestFacet(t, newMap(t, 16, 16))
	a := Position{X: 4, Y: 4}  // chunk (0, 0)
	b := Position{X: 92, Y: 4} // chunk (11, 0), same slot as a
	f.LoadAround([]Position{a, b}, 1)

	assert.True(t, f.NeighborhoodResident(4, 4))
	assert.False(t, f.Resident(92, 4))
	assert.False(t, f.NeighborhoodResident(92, 4))
	assert.True(t, f.Resident(10*ChunkSize, 4), "b keeps the chunks nobody nearer wanted")
	assert.Zero(t, f.Stats().Reloads)
	assert.Positive(t, f.Stats().Skipped)
}

func TestLoadChunksWrapsAroundEdges(t *testing.T) {
	f := newTestFacet(t, newMap(t, 32, 32))
	f.LoadChunks(Position{X: 0, Y: 0}, 1)

	assert.True(t, f.Resident(31*ChunkSize, 31*ChunkSize))
	assert.True(t, f.Resident(0, 31*ChunkSize))
	assert.True(t, f.Resident(8, 8))
	assert.False(t, f.Resident(16, 16))
	assert.False(t, f.Resident(-1, 0))
}

func TestDirectMappedEviction(t *testing.T) {
	f := newTestFacet(t, newMap(t, 32, 32))
	f.LoadChunks(Position{X: 1 * ChunkSize, Y: 1 * ChunkSize}, 0)
	before := f.Chunk(1, 1)
	require.NotNil(t, before)

	// Chunk (12, 1) aliases chunk (1, 1).
	f.LoadChunks(Position{X: 12 * ChunkSize, Y: 1 * ChunkSize}, 0)
	st := f.Stats()
	assert.Equal(t, 1, st.Loads)
	assert.Equal(t, 1, st.Reloads)
	assert.Equal(t, 1, st.Resident)
	assert.Nil(t, f.Chunk(1, 1))
	assert.False(t, f.Resident(8, 8))

	after := f.Chunk(12, 1)
	assert.Same(t, before, after, "evicted chunk memory is reused")
	assert.Equal(t, uint16(96), after.Tile(0, 0).X)
	assert.Equal(t, uint16(1*32+12+1), after.Tile(0, 0).Land)
}

func TestGetTileNotResidentPanics(t *testing.T) {
	f := newTestFacet(t, newMap(t, 32, 32))
	f.LoadChunks(Position{X: 10, Y: 10}, 0)

	assert.NotPanics(t, func() { f.GetTile(10, 10) })
	assert.Panics(t, func() { f.GetTile(100, 100) })
	assert.Panics(t, func() { f.GetTile(-1, 3) })
	_, ok := f.TryGetTile(100, 100)
	assert.False(t, ok)
}

func TestChunkLoadFiltersStatics(t *testing.T) {
	maps := newMap(t, 4, 4)
	maps.AddStatic(0, 3, 4, 5, 0x0080, 0)
	maps.AddStatic(0, 3, 4, 0, 0x0495, 0)
	block := maps.Block(0, 0, 0)
	block.Statics = append(block.Statics,
		data.StaticEntry{Graphic: 0, X: 1, Y: 1},
		data.StaticEntry{Graphic: 0xFFFF, X: 1, Y: 1},
		data.StaticEntry{Graphic: 0x0080, X: 8, Y: 1},
		data.StaticEntry{Graphic: 0x0080, X: 1, Y: 9},
	)

	f := newTestFacet(t, maps)
	f.LoadChunks(Position{}, 0)

	c := f.Chunk(0, 0)
	require.NotNil(t, c)
	assert.Equal(t, 2, c.StaticCount())
	tile := f.GetTile(3, 4)
	require.Equal(t, 2, tile.Len())
	assert.Equal(t, uint16(0x0080), tile.Entities()[0].Graphic())
	assert.Equal(t, Position{X: 3, Y: 4, Z: 5}, tile.Entities()[0].Position())
	assert.Equal(t, KindStatic, tile.Entities()[1].Kind())
	assert.Zero(t, f.GetTile(1, 1).Len())
}

func TestChunkUnloadBeforeSetTo(t *testing.T) {
	maps := newMap(t, 4, 4)
	maps.AddStatic(0, 1, 1, 0, 0x0080, 0)
	c := newChunk(0, 0)
	c.Load(maps, 0)
	require.Equal(t, 1, c.Tile(1, 1).Len())

	assert.Panics(t, func() { c.SetTo(1, 0) })

	c.Unload()
	assert.Zero(t, c.Tile(1, 1).Len())
	assert.Zero(t, c.StaticCount())
	c.SetTo(1, 0)
	c.Load(maps, 0)
	assert.Equal(t, uint16(8), c.Tile(0, 0).X)
	assert.Zero(t, c.Tile(1, 1).Len())
}

func TestFacetClear(t *testing.T) {
	f := newTestFacet(t, newMap(t, 32, 32))
	f.LoadChunks(Position{X: 50, Y: 50}, 1)
	f.Clear()
	assert.Zero(t, f.Stats().Resident)
	assert.False(t, f.Resident(50, 50))

	f.LoadChunks(Position{X: 50, Y: 50}, 1)
	st := f.Stats()
	assert.Equal(t, 18, st.Loads)
	assert.Zero(t, st.Reloads)
	assert.Equal(t, 9, st.Resident)
}

func TestFacetHeights(t *testing.T) {
	maps := newMap(t, 4, 4)
	f := newTestFacet(t, maps)
	assert.Equal(t, 3, f.GetTileZ(11, 2))
	low, avg, top := f.GetAverageZ(11, 2)
	assert.Equal(t, 3, low)
	assert.Equal(t, 3, avg)
	assert.Equal(t, 4, top)
	assert.True(t, f.IsInMap(31, 31))
	assert.False(t, f.IsInMap(32, 0))
}

func TestStateReattachesItemsOnLoad(t *testing.T) {
	f := newTestFacet(t, newMap(t, 32, 32))
	st := NewState(ecs.NewWorld(), zaptest.NewLogger(t))
	st.Attach(f)

	it := st.SpawnItem(0x0080, 0, Position{X: 200, Y: 200, Z: 3})
	m := st.AddMobile("m", 0x0190, Position{X: 201, Y: 200}, South)
	assert.False(t, f.Resident(200, 200))

	f.LoadChunks(Position{X: 200, Y: 200}, 0)
	tile := f.GetTile(200, 200)
	assert.True(t, tile.Contains(it))
	assert.True(t, f.GetTile(201, 200).Contains(m))

	// Evict and bring it back.
	f.LoadChunks(Position{X: 200 - 11*ChunkSize, Y: 200}, 0)
	assert.False(t, f.Resident(200, 200))
	f.LoadChunks(Position{X: 200, Y: 200}, 0)
	assert.True(t, f.GetTile(200, 200).Contains(it))
	assert.Equal(t, 1, f.GetTile(200, 200).Len())
}

func TestStateItemLifecycle(t *testing.T) {
	w := ecs.NewWorld()
	f := newTestFacet(t, newMap(t, 4, 4))
	st := NewState(w, zaptest.NewLogger(t))
	f.LoadChunks(Position{X: 16, Y: 16}, 5)
	it := st.SpawnItem(0x0080, 0, Position{X: 5, Y: 5})
	st.Attach(f)
	assert.True(t, f.GetTile(5, 5).Contains(it), "attach picks up items spawned earlier")

	require.NoError(t, st.MoveItem(it.ID, Position{X: 20, Y: 5}))
	assert.False(t, f.GetTile(5, 5).Contains(it))
	assert.True(t, f.GetTile(20, 5).Contains(it))

	require.NoError(t, st.RemoveItem(it.ID))
	assert.False(t, f.GetTile(20, 5).Contains(it))
	assert.Nil(t, st.Item(it.ID))
	assert.Error(t, st.RemoveItem(it.ID))
	assert.Error(t, st.MoveItem(it.ID, Position{}))

	assert.True(t, w.Alive(it.ID))
	w.FlushDestroyQueue()
	assert.False(t, w.Alive(it.ID))

	// A reload does not resurrect it.
	f.Clear()
	f.LoadChunks(Position{X: 16, Y: 16}, 5)
	assert.Zero(t, f.GetTile(20, 5).Len())
}

func TestStateMobiles(t *testing.T) {
	f := newTestFacet(t, newMap(t, 4, 4))
	f.LoadChunks(Position{X: 16, Y: 16}, 5)
	st := NewState(ecs.NewWorld(), zaptest.NewLogger(t))
	st.Attach(f)

	a := st.AddMobile("a", 0x0190, Position{X: 1, Y: 1}, North)
	b := st.AddMobile("b", 0x0191, Position{X: 2, Y: 2}, North)
	require.NoError(t, st.MoveMobile(a.ID, Position{X: 1, Y: 2, Z: 4}, South|Running))
	assert.Equal(t, Position{X: 1, Y: 2, Z: 4}, a.Position())
	assert.Equal(t, South|Running, a.Direction())
	assert.True(t, f.GetTile(1, 2).Contains(a))
	assert.False(t, f.GetTile(1, 1).Contains(a))

	st.SetDead(b.ID, true)
	assert.True(t, b.IsDead())

	var names []string
	st.EachMobile(func(m *Mobile) { names = append(names, m.Name) })
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, st.RemoveMobile(b.ID))
	assert.Equal(t, 1, st.MobileCount())
	assert.False(t, f.GetTile(2, 2).Contains(b))
}
