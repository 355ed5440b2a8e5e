package world

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	ringSize  = 11
	slotCount = ringSize * ringSize

	// MaxViewDistance is the largest radius whose window fits the ring
	// without two of its chunks sharing a slot, away from a wrap seam.
	MaxViewDistance = (ringSize - 1) / 2
)

// ChunkListener is told about every chunk the facet (re)loads. reloaded is
// true when the slot previously held a different chunk.
type ChunkListener func(c *Chunk, reloaded bool)

// FacetStats counts chunk loads since the facet was created.
type FacetStats struct {
	Loads    int // empty or cleared slot filled
	Reloads  int // slot evicted and refilled
	Skipped  int // chunk not loaded, a nearer chunk of the same pass holds its slot
	Resident int
}

// Facet is a direct-mapped cache of chunks around one or more foci.
// Chunk (cx, cy) lives in slot (cy%11)*11 + cx%11, so chunks 11 apart on
// either axis evict each other. Within one load pass a slot belongs to the
// first chunk that claims it, and chunks are visited nearest-first, so a
// focus chunk and its neighbours are never displaced by farther ones.
// Accessed only from the tick goroutine.
type Facet struct {
	src       BlockSource
	mapIndex  int
	width     int // in chunks
	height    int
	chunks    [slotCount]*Chunk
	claimed   [slotCount]bool // slots taken by the current pass
	listeners []ChunkListener
	stats     FacetStats
	log       *zap.Logger
}

// NewFacet creates an empty facet over map mapIndex of src.
func NewFacet(src BlockSource, mapIndex int, log *zap.Logger) (*Facet, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Facet{src: src, log: log}
	if err := f.SetMap(mapIndex); err != nil {
		return nil, err
	}
	return f, nil
}

// SetMap unloads everything and switches to another map.
func (f *Facet) SetMap(mapIndex int) error {
	w, h := f.src.Blocks(mapIndex)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("facet: map %d has no blocks", mapIndex)
	}
	f.Clear()
	f.mapIndex = mapIndex
	f.width, f.height = w, h
	return nil
}

// OnLoad registers a listener run after every chunk load, in registration
// order.
func (f *Facet) OnLoad(fn ChunkListener) {
	f.listeners = append(f.listeners, fn)
}

func (f *Facet) MapIndex() int { return f.mapIndex }

// Size returns the map size in tiles.
func (f *Facet) Size() (width, height int) {
	return f.width * ChunkSize, f.height * ChunkSize
}

func (f *Facet) IsInMap(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.width*ChunkSize && y < f.height*ChunkSize
}

func slotOf(cx, cy int) int {
	return (cy%ringSize)*ringSize + cx%ringSize
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// LoadChunks makes the chunks within distance chunks of center resident,
// nearest rings first. Coordinates wrap around the map edges. When the
// window wraps onto itself so that two of its chunks share a slot, the one
// nearer to center is kept and the other is skipped. Calling it again with
// the same arguments does nothing. A negative distance panics.
func (f *Facet) LoadChunks(center Position, distance int) {
	f.LoadAround([]Position{center}, distance)
}

// LoadAround loads the windows of several foci in one pass. Rings are
// interleaved across foci, ring 0 of every focus before ring 1 of any, and
// foci earlier in the slice win ties.
func (f *Facet) LoadAround(centers []Position, distance int) {
	if distance < 0 {
		panic(fmt.Sprintf("world: negative view distance %d", distance))
	}
	f.claimed = [slotCount]bool{}

	for r := 0; r <= distance; r++ {
		for _, center := range centers {
			ccx, ccy := center.Chunk()
			f.ring(ccx, ccy, r)
		}
	}
}

// ring visits the square ring at Chebyshev distance r around (ccx, ccy),
// top row first, then both sides, then the bottom row.
func (f *Facet) ring(ccx, ccy, r int) {
	if r == 0 {
		f.ensure(ccx, ccy)
		return
	}
	for dx := -r; dx <= r; dx++ {
		f.ensure(ccx+dx, ccy-r)
	}
	for dy := -r + 1; dy < r; dy++ {
		f.ensure(ccx-r, ccy+dy)
		f.ensure(ccx+r, ccy+dy)
	}
	for dx := -r; dx <= r; dx++ {
		f.ensure(ccx+dx, ccy+r)
	}
}

func (f *Facet) ensure(cx, cy int) {
	cx, cy = wrap(cx, f.width), wrap(cy, f.height)
	slot := slotOf(cx, cy)
	c := f.chunks[slot]
	if f.claimed[slot] {
		if c.X != cx || c.Y != cy {
			f.stats.Skipped++
			f.log.Debug("chunk skipped, slot held by a nearer chunk",
				zap.Int("slot", slot),
				zap.Int("held_x", c.X), zap.Int("held_y", c.Y),
				zap.Int("x", cx), zap.Int("y", cy))
		}
		return
	}
	f.claimed[slot] = true

	switch {
	case c == nil:
		c = newChunk(cx, cy)
		f.chunks[slot] = c
		f.load(c, false)
	case !c.loaded:
		c.SetTo(cx, cy)
		f.load(c, false)
	case c.X != cx || c.Y != cy:
		f.log.Debug("chunk evicted",
			zap.Int("slot", slot),
			zap.Int("old_x", c.X), zap.Int("old_y", c.Y),
			zap.Int("new_x", cx), zap.Int("new_y", cy))
		c.Unload()
		c.SetTo(cx, cy)
		f.load(c, true)
	}
}

func (f *Facet) load(c *Chunk, reloaded bool) {
	c.Load(f.src, f.mapIndex)
	if reloaded {
		f.stats.Reloads++
	} else {
		f.stats.Loads++
	}
	for _, fn := range f.listeners {
		fn(c, reloaded)
	}
}

// Chunk returns the resident chunk at chunk coordinate (cx, cy), or nil.
func (f *Facet) Chunk(cx, cy int) *Chunk {
	if cx < 0 || cy < 0 {
		return nil
	}
	c := f.chunks[slotOf(cx, cy)]
	if c == nil || !c.loaded || c.X != cx || c.Y != cy {
		return nil
	}
	return c
}

// Resident reports whether the chunk holding tile (x, y) is loaded.
func (f *Facet) Resident(x, y int) bool {
	return f.IsInMap(x, y) && f.Chunk(x>>3, y>>3) != nil
}

// NeighborhoodResident reports whether tile (x, y) and every in-map tile
// around it are resident, which is what validating a step from (x, y) reads.
func (f *Facet) NeighborhoodResident(x, y int) bool {
	if !f.Resident(x, y) {
		return false
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if f.IsInMap(nx, ny) && !f.Resident(nx, ny) {
				return false
			}
		}
	}
	return true
}

// TryGetTile returns the tile at (x, y) if its chunk is resident.
func (f *Facet) TryGetTile(x, y int) (*Tile, bool) {
	if !f.IsInMap(x, y) {
		return nil, false
	}
	c := f.Chunk(x>>3, y>>3)
	if c == nil {
		return nil, false
	}
	return c.Tile(x&7, y&7), true
}

// GetTile returns the tile at (x, y). The chunk must be resident; asking for
// anything else is a caller bug and panics.
func (f *Facet) GetTile(x, y int) *Tile {
	t, ok := f.TryGetTile(x, y)
	if !ok {
		panic(fmt.Sprintf("world: tile (%d,%d) of map %d is not resident", x, y, f.mapIndex))
	}
	return t
}

// GetTileZ returns the land Z at (x, y) from the block store.
func (f *Facet) GetTileZ(x, y int) int {
	return f.src.GetTileZ(f.mapIndex, x, y)
}

// GetAverageZ returns the lowest, averaged and highest corner Z of the land
// cell at (x, y).
func (f *Facet) GetAverageZ(x, y int) (low, avg, top int) {
	return f.src.GetAverageZ(f.mapIndex, x, y)
}

// Clear unloads every resident chunk. Slots keep their chunk memory.
func (f *Facet) Clear() {
	for _, c := range f.chunks {
		if c != nil && c.loaded {
			c.Unload()
		}
	}
}

func (f *Facet) Stats() FacetStats {
	s := f.stats
	for _, c := range f.chunks {
		if c != nil && c.loaded {
			s.Resident++
		}
	}
	return s
}
