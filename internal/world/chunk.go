package world

import (
	"fmt"

	"github.com/isofacet/server/internal/data"
)

// ChunkSize is the edge length of a chunk in tiles.
const ChunkSize = data.BlockSize

// BlockSource is the backing map store the facet loads chunks from.
type BlockSource interface {
	Blocks(index int) (width, height int)
	Block(index, bx, by int) *data.MapBlock
	GetTileZ(index, x, y int) int
	GetAverageZ(index, x, y int) (low, avg, top int)
}

// Chunk owns the 8x8 tiles of one chunk coordinate. Chunks are recycled in
// place: Unload, then SetTo, then Load.
type Chunk struct {
	X int
	Y int

	tiles   [ChunkSize * ChunkSize]Tile // [ly*8 + lx]
	statics []Static                    // arena, rebuilt by Load
	loaded  bool
}

func newChunk(x, y int) *Chunk {
	c := &Chunk{}
	c.SetTo(x, y)
	return c
}

// SetTo retargets an unloaded chunk and restamps its tile coordinates.
func (c *Chunk) SetTo(x, y int) {
	if c.loaded {
		panic(fmt.Sprintf("world: SetTo(%d,%d) on loaded chunk (%d,%d)", x, y, c.X, c.Y))
	}
	c.X, c.Y = x, y
	for i := range c.tiles {
		t := &c.tiles[i]
		t.X = uint16(x*ChunkSize + i%ChunkSize)
		t.Y = uint16(y*ChunkSize + i/ChunkSize)
		t.Land = 0
		t.Z = 0
	}
}

// Load stamps land from the block store and places the block's statics.
// Statics with a sentinel graphic or a local offset outside the 8x8
// footprint are dropped.
func (c *Chunk) Load(src BlockSource, mapIndex int) {
	c.loaded = true
	block := src.Block(mapIndex, c.X, c.Y)
	if block == nil {
		return
	}
	for i := range c.tiles {
		c.tiles[i].Land = block.Cells[i].Graphic
		c.tiles[i].Z = block.Cells[i].Z
	}

	// Size the arena up front so the pointers handed to tiles stay valid.
	if cap(c.statics) < len(block.Statics) {
		c.statics = make([]Static, 0, len(block.Statics))
	}
	c.statics = c.statics[:0]
	for _, s := range block.Statics {
		if s.Graphic == 0 || s.Graphic == 0xFFFF {
			continue
		}
		if s.X >= ChunkSize || s.Y >= ChunkSize {
			continue
		}
		t := &c.tiles[int(s.Y)*ChunkSize+int(s.X)]
		c.statics = append(c.statics, Static{
			graphic: s.Graphic,
			hue:     s.Hue,
			pos:     Position{X: t.X, Y: t.Y, Z: s.Z},
		})
		t.AddEntity(&c.statics[len(c.statics)-1])
	}
}

// Unload clears every tile's membership without releasing storage.
func (c *Chunk) Unload() {
	for i := range c.tiles {
		c.tiles[i].Clear()
	}
	clear(c.statics)
	c.statics = c.statics[:0]
	c.loaded = false
}

func (c *Chunk) Loaded() bool { return c.loaded }

// Tile returns the tile at local offset (lx, ly), both in 0..7.
func (c *Chunk) Tile(lx, ly int) *Tile {
	return &c.tiles[ly*ChunkSize+lx]
}

// StaticCount returns the number of statics placed by the last Load.
func (c *Chunk) StaticCount() int { return len(c.statics) }

// Contains reports whether world tile (x, y) lies inside the chunk.
func (c *Chunk) Contains(x, y int) bool {
	return x>>3 == c.X && y>>3 == c.Y && x >= 0 && y >= 0
}
