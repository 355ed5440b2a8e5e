package world

import (
	"slices"

	"github.com/isofacet/server/internal/core/ecs"
)

// ChunkIndex records which dynamic entities sit in which chunk so a chunk
// can be repopulated when the facet loads it. It holds ids rather than
// pointers so a stale entry can never resurrect a destroyed entity.
// Accessed only from the tick goroutine.

type chunkKey struct {
	cx int
	cy int
}

// ChunkIndex tracks entity ids per chunk coordinate.
type ChunkIndex struct {
	cells map[chunkKey]map[ecs.EntityID]struct{}
}

func NewChunkIndex() *ChunkIndex {
	return &ChunkIndex{
		cells: make(map[chunkKey]map[ecs.EntityID]struct{}),
	}
}

func keyOf(p Position) chunkKey {
	cx, cy := p.Chunk()
	return chunkKey{cx: cx, cy: cy}
}

// Add places an entity into the chunk holding p.
func (g *ChunkIndex) Add(id ecs.EntityID, p Position) {
	k := keyOf(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an entity out of the chunk holding p.
func (g *ChunkIndex) Remove(id ecs.EntityID, p Position) {
	k := keyOf(p)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an entity's chunk when its position changes.
func (g *ChunkIndex) Move(id ecs.EntityID, from, to Position) {
	if keyOf(from) == keyOf(to) {
		return
	}
	g.Remove(id, from)
	g.Add(id, to)
}

// In returns the ids inside chunk (cx, cy) in ascending order.
func (g *ChunkIndex) In(cx, cy int) []ecs.EntityID {
	cell := g.cells[chunkKey{cx: cx, cy: cy}]
	if len(cell) == 0 {
		return nil
	}
	ids := make([]ecs.EntityID, 0, len(cell))
	for id := range cell {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
