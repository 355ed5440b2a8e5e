package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/isofacet/server/internal/core/ecs"
)

// State tracks the dynamic entities of one map: ground items and mobiles.
// Entities inside a resident chunk are also members of their Tile; entities
// elsewhere are kept in the chunk index and attached when the chunk loads.
// Single-goroutine access only (tick loop).
type State struct {
	world   *ecs.World
	items   *ecs.PtrComponentStore[Item]
	mobiles *ecs.PtrComponentStore[Mobile]
	index   *ChunkIndex
	facet   *Facet
	log     *zap.Logger
}

func NewState(w *ecs.World, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	s := &State{
		world:   w,
		items:   ecs.NewPtrComponentStore[Item](),
		mobiles: ecs.NewPtrComponentStore[Mobile](),
		index:   NewChunkIndex(),
		log:     log,
	}
	w.Register(s.items)
	w.Register(s.mobiles)
	return s
}

// Attach binds the state to a facet. Every chunk the facet loads from now
// on is repopulated with the entities indexed inside it, and entities
// already inside resident chunks are attached immediately.
func (s *State) Attach(f *Facet) {
	s.facet = f
	f.OnLoad(func(c *Chunk, _ bool) { s.PopulateChunk(c) })
	for _, c := range f.chunks {
		if c != nil && c.loaded {
			s.PopulateChunk(c)
		}
	}
}

// PopulateChunk attaches every indexed entity located in c to its tile, in
// ascending id order.
func (s *State) PopulateChunk(c *Chunk) {
	for _, id := range s.index.In(c.X, c.Y) {
		var e Entity
		if it, ok := s.items.Get(id); ok {
			e = it
		} else if m, ok := s.mobiles.Get(id); ok {
			e = m
		} else {
			continue
		}
		p := e.Position()
		c.Tile(int(p.X)&7, int(p.Y)&7).AddEntity(e)
	}
}

func (s *State) attach(e Entity) {
	if s.facet == nil {
		return
	}
	p := e.Position()
	if t, ok := s.facet.TryGetTile(int(p.X), int(p.Y)); ok {
		t.AddEntity(e)
	}
}

func (s *State) detach(e Entity) {
	if s.facet == nil {
		return
	}
	p := e.Position()
	if t, ok := s.facet.TryGetTile(int(p.X), int(p.Y)); ok {
		t.RemoveEntity(e)
	}
}

// --- items ---

// SpawnItem places a new item in the world.
func (s *State) SpawnItem(graphic, hue uint16, pos Position) *Item {
	id := s.world.CreateEntity()
	it := &Item{ID: id, graphic: graphic, hue: hue, pos: pos}
	s.items.Set(id, it)
	s.index.Add(id, pos)
	s.attach(it)
	return it
}

// Item returns a live item by id.
func (s *State) Item(id ecs.EntityID) *Item {
	it, _ := s.items.Get(id)
	return it
}

// MoveItem relocates an item, updating tile membership.
func (s *State) MoveItem(id ecs.EntityID, pos Position) error {
	it, ok := s.items.Get(id)
	if !ok {
		return fmt.Errorf("move item %d: not found", id)
	}
	s.detach(it)
	s.index.Move(id, it.pos, pos)
	it.pos = pos
	s.attach(it)
	return nil
}

// RemoveItem takes an item off the map now. Its id is released when the
// cleanup phase flushes the destroy queue.
func (s *State) RemoveItem(id ecs.EntityID) error {
	it, ok := s.items.Get(id)
	if !ok {
		return fmt.Errorf("remove item %d: not found", id)
	}
	s.detach(it)
	s.index.Remove(id, it.pos)
	s.items.Remove(id)
	s.world.MarkForDestruction(id)
	return nil
}

func (s *State) ItemCount() int { return s.items.Len() }

// --- mobiles ---

// AddMobile places a new mobile in the world.
func (s *State) AddMobile(name string, graphic uint16, pos Position, dir Direction) *Mobile {
	id := s.world.CreateEntity()
	m := &Mobile{ID: id, Name: name, graphic: graphic, pos: pos, dir: dir}
	s.mobiles.Set(id, m)
	s.index.Add(id, pos)
	s.attach(m)
	s.log.Debug("mobile added",
		zap.String("name", name),
		zap.Uint64("id", uint64(id)),
		zap.Stringer("pos", pos))
	return m
}

func (s *State) Mobile(id ecs.EntityID) *Mobile {
	m, _ := s.mobiles.Get(id)
	return m
}

// MoveMobile relocates a mobile and sets its facing.
func (s *State) MoveMobile(id ecs.EntityID, pos Position, dir Direction) error {
	m, ok := s.mobiles.Get(id)
	if !ok {
		return fmt.Errorf("move mobile %d: not found", id)
	}
	s.detach(m)
	s.index.Move(id, m.pos, pos)
	m.pos = pos
	m.dir = dir
	s.attach(m)
	return nil
}

// SetDead flips a mobile's dead flag.
func (s *State) SetDead(id ecs.EntityID, dead bool) {
	if m, ok := s.mobiles.Get(id); ok {
		m.dead = dead
	}
}

func (s *State) RemoveMobile(id ecs.EntityID) error {
	m, ok := s.mobiles.Get(id)
	if !ok {
		return fmt.Errorf("remove mobile %d: not found", id)
	}
	s.detach(m)
	s.index.Remove(id, m.pos)
	s.mobiles.Remove(id)
	s.world.MarkForDestruction(id)
	return nil
}

// EachMobile visits mobiles in ascending id order.
func (s *State) EachMobile(fn func(*Mobile)) {
	s.mobiles.Each(func(_ ecs.EntityID, m *Mobile) { fn(m) })
}

func (s *State) MobileCount() int { return s.mobiles.Len() }
