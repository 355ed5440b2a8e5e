package world

// Tile is one grid cell: its land sample plus the entities standing on it.
// Membership keeps insertion order, except that removing an entity moves the
// last member into its place. The order is therefore a pure function of the
// add/remove sequence.
type Tile struct {
	X    uint16
	Y    uint16
	Land uint16 // land graphic
	Z    int8   // land Z

	members []Entity
	index   map[Entity]int
}

// AddEntity adds e. Adding a member twice is a no-op that returns false.
func (t *Tile) AddEntity(e Entity) bool {
	if t.index == nil {
		t.index = make(map[Entity]int, 4)
	}
	if _, ok := t.index[e]; ok {
		return false
	}
	t.index[e] = len(t.members)
	t.members = append(t.members, e)
	return true
}

// RemoveEntity removes e and reports whether it was present.
func (t *Tile) RemoveEntity(e Entity) bool {
	i, ok := t.index[e]
	if !ok {
		return false
	}
	last := len(t.members) - 1
	if i != last {
		moved := t.members[last]
		t.members[i] = moved
		t.index[moved] = i
	}
	t.members[last] = nil
	t.members = t.members[:last]
	delete(t.index, e)
	return true
}

// Clear drops every member and keeps the backing storage.
func (t *Tile) Clear() {
	clear(t.members)
	t.members = t.members[:0]
	clear(t.index)
}

func (t *Tile) Contains(e Entity) bool {
	_, ok := t.index[e]
	return ok
}

func (t *Tile) Len() int { return len(t.members) }

// Entities returns the members in enumeration order. The slice is owned by
// the tile and must not be modified or retained.
func (t *Tile) Entities() []Entity { return t.members }

// Each visits members in order until fn returns false.
func (t *Tile) Each(fn func(Entity) bool) {
	for _, e := range t.members {
		if !fn(e) {
			return
		}
	}
}
