package world

import "github.com/isofacet/server/internal/core/ecs"

// Kind discriminates what occupies a tile.
type Kind uint8

const (
	KindStatic Kind = iota
	KindItem
	KindMobile
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindItem:
		return "item"
	case KindMobile:
		return "mobile"
	}
	return "unknown"
}

// Entity is anything a Tile can hold. Implementations are pointers so the
// value itself is the membership key.
type Entity interface {
	Kind() Kind
	Position() Position
	Graphic() uint16
}

// Static is a fixed map object. Statics live in their chunk's arena and are
// rebuilt on every chunk load.
type Static struct {
	graphic uint16
	hue     uint16
	pos     Position
}

func (s *Static) Kind() Kind         { return KindStatic }
func (s *Static) Position() Position { return s.pos }
func (s *Static) Graphic() uint16    { return s.graphic }
func (s *Static) Hue() uint16        { return s.hue }

// Item is a dynamic world object placed through State.
type Item struct {
	ID      ecs.EntityID
	graphic uint16
	hue     uint16
	pos     Position
}

func (i *Item) Kind() Kind         { return KindItem }
func (i *Item) Position() Position { return i.pos }
func (i *Item) Graphic() uint16    { return i.graphic }
func (i *Item) Hue() uint16        { return i.hue }

// Mobile is a moving creature. Mobiles sit on tiles but never block or
// support movement.
type Mobile struct {
	ID      ecs.EntityID
	Name    string
	graphic uint16
	pos     Position
	dir     Direction
	dead    bool
}

func (m *Mobile) Kind() Kind           { return KindMobile }
func (m *Mobile) Position() Position   { return m.pos }
func (m *Mobile) Graphic() uint16      { return m.graphic }
func (m *Mobile) Direction() Direction { return m.dir }
func (m *Mobile) IsDead() bool         { return m.dead }

// NewMobile builds a detached mobile, mostly for tests and tools. Mobiles
// that should appear on tiles are created with State.AddMobile.
func NewMobile(graphic uint16, pos Position, dir Direction) *Mobile {
	return &Mobile{graphic: graphic, pos: pos, dir: dir}
}
