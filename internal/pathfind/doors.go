package pathfind

import "github.com/isofacet/server/internal/data"

// DoorPolicy decides which movers walk through doors and what counts as a
// door. The validator applies it to map statics and dynamic items alike.
type DoorPolicy interface {
	IgnoresDoors(graphic uint16, dead bool) bool
	IsDoor(graphic uint16, flags data.TileFlags) bool
}

// GhostGraphic is the incorporeal body that passes through doors.
const GhostGraphic = 0x03DB

// DefaultDoors is the built-in door rule set.
type DefaultDoors struct{}

func (DefaultDoors) IgnoresDoors(graphic uint16, dead bool) bool {
	return dead || graphic == GhostGraphic
}

func (DefaultDoors) IsDoor(graphic uint16, flags data.TileFlags) bool {
	if flags.Has(data.FlagDoor) {
		return true
	}
	switch graphic {
	case 0x0692, 0x0846, 0x0873, 0x06F5, 0x06F6:
		return true
	}
	return false
}
