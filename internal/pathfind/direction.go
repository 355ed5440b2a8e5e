package pathfind

import (
	"fmt"

	"github.com/isofacet/server/internal/world"
)

// NextDirection picks the facing from current toward (goalX, goalY) by the
// signs of the deltas. A zero displacement has no facing and panics.
func NextDirection(current world.Position, goalX, goalY int) world.Direction {
	x, y := int(current.X), int(current.Y)
	switch {
	case goalX < x:
		switch {
		case goalY < y:
			return world.Up
		case goalY > y:
			return world.Left
		default:
			return world.West
		}
	case goalX > x:
		switch {
		case goalY < y:
			return world.Right
		case goalY > y:
			return world.Down
		default:
			return world.East
		}
	default:
		switch {
		case goalY < y:
			return world.North
		case goalY > y:
			return world.South
		}
	}
	panic(fmt.Sprintf("pathfind: no direction from %v to its own cell", current))
}
