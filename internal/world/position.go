package world

import "fmt"

// Direction is an 8-way facing. Bit 0x80 marks a running step; the low three
// bits select the facing, and rotating by one unit turns 45 degrees.
type Direction uint8

const (
	North Direction = iota
	Right           // north-east
	East
	Down // south-east
	South
	Left // south-west
	West
	Up // north-west
)

const (
	Running       Direction = 0x80
	DirectionMask Direction = 0x87
)

var (
	headingDX = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	headingDY = [8]int{-1, -1, 0, 1, 1, 1, 0, -1}
)

var directionNames = [8]string{"north", "right", "east", "down", "south", "left", "west", "up"}

// Facing strips the running bit.
func (d Direction) Facing() Direction { return d & 7 }

func (d Direction) IsRunning() bool { return d&Running != 0 }

// IsDiagonal reports the odd facings (Right, Down, Left, Up).
func (d Direction) IsDiagonal() bool { return d&1 == 1 }

// Rotate turns by n units of 45 degrees and keeps the result within the
// running-bit range, i.e. (d + n) & 0x87.
func (d Direction) Rotate(n int) Direction {
	return Direction(uint8(int(d)+n)) & DirectionMask
}

// Delta returns the unit step for the facing.
func (d Direction) Delta() (dx, dy int) {
	f := d.Facing()
	return headingDX[f], headingDY[f]
}

func (d Direction) String() string {
	if d.IsRunning() {
		return directionNames[d.Facing()] + "+run"
	}
	return directionNames[d.Facing()]
}

// Position is a world coordinate.
type Position struct {
	X uint16
	Y uint16
	Z int8
}

// Offset returns the cell one step away in direction d. The result is
// signed so callers can bounds-check steps off the map edge.
func (p Position) Offset(d Direction) (x, y int) {
	dx, dy := d.Delta()
	return int(p.X) + dx, int(p.Y) + dy
}

// Chunk returns the chunk coordinate holding p.
func (p Position) Chunk() (cx, cy int) {
	return int(p.X) >> 3, int(p.Y) >> 3
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}
