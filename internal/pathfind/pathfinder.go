// Package pathfind validates single-tile steps over the facet's tiles and
// resolves the Z a mover ends at.
package pathfind

import (
	"github.com/isofacet/server/internal/data"
	"github.com/isofacet/server/internal/world"
)

const (
	PersonHeight = 16
	StepHeight   = 2

	impassableSurface = data.FlagBlocking | data.FlagSurface

	// Graphics at or above this id are multi-tile parts and never collide.
	maxGraphic = 0x4000
)

// Mover is whoever is asking to step.
type Mover interface {
	Position() world.Position
	Graphic() uint16
	IsDead() bool
}

// Grid is the tile view the validator reads. *world.Facet implements it.
type Grid interface {
	IsInMap(x, y int) bool
	GetTile(x, y int) *world.Tile
	GetAverageZ(x, y int) (low, avg, top int)
}

// Step is a resolved single-tile move.
type Step struct {
	Direction world.Direction
	X         int
	Y         int
	Z         int8
}

// obstacle is a Blocking or Surface object cached for one call.
type obstacle struct {
	z       int
	height  int // raw descriptor height
	top     int // z + effective height
	flags   data.TileFlags
	graphic uint16
}

type bucket struct {
	statics []obstacle
	items   []obstacle
}

func (b *bucket) reset() {
	b.statics = b.statics[:0]
	b.items = b.items[:0]
}

const (
	cellStart = iota
	cellForward
	cellLeft
	cellRight
	cellCount
)

// Pathfinder owns its scratch buckets and must not be shared between
// goroutines.
type Pathfinder struct {
	grid    Grid
	tiles   *data.TileDataTable
	doors   DoorPolicy
	scratch [cellCount]bucket
}

// New builds a validator. A nil policy selects DefaultDoors.
func New(grid Grid, tiles *data.TileDataTable, doors DoorPolicy) *Pathfinder {
	if doors == nil {
		doors = DefaultDoors{}
	}
	p := &Pathfinder{grid: grid, tiles: tiles, doors: doors}
	for i := range p.scratch {
		p.scratch[i].statics = make([]obstacle, 0, 8)
		p.scratch[i].items = make([]obstacle, 0, 8)
	}
	return p
}

func (p *Pathfinder) SetDoorPolicy(doors DoorPolicy) {
	if doors == nil {
		doors = DefaultDoors{}
	}
	p.doors = doors
}

// CanWalk tries a step from the mover's position in direction dir, with the
// usual rotation fallbacks.
func (p *Pathfinder) CanWalk(m Mover, dir world.Direction) (Step, bool) {
	pos := m.Position()
	x, y := pos.Offset(dir)
	return p.GetNextTile(m, pos, x, y)
}

// GetNextTile steps from current toward (goalX, goalY). If the direct facing
// is blocked it tries one unit counter-clockwise, then two units clockwise
// from there. On failure the step carries the initial facing.
func (p *Pathfinder) GetNextTile(m Mover, current world.Position, goalX, goalY int) (Step, bool) {
	dir := NextDirection(current, goalX, goalY)
	initial := dir

	ok, z := p.CheckMovement(m, current, dir, false)
	if !ok {
		dir = dir.Rotate(-1)
		ok, z = p.CheckMovement(m, current, dir, false)
	}
	if !ok {
		dir = dir.Rotate(2)
		ok, z = p.CheckMovement(m, current, dir, false)
	}
	if !ok {
		dir = initial
	}

	x, y := current.Offset(dir)
	return Step{Direction: dir, X: x, Y: y, Z: z}, ok
}

// GetNextZ returns the Z a step would land at, or loc.Z when even a forced
// check cannot resolve one.
func (p *Pathfinder) GetNextZ(m Mover, loc world.Position, dir world.Direction) int8 {
	if ok, z := p.CheckMovement(m, loc, dir, true); ok {
		return z
	}
	return loc.Z
}

// TryGetNextZ samples the landing Z of a step with the forward check forced.
func (p *Pathfinder) TryGetNextZ(m Mover, loc world.Position, dir world.Direction) (int8, bool) {
	ok, z := p.CheckMovement(m, loc, dir, true)
	return z, ok
}

// CheckMovement decides whether the mover may step from loc in direction dir
// and the Z it ends at. Diagonal steps also need one of the two orthogonal
// neighbours to be passable. forceOK overrides only the forward verdict.
// A failed step reports the low Z of the start cell.
func (p *Pathfinder) CheckMovement(m Mover, loc world.Position, dir world.Direction, forceOK bool) (bool, int8) {
	xf, yf := loc.Offset(dir)
	if !p.grid.IsInMap(xf, yf) {
		return false, 0
	}
	defer p.resetScratch()

	diagonal := dir.IsDiagonal()
	start := p.grid.GetTile(int(loc.X), int(loc.Y))
	forward := p.grid.GetTile(xf, yf)
	p.gather(&p.scratch[cellStart], start)
	p.gather(&p.scratch[cellForward], forward)

	var left, right *world.Tile
	if diagonal {
		xl, yl := loc.Offset(leftOf(dir))
		xr, yr := loc.Offset(rightOf(dir))
		left = p.grid.GetTile(xl, yl)
		right = p.grid.GetTile(xr, yr)
		p.gather(&p.scratch[cellLeft], left)
		p.gather(&p.scratch[cellRight], right)
	}

	ignoreDoors := p.doors.IgnoresDoors(m.Graphic(), m.IsDead())
	moverZ := int(m.Position().Z)
	startZ, startTop := p.getStartZ(loc, start, &p.scratch[cellStart])

	newZ, ok := p.check(moverZ, ignoreDoors, forward, &p.scratch[cellForward], startTop, startZ)
	ok = ok || forceOK

	if ok && diagonal {
		_, okLeft := p.check(moverZ, ignoreDoors, left, &p.scratch[cellLeft], startTop, startZ)
		_, okRight := p.check(moverZ, ignoreDoors, right, &p.scratch[cellRight], startTop, startZ)
		if !okLeft && !okRight {
			ok = false
		}
	}

	if !ok {
		newZ = startZ
	}
	return ok, int8(newZ)
}

func leftOf(d world.Direction) world.Direction  { return (d - 1) & 7 }
func rightOf(d world.Direction) world.Direction { return (d + 1) & 7 }

func (p *Pathfinder) resetScratch() {
	for i := range p.scratch {
		p.scratch[i].reset()
	}
}

// gather copies the tile's Blocking or Surface statics and items into b.
func (p *Pathfinder) gather(b *bucket, t *world.Tile) {
	for _, e := range t.Entities() {
		kind := e.Kind()
		if kind == world.KindMobile {
			continue
		}
		g := e.Graphic()
		if g >= maxGraphic {
			continue
		}
		desc := p.tiles.Static(g)
		if desc.Flags&impassableSurface == 0 {
			continue
		}
		z := int(e.Position().Z)
		ob := obstacle{
			z:       z,
			height:  int(desc.Height),
			top:     z + desc.EffectiveHeight(),
			flags:   desc.Flags,
			graphic: g,
		}
		if kind == world.KindStatic {
			b.statics = append(b.statics, ob)
		} else {
			b.items = append(b.items, ob)
		}
	}
}

func (p *Pathfinder) landInfo(t *world.Tile) (considerLand, landBlocks bool) {
	considerLand = !data.IsIgnoredLand(t.Land)
	landBlocks = p.tiles.Land(t.Land).Flags.Has(data.FlagBlocking)
	return considerLand, landBlocks
}

// getStartZ finds the surface the mover stands on at loc: zLow is its base
// and zTop the highest top reachable from it.
func (p *Pathfinder) getStartZ(loc world.Position, t *world.Tile, b *bucket) (zLow, zTop int) {
	considerLand, landBlocks := p.landInfo(t)
	landLow, landCenter, landTop := p.grid.GetAverageZ(int(loc.X), int(loc.Y))

	z := int(loc.Z)
	zCenter := 0
	isSet := false

	if considerLand && !landBlocks && z >= landCenter {
		zLow = landLow
		zCenter = landCenter
		zTop = landTop
		isSet = true
	}

	for _, list := range [2][]obstacle{b.statics, b.items} {
		for _, o := range list {
			if (!isSet || o.top >= zCenter) && o.flags.Has(data.FlagSurface) && z >= o.top {
				zLow = o.z
				zCenter = o.top
				if top := o.z + o.height; !isSet || top > zTop {
					zTop = top
				}
				isSet = true
			}
		}
	}

	if !isSet {
		zLow, zTop = z, z
	} else if z > zTop {
		zTop = z
	}
	return zLow, zTop
}

// check resolves the best landing Z on one cell. Candidates are walkable
// surfaces reachable within StepHeight of startTop and the land itself; the
// one nearest the mover's Z wins, ties going to the lower Z. When nothing
// qualifies the result is (startZ, false).
func (p *Pathfinder) check(moverZ int, ignoreDoors bool, t *world.Tile, b *bucket, startTop, startZ int) (int, bool) {
	considerLand, landBlocks := p.landInfo(t)
	landLow, landCenter, _ := p.grid.GetAverageZ(int(t.X), int(t.Y))

	stepTop := startTop + StepHeight
	checkTop := startZ + PersonHeight

	newZ := startZ
	ok := false

	for _, list := range [2][]obstacle{b.statics, b.items} {
		for _, o := range list {
			if o.flags&impassableSurface != data.FlagSurface {
				continue
			}
			ourZ := o.top
			if ok && !nearer(ourZ, newZ, moverZ) {
				continue
			}
			testTop := max(checkTop, ourZ+PersonHeight)

			itemTop := o.z
			if !o.flags.Has(data.FlagBridge) {
				itemTop += o.height
			}
			if stepTop < itemTop {
				continue
			}

			// A low surface sunk below the land slope is not reachable.
			landCheck := o.z + min(o.height, StepHeight)
			if considerLand && landCheck < landCenter && landCenter > ourZ && testTop > landLow {
				continue
			}

			if p.isOK(ignoreDoors, ourZ, testTop, b) {
				newZ = ourZ
				ok = true
			}
		}
	}

	if considerLand && !landBlocks && stepTop >= landLow {
		ourZ := landCenter
		testTop := max(checkTop, ourZ+PersonHeight)
		if (!ok || nearer(ourZ, newZ, moverZ)) && p.isOK(ignoreDoors, ourZ, testTop, b) {
			newZ = ourZ
			ok = true
		}
	}

	return newZ, ok
}

// nearer reports whether candidate is strictly preferable to current: closer
// to the mover's Z, or as close and lower.
func nearer(candidate, current, moverZ int) bool {
	cmp := abs(candidate-moverZ) - abs(current-moverZ)
	return cmp < 0 || (cmp == 0 && candidate <= current)
}

// isOK reports whether the vertical span [ourZ, ourTop) is clear of every
// Blocking or Surface object on the cell. When ignoreDoors is set, doors are
// skipped whether they are map statics or dynamic items.
func (p *Pathfinder) isOK(ignoreDoors bool, ourZ, ourTop int, b *bucket) bool {
	for _, list := range [2][]obstacle{b.statics, b.items} {
		for _, o := range list {
			if ignoreDoors && p.doors.IsDoor(o.graphic, o.flags) {
				continue
			}
			if o.top > ourZ && ourTop > o.z {
				return false
			}
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
