package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BlockSize is the edge length of one map block (and one facet chunk).
const BlockSize = 8

// NoTileZ is returned by GetTileZ for coordinates outside the map.
const NoTileZ = -125

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
type MapInfo struct {
	Index  int    `yaml:"index"`
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`  // in tiles, multiple of 8
	Height int    `yaml:"height"` // in tiles, multiple of 8
}

// LandCell is one terrain cell of a block.
type LandCell struct {
	Graphic uint16
	Z       int8
}

// StaticEntry is one static placed inside a block. X and Y are block-local
// and are not validated here; consumers must range-check them.
type StaticEntry struct {
	Graphic uint16
	X, Y    uint8
	Z       int8
	Hue     uint16
}

// MapBlock is the 8x8 land footprint of one block plus its statics.
type MapBlock struct {
	Cells   [BlockSize * BlockSize]LandCell // [y*8 + x]
	Statics []StaticEntry
}

// mapEntry stores loaded block data + metadata for one map.
type mapEntry struct {
	info    MapInfo
	blocks  []MapBlock // flat array [bx * blocksH + by], column-major by block X
	blocksW int
	blocksH int
}

// MapDataTable is the map block store: per map index, a grid of land blocks
// and their static entries.
type MapDataTable struct {
	maps map[int]*mapEntry
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

func NewMapDataTable() *MapDataTable {
	return &MapDataTable{maps: make(map[int]*mapEntry)}
}

// LoadMapData loads map metadata from YAML and block data from text files.
// yamlPath: path to map_list.yaml
// mapDir: directory containing {index}.txt land files and optional
// {index}_statics.txt static files
func LoadMapData(yamlPath, mapDir string) (*MapDataTable, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := NewMapDataTable()
	for _, info := range file.Maps {
		if err := table.Define(info); err != nil {
			return nil, err
		}
		if err := table.loadLandFile(mapDir, info); err != nil {
			// Map file missing is non-fatal; drop the map
			delete(table.maps, info.Index)
			continue
		}
		if err := table.loadStaticsFile(mapDir, info.Index); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load statics for map %d: %w", info.Index, err)
		}
	}

	return table, nil
}

// Define registers an empty map (all land graphic 0 at Z 0, no statics).
func (t *MapDataTable) Define(info MapInfo) error {
	if info.Width <= 0 || info.Height <= 0 || info.Width%BlockSize != 0 || info.Height%BlockSize != 0 {
		return fmt.Errorf("map %d: size %dx%d must be positive multiples of %d", info.Index, info.Width, info.Height, BlockSize)
	}
	w := info.Width / BlockSize
	h := info.Height / BlockSize
	t.maps[info.Index] = &mapEntry{
		info:    info,
		blocks:  make([]MapBlock, w*h),
		blocksW: w,
		blocksH: h,
	}
	return nil
}

// loadLandFile reads rows of comma-separated "graphic:z" tokens, one row per Y.
func (t *MapDataTable) loadLandFile(dir string, info MapInfo) error {
	path := filepath.Join(dir, strconv.Itoa(info.Index)+".txt")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	y := 0
	for scanner.Scan() && y < info.Height {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		x := 0
		for _, tok := range strings.Split(line, ",") {
			if x >= info.Width {
				break
			}
			graphic, z := parseLandToken(strings.TrimSpace(tok))
			t.SetLand(info.Index, x, y, graphic, z)
			x++
		}
		y++
	}

	return scanner.Err()
}

// parseLandToken parses "graphic:z"; malformed parts read as 0.
func parseLandToken(tok string) (uint16, int8) {
	g, zs, _ := strings.Cut(tok, ":")
	graphic, err := strconv.ParseUint(strings.TrimSpace(g), 0, 16)
	if err != nil {
		graphic = 0
	}
	z, err := strconv.ParseInt(strings.TrimSpace(zs), 10, 8)
	if err != nil {
		z = 0
	}
	return uint16(graphic), int8(z)
}

// loadStaticsFile reads "block_x,block_y,x,y,z,graphic[,hue]" rows.
// x and y are block-local and kept as read, malformed rows are skipped.
func (t *MapDataTable) loadStaticsFile(dir string, index int) error {
	path := filepath.Join(dir, strconv.Itoa(index)+"_statics.txt")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 6 {
			continue
		}
		var vals [7]int64
		ok := true
		for i := 0; i < len(fields) && i < len(vals); i++ {
			v, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 0, 32)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok || vals[2] < 0 || vals[2] > 0xFF || vals[3] < 0 || vals[3] > 0xFF ||
			vals[4] < -128 || vals[4] > 127 || vals[5] < 0 || vals[5] > 0xFFFF {
			continue
		}
		b := t.Block(index, int(vals[0]), int(vals[1]))
		if b == nil {
			continue
		}
		b.Statics = append(b.Statics, StaticEntry{
			Graphic: uint16(vals[5]),
			X:       uint8(vals[2]),
			Y:       uint8(vals[3]),
			Z:       int8(vals[4]),
			Hue:     uint16(vals[6]),
		})
	}
	return scanner.Err()
}

// Count returns the number of maps loaded with block data.
func (t *MapDataTable) Count() int {
	return len(t.maps)
}

// Info returns metadata for a map, or nil if not found.
func (t *MapDataTable) Info(index int) *MapInfo {
	e := t.maps[index]
	if e == nil {
		return nil
	}
	return &e.info
}

// Blocks returns the block-grid dimensions of a map (tiles / 8).
func (t *MapDataTable) Blocks(index int) (width, height int) {
	e := t.maps[index]
	if e == nil {
		return 0, 0
	}
	return e.blocksW, e.blocksH
}

// Block returns the block at block coordinates, or nil if out of range.
func (t *MapDataTable) Block(index, bx, by int) *MapBlock {
	e := t.maps[index]
	if e == nil || bx < 0 || by < 0 || bx >= e.blocksW || by >= e.blocksH {
		return nil
	}
	return &e.blocks[bx*e.blocksH+by]
}

// IsInMap checks if world coordinates are within the map bounds.
func (t *MapDataTable) IsInMap(index, x, y int) bool {
	e := t.maps[index]
	if e == nil {
		return false
	}
	return x >= 0 && y >= 0 && x < e.info.Width && y < e.info.Height
}

// SetLand sets the land cell at world coordinates. Out of range is a no-op.
func (t *MapDataTable) SetLand(index, x, y int, graphic uint16, z int8) {
	b := t.Block(index, x>>3, y>>3)
	if b == nil || x < 0 || y < 0 {
		return
	}
	b.Cells[(y&7)*BlockSize+(x&7)] = LandCell{Graphic: graphic, Z: z}
}

// AddStatic places a static at world coordinates. Out of range is a no-op.
func (t *MapDataTable) AddStatic(index, x, y int, z int8, graphic, hue uint16) {
	if x < 0 || y < 0 {
		return
	}
	b := t.Block(index, x>>3, y>>3)
	if b == nil {
		return
	}
	b.Statics = append(b.Statics, StaticEntry{
		Graphic: graphic,
		X:       uint8(x & 7),
		Y:       uint8(y & 7),
		Z:       z,
		Hue:     hue,
	})
}

// GetTileZ returns the land Z at world coordinates, or NoTileZ off-map.
func (t *MapDataTable) GetTileZ(index, x, y int) int {
	if x < 0 || y < 0 {
		return NoTileZ
	}
	b := t.Block(index, x>>3, y>>3)
	if b == nil {
		return NoTileZ
	}
	return int(b.Cells[(y&7)*BlockSize+(x&7)].Z)
}

// GetAverageZ returns the lowest, averaged and highest land Z of the cell
// at (x, y), sampling its four corners. The average follows the flatter of
// the two diagonals. Corners past the map edge repeat the cell's own Z.
func (t *MapDataTable) GetAverageZ(index, x, y int) (low, avg, top int) {
	zTop := t.GetTileZ(index, x, y)
	zLeft := t.cornerZ(index, x, y+1, zTop)
	zRight := t.cornerZ(index, x+1, y, zTop)
	zBottom := t.cornerZ(index, x+1, y+1, zTop)

	low = min(zTop, zLeft, zRight, zBottom)
	top = max(zTop, zLeft, zRight, zBottom)

	if abs(zTop-zBottom) > abs(zLeft-zRight) {
		avg = floorAverage(zLeft, zRight)
	} else {
		avg = floorAverage(zTop, zBottom)
	}
	return low, avg, top
}

func (t *MapDataTable) cornerZ(index, x, y, fallback int) int {
	if !t.IsInMap(index, x, y) {
		return fallback
	}
	return t.GetTileZ(index, x, y)
}

func floorAverage(a, b int) int {
	v := a + b
	if v < 0 {
		v--
	}
	return v / 2
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
