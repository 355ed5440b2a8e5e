package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TileFlags is the descriptor bitset shared by land and static tiles.
// Bit values follow the classic tiledata layout.
type TileFlags uint64

const (
	FlagWall       TileFlags = 0x00000010
	FlagBlocking   TileFlags = 0x00000040 // impassable
	FlagWet        TileFlags = 0x00000080
	FlagSurface    TileFlags = 0x00000200 // walkable surface
	FlagBridge     TileFlags = 0x00000400
	FlagNoDiagonal TileFlags = 0x02000000
	FlagRoof       TileFlags = 0x10000000
	FlagDoor       TileFlags = 0x20000000
)

var flagNames = map[string]TileFlags{
	"wall":        FlagWall,
	"blocking":    FlagBlocking,
	"impassable":  FlagBlocking,
	"wet":         FlagWet,
	"surface":     FlagSurface,
	"bridge":      FlagBridge,
	"no_diagonal": FlagNoDiagonal,
	"roof":        FlagRoof,
	"door":        FlagDoor,
}

func (f TileFlags) Has(mask TileFlags) bool { return f&mask != 0 }

// UnmarshalYAML accepts either a list of flag names or a raw integer bitset.
func (f *TileFlags) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var raw uint64
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("line %d: tile flags: %w", node.Line, err)
		}
		*f = TileFlags(raw)
		return nil
	}
	var names []string
	if err := node.Decode(&names); err != nil {
		return fmt.Errorf("line %d: tile flags: %w", node.Line, err)
	}
	var out TileFlags
	for _, n := range names {
		bit, ok := flagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return fmt.Errorf("line %d: unknown tile flag %q", node.Line, n)
		}
		out |= bit
	}
	*f = out
	return nil
}

// LandTile describes one terrain graphic.
type LandTile struct {
	ID    uint16    `yaml:"id"`
	Name  string    `yaml:"name"`
	Flags TileFlags `yaml:"flags"`
}

// StaticTile describes one static/item graphic.
type StaticTile struct {
	ID     uint16    `yaml:"id"`
	Name   string    `yaml:"name"`
	Flags  TileFlags `yaml:"flags"`
	Height uint16    `yaml:"height"`
}

func (t *StaticTile) IsBlocking() bool { return t.Flags.Has(FlagBlocking) }
func (t *StaticTile) IsSurface() bool  { return t.Flags.Has(FlagSurface) }
func (t *StaticTile) IsBridge() bool   { return t.Flags.Has(FlagBridge) }
func (t *StaticTile) IsDoor() bool     { return t.Flags.Has(FlagDoor) }

// EffectiveHeight is the height a mover stands on: bridges count half.
func (t *StaticTile) EffectiveHeight() int {
	if t.IsBridge() {
		return int(t.Height) / 2
	}
	return int(t.Height)
}

// TileDataTable is the read-only descriptor lookup keyed by graphic id.
// Unknown ids resolve to a zero descriptor (no flags, no height).
type TileDataTable struct {
	land    []LandTile
	statics []StaticTile
}

const (
	maxLandTiles   = 0x4000
	maxStaticTiles = 0x10000
)

type tileDataFile struct {
	Land    []LandTile   `yaml:"land"`
	Statics []StaticTile `yaml:"statics"`
}

// NewTileDataTable returns an empty table sized for the full id range.
func NewTileDataTable() *TileDataTable {
	return &TileDataTable{
		land:    make([]LandTile, maxLandTiles),
		statics: make([]StaticTile, maxStaticTiles),
	}
}

// LoadTileData loads tiledata.yaml.
func LoadTileData(path string) (*TileDataTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiledata %s: %w", path, err)
	}
	var file tileDataFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse tiledata: %w", err)
	}

	t := NewTileDataTable()
	for _, l := range file.Land {
		if int(l.ID) >= maxLandTiles {
			return nil, fmt.Errorf("land tile id 0x%04X out of range", l.ID)
		}
		t.SetLand(l)
	}
	for _, s := range file.Statics {
		t.SetStatic(s)
	}
	return t, nil
}

func (t *TileDataTable) SetLand(l LandTile) {
	t.land[int(l.ID)&(maxLandTiles-1)] = l
}

func (t *TileDataTable) SetStatic(s StaticTile) {
	t.statics[s.ID] = s
}

// Land returns the descriptor for a land graphic.
func (t *TileDataTable) Land(id uint16) *LandTile {
	return &t.land[int(id)&(maxLandTiles-1)]
}

// Static returns the descriptor for a static/item graphic.
func (t *TileDataTable) Static(id uint16) *StaticTile {
	return &t.statics[id]
}

// Count returns the number of described (non-zero) static entries.
func (t *TileDataTable) Count() int {
	n := 0
	for i := range t.statics {
		if t.statics[i].Flags != 0 || t.statics[i].Height != 0 || t.statics[i].Name != "" {
			n++
		}
	}
	return n
}

// IsIgnoredLand reports land graphics that are never drawn and never stood on
// (void/no-draw terrain).
func IsIgnoredLand(graphic uint16) bool {
	return graphic == 0x0002 || graphic == 0x01DB || (graphic >= 0x01AE && graphic <= 0x01B5)
}
