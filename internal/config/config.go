package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// MaxViewDistance is the largest chunk radius the 11x11 facet ring can hold
// without two chunks of one window sharing a slot.
const MaxViewDistance = 5

type Config struct {
	Server    ServerConfig    `toml:"server"`
	World     WorldConfig     `toml:"world"`
	Data      DataConfig      `toml:"data"`
	Scripting ScriptingConfig `toml:"scripting"`
	Walker    WalkerConfig    `toml:"walker"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name     string        `toml:"name"`
	TickRate time.Duration `toml:"tick_rate"`
}

type WorldConfig struct {
	MapIndex     int `toml:"map_index"`
	ViewDistance int `toml:"view_distance"` // chunk radius around each focus (0-5)
}

type DataConfig struct {
	TileData string `toml:"tiledata"`
	MapList  string `toml:"map_list"`
	MapDir   string `toml:"map_dir"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// WalkerConfig drives the demo avatar: it walks toward each goal in turn.
type WalkerConfig struct {
	Graphic uint16  `toml:"graphic"`
	StartX  uint16  `toml:"start_x"`
	StartY  uint16  `toml:"start_y"`
	StartZ  int8    `toml:"start_z"`
	Goals   [][]int `toml:"goals"` // each goal is [x, y]
	Dead    bool    `toml:"dead"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the world driver cannot honour.
func (c *Config) Validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("server.tick_rate must be positive, got %s", c.Server.TickRate)
	}
	if c.World.MapIndex < 0 {
		return fmt.Errorf("world.map_index must be >= 0, got %d", c.World.MapIndex)
	}
	if c.World.ViewDistance < 0 || c.World.ViewDistance > MaxViewDistance {
		return fmt.Errorf("world.view_distance must be within 0..%d, got %d", MaxViewDistance, c.World.ViewDistance)
	}
	if c.Data.TileData == "" || c.Data.MapList == "" {
		return fmt.Errorf("data.tiledata and data.map_list are required")
	}
	for i, g := range c.Walker.Goals {
		if len(g) != 2 || g[0] < 0 || g[1] < 0 || g[0] > 0xFFFF || g[1] > 0xFFFF {
			return fmt.Errorf("walker.goals[%d] must be [x, y] within 0..65535, got %v", i, g)
		}
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "isofacet",
			TickRate: 100 * time.Millisecond,
		},
		World: WorldConfig{
			MapIndex:     0,
			ViewDistance: MaxViewDistance,
		},
		Data: DataConfig{
			TileData: "data/yaml/tiledata.yaml",
			MapList:  "data/yaml/map_list.yaml",
			MapDir:   "map",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Walker: WalkerConfig{
			Graphic: 0x0190,
			StartX:  10,
			StartY:  10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
