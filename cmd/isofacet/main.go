package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/isofacet/server/internal/config"
	"github.com/isofacet/server/internal/core/ecs"
	"github.com/isofacet/server/internal/core/event"
	coresys "github.com/isofacet/server/internal/core/system"
	"github.com/isofacet/server/internal/data"
	"github.com/isofacet/server/internal/pathfind"
	"github.com/isofacet/server/internal/scripting"
	"github.com/isofacet/server/internal/system"
	"github.com/isofacet/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             isofacet  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      stacked-surface movement engine      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("ISOFACET_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Data tables
	printSection("data")
	tiles, err := data.LoadTileData(cfg.Data.TileData)
	if err != nil {
		return fmt.Errorf("tiledata: %w", err)
	}
	printStat("static descriptors", tiles.Count())

	maps, err := data.LoadMapData(cfg.Data.MapList, cfg.Data.MapDir)
	if err != nil {
		return fmt.Errorf("map data: %w", err)
	}
	printStat("maps", maps.Count())
	info := maps.Info(cfg.World.MapIndex)
	if info == nil {
		return fmt.Errorf("map %d not loaded", cfg.World.MapIndex)
	}
	printOK(fmt.Sprintf("map %d %q %dx%d", info.Index, info.Name, info.Width, info.Height))
	fmt.Println()

	// 4. World
	ecsWorld := ecs.NewWorld()
	state := world.NewState(ecsWorld, log)
	facet, err := world.NewFacet(maps, cfg.World.MapIndex, log)
	if err != nil {
		return fmt.Errorf("facet: %w", err)
	}
	state.Attach(facet)

	// 5. Movement rules
	var doors pathfind.DoorPolicy = pathfind.DefaultDoors{}
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		doors = engine
		printOK("lua movement rules loaded")
	}
	pf := pathfind.New(facet, tiles, doors)

	// 6. Systems
	bus := event.NewBus()
	intents := system.NewIntents()
	runner := coresys.NewRunner()

	walkerPos := world.Position{X: cfg.Walker.StartX, Y: cfg.Walker.StartY, Z: cfg.Walker.StartZ}
	walker := state.AddMobile("walker", cfg.Walker.Graphic, walkerPos, world.South)
	state.SetDead(walker.ID, cfg.Walker.Dead)

	route := make([]system.Waypoint, 0, len(cfg.Walker.Goals))
	for _, g := range cfg.Walker.Goals {
		route = append(route, system.Waypoint{X: g[0], Y: g[1]})
	}

	inputSys := system.NewInputSystem(intents, 64, 64, log)
	walkerSys := system.NewWalkerSystem(state, inputSys, intents, bus, walker.ID, route, log)
	runner.Register(walkerSys)
	runner.Register(inputSys)
	runner.Register(system.NewStreamSystem(facet, state, bus, cfg.World.ViewDistance, log))
	runner.Register(system.NewLocomotionSystem(state, intents, facet, pf, bus, log))
	runner.Register(system.NewReportSystem(bus, log))
	runner.Register(system.NewCleanupSystem(ecsWorld, log))

	// 7. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("walker at %v, %d waypoints", walkerPos, len(route)))
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
			if walkerSys.Done() {
				st := facet.Stats()
				log.Info("route finished",
					zap.Uint64("ticks", runner.Ticks()),
					zap.Stringer("pos", walker.Position()),
					zap.Int("chunk_loads", st.Loads),
					zap.Int("chunk_reloads", st.Reloads),
					zap.Int("resident", st.Resident))
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
