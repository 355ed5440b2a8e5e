package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/isofacet/server/internal/core/event"
	coresys "github.com/isofacet/server/internal/core/system"
	"github.com/isofacet/server/internal/world"
)

// ReportSystem swaps the event bus and dispatches everything raised earlier
// in the tick. It also logs movement and streaming events.
// Phase 3 (Report).
type ReportSystem struct {
	bus *event.Bus
	log *zap.Logger
}

func NewReportSystem(bus *event.Bus, log *zap.Logger) *ReportSystem {
	s := &ReportSystem{bus: bus, log: log}
	event.Subscribe(bus, s.onStepAccepted)
	event.Subscribe(bus, s.onStepBlocked)
	event.Subscribe(bus, s.onChunkLoaded)
	event.Subscribe(bus, s.onChunkReloaded)
	return s
}

func (s *ReportSystem) Phase() coresys.Phase { return coresys.PhaseReport }

func (s *ReportSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

func (s *ReportSystem) onStepAccepted(ev event.StepAccepted) {
	s.log.Debug("step",
		zap.Uint64("mobile", uint64(ev.EntityID)),
		zap.Stringer("from", world.Position{X: ev.FromX, Y: ev.FromY, Z: ev.FromZ}),
		zap.Stringer("to", world.Position{X: ev.ToX, Y: ev.ToY, Z: ev.ToZ}),
		zap.Stringer("dir", world.Direction(ev.Direction)),
		zap.Bool("rerouted", ev.Rerouted))
}

func (s *ReportSystem) onStepBlocked(ev event.StepBlocked) {
	s.log.Debug("step blocked",
		zap.Uint64("mobile", uint64(ev.EntityID)),
		zap.Stringer("at", world.Position{X: ev.X, Y: ev.Y, Z: ev.Z}),
		zap.Int("goal_x", ev.GoalX), zap.Int("goal_y", ev.GoalY),
		zap.Stringer("dir", world.Direction(ev.Direction)))
}

func (s *ReportSystem) onChunkLoaded(ev event.ChunkLoaded) {
	s.log.Debug("chunk loaded",
		zap.Int("x", ev.ChunkX), zap.Int("y", ev.ChunkY), zap.Int("statics", ev.Statics))
}

func (s *ReportSystem) onChunkReloaded(ev event.ChunkReloaded) {
	s.log.Debug("chunk reloaded",
		zap.Int("x", ev.ChunkX), zap.Int("y", ev.ChunkY), zap.Int("statics", ev.Statics))
}
