package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/isofacet/server/internal/core/event"
	coresys "github.com/isofacet/server/internal/core/system"
	"github.com/isofacet/server/internal/pathfind"
	"github.com/isofacet/server/internal/world"
)

// LocomotionSystem advances each walking mobile one tile toward its goal.
// A mobile whose surrounding tiles are not resident keeps its intent and
// waits.
// Phase 2 (Move).
type LocomotionSystem struct {
	state   *world.State
	intents *Intents
	facet   *world.Facet
	pf      *pathfind.Pathfinder
	bus     *event.Bus
	log     *zap.Logger
}

func NewLocomotionSystem(state *world.State, intents *Intents, facet *world.Facet, pf *pathfind.Pathfinder, bus *event.Bus, log *zap.Logger) *LocomotionSystem {
	return &LocomotionSystem{state: state, intents: intents, facet: facet, pf: pf, bus: bus, log: log}
}

func (s *LocomotionSystem) Phase() coresys.Phase { return coresys.PhaseMove }

func (s *LocomotionSystem) Update(_ time.Duration) {
	s.intents.Each(s.step)
}

func (s *LocomotionSystem) step(r WalkRequest) {
	m := s.state.Mobile(r.Mobile)
	if m == nil {
		s.intents.Drop(r.Mobile)
		return
	}
	from := m.Position()
	if int(from.X) == r.GoalX && int(from.Y) == r.GoalY {
		s.intents.Drop(r.Mobile)
		return
	}
	if !s.facet.NeighborhoodResident(int(from.X), int(from.Y)) {
		s.log.Debug("mobile outside resident window, waiting",
			zap.Uint64("mobile", uint64(r.Mobile)),
			zap.Stringer("pos", from))
		return
	}

	initial := pathfind.NextDirection(from, r.GoalX, r.GoalY)
	step, ok := s.pf.GetNextTile(m, from, r.GoalX, r.GoalY)
	if !ok {
		s.intents.Drop(r.Mobile)
		event.Emit(s.bus, event.StepBlocked{
			EntityID:  r.Mobile,
			X:         from.X,
			Y:         from.Y,
			Z:         from.Z,
			GoalX:     r.GoalX,
			GoalY:     r.GoalY,
			Direction: uint8(step.Direction),
		})
		return
	}

	to := world.Position{X: uint16(step.X), Y: uint16(step.Y), Z: step.Z}
	if err := s.state.MoveMobile(r.Mobile, to, step.Direction); err != nil {
		s.log.Warn("apply step", zap.Error(err))
		s.intents.Drop(r.Mobile)
		return
	}
	event.Emit(s.bus, event.StepAccepted{
		EntityID:  r.Mobile,
		FromX:     from.X,
		FromY:     from.Y,
		FromZ:     from.Z,
		ToX:       to.X,
		ToY:       to.Y,
		ToZ:       to.Z,
		Direction: uint8(step.Direction),
		Rerouted:  step.Direction.Facing() != initial,
	})
}
