package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/isofacet/server/internal/core/event"
	coresys "github.com/isofacet/server/internal/core/system"
	"github.com/isofacet/server/internal/world"
)

// StreamSystem loads the chunk windows around every mobile in one facet
// pass. Mobiles whose chunks alias a slot already claimed by an earlier
// mobile (lower id) stay unloaded, and LocomotionSystem holds them in place
// until their neighbourhood is resident. It runs in its own phase so no chunk
// is recycled while steps are being validated.
// Phase 1 (Stream).
type StreamSystem struct {
	facet    *world.Facet
	state    *world.State
	distance int
	foci     []world.Position // reused each tick
	log      *zap.Logger
}

func NewStreamSystem(facet *world.Facet, state *world.State, bus *event.Bus, distance int, log *zap.Logger) *StreamSystem {
	facet.OnLoad(func(c *world.Chunk, reloaded bool) {
		if reloaded {
			event.Emit(bus, event.ChunkReloaded{ChunkX: c.X, ChunkY: c.Y, Statics: c.StaticCount()})
		} else {
			event.Emit(bus, event.ChunkLoaded{ChunkX: c.X, ChunkY: c.Y, Statics: c.StaticCount()})
		}
	})
	if distance < 1 {
		log.Warn("view distance below 1 cannot cover a step, using 1", zap.Int("view_distance", distance))
		distance = 1
	}
	return &StreamSystem{facet: facet, state: state, distance: distance, log: log}
}

func (s *StreamSystem) Phase() coresys.Phase { return coresys.PhaseStream }

func (s *StreamSystem) Update(_ time.Duration) {
	s.foci = s.foci[:0]
	s.state.EachMobile(func(m *world.Mobile) {
		s.foci = append(s.foci, m.Position())
	})
	if len(s.foci) > 0 {
		s.facet.LoadAround(s.foci, s.distance)
	}
}
