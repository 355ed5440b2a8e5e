package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/isofacet/server/internal/core/ecs"
	coresys "github.com/isofacet/server/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end,
// after the report phase has seen every event naming those entities.
type CleanupSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.FlushDestroyQueue(); n > 0 {
		s.log.Debug("entities destroyed", zap.Int("count", n))
	}
}
