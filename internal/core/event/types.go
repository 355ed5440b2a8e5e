package event

import "github.com/isofacet/server/internal/core/ecs"

// StepAccepted is emitted when a mobile moved one tile.
type StepAccepted struct {
	EntityID  ecs.EntityID
	FromX     uint16
	FromY     uint16
	FromZ     int8
	ToX       uint16
	ToY       uint16
	ToZ       int8
	Direction uint8
	Rerouted  bool // a fallback rotation was taken
}

// StepBlocked is emitted when no direction toward the goal was walkable.
type StepBlocked struct {
	EntityID  ecs.EntityID
	X         uint16
	Y         uint16
	Z         int8
	GoalX     int
	GoalY     int
	Direction uint8
}

// ChunkLoaded is emitted when the facet fills an empty slot.
type ChunkLoaded struct {
	ChunkX  int
	ChunkY  int
	Statics int
}

// ChunkReloaded is emitted when the facet evicts a slot for another chunk.
type ChunkReloaded struct {
	ChunkX  int
	ChunkY  int
	Statics int
}
