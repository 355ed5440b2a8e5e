package system

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/isofacet/server/internal/core/ecs"
	coresys "github.com/isofacet/server/internal/core/system"
)

// WalkRequest asks for a mobile to head toward a goal cell.
type WalkRequest struct {
	Mobile ecs.EntityID
	GoalX  int
	GoalY  int
}

// Intents holds the current goal of every walking mobile. The latest request
// for a mobile replaces any earlier one.
type Intents struct {
	goals map[ecs.EntityID]WalkRequest
}

func NewIntents() *Intents {
	return &Intents{goals: make(map[ecs.EntityID]WalkRequest)}
}

func (in *Intents) Set(r WalkRequest) { in.goals[r.Mobile] = r }

func (in *Intents) Get(id ecs.EntityID) (WalkRequest, bool) {
	r, ok := in.goals[id]
	return r, ok
}

func (in *Intents) Drop(id ecs.EntityID) { delete(in.goals, id) }

func (in *Intents) Len() int { return len(in.goals) }

// Each visits intents in ascending mobile id order.
func (in *Intents) Each(fn func(WalkRequest)) {
	ids := make([]ecs.EntityID, 0, len(in.goals))
	for id := range in.goals {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fn(in.goals[id])
	}
}

// InputSystem drains queued walk requests into the intent table.
// Phase 0 (Input).
type InputSystem struct {
	requests   chan WalkRequest
	intents    *Intents
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(intents *Intents, queueSize, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		requests:   make(chan WalkRequest, queueSize),
		intents:    intents,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Submit queues a request without blocking. It returns false when the queue
// is full.
func (s *InputSystem) Submit(r WalkRequest) bool {
	select {
	case s.requests <- r:
		return true
	default:
		s.log.Warn("walk queue full, request dropped",
			zap.Uint64("mobile", uint64(r.Mobile)),
			zap.Int("goal_x", r.GoalX), zap.Int("goal_y", r.GoalY))
		return false
	}
}

func (s *InputSystem) Update(_ time.Duration) {
	for n := 0; n < s.maxPerTick; n++ {
		select {
		case r := <-s.requests:
			s.intents.Set(r)
		default:
			return
		}
	}
}
