package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/isofacet/server/internal/core/ecs"
	"github.com/isofacet/server/internal/core/event"
	coresys "github.com/isofacet/server/internal/core/system"
	"github.com/isofacet/server/internal/world"
)

// Waypoint is one goal of a walker route.
type Waypoint struct {
	X int
	Y int
}

// WalkerSystem drives one mobile through a list of waypoints, re-requesting
// the current waypoint whenever the mobile is idle. A waypoint that blocks
// maxBlocked times in a row is skipped.
// Phase 0 (Input), registered before InputSystem so requests drain the same
// tick.
type WalkerSystem struct {
	state   *world.State
	input   *InputSystem
	intents *Intents
	mobile  ecs.EntityID
	route   []Waypoint
	next    int
	blocked int
	log     *zap.Logger
}

const maxBlocked = 3

func NewWalkerSystem(state *world.State, input *InputSystem, intents *Intents, bus *event.Bus, mobile ecs.EntityID, route []Waypoint, log *zap.Logger) *WalkerSystem {
	s := &WalkerSystem{
		state:   state,
		input:   input,
		intents: intents,
		mobile:  mobile,
		route:   route,
		log:     log,
	}
	event.Subscribe(bus, func(ev event.StepBlocked) {
		if ev.EntityID == s.mobile {
			s.blocked++
		}
	})
	event.Subscribe(bus, func(ev event.StepAccepted) {
		if ev.EntityID == s.mobile {
			s.blocked = 0
		}
	})
	return s
}

func (s *WalkerSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Done reports whether every waypoint was reached or skipped.
func (s *WalkerSystem) Done() bool { return s.next >= len(s.route) }

func (s *WalkerSystem) Update(_ time.Duration) {
	if s.Done() {
		return
	}
	m := s.state.Mobile(s.mobile)
	if m == nil {
		s.next = len(s.route)
		return
	}
	if _, walking := s.intents.Get(s.mobile); walking {
		return
	}

	goal := s.route[s.next]
	pos := m.Position()
	switch {
	case int(pos.X) == goal.X && int(pos.Y) == goal.Y:
		s.log.Info("waypoint reached",
			zap.Int("index", s.next), zap.Stringer("pos", pos))
		s.advance()
		return
	case s.blocked >= maxBlocked:
		s.log.Warn("waypoint unreachable, skipping",
			zap.Int("index", s.next), zap.Int("x", goal.X), zap.Int("y", goal.Y),
			zap.Stringer("pos", pos))
		s.advance()
		return
	}
	s.input.Submit(WalkRequest{Mobile: s.mobile, GoalX: goal.X, GoalY: goal.Y})
}

func (s *WalkerSystem) advance() {
	s.next++
	s.blocked = 0
}
