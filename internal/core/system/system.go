package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain walk requests
	PhaseStream               // 1: keep chunks resident around every focus
	PhaseMove                 // 2: validate and apply steps
	PhaseReport               // 3: dispatch last tick's events
	PhaseCleanup              // 4: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseStream:
		return "stream"
	case PhaseMove:
		return "move"
	case PhaseReport:
		return "report"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
