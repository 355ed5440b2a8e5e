package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{name: "cleanup", phase: PhaseCleanup, log: &log})
	r.Register(recorder{name: "move", phase: PhaseMove, log: &log})
	r.Register(recorder{name: "walker", phase: PhaseInput, log: &log})
	r.Register(recorder{name: "input", phase: PhaseInput, log: &log})
	r.Register(recorder{name: "stream", phase: PhaseStream, log: &log})
	r.Register(recorder{name: "report", phase: PhaseReport, log: &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"walker", "input", "stream", "move", "report", "cleanup"}, log)

	log = log[:0]
	r.TickPhase(PhaseInput, time.Millisecond)
	assert.Equal(t, []string{"walker", "input"}, log)
	assert.Equal(t, uint64(1), r.Ticks())
	assert.Equal(t, 2, r.Count(PhaseInput))
	assert.Equal(t, 1, r.Count(PhaseStream))
	assert.Equal(t, "stream", PhaseStream.String())
}
