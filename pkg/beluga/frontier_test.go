package beluga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frontierTestStates(t *testing.T) []*State {
	t.Helper()
	inst := stuckFlightInstance(t)
	s := NewInitialState(inst)
	states := []*State{s}
	for _, a := range []Action{
		MoveJigBetweenRacks("e1", "r1", "r2"),
		MoveJigBetweenRacks("e2", "r1", "r3"),
		ProcessNextFlight(),
	} {
		s = mustApply(t, s, inst, a)
		states = append(states, s)
	}
	return states
}

func TestFrontierOrdersByPriority(t *testing.T) {
	states := frontierTestStates(t)
	f := newFrontier()
	f.push(states[0], 3.0)
	f.push(states[1], 1.0)
	f.push(states[2], 2.0)

	assert.Same(t, states[1], f.pop())
	assert.Same(t, states[2], f.pop())
	assert.Same(t, states[0], f.pop())
	assert.True(t, f.empty())
}

func TestFrontierTieBreaksByInsertion(t *testing.T) {
	states := frontierTestStates(t)
	f := newFrontier()
	for _, s := range states {
		f.push(s, 1.0)
	}
	for _, want := range states {
		assert.Same(t, want, f.pop())
	}
}

func TestFrontierReset(t *testing.T) {
	states := frontierTestStates(t)
	f := newFrontier()
	f.push(states[0], 1.0)
	f.push(states[1], 2.0)
	require.False(t, f.empty())

	f.reset()
	assert.True(t, f.empty())

	// The sequence keeps counting, so post-reset ties still pop in
	// insertion order.
	f.push(states[2], 1.0)
	f.push(states[3], 1.0)
	assert.Same(t, states[2], f.pop())
	assert.Same(t, states[3], f.pop())
}
