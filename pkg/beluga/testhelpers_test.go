package beluga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// tinyInstance is the smallest instance with real search work: two
// racks, two loaded jigs stored in the wrong order for their production
// schedule, and one trivially ready flight. The optimal plan is three
// steps (one shuffle move, two productions).
func tinyInstance(t *testing.T) *Instance {
	t.Helper()
	inst := &Instance{
		JigTypes: map[string]JigType{
			"typeA": {Name: "typeA", SizeEmpty: 4, SizeLoaded: 4},
			"typeB": {Name: "typeB", SizeEmpty: 8, SizeLoaded: 9},
		},
		Jigs: map[string]Jig{
			"jig1": {Type: "typeA"},
			"jig2": {Type: "typeB"},
		},
		Racks: []Rack{
			{Name: "rack00", Size: 20, Jigs: []string{"jig2", "jig1"}},
			{Name: "rack01", Size: 20},
		},
		Flights:         []Flight{{Name: "beluga1"}},
		ProductionLines: []ProductionLine{{Name: "pl0", Schedule: []string{"jig1", "jig2"}}},
	}
	require.NoError(t, inst.Validate())
	return inst
}

// stuckFlightInstance has a first flight that is trivially ready and a
// final flight whose incoming jig can never leave the aircraft, so the
// goal is unreachable while the rack shuffle space stays large. Used by
// the stagnation and progress tests.
func stuckFlightInstance(t *testing.T) *Instance {
	t.Helper()
	inst := &Instance{
		JigTypes: map[string]JigType{
			"typeA": {Name: "typeA", SizeEmpty: 1, SizeLoaded: 2},
		},
		Jigs: map[string]Jig{
			"e1": {Type: "typeA", Empty: true},
			"e2": {Type: "typeA", Empty: true},
			"e3": {Type: "typeA", Empty: true},
			"e4": {Type: "typeA", Empty: true},
			"e5": {Type: "typeA", Empty: true},
			"e6": {Type: "typeA", Empty: true},
			"x1": {Type: "typeA"},
		},
		Racks: []Rack{
			{Name: "r1", Size: 12, Jigs: []string{"e1", "e2"}},
			{Name: "r2", Size: 12, Jigs: []string{"e3", "e4"}},
			{Name: "r3", Size: 12, Jigs: []string{"e5", "e6"}},
		},
		Flights: []Flight{
			{Name: "f0"},
			{Name: "f1", Incoming: []string{"x1"}},
		},
	}
	require.NoError(t, inst.Validate())
	return inst
}

// deadEndInstance offers no legal action at all from its initial state
// and is not a goal: the single rack's factory-side jig is second in
// the schedule, the buried jig belongs to no schedule, and there is
// nowhere to move anything.
func deadEndInstance(t *testing.T) *Instance {
	t.Helper()
	inst := &Instance{
		JigTypes: map[string]JigType{
			"typeA": {Name: "typeA", SizeEmpty: 1, SizeLoaded: 1},
		},
		Jigs: map[string]Jig{
			"j1": {Type: "typeA"},
			"j2": {Type: "typeA"},
			"x":  {Type: "typeA"},
		},
		Racks: []Rack{
			{Name: "r1", Size: 10, Jigs: []string{"j2", "x", "j1"}},
		},
		Flights:         []Flight{{Name: "f0"}},
		ProductionLines: []ProductionLine{{Name: "pl0", Schedule: []string{"j1", "j2"}}},
	}
	require.NoError(t, inst.Validate())
	return inst
}

// mustApply applies a sequence of actions, failing the test on the
// first invalid one.
func mustApply(t *testing.T, s *State, inst *Instance, actions ...Action) *State {
	t.Helper()
	for _, a := range actions {
		next, err := a.Apply(s, inst)
		require.NoError(t, err, "applying %s", a)
		s = next
	}
	return s
}

// solveTiny runs the baseline search on the tiny instance and returns
// the verified plan.
func solveTiny(t *testing.T, cfg SearchConfig) Plan {
	t.Helper()
	inst := tinyInstance(t)
	initial := NewInitialState(inst)
	plan, err := AStarSearch(context.Background(), initial, inst, cfg)
	require.NoError(t, err)
	_, failed, err := SimulatePlan(initial, plan, inst)
	require.NoError(t, err)
	require.Equal(t, -1, failed)
	return plan
}
