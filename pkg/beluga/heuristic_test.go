package beluga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heuristicInstance is sized for hand-checked estimates: one rack
// holding [a b c] with only b scheduled (so b is interior-blocked), one
// empty jig arriving on flight 0, and a second flight.
func heuristicInstance(t *testing.T) *Instance {
	t.Helper()
	inst := &Instance{
		JigTypes: map[string]JigType{
			"typeA": {Name: "typeA", SizeEmpty: 1, SizeLoaded: 2},
		},
		Jigs: map[string]Jig{
			"a": {Type: "typeA"},
			"b": {Type: "typeA"},
			"c": {Type: "typeA"},
			"d": {Type: "typeA", Empty: true},
		},
		Racks: []Rack{{Name: "r1", Size: 10, Jigs: []string{"a", "b", "c"}}},
		Flights: []Flight{
			{Name: "f0", Incoming: []string{"d"}},
			{Name: "f1"},
		},
		ProductionLines: []ProductionLine{{Name: "pl0", Schedule: []string{"b"}}},
	}
	require.NoError(t, inst.Validate())
	return inst
}

func TestParseHeuristicVariant(t *testing.T) {
	tests := []struct {
		name    string
		want    HeuristicVariant
		wantErr bool
	}{
		{name: "standard", want: HeuristicStandard},
		{name: "weighted", want: HeuristicWeighted},
		{name: "production_focus", want: HeuristicProductionFocus},
		{name: "", want: HeuristicStandard},
		{name: "greedy", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseHeuristicVariant(tc.name)
		if tc.wantErr {
			assert.Error(t, err, "variant %q", tc.name)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestStandardHeuristic(t *testing.T) {
	inst := heuristicInstance(t)
	s := NewInitialState(inst)

	// incoming 1 + pending parts 1 + outgoing 0 + flights remaining 1
	// + 2 per interior schedule jig (b) = 5.
	assert.Equal(t, 5.0, HeuristicStandard.Estimate(s, inst))
}

func TestWeightedHeuristic(t *testing.T) {
	inst := heuristicInstance(t)
	s := NewInitialState(inst)

	// pending 1*2 + outgoing 0*1 + flights remaining 1*0.5
	// + interior 1*2 = 4.5.
	assert.Equal(t, 4.5, HeuristicWeighted.Estimate(s, inst))
}

func TestProductionFocusHeuristic(t *testing.T) {
	inst := heuristicInstance(t)
	s := NewInitialState(inst)

	// b: 1 base + 0 predecessors + 2 per position from the nearer edge
	// (one position) = 3; + flights remaining 1 + incoming 1 + outgoing
	// 0 = 5.
	assert.Equal(t, 5.0, HeuristicProductionFocus.Estimate(s, inst))
}

func TestProductionFocusPredecessorPenalty(t *testing.T) {
	inst := heuristicInstance(t)
	inst.Jigs["a"] = Jig{Type: "typeA"}
	inst.ProductionLines = []ProductionLine{{Name: "pl0", Schedule: []string{"a", "b"}}}
	s := NewInitialState(inst)

	// a: 1 base + 0 predecessors + 0 edge distance (factory side) = 1.
	// b: 1 base + 3 for unproduced predecessor a + 2 edge distance = 6.
	// + flights remaining 1 + incoming 1 = 9.
	assert.Equal(t, 9.0, HeuristicProductionFocus.Estimate(s, inst))
}

func TestHeuristicsAtGoal(t *testing.T) {
	inst := tinyInstance(t)
	goal := mustApply(t, NewInitialState(inst), inst,
		MoveJigBetweenRacks("jig1", "rack00", "rack01"),
		SendJigToProduction("jig1", "rack01"),
		SendJigToProduction("jig2", "rack00"),
	)
	require.True(t, IsGoalState(goal, inst))

	for _, v := range []HeuristicVariant{HeuristicStandard, HeuristicWeighted, HeuristicProductionFocus} {
		assert.Zero(t, v.Estimate(goal, inst), "variant %s", v)
	}
}

func TestHeuristicDecreasesWithProgress(t *testing.T) {
	inst := tinyInstance(t)
	s := NewInitialState(inst)
	before := HeuristicStandard.Estimate(s, inst)

	s = mustApply(t, s, inst,
		MoveJigBetweenRacks("jig1", "rack00", "rack01"),
		SendJigToProduction("jig1", "rack01"),
	)
	assert.Less(t, HeuristicStandard.Estimate(s, inst), before)
}

func TestInteriorScheduleJigs(t *testing.T) {
	inst := heuristicInstance(t)
	s := NewInitialState(inst)
	assert.Equal(t, 1, interiorScheduleJigs(s, inst))

	// Moving c away leaves b at the aircraft-side edge.
	inst.Racks = append(inst.Racks, Rack{Name: "r2", Size: 10})
	s = mustApply(t, NewInitialState(inst), inst, MoveJigBetweenRacks("c", "r1", "r2"))
	assert.Equal(t, 0, interiorScheduleJigs(s, inst))
}
