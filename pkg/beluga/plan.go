// Plan values and replay verification. A plan is just the ordered
// action sequence a search produced; simulation replays it against the
// transition model to confirm it is executable and reaches the goal.
package beluga

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Plan is an ordered action sequence from an initial state toward the
// goal.
type Plan []Action

// String renders the plan as numbered steps.
func (p Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan with %d steps:\n", len(p))
	for i, a := range p {
		fmt.Fprintf(&b, "Step %d: %s\n", i+1, a)
	}
	return b.String()
}

// SimulatePlan replays the plan from the initial state. It returns the
// final state reached, the index of the first failing action (-1 when
// every step applied), and an error describing the failure or, when
// the plan replays fully but ends short of the goal, that shortfall.
func SimulatePlan(initial *State, plan Plan, inst *Instance) (*State, int, error) {
	current := initial
	for i, action := range plan {
		next, err := action.Apply(current, inst)
		if err != nil {
			return current, i, errors.Wrapf(err, "step %d (%s) failed", i+1, action)
		}
		current = next
	}
	if !IsGoalState(current, inst) {
		p := CheckGoalProgress(current, inst)
		return current, -1, errors.Errorf(
			"plan replayed fully but did not reach the goal (flights %s, parts %s)",
			p.FlightsProgress(), p.PartsProgress())
	}
	return current, -1, nil
}

// RenderState formats a snapshot for logs and plan files.
func RenderState(s *State, inst *Instance) string {
	var b strings.Builder
	p := CheckGoalProgress(s, inst)
	fmt.Fprintf(&b, "flight %d, flights %s, parts %s\n", s.flightIdx, p.FlightsProgress(), p.PartsProgress())
	for _, rack := range s.RackNames() {
		fmt.Fprintf(&b, "rack %s: [%s]\n", rack, strings.Join(s.rackJigs[rack], " "))
	}
	fmt.Fprintf(&b, "factory: [%s]\n", strings.Join(sortedSet(s.factoryJigs), " "))
	fmt.Fprintf(&b, "beluga: [%s]\n", strings.Join(sortedSet(s.belugaJigs), " "))
	return b.String()
}
