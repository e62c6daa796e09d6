// Cost-to-go estimators. Three variants sit behind one Estimate
// capability and are selected at search configuration time. They read
// only the state and static instance data. None is formally proven
// admissible; weighted and production-focus deliberately overestimate
// for greedier, faster search at the cost of optimality. The standard
// and weighted variants count interior-blocked jigs with different
// arithmetic; both are preserved as-is rather than reconciled.
package beluga

import "fmt"

// HeuristicVariant selects one of the three estimators.
type HeuristicVariant string

const (
	// HeuristicStandard is the baseline, evenly weighted estimate.
	HeuristicStandard HeuristicVariant = "standard"
	// HeuristicWeighted re-weights the standard components toward
	// production and blocked jigs.
	HeuristicWeighted HeuristicVariant = "weighted"
	// HeuristicProductionFocus walks each production line in order and
	// charges extra for out-of-order and buried schedule jigs.
	HeuristicProductionFocus HeuristicVariant = "production_focus"
)

// ParseHeuristicVariant validates a variant name from configuration.
func ParseHeuristicVariant(name string) (HeuristicVariant, error) {
	switch HeuristicVariant(name) {
	case HeuristicStandard, HeuristicWeighted, HeuristicProductionFocus:
		return HeuristicVariant(name), nil
	case "":
		return HeuristicStandard, nil
	}
	return "", fmt.Errorf("unknown heuristic variant %q", name)
}

// Estimate returns a non-negative estimated cost to goal for the state.
func (v HeuristicVariant) Estimate(s *State, inst *Instance) float64 {
	switch v {
	case HeuristicWeighted:
		return weightedHeuristic(s, inst)
	case HeuristicProductionFocus:
		return productionFocusHeuristic(s, inst)
	default:
		return standardHeuristic(s, inst)
	}
}

// incomingRemaining counts the current flight's incoming jigs still
// aboard the aircraft.
func incomingRemaining(s *State, inst *Instance) int {
	if s.flightIdx >= len(inst.Flights) {
		return 0
	}
	n := 0
	for _, jig := range inst.Flights[s.flightIdx].Incoming {
		if s.belugaJigs[jig] {
			n++
		}
	}
	return n
}

// pendingParts counts schedule jigs still carrying an unproduced part.
func pendingParts(s *State, inst *Instance) int {
	n := 0
	for _, jig := range inst.ProductionSchedule() {
		st := s.jigStatus[jig]
		if st.Loaded && st.Part != "" && !s.produced[st.Part] {
			n++
		}
	}
	return n
}

// outgoingRemaining counts outgoing jig requirements across the
// current and all later flights.
func outgoingRemaining(s *State, inst *Instance) int {
	n := 0
	for i := s.flightIdx; i < len(inst.Flights); i++ {
		n += len(inst.Flights[i].Outgoing)
	}
	return n
}

func flightsRemaining(s *State, inst *Instance) int {
	remaining := len(inst.Flights) - s.flightIdx - 1
	if remaining < 0 {
		return 0
	}
	return remaining
}

// interiorScheduleJigs counts production-schedule jigs buried at a
// non-edge rack position, where they need at least one swap before
// they can reach production.
func interiorScheduleJigs(s *State, inst *Instance) int {
	scheduled := make(map[string]bool)
	for _, jig := range inst.ProductionSchedule() {
		scheduled[jig] = true
	}
	n := 0
	for _, rack := range sortedKeys(s.rackJigs) {
		jigs := s.rackJigs[rack]
		for i := 1; i < len(jigs)-1; i++ {
			if scheduled[jigs[i]] {
				n++
			}
		}
	}
	return n
}

func standardHeuristic(s *State, inst *Instance) float64 {
	cost := incomingRemaining(s, inst)
	cost += pendingParts(s, inst)
	cost += outgoingRemaining(s, inst)
	cost += flightsRemaining(s, inst)
	// One swap plus one move to production per buried schedule jig.
	cost += 2 * interiorScheduleJigs(s, inst)
	return float64(cost)
}

func weightedHeuristic(s *State, inst *Instance) float64 {
	return float64(pendingParts(s, inst))*2.0 +
		float64(outgoingRemaining(s, inst))*1.0 +
		float64(flightsRemaining(s, inst))*0.5 +
		float64(interiorScheduleJigs(s, inst))*2.0
}

func productionFocusHeuristic(s *State, inst *Instance) float64 {
	cost := 0
	for _, line := range inst.ProductionLines {
		for idx, jig := range line.Schedule {
			st := s.jigStatus[jig]
			if !st.Loaded || st.Part == "" || s.produced[st.Part] {
				continue
			}
			partCost := 1
			// Out-of-order completion: charge for every unproduced
			// predecessor in the same line.
			for _, earlier := range line.Schedule[:idx] {
				est := s.jigStatus[earlier]
				if est.Loaded && est.Part != "" && !s.produced[est.Part] {
					partCost += 3
				}
			}
			// Swap-cost proxy: distance from the nearer rack edge.
			if loc := s.JigLocation(jig); loc != LocationBeluga && loc != LocationFactory && loc != "" {
				jigs := s.rackJigs[loc]
				for i, id := range jigs {
					if id == jig {
						fromEdge := i
						if back := len(jigs) - 1 - i; back < fromEdge {
							fromEdge = back
						}
						partCost += fromEdge * 2
						break
					}
				}
			}
			cost += partCost
		}
	}
	cost += flightsRemaining(s, inst)
	cost += incomingRemaining(s, inst)
	cost += outgoingRemaining(s, inst)
	return float64(cost)
}
