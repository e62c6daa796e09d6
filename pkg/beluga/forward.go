// Forward checking wraps one CSP for one state and turns its
// propagation results into the bottleneck and constrained-resource
// queries the hybrid search uses to order actions and shade heuristic
// values.
package beluga

// ForwardChecker couples a snapshot with its derived CSP. It is built
// fresh for each state the hybrid search reasons about.
type ForwardChecker struct {
	state    *State
	instance *Instance
	csp      *CSP
}

// NewForwardChecker derives the CSP for the state and wraps it.
func NewForwardChecker(s *State, inst *Instance) *ForwardChecker {
	return &ForwardChecker{state: s, instance: inst, csp: NewCSP(s, inst)}
}

// CSP exposes the wrapped constraint model.
func (fc *ForwardChecker) CSP() *CSP {
	return fc.csp
}

// CheckForward runs domain reduction and returns its result together
// with the domain-size summary for heuristic shading.
func (fc *ForwardChecker) CheckForward() (bool, DomainSummary) {
	ok := fc.csp.ReduceDomains()
	return ok, fc.csp.Summary()
}

// MostConstrainedRack returns the rack with the least spare capacity
// (declared size minus current occupancy), or "" when the state has no
// racks. The hybrid search de-prioritizes moves into this rack. Ties
// resolve to the rack that comes first in instance order.
func (fc *ForwardChecker) MostConstrainedRack() string {
	best := ""
	bestSpare := 0
	for _, rack := range fc.instance.Racks {
		if _, ok := fc.state.rackJigs[rack.Name]; !ok {
			continue
		}
		spare := rack.Size - fc.state.rackOccupancy(fc.instance, rack.Name)
		if best == "" || spare < bestSpare {
			best, bestSpare = rack.Name, spare
		}
	}
	return best
}

// ProductionBottlenecks returns the schedule jigs that are not yet
// produced and sit at a non-edge rack position, i.e. are physically
// blocked from reaching production.
func (fc *ForwardChecker) ProductionBottlenecks() []string {
	var bottlenecks []string
	for _, jig := range fc.instance.ProductionSchedule() {
		part := fc.instance.initialPart(jig)
		if part == "" || fc.state.produced[part] {
			continue
		}
		loc := fc.state.JigLocation(jig)
		if loc == "" || loc == LocationBeluga || loc == LocationFactory {
			continue
		}
		jigs := fc.state.rackJigs[loc]
		for i, id := range jigs {
			if id == jig && i > 0 && i < len(jigs)-1 {
				bottlenecks = append(bottlenecks, jig)
				break
			}
		}
	}
	return bottlenecks
}

// FlightConstraints summarizes the active flight's remaining work.
type FlightConstraints struct {
	CurrentFlight     int
	TotalFlights      int
	IncomingRemaining int
	OutgoingNeeded    int
}

// FlightProcessingConstraints reports, for the active flight only, how
// many incoming jigs remain aboard and how many outgoing jigs are
// still required.
func (fc *ForwardChecker) FlightProcessingConstraints() FlightConstraints {
	info := FlightConstraints{
		CurrentFlight: fc.state.flightIdx,
		TotalFlights:  len(fc.instance.Flights),
	}
	if fc.state.flightIdx >= len(fc.instance.Flights) {
		return info
	}
	flight := fc.instance.Flights[fc.state.flightIdx]
	for _, jig := range flight.Incoming {
		if fc.state.belugaJigs[jig] {
			info.IncomingRemaining++
		}
	}
	info.OutgoingNeeded = len(flight.Outgoing)
	return info
}

// orderWithForwardChecking sorts candidate actions by the hybrid
// priority classes: produce, urgent (bottleneck jig moves), flight,
// return, move, low (anything into the most constrained rack). The
// sort is stable, so candidates within a class keep generation order.
func orderWithForwardChecking(actions []Action, fc *ForwardChecker) {
	bottleneck := make(map[string]bool)
	for _, jig := range fc.ProductionBottlenecks() {
		bottleneck[jig] = true
	}
	constrained := fc.MostConstrainedRack()

	rank := func(a Action) int {
		switch a.Class {
		case ClassProduce:
			return 0
		case ClassFlight:
			return 2
		case ClassReturn:
			if a.To == constrained {
				return 5
			}
			return 3
		case ClassMove:
			if a.To == constrained {
				return 5
			}
			if bottleneck[a.Jig] {
				return 1
			}
			return 4
		default:
			return 5
		}
	}
	stableSortByRank(actions, rank)
}
