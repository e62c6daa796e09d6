// Constraint-satisfaction view of a snapshot. A CSP is derived from
// scratch for each state it is asked to reason about and owns no
// cross-state memory; rebuilding per expansion is a deliberate
// simplicity-over-incrementality choice.
//
// The domain-reduction procedure is an AC-3-style worklist with one
// intentional departure from textbook AC-3: a revision that would
// remove every value of a domain is refused. This model is simplified
// enough that total wipeouts are more often an artifact than a real
// inconsistency, so near-emptying is surfaced as a soft signal through
// the domain-size summary instead of a hard failure. The guard is part
// of the contract, not a defect.
package beluga

import (
	"fmt"
	"sort"
)

// ValueKind distinguishes the two kinds of CSP values.
type ValueKind int

const (
	// LocationValue is a physical location: a rack name, "beluga", or
	// "factory". Used by the per-jig location variables.
	LocationValue ValueKind = iota
	// OrderValue is an ordering slot used by the flight-processing and
	// production-order variables.
	OrderValue
)

// Value is one candidate assignment for a CSP variable.
type Value struct {
	Kind  ValueKind
	Loc   string
	Order int
}

// LocValue builds a location value.
func LocValue(loc string) Value { return Value{Kind: LocationValue, Loc: loc} }

// OrdValue builds an ordering value.
func OrdValue(order int) Value { return Value{Kind: OrderValue, Order: order} }

// String renders the value for diagnostics.
func (v Value) String() string {
	if v.Kind == LocationValue {
		return v.Loc
	}
	return fmt.Sprintf("#%d", v.Order)
}

// Constraint relates two variables through a predicate. The predicate
// receives values in (Var1, Var2) order; propagation orients it when
// revising against the reverse arc.
type Constraint struct {
	Var1  string
	Var2  string
	Check func(v1, v2 Value) bool
}

// CSP is the derived constraint model for one state. Domains are
// ordered but mutable during propagation; varOrder fixes a
// deterministic iteration order over them.
type CSP struct {
	state    *State
	instance *Instance

	Domains     map[string][]Value
	Constraints []Constraint

	varOrder []string
}

// NewCSP derives decision variables, domains, and constraints from the
// state: per-jig location domains, per-pending-flight processing-order
// domains, and per-unproduced-part production-order domains, with
// rack-capacity, flight-precedence, and production-precedence
// constraints over them.
func NewCSP(s *State, inst *Instance) *CSP {
	c := &CSP{
		state:    s,
		instance: inst,
		Domains:  make(map[string][]Value),
	}
	c.extractDomains()
	c.extractConstraints()
	return c
}

func jigVar(jig string) string  { return "jig_" + jig }
func flightVar(i int) string    { return fmt.Sprintf("flight_%d", i) }
func prodVar(jig string) string { return "prod_" + jig }

func (c *CSP) addVar(name string, domain []Value) {
	c.Domains[name] = domain
	c.varOrder = append(c.varOrder, name)
}

func (c *CSP) extractDomains() {
	// Jig location domains: every rack plus the two pseudo-locations.
	locations := make([]Value, 0, len(c.instance.Racks)+2)
	for _, r := range c.instance.Racks {
		locations = append(locations, LocValue(r.Name))
	}
	locations = append(locations, LocValue(LocationBeluga), LocValue(LocationFactory))

	jigIDs := sortedKeys(c.instance.Jigs)
	for _, jig := range jigIDs {
		c.addVar(jigVar(jig), append([]Value(nil), locations...))
	}

	// Flight processing-order domains for every pending flight.
	total := len(c.instance.Flights)
	for i := c.state.flightIdx; i < total; i++ {
		domain := make([]Value, 0, total-c.state.flightIdx)
		for slot := c.state.flightIdx; slot < total; slot++ {
			domain = append(domain, OrdValue(slot))
		}
		c.addVar(flightVar(i), domain)
	}

	// Production-order domains for every schedule jig whose part is
	// still unproduced.
	schedule := c.instance.ProductionSchedule()
	for _, jig := range schedule {
		part := c.instance.initialPart(jig)
		if part == "" || c.state.produced[part] {
			continue
		}
		domain := make([]Value, 0, len(schedule))
		for slot := range schedule {
			domain = append(domain, OrdValue(slot))
		}
		c.addVar(prodVar(jig), domain)
	}
}

func (c *CSP) extractConstraints() {
	// Rack capacity: every pair of jig-location variables sharing a
	// candidate rack must not jointly overflow it. The occupancy test
	// is evaluated against the snapshot the model was derived from.
	jigIDs := sortedKeys(c.instance.Jigs)
	for _, rack := range c.instance.Racks {
		roomLeft := c.state.rackOccupancy(c.instance, rack.Name) < rack.Size
		rackName := rack.Name
		for i, jig1 := range jigIDs {
			for _, jig2 := range jigIDs[i+1:] {
				c.Constraints = append(c.Constraints, Constraint{
					Var1: jigVar(jig1),
					Var2: jigVar(jig2),
					Check: func(v1, v2 Value) bool {
						if v1.Kind != LocationValue || v2.Kind != LocationValue {
							return true
						}
						if v1.Loc == rackName && v2.Loc == rackName {
							return roomLeft
						}
						return true
					},
				})
			}
		}
	}

	// Flight precedence: every earlier pending flight processes before
	// every later one.
	for i := c.state.flightIdx; i < len(c.instance.Flights); i++ {
		for j := i + 1; j < len(c.instance.Flights); j++ {
			c.Constraints = append(c.Constraints, Constraint{
				Var1:  flightVar(i),
				Var2:  flightVar(j),
				Check: ordLess,
			})
		}
	}

	// Production precedence: adjacent schedule entries within a line.
	for _, line := range c.instance.ProductionLines {
		for i := 0; i+1 < len(line.Schedule); i++ {
			v1, v2 := prodVar(line.Schedule[i]), prodVar(line.Schedule[i+1])
			if _, ok := c.Domains[v1]; !ok {
				continue
			}
			if _, ok := c.Domains[v2]; !ok {
				continue
			}
			c.Constraints = append(c.Constraints, Constraint{Var1: v1, Var2: v2, Check: ordLess})
		}
	}
}

func ordLess(v1, v2 Value) bool {
	return v1.Kind == OrderValue && v2.Kind == OrderValue && v1.Order < v2.Order
}

// ArcConsistent reports whether every constrained variable pair admits
// at least one satisfying value pairing across their current domains.
// Read-only; domains are not modified.
func (c *CSP) ArcConsistent() bool {
	for _, con := range c.Constraints {
		d1, ok1 := c.Domains[con.Var1]
		d2, ok2 := c.Domains[con.Var2]
		if !ok1 || !ok2 {
			continue
		}
		satisfiable := false
		for _, v1 := range d1 {
			for _, v2 := range d2 {
				if con.Check(v1, v2) {
					satisfiable = true
					break
				}
			}
			if satisfiable {
				break
			}
		}
		if !satisfiable {
			return false
		}
	}
	return true
}

// arc is one directed revision obligation in the AC-3 worklist.
type arc struct {
	from, to string
}

// ReduceDomains runs the guarded AC-3 worklist to a fixed point.
// It returns false only when some domain is empty, which (thanks to
// the revision guard) means it was empty before propagation started.
// The worklist is seeded with both directions of every constraint;
// an actual removal re-enqueues the arcs pointing into the revised
// variable. Only actual removals count as revisions, so the worklist
// is bounded by total domain size and always terminates.
func (c *CSP) ReduceDomains() bool {
	// The revision guard never empties a domain, so emptiness can only
	// predate propagation.
	for _, name := range c.varOrder {
		if len(c.Domains[name]) == 0 {
			return false
		}
	}

	worklist := make([]arc, 0, len(c.Constraints)*2)
	for _, con := range c.Constraints {
		worklist = append(worklist, arc{con.Var1, con.Var2}, arc{con.Var2, con.Var1})
	}

	for len(worklist) > 0 {
		a := worklist[0]
		worklist = worklist[1:]

		if _, ok := c.Domains[a.from]; !ok {
			continue
		}
		if _, ok := c.Domains[a.to]; !ok {
			continue
		}
		con, forward := c.findConstraint(a.from, a.to)
		if con == nil {
			continue
		}
		if !c.revise(a.from, a.to, con, forward) {
			continue
		}
		for _, other := range c.Constraints {
			switch {
			case other.Var1 == a.from && other.Var2 != a.to:
				worklist = append(worklist, arc{other.Var2, a.from})
			case other.Var2 == a.from && other.Var1 != a.to:
				worklist = append(worklist, arc{other.Var1, a.from})
			}
		}
	}
	return true
}

// findConstraint locates a constraint connecting the two variables and
// reports whether (from, to) matches its declared (Var1, Var2) order.
func (c *CSP) findConstraint(from, to string) (*Constraint, bool) {
	for i := range c.Constraints {
		con := &c.Constraints[i]
		if con.Var1 == from && con.Var2 == to {
			return con, true
		}
		if con.Var1 == to && con.Var2 == from {
			return con, false
		}
	}
	return nil, false
}

// revise removes values of the revised variable that have no support
// in the neighbor's domain. A removal set covering the whole domain is
// refused: the domain is left intact and the revision reports no
// change, keeping near-emptying a soft signal.
func (c *CSP) revise(revised, neighbor string, con *Constraint, forward bool) bool {
	domain := c.Domains[revised]
	support := c.Domains[neighbor]

	kept := domain[:0:0]
	for _, val := range domain {
		supported := false
		for _, other := range support {
			var ok bool
			if forward {
				ok = con.Check(val, other)
			} else {
				ok = con.Check(other, val)
			}
			if ok {
				supported = true
				break
			}
		}
		if supported {
			kept = append(kept, val)
		}
	}
	if len(kept) == len(domain) {
		return false
	}
	if len(kept) == 0 {
		// Refuse the wipeout; the simplified model over-prunes here.
		return false
	}
	c.Domains[revised] = kept
	return true
}

// DomainSummary reports per-variable domain sizes plus the smallest
// and largest domain, used by the hybrid search to bias its heuristic.
type DomainSummary struct {
	Sizes        map[string]int
	Smallest     string
	SmallestSize int
	Largest      string
	LargestSize  int
}

// Summary computes the domain-size summary. Ties resolve to the
// variable that sorts first, keeping the result deterministic.
func (c *CSP) Summary() DomainSummary {
	summary := DomainSummary{Sizes: make(map[string]int, len(c.Domains))}
	vars := append([]string(nil), c.varOrder...)
	sort.Strings(vars)
	for _, name := range vars {
		size := len(c.Domains[name])
		summary.Sizes[name] = size
		if summary.Smallest == "" || size < summary.SmallestSize {
			summary.Smallest, summary.SmallestSize = name, size
		}
		if summary.Largest == "" || size > summary.LargestSize {
			summary.Largest, summary.LargestSize = name, size
		}
	}
	return summary
}
