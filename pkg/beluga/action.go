// This file defines the closed action vocabulary, its validity and
// transition rules, and the single shared action generator used by the
// baseline, hybrid, and local searches. Actions are plain values with
// an explicit class tag; nothing in the package inspects dynamic types
// to distinguish variants.
package beluga

import (
	"fmt"

	"github.com/pkg/errors"
)

// ActionClass tags the five action variants. The load/unload pair is
// declared for completeness but rejected by Validate and never emitted
// by the generator: instances that require unloading a jig mid-flight
// before all incoming jigs are placed are outside this planner's reach
// and surface as "no plan found".
type ActionClass int

const (
	// ClassMove transfers an edge jig from one rack to another.
	ClassMove ActionClass = iota
	// ClassProduce sends a rack's factory-side jig to production.
	ClassProduce
	// ClassReturn brings an empty jig back from the factory to a rack.
	ClassReturn
	// ClassFlight advances to the next flight in the instance order.
	ClassFlight
	// ClassLoad would load a jig onto the aircraft. Declared, unused.
	ClassLoad
	// ClassUnload would unload a jig from the aircraft. Declared, unused.
	ClassUnload
)

// String names the class for rendering and logs.
func (c ActionClass) String() string {
	switch c {
	case ClassMove:
		return "move"
	case ClassProduce:
		return "produce"
	case ClassReturn:
		return "return"
	case ClassFlight:
		return "flight"
	case ClassLoad:
		return "load"
	case ClassUnload:
		return "unload"
	}
	return fmt.Sprintf("ActionClass(%d)", int(c))
}

// Action is one candidate transition. Actions are immutable values
// with no identity beyond their fields; two actions with equal fields
// are the same action. From and To hold rack names where the class
// uses them; ClassFlight carries no fields.
type Action struct {
	Class ActionClass
	Jig   string
	From  string
	To    string
}

// MoveJigBetweenRacks moves jig from an edge of rack from to rack to.
func MoveJigBetweenRacks(jig, from, to string) Action {
	return Action{Class: ClassMove, Jig: jig, From: from, To: to}
}

// SendJigToProduction sends the jig at rack's factory-side edge to the
// factory, producing its part.
func SendJigToProduction(jig, rack string) Action {
	return Action{Class: ClassProduce, Jig: jig, From: rack}
}

// ReturnEmptyJigFromFactory returns an empty factory jig to a rack's
// factory side.
func ReturnEmptyJigFromFactory(jig, rack string) Action {
	return Action{Class: ClassReturn, Jig: jig, To: rack}
}

// ProcessNextFlight advances to the next flight once the current one
// is fully handled.
func ProcessNextFlight() Action {
	return Action{Class: ClassFlight}
}

// LoadJigToBeluga is declared for vocabulary completeness only.
func LoadJigToBeluga(jig string) Action {
	return Action{Class: ClassLoad, Jig: jig}
}

// UnloadJigFromBeluga is declared for vocabulary completeness only.
func UnloadJigFromBeluga(jig, rack string) Action {
	return Action{Class: ClassUnload, Jig: jig, To: rack}
}

// String renders the action for plans and logs.
func (a Action) String() string {
	switch a.Class {
	case ClassMove:
		return fmt.Sprintf("move jig %s from rack %s to rack %s", a.Jig, a.From, a.To)
	case ClassProduce:
		return fmt.Sprintf("send jig %s from rack %s to production", a.Jig, a.From)
	case ClassReturn:
		return fmt.Sprintf("return empty jig %s from factory to rack %s", a.Jig, a.To)
	case ClassFlight:
		return "process next flight"
	case ClassLoad:
		return fmt.Sprintf("load jig %s to beluga", a.Jig)
	case ClassUnload:
		return fmt.Sprintf("unload jig %s from beluga to rack %s", a.Jig, a.To)
	}
	return fmt.Sprintf("unknown action %+v", struct {
		Class ActionClass
		Jig   string
	}{a.Class, a.Jig})
}

// ErrInvalidAction reports that an action does not apply in a state.
// It is an ordinary filtering signal, never a fault: searches discard
// invalid candidates and move on.
var ErrInvalidAction = errors.New("invalid action")

// ErrUnsupportedAction reports an action class this planner never
// executes (the beluga load/unload pair).
var ErrUnsupportedAction = errors.New("unsupported action class")

// Validate reports whether the action applies in the given state.
// A nil return means the action is legal; otherwise the error explains
// the violated condition.
func (a Action) Validate(s *State, inst *Instance) error {
	switch a.Class {
	case ClassMove:
		return a.validateMove(s, inst)
	case ClassProduce:
		return a.validateProduce(s, inst)
	case ClassReturn:
		return a.validateReturn(s, inst)
	case ClassFlight:
		return a.validateFlight(s, inst)
	case ClassLoad, ClassUnload:
		return errors.Wrapf(ErrUnsupportedAction, "%s", a.Class)
	}
	return errors.Wrapf(ErrInvalidAction, "unknown action class %d", int(a.Class))
}

func (a Action) validateMove(s *State, inst *Instance) error {
	if a.From == a.To {
		return errors.Wrap(ErrInvalidAction, "move within the same rack")
	}
	if _, ok := s.rackJigs[a.To]; !ok {
		return errors.Wrapf(ErrInvalidAction, "unknown destination rack %q", a.To)
	}
	if s.rackEdgeIndex(a.From, a.Jig) < 0 {
		return errors.Wrapf(ErrInvalidAction, "jig %s is not at an edge of rack %s", a.Jig, a.From)
	}
	size := inst.mustJigSize(a.Jig, s.jigStatus[a.Jig].Loaded)
	if s.rackOccupancy(inst, a.To)+size > inst.mustRackSize(a.To) {
		return errors.Wrapf(ErrInvalidAction, "rack %s cannot fit jig %s", a.To, a.Jig)
	}
	return nil
}

func (a Action) validateProduce(s *State, inst *Instance) error {
	jigs := s.rackJigs[a.From]
	if len(jigs) == 0 || jigs[0] != a.Jig {
		return errors.Wrapf(ErrInvalidAction, "jig %s is not at the factory-side edge of rack %s", a.Jig, a.From)
	}
	st := s.jigStatus[a.Jig]
	if !st.Loaded {
		return errors.Wrapf(ErrInvalidAction, "jig %s carries no part", a.Jig)
	}
	if !s.productionReady(inst, a.Jig) {
		return errors.Wrapf(ErrInvalidAction, "jig %s is not next in its production schedule", a.Jig)
	}
	return nil
}

func (a Action) validateReturn(s *State, inst *Instance) error {
	if !s.factoryJigs[a.Jig] {
		return errors.Wrapf(ErrInvalidAction, "jig %s is not in the factory", a.Jig)
	}
	if s.jigStatus[a.Jig].Loaded {
		return errors.Wrapf(ErrInvalidAction, "jig %s is still loaded", a.Jig)
	}
	if _, ok := s.rackJigs[a.To]; !ok {
		return errors.Wrapf(ErrInvalidAction, "unknown rack %q", a.To)
	}
	size := inst.mustJigSize(a.Jig, false)
	if s.rackOccupancy(inst, a.To)+size > inst.mustRackSize(a.To) {
		return errors.Wrapf(ErrInvalidAction, "rack %s cannot fit jig %s", a.To, a.Jig)
	}
	return nil
}

func (a Action) validateFlight(s *State, inst *Instance) error {
	if s.flightIdx >= len(inst.Flights)-1 {
		return errors.Wrap(ErrInvalidAction, "already at the last flight")
	}
	if !FlightReady(s, inst, s.flightIdx) {
		return errors.Wrapf(ErrInvalidAction, "flight %d is not fully handled", s.flightIdx)
	}
	return nil
}

// productionReady reports whether every jig scheduled before this one
// in its production line has already produced its part. Schedule order
// is a precedence constraint, not mere membership.
func (s *State) productionReady(inst *Instance, jig string) bool {
	for _, line := range inst.ProductionLines {
		for i, scheduled := range line.Schedule {
			if scheduled != jig {
				continue
			}
			for _, earlier := range line.Schedule[:i] {
				part := inst.initialPart(earlier)
				if part != "" && !s.produced[part] {
					return false
				}
			}
			return true
		}
	}
	return false
}

// Apply returns the successor state produced by the action, or an
// error when the action is invalid in this state. The receiver state
// is never modified; applying the same action to the same state always
// yields an equal result.
func (a Action) Apply(s *State, inst *Instance) (*State, error) {
	if err := a.Validate(s, inst); err != nil {
		return nil, err
	}
	next := s.clone()
	switch a.Class {
	case ClassMove:
		next.removeFromRack(a.From, a.Jig)
		// Rack-to-rack transfers happen on the aircraft side.
		next.rackJigs[a.To] = append(next.rackJigs[a.To], a.Jig)
	case ClassProduce:
		next.rackJigs[a.From] = next.rackJigs[a.From][1:]
		next.factoryJigs[a.Jig] = true
		part := next.jigStatus[a.Jig].Part
		next.jigStatus[a.Jig] = JigStatus{}
		next.produced[part] = true
	case ClassReturn:
		delete(next.factoryJigs, a.Jig)
		next.rackJigs[a.To] = append([]string{a.Jig}, next.rackJigs[a.To]...)
	case ClassFlight:
		next.flightIdx++
	}
	return next.seal(), nil
}

func (s *State) removeFromRack(rack, jig string) {
	jigs := s.rackJigs[rack]
	switch {
	case len(jigs) > 0 && jigs[0] == jig:
		s.rackJigs[rack] = jigs[1:]
	case len(jigs) > 0 && jigs[len(jigs)-1] == jig:
		s.rackJigs[rack] = jigs[:len(jigs)-1]
	}
}

// PossibleActions enumerates every legal action from the state using
// one shared policy: rack moves only from the two edge jigs of each
// non-empty rack, production only from factory-side edges, returns for
// every empty factory jig, and a flight advance when not at the final
// flight. Every candidate is filtered through Validate before being
// offered. Enumeration order is deterministic: racks in instance
// order, factory jigs sorted.
func PossibleActions(s *State, inst *Instance) []Action {
	var actions []Action

	for _, from := range inst.Racks {
		jigs := s.rackJigs[from.Name]
		if len(jigs) == 0 {
			continue
		}
		edges := []string{jigs[0]}
		if last := jigs[len(jigs)-1]; last != jigs[0] {
			edges = append(edges, last)
		}
		for _, jig := range edges {
			for _, to := range inst.Racks {
				if to.Name == from.Name {
					continue
				}
				a := MoveJigBetweenRacks(jig, from.Name, to.Name)
				if a.Validate(s, inst) == nil {
					actions = append(actions, a)
				}
			}
		}
	}

	for _, rack := range inst.Racks {
		jigs := s.rackJigs[rack.Name]
		if len(jigs) == 0 {
			continue
		}
		a := SendJigToProduction(jigs[0], rack.Name)
		if a.Validate(s, inst) == nil {
			actions = append(actions, a)
		}
	}

	for _, jig := range sortedSet(s.factoryJigs) {
		if s.jigStatus[jig].Loaded {
			continue
		}
		for _, rack := range inst.Racks {
			a := ReturnEmptyJigFromFactory(jig, rack.Name)
			if a.Validate(s, inst) == nil {
				actions = append(actions, a)
			}
		}
	}

	if s.flightIdx < len(inst.Flights)-1 {
		a := ProcessNextFlight()
		if a.Validate(s, inst) == nil {
			actions = append(actions, a)
		}
	}

	return actions
}

// baselineRank orders action classes for the baseline search:
// production first, then factory returns, then the flight advance,
// with rack-to-rack moves last. Uniform edge costs keep this a
// tie-shaping choice, not a correctness one.
func baselineRank(a Action) int {
	switch a.Class {
	case ClassProduce:
		return 0
	case ClassReturn:
		return 1
	case ClassFlight:
		return 2
	default:
		return 3
	}
}
