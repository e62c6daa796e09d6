// This file defines the immutable world snapshot. Like the solver
// stores in constraint-propagation engines, a State is never mutated
// after construction: every transition builds a successor that shares
// untouched containers with its parent, so states can be held in the
// came-from backpointer structure and used as map keys safely.
package beluga

import (
	"sort"
	"strconv"
	"strings"
)

// JigStatus records whether a jig currently carries an unprocessed
// part, and which one.
type JigStatus struct {
	Loaded bool
	Part   string
}

// State is one snapshot of the facility. Rack sequences are stored
// factory side first; only the two ends of each sequence are reachable
// by any action. A jig identifier is in exactly one of: some rack
// sequence, the factory set, or the aircraft (beluga) set.
//
// Thread safety: State is immutable after construction and safe to
// share without synchronization.
type State struct {
	rackJigs    map[string][]string
	jigStatus   map[string]JigStatus
	factoryJigs map[string]bool
	belugaJigs  map[string]bool
	flightIdx   int
	produced    map[string]bool

	key string
}

// NewInitialState builds the starting snapshot from instance data:
// racks hold their declared initial sequences, every flight's incoming
// jigs wait aboard the aircraft, the factory is empty, and nothing has
// been produced.
func NewInitialState(inst *Instance) *State {
	s := &State{
		rackJigs:    make(map[string][]string, len(inst.Racks)),
		jigStatus:   make(map[string]JigStatus, len(inst.Jigs)),
		factoryJigs: make(map[string]bool),
		belugaJigs:  make(map[string]bool),
		produced:    make(map[string]bool),
	}
	for _, r := range inst.Racks {
		s.rackJigs[r.Name] = append([]string(nil), r.Jigs...)
	}
	for id := range inst.Jigs {
		part := inst.initialPart(id)
		s.jigStatus[id] = JigStatus{Loaded: part != "", Part: part}
	}
	for _, f := range inst.Flights {
		for _, jig := range f.Incoming {
			s.belugaJigs[jig] = true
		}
	}
	s.key = s.computeKey()
	return s
}

// clone prepares a successor snapshot. Containers are copied eagerly;
// transitions touch at most two racks and a handful of set entries, so
// the copies stay small relative to search-frontier bookkeeping.
func (s *State) clone() *State {
	next := &State{
		rackJigs:    make(map[string][]string, len(s.rackJigs)),
		jigStatus:   make(map[string]JigStatus, len(s.jigStatus)),
		factoryJigs: make(map[string]bool, len(s.factoryJigs)),
		belugaJigs:  make(map[string]bool, len(s.belugaJigs)),
		flightIdx:   s.flightIdx,
		produced:    make(map[string]bool, len(s.produced)),
	}
	for rack, jigs := range s.rackJigs {
		next.rackJigs[rack] = append([]string(nil), jigs...)
	}
	for jig, st := range s.jigStatus {
		next.jigStatus[jig] = st
	}
	for jig := range s.factoryJigs {
		next.factoryJigs[jig] = true
	}
	for jig := range s.belugaJigs {
		next.belugaJigs[jig] = true
	}
	for part := range s.produced {
		next.produced[part] = true
	}
	return next
}

// seal finalizes a successor built by an Apply and memoizes its key.
func (s *State) seal() *State {
	s.key = s.computeKey()
	return s
}

// Key returns a canonical string identifying the snapshot. Two states
// are equal exactly when their keys are equal, which is what the search
// cost maps and visited sets rely on; a digest-based key would let
// hash collisions silently merge distinct states.
func (s *State) Key() string {
	return s.key
}

func (s *State) computeKey() string {
	var b strings.Builder
	b.WriteString("f")
	b.WriteString(strconv.Itoa(s.flightIdx))
	for _, rack := range sortedKeys(s.rackJigs) {
		b.WriteString("|r:")
		b.WriteString(rack)
		b.WriteString("=")
		b.WriteString(strings.Join(s.rackJigs[rack], ","))
	}
	b.WriteString("|fac:")
	b.WriteString(strings.Join(sortedSet(s.factoryJigs), ","))
	b.WriteString("|air:")
	b.WriteString(strings.Join(sortedSet(s.belugaJigs), ","))
	b.WriteString("|done:")
	b.WriteString(strings.Join(sortedSet(s.produced), ","))
	b.WriteString("|jigs:")
	for _, jig := range sortedKeys(s.jigStatus) {
		st := s.jigStatus[jig]
		b.WriteString(jig)
		if st.Loaded {
			b.WriteString("+")
			b.WriteString(st.Part)
		} else {
			b.WriteString("-")
		}
		b.WriteString(";")
	}
	return b.String()
}

// FlightIndex returns the index of the flight currently being handled.
// Flights are processed strictly in instance order; this is the
// search's notion of time.
func (s *State) FlightIndex() int {
	return s.flightIdx
}

// RackSequence returns a copy of the named rack's contents, factory
// side first. Missing racks yield nil.
func (s *State) RackSequence(rack string) []string {
	jigs, ok := s.rackJigs[rack]
	if !ok {
		return nil
	}
	return append([]string(nil), jigs...)
}

// RackNames returns the rack identifiers present in this state, sorted.
func (s *State) RackNames() []string {
	return sortedKeys(s.rackJigs)
}

// JigState reports the loaded flag and part of a jig.
func (s *State) JigState(jig string) JigStatus {
	return s.jigStatus[jig]
}

// InFactory reports whether the jig currently sits in the factory.
func (s *State) InFactory(jig string) bool {
	return s.factoryJigs[jig]
}

// InBeluga reports whether the jig is currently aboard the aircraft,
// either awaiting unload or loaded awaiting departure.
func (s *State) InBeluga(jig string) bool {
	return s.belugaJigs[jig]
}

// FactoryJigs returns the jigs currently in the factory, sorted.
func (s *State) FactoryJigs() []string {
	return sortedSet(s.factoryJigs)
}

// Produced reports whether the part has completed production.
func (s *State) Produced(part string) bool {
	return s.produced[part]
}

// ProducedCount returns how many parts have completed production.
func (s *State) ProducedCount() int {
	return len(s.produced)
}

// JigLocation resolves where a jig currently is: a rack name,
// LocationBeluga, LocationFactory, or "" when the jig is unknown.
func (s *State) JigLocation(jig string) string {
	if s.belugaJigs[jig] {
		return LocationBeluga
	}
	if s.factoryJigs[jig] {
		return LocationFactory
	}
	for rack, jigs := range s.rackJigs {
		for _, id := range jigs {
			if id == jig {
				return rack
			}
		}
	}
	return ""
}

// Named pseudo-locations used by JigLocation and the CSP location
// domains alongside rack names.
const (
	LocationBeluga  = "beluga"
	LocationFactory = "factory"
)

// rackOccupancy sums the footprint of every jig on the rack, loaded
// and empty sizes differing per jig type.
func (s *State) rackOccupancy(inst *Instance, rack string) int {
	occupancy := 0
	for _, jig := range s.rackJigs[rack] {
		occupancy += inst.mustJigSize(jig, s.jigStatus[jig].Loaded)
	}
	return occupancy
}

// rackEdgeIndex returns the position of jig if it sits at an end of
// the rack sequence: 0 for the factory side, len-1 for the aircraft
// side, -1 when the jig is absent or buried in the interior.
func (s *State) rackEdgeIndex(rack, jig string) int {
	jigs := s.rackJigs[rack]
	if len(jigs) == 0 {
		return -1
	}
	if jigs[0] == jig {
		return 0
	}
	if jigs[len(jigs)-1] == jig {
		return len(jigs) - 1
	}
	return -1
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(m map[string]bool) []string {
	return sortedKeys(m)
}
