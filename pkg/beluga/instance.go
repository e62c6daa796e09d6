// Package beluga implements a planner for an aircraft-cargo handling
// facility: flights deliver and collect transport jigs, bounded racks
// buffer them, and production lines consume the parts they carry. The
// package provides the immutable state model, the action/transition
// model, pluggable heuristic estimators, a CSP layer with
// arc-consistency propagation, forward checking, and three search
// procedures (baseline A*, a hybrid A*+CSP search, and a randomized
// local search used as a rescue).
//
// This file defines the read-only problem instance and its loaders.
// Instance data is loaded once, validated structurally, and then shared
// by every search component without further checks; only numeric
// lookups (rack sizes, jig-type sizes) remain guarded, and those fail
// loudly rather than defaulting, since a wrong capacity silently
// corrupts validity checking.
package beluga

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// JigType describes a class of jigs. Loaded and empty jigs of the same
// type occupy different amounts of rack space.
type JigType struct {
	Name       string `json:"name"`
	SizeEmpty  int    `json:"size_empty"`
	SizeLoaded int    `json:"size_loaded"`
}

// Jig is one transport fixture. A jig carries at most one part; Part
// defaults to the jig identifier when the jig starts loaded.
type Jig struct {
	Type  string `json:"type"`
	Empty bool   `json:"empty,omitempty"`
	Part  string `json:"part,omitempty"`
}

// Rack is bounded linear storage. Jigs lists the initial contents in
// physical order, factory side first. Only the two end positions of a
// rack are ever accessible.
type Rack struct {
	Name string   `json:"name"`
	Size int      `json:"size"`
	Jigs []string `json:"jigs,omitempty"`
}

// Flight is one aircraft visit. Incoming names the jigs that arrive
// aboard and must be unloaded; Outgoing names the jig types that must
// be aboard, empty, before the flight may depart.
type Flight struct {
	Name     string   `json:"name,omitempty"`
	Incoming []string `json:"incoming,omitempty"`
	Outgoing []string `json:"outgoing,omitempty"`
}

// ProductionLine is an ordered schedule of jig identifiers whose parts
// must be sent to production in order.
type ProductionLine struct {
	Name     string   `json:"name,omitempty"`
	Schedule []string `json:"schedule"`
}

// Instance is the full, read-only description of one planning problem.
// All search components treat it as immutable shared data.
type Instance struct {
	JigTypes        map[string]JigType `json:"jig_types"`
	Jigs            map[string]Jig     `json:"jigs"`
	Racks           []Rack             `json:"racks"`
	Flights         []Flight           `json:"flights"`
	ProductionLines []ProductionLine   `json:"production_lines,omitempty"`
}

// LoadInstance reads and validates an instance file. Files may be YAML
// or JSON; YAML input is converted through the same json-tagged structs.
func LoadInstance(path string) (*Instance, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading instance %s", path)
	}
	inst, err := ParseInstance(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing instance %s", path)
	}
	return inst, nil
}

// ParseInstance decodes and validates instance data from YAML or JSON.
func ParseInstance(data []byte) (*Instance, error) {
	var inst Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, errors.Wrap(err, "decoding instance")
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Validate checks structural well-formedness: every referenced jig,
// jig type and rack must exist, no jig may start in two places, and
// every production-schedule jig must start loaded (an empty schedule
// jig could never produce its part, making the instance unsolvable in
// a way no search would ever report back).
func (in *Instance) Validate() error {
	if len(in.Racks) == 0 {
		return errors.New("instance has no racks")
	}
	rackNames := make(map[string]bool, len(in.Racks))
	for _, r := range in.Racks {
		if r.Name == "" {
			return errors.New("rack with empty name")
		}
		if rackNames[r.Name] {
			return errors.Errorf("duplicate rack %q", r.Name)
		}
		rackNames[r.Name] = true
		if r.Size <= 0 {
			return errors.Errorf("rack %q has non-positive size %d", r.Name, r.Size)
		}
	}
	for id, jig := range in.Jigs {
		if _, ok := in.JigTypes[jig.Type]; !ok {
			return errors.Errorf("jig %q references unknown jig type %q", id, jig.Type)
		}
	}
	// A jig identifier may appear in at most one starting location:
	// one rack's initial sequence or one flight's incoming set.
	placed := make(map[string]string)
	place := func(jig, where string) error {
		if _, ok := in.Jigs[jig]; !ok {
			return errors.Errorf("%s references unknown jig %q", where, jig)
		}
		if prev, ok := placed[jig]; ok {
			return errors.Errorf("jig %q placed in both %s and %s", jig, prev, where)
		}
		placed[jig] = where
		return nil
	}
	for _, r := range in.Racks {
		for _, jig := range r.Jigs {
			if err := place(jig, fmt.Sprintf("rack %q", r.Name)); err != nil {
				return err
			}
		}
	}
	for i, f := range in.Flights {
		for _, jig := range f.Incoming {
			if err := place(jig, fmt.Sprintf("flight %d incoming", i)); err != nil {
				return err
			}
		}
		for _, typ := range f.Outgoing {
			if _, ok := in.JigTypes[typ]; !ok {
				return errors.Errorf("flight %d requires unknown jig type %q", i, typ)
			}
		}
	}
	seen := make(map[string]bool)
	for _, line := range in.ProductionLines {
		for _, jig := range line.Schedule {
			j, ok := in.Jigs[jig]
			if !ok {
				return errors.Errorf("production line %q schedules unknown jig %q", line.Name, jig)
			}
			if j.Empty {
				return errors.Errorf("production line %q schedules jig %q, which starts empty", line.Name, jig)
			}
			if seen[jig] {
				return errors.Errorf("jig %q appears in more than one production schedule", jig)
			}
			seen[jig] = true
		}
	}
	return nil
}

// RackSize returns the declared capacity of the named rack.
func (in *Instance) RackSize(name string) (int, error) {
	for _, r := range in.Racks {
		if r.Name == name {
			return r.Size, nil
		}
	}
	return 0, errors.Errorf("unknown rack %q", name)
}

// JigSize returns the space the given jig occupies in its current
// loaded/empty condition.
func (in *Instance) JigSize(jigID string, loaded bool) (int, error) {
	jig, ok := in.Jigs[jigID]
	if !ok {
		return 0, errors.Errorf("unknown jig %q", jigID)
	}
	typ, ok := in.JigTypes[jig.Type]
	if !ok {
		return 0, errors.Errorf("jig %q has unknown jig type %q", jigID, jig.Type)
	}
	if loaded {
		return typ.SizeLoaded, nil
	}
	return typ.SizeEmpty, nil
}

// mustRackSize is RackSize for validated instances. An unknown rack at
// this point is a programming error, not recoverable input, so it
// aborts with a descriptive fault instead of defaulting to zero.
func (in *Instance) mustRackSize(name string) int {
	size, err := in.RackSize(name)
	if err != nil {
		panic(fmt.Sprintf("beluga: %v", err))
	}
	return size
}

// mustJigSize is JigSize for validated instances.
func (in *Instance) mustJigSize(jigID string, loaded bool) int {
	size, err := in.JigSize(jigID, loaded)
	if err != nil {
		panic(fmt.Sprintf("beluga: %v", err))
	}
	return size
}

// jigTypeName returns the type name of a jig, aborting on unknown ids.
func (in *Instance) jigTypeName(jigID string) string {
	jig, ok := in.Jigs[jigID]
	if !ok {
		panic(fmt.Sprintf("beluga: unknown jig %q", jigID))
	}
	return jig.Type
}

// ProductionSchedule returns the concatenation of all line schedules,
// in line order. Several components treat membership in this sequence
// as "this jig's part must eventually be produced".
func (in *Instance) ProductionSchedule() []string {
	var schedule []string
	for _, line := range in.ProductionLines {
		schedule = append(schedule, line.Schedule...)
	}
	return schedule
}

// initialPart resolves the part a jig starts with: the declared part
// identifier, or the jig's own identifier when none is given.
func (in *Instance) initialPart(jigID string) string {
	jig := in.Jigs[jigID]
	if jig.Empty {
		return ""
	}
	if jig.Part != "" {
		return jig.Part
	}
	return jigID
}
