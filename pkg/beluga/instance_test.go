package beluga

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyInstanceYAML = `
jig_types:
  typeA:
    name: typeA
    size_empty: 4
    size_loaded: 4
  typeB:
    name: typeB
    size_empty: 8
    size_loaded: 9
jigs:
  jig1:
    type: typeA
  jig2:
    type: typeB
racks:
  - name: rack00
    size: 20
    jigs: [jig2, jig1]
  - name: rack01
    size: 20
flights:
  - name: beluga1
production_lines:
  - name: pl0
    schedule: [jig1, jig2]
`

func TestParseInstanceYAML(t *testing.T) {
	inst, err := ParseInstance([]byte(tinyInstanceYAML))
	require.NoError(t, err)

	assert.Len(t, inst.Jigs, 2)
	assert.Len(t, inst.Racks, 2)
	assert.Equal(t, "rack00", inst.Racks[0].Name)
	assert.Equal(t, []string{"jig2", "jig1"}, inst.Racks[0].Jigs)
	assert.Equal(t, []string{"jig1", "jig2"}, inst.ProductionLines[0].Schedule)
}

func TestParseInstanceJSON(t *testing.T) {
	// YAML is a superset of JSON, so JSON instance files decode through
	// the same path.
	data := `{
		"jig_types": {"typeA": {"name": "typeA", "size_empty": 4, "size_loaded": 4}},
		"jigs": {"jig1": {"type": "typeA"}},
		"racks": [{"name": "rack00", "size": 20, "jigs": ["jig1"]}],
		"flights": [{"name": "beluga1"}]
	}`
	inst, err := ParseInstance([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 4, inst.JigTypes["typeA"].SizeEmpty)
	assert.Equal(t, []string{"jig1"}, inst.Racks[0].Jigs)
}

func TestParseInstanceMalformed(t *testing.T) {
	_, err := ParseInstance([]byte("racks: {not: [a, list"))
	assert.Error(t, err)
}

func TestLoadInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tinyInstanceYAML), 0o644))

	inst, err := LoadInstance(path)
	require.NoError(t, err)
	assert.Len(t, inst.Flights, 1)

	_, err = LoadInstance(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Instance {
		return &Instance{
			JigTypes: map[string]JigType{"typeA": {Name: "typeA", SizeEmpty: 1, SizeLoaded: 2}},
			Jigs: map[string]Jig{
				"j1": {Type: "typeA"},
				"j2": {Type: "typeA"},
			},
			Racks:   []Rack{{Name: "r1", Size: 10, Jigs: []string{"j1"}}},
			Flights: []Flight{{Name: "f0", Incoming: []string{"j2"}}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Instance)
		wantErr string
	}{
		{
			name:   "well-formed",
			mutate: func(*Instance) {},
		},
		{
			name:    "no racks",
			mutate:  func(in *Instance) { in.Racks = nil },
			wantErr: "no racks",
		},
		{
			name: "duplicate rack",
			mutate: func(in *Instance) {
				in.Racks = append(in.Racks, Rack{Name: "r1", Size: 5})
			},
			wantErr: "duplicate rack",
		},
		{
			name: "non-positive rack size",
			mutate: func(in *Instance) {
				in.Racks[0].Size = 0
			},
			wantErr: "non-positive size",
		},
		{
			name: "unknown jig type",
			mutate: func(in *Instance) {
				in.Jigs["j3"] = Jig{Type: "typeZ"}
			},
			wantErr: "unknown jig type",
		},
		{
			name: "unknown jig in rack",
			mutate: func(in *Instance) {
				in.Racks[0].Jigs = append(in.Racks[0].Jigs, "ghost")
			},
			wantErr: "unknown jig",
		},
		{
			name: "jig placed twice",
			mutate: func(in *Instance) {
				in.Flights[0].Incoming = append(in.Flights[0].Incoming, "j1")
			},
			wantErr: "placed in both",
		},
		{
			name: "unknown outgoing type",
			mutate: func(in *Instance) {
				in.Flights[0].Outgoing = []string{"typeZ"}
			},
			wantErr: "unknown jig type",
		},
		{
			name: "schedule references unknown jig",
			mutate: func(in *Instance) {
				in.ProductionLines = []ProductionLine{{Name: "pl", Schedule: []string{"ghost"}}}
			},
			wantErr: "unknown jig",
		},
		{
			name: "schedule jig starts empty",
			mutate: func(in *Instance) {
				in.Jigs["j1"] = Jig{Type: "typeA", Empty: true}
				in.ProductionLines = []ProductionLine{{Name: "pl", Schedule: []string{"j1"}}}
			},
			wantErr: "starts empty",
		},
		{
			name: "jig in two schedules",
			mutate: func(in *Instance) {
				in.ProductionLines = []ProductionLine{
					{Name: "pl0", Schedule: []string{"j1"}},
					{Name: "pl1", Schedule: []string{"j1"}},
				}
			},
			wantErr: "more than one production schedule",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inst := base()
			tc.mutate(inst)
			err := inst.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRackAndJigSizes(t *testing.T) {
	inst := tinyInstance(t)

	size, err := inst.RackSize("rack00")
	require.NoError(t, err)
	assert.Equal(t, 20, size)

	_, err = inst.RackSize("ghost")
	assert.Error(t, err)

	loaded, err := inst.JigSize("jig2", true)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded)

	empty, err := inst.JigSize("jig2", false)
	require.NoError(t, err)
	assert.Equal(t, 8, empty)

	_, err = inst.JigSize("ghost", true)
	assert.Error(t, err)
}

func TestMustLookupsPanic(t *testing.T) {
	inst := tinyInstance(t)
	assert.Panics(t, func() { inst.mustRackSize("ghost") })
	assert.Panics(t, func() { inst.mustJigSize("ghost", true) })
	assert.Panics(t, func() { inst.jigTypeName("ghost") })
}

func TestProductionSchedule(t *testing.T) {
	inst := &Instance{
		JigTypes: map[string]JigType{"t": {Name: "t", SizeEmpty: 1, SizeLoaded: 1}},
		Jigs: map[string]Jig{
			"a": {Type: "t"}, "b": {Type: "t"}, "c": {Type: "t"},
		},
		Racks: []Rack{{Name: "r", Size: 10, Jigs: []string{"a", "b", "c"}}},
		ProductionLines: []ProductionLine{
			{Name: "pl0", Schedule: []string{"a", "b"}},
			{Name: "pl1", Schedule: []string{"c"}},
		},
	}
	assert.Equal(t, []string{"a", "b", "c"}, inst.ProductionSchedule())
}

func TestInitialPart(t *testing.T) {
	inst := &Instance{
		Jigs: map[string]Jig{
			"defaulted": {Type: "t"},
			"explicit":  {Type: "t", Part: "part-7"},
			"empty":     {Type: "t", Empty: true},
		},
	}
	assert.Equal(t, "defaulted", inst.initialPart("defaulted"))
	assert.Equal(t, "part-7", inst.initialPart("explicit"))
	assert.Equal(t, "", inst.initialPart("empty"))
}
