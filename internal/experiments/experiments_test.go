package experiments

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/belugaplan/pkg/beluga"
)

// solvableInstance is a three-step problem: one shuffle move and two
// in-order productions.
func solvableInstance(t *testing.T) *beluga.Instance {
	t.Helper()
	inst := &beluga.Instance{
		JigTypes: map[string]beluga.JigType{
			"typeA": {Name: "typeA", SizeEmpty: 4, SizeLoaded: 4},
			"typeB": {Name: "typeB", SizeEmpty: 8, SizeLoaded: 9},
		},
		Jigs: map[string]beluga.Jig{
			"jig1": {Type: "typeA"},
			"jig2": {Type: "typeB"},
		},
		Racks: []beluga.Rack{
			{Name: "rack00", Size: 20, Jigs: []string{"jig2", "jig1"}},
			{Name: "rack01", Size: 20},
		},
		Flights:         []beluga.Flight{{Name: "beluga1"}},
		ProductionLines: []beluga.ProductionLine{{Name: "pl0", Schedule: []string{"jig1", "jig2"}}},
	}
	require.NoError(t, inst.Validate())
	return inst
}

func TestRunnerRun(t *testing.T) {
	resultsDir := t.TempDir()
	runner := &Runner{
		Instance:   solvableInstance(t),
		ResultsDir: resultsDir,
		Parallel:   2,
	}

	exps := []Experiment{
		{
			Name:          "baseline",
			Algorithm:     AlgorithmAStar,
			Heuristic:     beluga.HeuristicStandard,
			MaxIterations: 1000,
			TimeLimit:     20 * time.Second,
		},
		{
			Name:               "hybrid",
			Algorithm:          AlgorithmHybrid,
			Heuristic:          beluga.HeuristicWeighted,
			PrioritizeActions:  true,
			UseForwardChecking: true,
			MaxIterations:      1000,
			TimeLimit:          20 * time.Second,
		},
	}

	results, runDir, err := runner.Run(context.Background(), exps)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.DirExists(t, runDir)

	for i, res := range results {
		assert.Equal(t, exps[i].Name, res.Name, "results keep input order")
		assert.True(t, res.Success, "experiment %s: %s", res.Name, res.FailureNote)
		assert.Positive(t, res.PlanLength)
		assert.NotEmpty(t, res.RunID)

		expDir := filepath.Join(runDir, res.Name)
		assert.FileExists(t, filepath.Join(expDir, "plan.txt"))
		assert.FileExists(t, filepath.Join(expDir, "progress_data.json"))

		raw, err := os.ReadFile(filepath.Join(expDir, "metadata.json"))
		require.NoError(t, err)
		var meta Result
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, res.Name, meta.Name)
		assert.True(t, meta.Success)
	}

	f, err := os.Open(filepath.Join(runDir, "summary.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Experiment", rows[0][0])
	assert.Equal(t, "baseline", rows[1][0])
	assert.Equal(t, "hybrid", rows[2][0])
}

func TestRunnerRecordsFailure(t *testing.T) {
	runner := &Runner{
		Instance:   solvableInstance(t),
		ResultsDir: t.TempDir(),
	}
	exps := []Experiment{{
		Name:          "starved",
		Algorithm:     AlgorithmAStar,
		Heuristic:     beluga.HeuristicStandard,
		MaxIterations: 1,
		TimeLimit:     20 * time.Second,
	}}

	results, runDir, err := runner.Run(context.Background(), exps)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].FailureNote)
	assert.NoFileExists(t, filepath.Join(runDir, "starved", "plan.txt"))
	assert.FileExists(t, filepath.Join(runDir, "starved", "metadata.json"))
}

func TestDefaultExperimentGrids(t *testing.T) {
	hybrid := DefaultHybridExperiments()
	require.Len(t, hybrid, 3)
	for _, exp := range hybrid {
		assert.Equal(t, AlgorithmHybrid, exp.Algorithm)
		assert.NotEmpty(t, exp.Name)
	}
	assert.True(t, hybrid[0].UseForwardChecking)
	assert.False(t, hybrid[0].UseRandomRestarts)
	assert.True(t, hybrid[1].UseRandomRestarts)
	assert.True(t, hybrid[2].UseForwardChecking && hybrid[2].UseRandomRestarts)

	baseline := DefaultBaselineExperiments()
	require.Len(t, baseline, 3)
	for _, exp := range baseline {
		assert.Equal(t, AlgorithmAStar, exp.Algorithm)
	}
	assert.Equal(t, beluga.HeuristicStandard, baseline[0].Heuristic)
	assert.Equal(t, beluga.HeuristicWeighted, baseline[1].Heuristic)
	assert.True(t, baseline[2].PrioritizeActions)
}
