// Package experiments runs grids of solver configurations against one
// problem instance and persists the outcomes: a per-run directory with
// one subdirectory per experiment (plan, metadata, progress samples)
// and an aggregate CSV summary. It exists so solver comparisons are
// driven by recorded data rather than scraped logs.
package experiments

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gitrdm/belugaplan/internal/parallel"
	"github.com/gitrdm/belugaplan/pkg/beluga"
)

// Algorithm selects which search an experiment exercises.
type Algorithm string

const (
	// AlgorithmAStar runs the baseline search.
	AlgorithmAStar Algorithm = "astar"
	// AlgorithmHybrid runs the hybrid A* + CSP search.
	AlgorithmHybrid Algorithm = "hybrid"
)

// Experiment is one named solver configuration.
type Experiment struct {
	Name               string                  `json:"name"`
	Algorithm          Algorithm               `json:"algorithm"`
	Heuristic          beluga.HeuristicVariant `json:"heuristic"`
	PrioritizeActions  bool                    `json:"prioritize_actions"`
	UseForwardChecking bool                    `json:"use_forward_checking"`
	UseRandomRestarts  bool                    `json:"use_random_restarts"`
	RestartThreshold   int                     `json:"restart_threshold,omitempty"`
	MaxIterations      int                     `json:"max_iterations"`
	TimeLimit          time.Duration           `json:"time_limit"`
}

// DefaultHybridExperiments is the standard hybrid comparison grid:
// forward checking alone, random restarts alone, and both combined.
func DefaultHybridExperiments() []Experiment {
	base := Experiment{
		Algorithm:         AlgorithmHybrid,
		Heuristic:         beluga.HeuristicWeighted,
		PrioritizeActions: true,
		MaxIterations:     20000,
		TimeLimit:         4 * time.Minute,
	}
	fc := base
	fc.Name = "hybrid-forward-checking"
	fc.UseForwardChecking = true

	rr := base
	rr.Name = "hybrid-random-restarts"
	rr.UseRandomRestarts = true

	full := base
	full.Name = "hybrid-full"
	full.UseForwardChecking = true
	full.UseRandomRestarts = true

	return []Experiment{fc, rr, full}
}

// DefaultBaselineExperiments is the extended baseline grid: the plain
// standard heuristic, the weighted heuristic, and weighted with action
// prioritization.
func DefaultBaselineExperiments() []Experiment {
	base := Experiment{
		Algorithm:     AlgorithmAStar,
		MaxIterations: 30000,
		TimeLimit:     5 * time.Minute,
	}
	standard := base
	standard.Name = "extended-baseline"
	standard.Heuristic = beluga.HeuristicStandard

	weighted := base
	weighted.Name = "extended-weighted"
	weighted.Heuristic = beluga.HeuristicWeighted

	prioritized := base
	prioritized.Name = "enhanced-action-priority"
	prioritized.Heuristic = beluga.HeuristicWeighted
	prioritized.PrioritizeActions = true

	return []Experiment{standard, weighted, prioritized}
}

// progressPoint is one recorded progress sample.
type progressPoint struct {
	Iteration int `json:"iteration"`
	Flights   int `json:"flights"`
	Parts     int `json:"parts"`
}

// Result is the recorded outcome of one experiment.
type Result struct {
	Experiment
	RunID       string        `json:"run_id"`
	Success     bool          `json:"success"`
	PlanLength  int           `json:"plan_length"`
	SearchTime  time.Duration `json:"search_time"`
	MaxFlights  int           `json:"max_flights_reached"`
	MaxParts    int           `json:"max_parts_produced"`
	FailureNote string        `json:"failure_note,omitempty"`
}

// Runner executes experiment grids against one instance.
type Runner struct {
	// Instance is the problem every experiment runs against.
	Instance *beluga.Instance
	// ResultsDir is the parent directory for run directories.
	ResultsDir string
	// Parallel is the number of experiments run concurrently; values
	// below one run sequentially.
	Parallel int
	// Logger receives run-level progress. nil uses the standard logger.
	Logger logrus.FieldLogger
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	return logrus.StandardLogger()
}

// Run executes every experiment, writes the per-experiment artifacts
// and the summary CSV, and returns the results in input order along
// with the run directory path.
func (r *Runner) Run(ctx context.Context, exps []Experiment) ([]Result, string, error) {
	runDir := filepath.Join(r.ResultsDir,
		fmt.Sprintf("run_%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8]))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, "", errors.Wrapf(err, "creating run directory %s", runDir)
	}

	initial := beluga.NewInitialState(r.Instance)
	results := make([]Result, len(exps))

	workers := r.Parallel
	if workers < 1 {
		workers = 1
	}
	pool := parallel.NewWorkerPool(workers)
	var wg sync.WaitGroup
	for i := range exps {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = r.runOne(ctx, exps[i], initial, runDir)
		}
		if err := pool.Submit(ctx, task); err != nil {
			wg.Done()
			results[i] = Result{Experiment: exps[i], FailureNote: err.Error()}
		}
	}
	wg.Wait()
	pool.Shutdown()

	if err := writeSummary(filepath.Join(runDir, "summary.csv"), results); err != nil {
		return results, runDir, err
	}
	return results, runDir, nil
}

// runOne executes a single experiment and persists its artifacts.
func (r *Runner) runOne(ctx context.Context, exp Experiment, initial *beluga.State, runDir string) Result {
	log := r.logger().WithField("experiment", exp.Name)
	result := Result{Experiment: exp, RunID: uuid.NewString()}

	expDir := filepath.Join(runDir, exp.Name)
	if err := os.MkdirAll(expDir, 0o755); err != nil {
		result.FailureNote = err.Error()
		return result
	}

	var mu sync.Mutex
	var samples []progressPoint
	onProgress := func(sample beluga.ProgressSample) {
		mu.Lock()
		defer mu.Unlock()
		samples = append(samples, progressPoint{
			Iteration: sample.Iteration,
			Flights:   sample.Progress.FlightsProcessed,
			Parts:     sample.Progress.PartsProduced,
		})
		if sample.Progress.FlightsProcessed > result.MaxFlights {
			result.MaxFlights = sample.Progress.FlightsProcessed
		}
		if sample.Progress.PartsProduced > result.MaxParts {
			result.MaxParts = sample.Progress.PartsProduced
		}
	}

	log.WithFields(logrus.Fields{
		"algorithm": exp.Algorithm,
		"heuristic": exp.Heuristic,
	}).Info("running experiment")

	start := time.Now()
	plan, err := r.search(ctx, exp, initial, log, onProgress)
	result.SearchTime = time.Since(start)

	if err != nil {
		result.FailureNote = err.Error()
		log.WithField("search_time", result.SearchTime).Info("experiment found no plan")
	} else {
		result.PlanLength = len(plan)
		final, failedStep, simErr := beluga.SimulatePlan(initial, plan, r.Instance)
		if simErr != nil {
			result.FailureNote = fmt.Sprintf("plan verification failed at step %d: %v", failedStep+1, simErr)
			log.Warn(result.FailureNote)
		} else {
			result.Success = true
		}
		report := beluga.DetailedGoalCheck(final, r.Instance)
		if report.Progress.FlightsProcessed > result.MaxFlights {
			result.MaxFlights = report.Progress.FlightsProcessed
		}
		if report.Progress.PartsProduced > result.MaxParts {
			result.MaxParts = report.Progress.PartsProduced
		}
		if err := os.WriteFile(filepath.Join(expDir, "plan.txt"), []byte(plan.String()), 0o644); err != nil {
			log.WithError(err).Warn("writing plan file")
		}
	}

	if err := writeJSON(filepath.Join(expDir, "metadata.json"), result); err != nil {
		log.WithError(err).Warn("writing metadata")
	}
	if err := writeJSON(filepath.Join(expDir, "progress_data.json"), samples); err != nil {
		log.WithError(err).Warn("writing progress data")
	}
	return result
}

func (r *Runner) search(ctx context.Context, exp Experiment, initial *beluga.State,
	log logrus.FieldLogger, onProgress func(beluga.ProgressSample)) (beluga.Plan, error) {

	searchCfg := beluga.SearchConfig{
		MaxIterations:     exp.MaxIterations,
		TimeLimit:         exp.TimeLimit,
		Heuristic:         exp.Heuristic,
		PrioritizeActions: exp.PrioritizeActions,
		Logger:            log,
		OnProgress:        onProgress,
	}
	if exp.Algorithm == AlgorithmAStar {
		return beluga.AStarSearch(ctx, initial, r.Instance, searchCfg)
	}
	cfg := beluga.DefaultHybridConfig()
	cfg.SearchConfig = searchCfg
	cfg.UseForwardChecking = exp.UseForwardChecking
	cfg.UseRandomRestarts = exp.UseRandomRestarts
	if exp.RestartThreshold > 0 {
		cfg.RestartThreshold = exp.RestartThreshold
	}
	return beluga.HybridSearch(ctx, initial, r.Instance, cfg)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

func writeSummary(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"Experiment", "Algorithm", "Heuristic", "Prioritize", "ForwardChecking",
		"RandomRestarts", "Success", "PlanLength", "SearchTime", "MaxFlights", "MaxParts",
	}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing summary header")
	}
	for _, res := range results {
		row := []string{
			res.Name,
			string(res.Algorithm),
			string(res.Heuristic),
			strconv.FormatBool(res.PrioritizeActions),
			strconv.FormatBool(res.UseForwardChecking),
			strconv.FormatBool(res.UseRandomRestarts),
			strconv.FormatBool(res.Success),
			strconv.Itoa(res.PlanLength),
			res.SearchTime.String(),
			strconv.Itoa(res.MaxFlights),
			strconv.Itoa(res.MaxParts),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "writing summary row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing summary")
}
