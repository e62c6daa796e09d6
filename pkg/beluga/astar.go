// Baseline A* over the facility state space. Uniform edge cost (+1 per
// action regardless of class), better-g re-expansion without an
// explicit closed set, and a deterministic frontier. Stale frontier
// entries left behind by re-expansion are dominated and never improve
// the backpointers once a better g exists; they cost a little memory
// and nothing else.
package beluga

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNoPlan reports that a search terminated without a plan. Frontier
// exhaustion, the iteration cap, and the time limit are all ordinary
// outcomes wrapped around this sentinel, never faults.
var ErrNoPlan = errors.New("no plan found")

// progressLogInterval is the iteration cadence for advisory progress
// reporting and, in the hybrid search, stagnation accounting.
const progressLogInterval = 100

// ProgressSample is one advisory progress observation handed to the
// OnProgress callback.
type ProgressSample struct {
	Iteration int
	Progress  Progress
}

// SearchConfig carries every knob of the baseline search. Configs are
// plain values passed into each call; the package keeps no process-wide
// search state.
type SearchConfig struct {
	// MaxIterations caps frontier expansions.
	MaxIterations int
	// TimeLimit is the wall-clock budget, polled once per iteration.
	TimeLimit time.Duration
	// Heuristic selects the cost-to-go estimator.
	Heuristic HeuristicVariant
	// PrioritizeActions sorts candidates by priority class before
	// expansion. With uniform edge costs this only shapes tie-breaking
	// and frontier growth, not optimality.
	PrioritizeActions bool
	// Logger receives advisory progress lines. nil discards them.
	Logger logrus.FieldLogger
	// OnProgress, when set, observes progress at the log cadence.
	OnProgress func(ProgressSample)
}

// DefaultSearchConfig mirrors the historical defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxIterations: 10000,
		TimeLimit:     60 * time.Second,
		Heuristic:     HeuristicStandard,
	}
}

func (cfg SearchConfig) logger() logrus.FieldLogger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}

// cameFromEdge records how a state was first (best) reached.
type cameFromEdge struct {
	parent *State
	action Action
}

// AStarSearch runs the baseline search from the initial state and
// returns a plan reaching the goal, or an error wrapping ErrNoPlan on
// exhaustion. Cancelling the context has the same effect as the time
// limit; both are polled at the loop boundary.
func AStarSearch(ctx context.Context, initial *State, inst *Instance, cfg SearchConfig) (Plan, error) {
	log := cfg.logger()
	log.WithField("heuristic", cfg.Heuristic).Info("starting A* search")
	start := time.Now()

	open := newFrontier()
	open.push(initial, 0)

	cameFrom := make(map[string]cameFromEdge)
	costSoFar := map[string]int{initial.Key(): 0}

	iterations := 0
	for !open.empty() && iterations < cfg.MaxIterations {
		iterations++

		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(ErrNoPlan, "search cancelled after %d iterations", iterations)
		}
		if cfg.TimeLimit > 0 && time.Since(start) > cfg.TimeLimit {
			log.WithField("time_limit", cfg.TimeLimit).Info("time limit reached, aborting search")
			return nil, errors.Wrapf(ErrNoPlan, "time limit %s exceeded", cfg.TimeLimit)
		}

		current := open.pop()

		if IsGoalState(current, inst) {
			log.WithFields(logrus.Fields{
				"iterations": iterations,
				"elapsed":    time.Since(start),
			}).Info("goal reached")
			return reconstructPlan(cameFrom, current), nil
		}

		if iterations%progressLogInterval == 0 {
			reportProgress(current, inst, iterations, log, cfg.OnProgress)
		}

		actions := PossibleActions(current, inst)
		if cfg.PrioritizeActions {
			stableSortByRank(actions, baselineRank)
		}

		for _, action := range actions {
			next, err := action.Apply(current, inst)
			if err != nil {
				continue
			}
			newCost := costSoFar[current.Key()] + 1
			key := next.Key()
			if known, seen := costSoFar[key]; !seen || newCost < known {
				costSoFar[key] = newCost
				priority := float64(newCost) + cfg.Heuristic.Estimate(next, inst)
				open.push(next, priority)
				cameFrom[key] = cameFromEdge{parent: current, action: action}
			}
		}
	}

	log.WithFields(logrus.Fields{
		"iterations": iterations,
		"elapsed":    time.Since(start),
	}).Info("search exhausted")
	return nil, errors.Wrapf(ErrNoPlan, "search exhausted after %d iterations", iterations)
}

// reportProgress logs the advisory progress line and feeds the
// OnProgress hook.
func reportProgress(s *State, inst *Instance, iteration int, log logrus.FieldLogger, hook func(ProgressSample)) Progress {
	progress := CheckGoalProgress(s, inst)
	log.WithFields(logrus.Fields{
		"iteration": iteration,
		"flights":   progress.FlightsProgress(),
		"parts":     progress.PartsProgress(),
	}).Info("search progress")
	if hook != nil {
		hook(ProgressSample{Iteration: iteration, Progress: progress})
	}
	return progress
}

// reconstructPlan walks the came-from backpointers from the goal state
// to the initial state and reverses the collected actions.
func reconstructPlan(cameFrom map[string]cameFromEdge, goal *State) Plan {
	var reversed []Action
	current := goal
	for {
		edge, ok := cameFrom[current.Key()]
		if !ok {
			break
		}
		reversed = append(reversed, edge.action)
		current = edge.parent
	}
	plan := make(Plan, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		plan = append(plan, reversed[i])
	}
	return plan
}
