// Randomized breadth-first rescue search. Despite the name this is not
// hill climbing: it keeps an explicit FIFO frontier of (state, path)
// pairs, a visited set, and the best-scoring state seen, and it samples
// a class-balanced handful of actions per expansion to keep breadth
// over depth. Used as a last resort when the systematic searches
// exhaust their budget; the score function is a rescue heuristic only
// and plays no part in the main search.
package beluga

import (
	"context"
	"io"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// localSearchSampleSize caps how many actions one expansion explores:
// one representative per available action class first, the rest filled
// by uniform sampling.
const localSearchSampleSize = 5

// LocalSearchConfig carries the rescue-search knobs.
type LocalSearchConfig struct {
	// MaxIterations caps expansions. Zero means the default of 5000.
	MaxIterations int
	// TimeLimit is the wall-clock budget. Zero means 30 seconds.
	TimeLimit time.Duration
	// Rand drives action sampling. nil falls back to a time-seeded
	// source.
	Rand *rand.Rand
	// Logger receives advisory progress lines. nil discards them.
	Logger logrus.FieldLogger
}

// LocalSearch explores the state space of one instance by randomized
// breadth-first sampling.
type LocalSearch struct {
	instance *Instance
	cfg      LocalSearchConfig
	log      logrus.FieldLogger
	rng      *rand.Rand
}

// NewLocalSearch builds a rescue search for the instance.
func NewLocalSearch(inst *Instance, cfg LocalSearchConfig) *LocalSearch {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 5000
	}
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &LocalSearch{instance: inst, cfg: cfg, log: log, rng: rng}
}

type localEntry struct {
	state *State
	path  Plan
}

// Solve explores from the initial state until a goal is found, the
// iteration cap or time limit is reached, or the frontier empties. It
// returns the goal path when one is found (the empty plan when the
// initial state is already a goal), otherwise the best-scoring path
// seen; ErrNoPlan is returned only when no improvement over the start
// was ever recorded.
func (ls *LocalSearch) Solve(ctx context.Context, initial *State) (Plan, error) {
	ls.log.WithFields(logrus.Fields{
		"time_limit":     ls.cfg.TimeLimit,
		"max_iterations": ls.cfg.MaxIterations,
	}).Info("starting local search")
	start := time.Now()

	bestScore := ls.scoreState(initial)
	var bestPath Plan

	queue := []localEntry{{state: initial}}
	visited := make(map[string]bool)

	iterations := 0
	for len(queue) > 0 && iterations < ls.cfg.MaxIterations {
		iterations++

		if ctx.Err() != nil || time.Since(start) > ls.cfg.TimeLimit {
			ls.log.WithField("iterations", iterations).Info("local search budget reached")
			break
		}

		entry := queue[0]
		queue = queue[1:]

		if visited[entry.state.Key()] {
			continue
		}
		visited[entry.state.Key()] = true

		if IsGoalState(entry.state, ls.instance) {
			ls.log.WithField("iterations", iterations).Info("local search found a goal")
			if entry.path == nil {
				return Plan{}, nil
			}
			return entry.path, nil
		}

		if score := ls.scoreState(entry.state); score > bestScore {
			bestScore = score
			bestPath = entry.path
			progress := CheckGoalProgress(entry.state, ls.instance)
			ls.log.WithFields(logrus.Fields{
				"score":   score,
				"flights": progress.FlightsProgress(),
				"parts":   progress.PartsProgress(),
			}).Info("local search found a better state")
		}

		for _, action := range ls.sampleActions(entry.state) {
			next, err := action.Apply(entry.state, ls.instance)
			if err != nil || visited[next.Key()] {
				continue
			}
			path := make(Plan, len(entry.path), len(entry.path)+1)
			copy(path, entry.path)
			queue = append(queue, localEntry{state: next, path: append(path, action)})
		}
	}

	ls.log.WithFields(logrus.Fields{
		"iterations": iterations,
		"best_score": bestScore,
	}).Info("local search completed")
	if len(bestPath) > 0 {
		return bestPath, nil
	}
	return nil, errors.Wrap(ErrNoPlan, "local search recorded no improvement")
}

// scoreState rates a state by goal proximity; higher is better.
func (ls *LocalSearch) scoreState(s *State) float64 {
	progress := CheckGoalProgress(s, ls.instance)
	flightFrac := 0.0
	if progress.TotalFlights > 0 {
		flightFrac = float64(progress.FlightsProcessed) / float64(progress.TotalFlights)
	}
	partFrac := 0.0
	if progress.TotalParts > 0 {
		partFrac = float64(progress.PartsProduced) / float64(progress.TotalParts)
	}
	return 100*flightFrac + 200*partFrac +
		50*float64(progress.FlightsProcessed) + 100*float64(progress.PartsProduced)
}

// sampleActions picks at most localSearchSampleSize legal actions:
// first one random representative of each available class, then a
// uniform sample of the remainder. The breadth-over-depth bias keeps
// the rescue from tunneling down one action family.
func (ls *LocalSearch) sampleActions(s *State) []Action {
	all := PossibleActions(s, ls.instance)
	if len(all) <= localSearchSampleSize {
		return all
	}

	byClass := make(map[ActionClass][]Action)
	for _, a := range all {
		byClass[a.Class] = append(byClass[a.Class], a)
	}

	selected := make([]Action, 0, localSearchSampleSize)
	taken := make(map[Action]bool)
	for _, class := range []ActionClass{ClassMove, ClassProduce, ClassReturn, ClassFlight} {
		group := byClass[class]
		if len(group) == 0 {
			continue
		}
		pick := group[ls.rng.Intn(len(group))]
		selected = append(selected, pick)
		taken[pick] = true
	}

	remaining := make([]Action, 0, len(all))
	for _, a := range all {
		if !taken[a] {
			remaining = append(remaining, a)
		}
	}
	ls.rng.Shuffle(len(remaining), func(i, j int) {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	})
	for _, a := range remaining {
		if len(selected) >= localSearchSampleSize {
			break
		}
		selected = append(selected, a)
	}
	return selected
}
