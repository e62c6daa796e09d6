// Hybrid A* + CSP search. Extends the baseline with forward-checking
// guidance (action ordering and heuristic shading), stagnation-driven
// random restarts to previously reached promising states, and a
// local-search rescue once the systematic search exhausts its budget.
// The restart mechanism is a pure escape heuristic: it trades the
// cheapest plan the frontier might still have found for better anytime
// progress.
package beluga

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HybridConfig extends SearchConfig with the CSP-guidance and restart
// knobs.
type HybridConfig struct {
	SearchConfig

	// UseForwardChecking rebuilds a forward checker from the current
	// expansion state on every pop and uses it for action ordering and
	// heuristic adjustment.
	UseForwardChecking bool
	// UseRandomRestarts enables stagnation-triggered frontier reseeds
	// and the local-search rescue on exhaustion.
	UseRandomRestarts bool
	// RestartThreshold is the number of iterations without progress
	// before a reseed is considered; stagnation is sampled every 100
	// iterations, so the effective trigger is RestartThreshold/100
	// stagnant samples.
	RestartThreshold int
	// Rand drives restart-state selection and the local-search rescue.
	// nil falls back to a time-seeded source.
	Rand *rand.Rand
	// OnRestart, when set, observes each frontier reseed.
	OnRestart func(restart *State)
}

// DefaultHybridConfig mirrors the historical defaults: forward
// checking on, restarts off.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		SearchConfig:       DefaultSearchConfig(),
		UseForwardChecking: true,
		RestartThreshold:   3000,
	}
}

func (cfg HybridConfig) random() *rand.Rand {
	if cfg.Rand != nil {
		return cfg.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// inconsistencyPenalty inflates the heuristic of successors whose
// forward check reports inconsistency or a wiped-out domain.
const inconsistencyPenalty = 10

// HybridSearch runs the hybrid search from the initial state. On
// frontier exhaustion or the iteration cap with restarts enabled it
// falls back to one local-search attempt seeded from the original
// initial state; a time-limit or cancellation abort is a hard failure
// with no fallback.
func HybridSearch(ctx context.Context, initial *State, inst *Instance, cfg HybridConfig) (Plan, error) {
	log := cfg.logger()
	log.WithFields(logrus.Fields{
		"heuristic":        cfg.Heuristic,
		"forward_checking": cfg.UseForwardChecking,
		"random_restarts":  cfg.UseRandomRestarts,
	}).Info("starting hybrid A* search")
	start := time.Now()
	rng := cfg.random()

	open := newFrontier()
	open.push(initial, 0)

	cameFrom := make(map[string]cameFromEdge)
	costSoFar := map[string]int{initial.Key(): 0}

	var bestFlights, bestParts int
	stagnation := 0
	stagnationLimit := cfg.RestartThreshold / progressLogInterval
	if stagnationLimit < 1 {
		stagnationLimit = 1
	}

	// Promising states reached so far, deduplicated, usable as restart
	// seeds. This is the one piece of memo that survives a reseed.
	var restartStates []*State
	restartSeen := make(map[string]bool)

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
			progress := reportProgress(current, inst, iterations, log, cfg.OnProgress)

			if progress.FlightsProcessed > bestFlights || progress.PartsProduced > bestParts {
				if progress.FlightsProcessed > bestFlights {
					bestFlights = progress.FlightsProcessed
				}
				if progress.PartsProduced > bestParts {
					bestParts = progress.PartsProduced
				}
				stagnation = 0
				if cfg.UseRandomRestarts && !restartSeen[current.Key()] {
					restartSeen[current.Key()] = true
					restartStates = append(restartStates, current)
				}
			} else {
				stagnation++
			}

			if cfg.UseRandomRestarts && stagnation >= stagnationLimit && len(restartStates) > 0 {
				restart := restartStates[rng.Intn(len(restartStates))]
				log.WithFields(logrus.Fields{
					"stagnant_iterations": stagnation * progressLogInterval,
					"restart_candidates":  len(restartStates),
				}).Info("stagnation detected, reseeding frontier from a promising state")
				open.reset()
				open.push(restart, 0)
				stagnation = 0
				if cfg.OnRestart != nil {
					cfg.OnRestart(restart)
				}
				continue
			}
		}

		var fc *ForwardChecker
		if cfg.UseForwardChecking {
			fc = NewForwardChecker(current, inst)
			fc.CheckForward()
		}

		actions := PossibleActions(current, inst)
		if cfg.PrioritizeActions {
			if fc != nil {
				orderWithForwardChecking(actions, fc)
			} else {
				stableSortByRank(actions, baselineRank)
			}
		}

		for _, action := range actions {
			next, err := action.Apply(current, inst)
			if err != nil {
				continue
			}
			newCost := costSoFar[current.Key()] + 1
			key := next.Key()
			if known, seen := costSoFar[key]; seen && newCost >= known {
				continue
			}
			costSoFar[key] = newCost

			h := cfg.Heuristic.Estimate(next, inst)
			if cfg.UseForwardChecking {
				h += forwardCheckAdjustment(next, inst)
			}

			open.push(next, float64(newCost)+h)
			cameFrom[key] = cameFromEdge{parent: current, action: action}
		}
	}

	log.WithFields(logrus.Fields{
		"iterations": iterations,
		"elapsed":    time.Since(start),
	}).Info("hybrid search exhausted")

	if cfg.UseRandomRestarts {
		// Last-resort rescue from the original initial state with a
		// shortened budget.
		budget := cfg.TimeLimit / 10
		if budget < 5*time.Second {
			budget = 5 * time.Second
		}
		log.WithField("time_limit", budget).Info("attempting local search as a final effort")
		ls := NewLocalSearch(inst, LocalSearchConfig{
			TimeLimit: budget,
			Rand:      rng,
			Logger:    cfg.Logger,
		})
		plan, err := ls.Solve(ctx, initial)
		if err == nil {
			log.WithField("plan_length", len(plan)).Info("local search rescue produced a plan")
			return plan, nil
		}
	}

	return nil, errors.Wrapf(ErrNoPlan, "hybrid search exhausted after %d iterations", iterations)
}

// forwardCheckAdjustment shades a successor's heuristic with CSP
// signals: a flat penalty when forward checking reports inconsistency
// or a non-positive smallest domain, plus a small continuous term that
// favors successors with roomier domains.
func forwardCheckAdjustment(s *State, inst *Instance) float64 {
	fc := NewForwardChecker(s, inst)
	ok, summary := fc.CheckForward()

	adjustment := 0.0
	if !ok || summary.SmallestSize <= 0 {
		adjustment += inconsistencyPenalty
	}
	if summary.SmallestSize > 0 {
		adjustment += 0.1 / float64(summary.SmallestSize)
	}
	return adjustment
}
