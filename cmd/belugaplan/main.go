// Command belugaplan solves aircraft-cargo jig-handling instances and
// runs experiment grids over them.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gitrdm/belugaplan/internal/experiments"
	"github.com/gitrdm/belugaplan/pkg/beluga"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "belugaplan",
		Short:        "Planner for aircraft-cargo jig handling",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newSolveCmd(&verbose), newExperimentCmd(&verbose))
	return root
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func newSolveCmd(verbose *bool) *cobra.Command {
	var (
		algorithm        string
		heuristic        string
		maxIterations    int
		timeLimit        time.Duration
		prioritize       bool
		forwardChecking  bool
		randomRestarts   bool
		restartThreshold int
		output           string
	)
	cmd := &cobra.Command{
		Use:   "solve <instance-file>",
		Short: "Search for a plan on one instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)

			inst, err := beluga.LoadInstance(args[0])
			if err != nil {
				return err
			}
			variant, err := beluga.ParseHeuristicVariant(heuristic)
			if err != nil {
				return err
			}
			initial := beluga.NewInitialState(inst)

			searchCfg := beluga.SearchConfig{
				MaxIterations:     maxIterations,
				TimeLimit:         timeLimit,
				Heuristic:         variant,
				PrioritizeActions: prioritize,
				Logger:            log,
			}

			var plan beluga.Plan
			switch algorithm {
			case "astar":
				plan, err = beluga.AStarSearch(context.Background(), initial, inst, searchCfg)
			case "hybrid":
				cfg := beluga.DefaultHybridConfig()
				cfg.SearchConfig = searchCfg
				cfg.UseForwardChecking = forwardChecking
				cfg.UseRandomRestarts = randomRestarts
				cfg.RestartThreshold = restartThreshold
				plan, err = beluga.HybridSearch(context.Background(), initial, inst, cfg)
			default:
				return fmt.Errorf("unknown algorithm %q (want astar or hybrid)", algorithm)
			}
			if err != nil {
				return err
			}

			if _, _, err := beluga.SimulatePlan(initial, plan, inst); err != nil {
				return fmt.Errorf("plan verification failed: %w", err)
			}
			log.WithField("plan_length", len(plan)).Info("plan verified")

			if output != "" {
				if err := os.WriteFile(output, []byte(plan.String()), 0o644); err != nil {
					return err
				}
				log.WithField("path", output).Info("plan written")
				return nil
			}
			fmt.Print(plan.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "hybrid", "search algorithm: astar or hybrid")
	cmd.Flags().StringVar(&heuristic, "heuristic", string(beluga.HeuristicStandard),
		"heuristic variant: standard, weighted, or production_focus")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 10000, "iteration cap")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 60*time.Second, "wall-clock budget")
	cmd.Flags().BoolVar(&prioritize, "prioritize-actions", false, "order candidate actions by priority class")
	cmd.Flags().BoolVar(&forwardChecking, "forward-checking", true, "use CSP forward checking (hybrid only)")
	cmd.Flags().BoolVar(&randomRestarts, "random-restarts", false, "enable stagnation restarts (hybrid only)")
	cmd.Flags().IntVar(&restartThreshold, "restart-threshold", 3000,
		"iterations without progress before a restart (hybrid only)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the plan to a file instead of stdout")
	return cmd
}

func newExperimentCmd(verbose *bool) *cobra.Command {
	var (
		resultsDir string
		par        int
		grid       string
	)
	cmd := &cobra.Command{
		Use:   "experiment <instance-file>",
		Short: "Run an experiment grid against one instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)

			inst, err := beluga.LoadInstance(args[0])
			if err != nil {
				return err
			}

			var exps []experiments.Experiment
			switch grid {
			case "hybrid":
				exps = experiments.DefaultHybridExperiments()
			case "baseline":
				exps = experiments.DefaultBaselineExperiments()
			case "all":
				exps = append(experiments.DefaultBaselineExperiments(),
					experiments.DefaultHybridExperiments()...)
			default:
				return fmt.Errorf("unknown grid %q (want baseline, hybrid, or all)", grid)
			}

			runner := &experiments.Runner{
				Instance:   inst,
				ResultsDir: resultsDir,
				Parallel:   par,
				Logger:     log,
			}
			results, runDir, err := runner.Run(context.Background(), exps)
			if err != nil {
				return err
			}
			for _, res := range results {
				log.WithFields(logrus.Fields{
					"experiment":  res.Name,
					"success":     res.Success,
					"plan_length": res.PlanLength,
					"search_time": res.SearchTime,
				}).Info("experiment finished")
			}
			log.WithField("run_dir", runDir).Info("all experiments completed")
			return nil
		},
	}
	cmd.Flags().StringVar(&resultsDir, "results-dir", "experiment_results", "parent directory for run output")
	cmd.Flags().IntVar(&par, "parallel", 1, "number of experiments to run concurrently")
	cmd.Flags().StringVar(&grid, "grid", "hybrid", "experiment grid: baseline, hybrid, or all")
	return cmd
}
