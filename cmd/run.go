package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/models"
	"github.com/pairloop/pairloop/internal/output"
	"github.com/pairloop/pairloop/internal/taskfile"
)

var (
	runMaxIterations   int
	runBaseStrictness  float64
	runRequireApproval bool
	runPrintOutput     bool
)

var runCmd = &cobra.Command{
	Use:   "run <task-file.yaml>",
	Short: "Run a task through the iteration loop",
	Long: `Run a task through bounded produce/review/refine rounds.

The task file is YAML:

  id: parser-rewrite
  description: Rewrite the config parser to support includes
  acceptance_criteria:
    - existing configs still parse
    - include cycles are detected
  specialty: code`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Maximum produce/review rounds (default from config)")
	runCmd.Flags().Float64Var(&runBaseStrictness, "strictness", 0, "Base review strictness (default from config)")
	runCmd.Flags().BoolVar(&runRequireApproval, "require-approval", false, "Fail the run unless the reviewer approves")
	runCmd.Flags().BoolVarP(&runPrintOutput, "print-output", "o", false, "Print the final artifact to stdout")
}

func runRun(cmd *cobra.Command, args []string) error {
	f, err := taskfile.Load(args[0])
	if err != nil {
		return err
	}

	reg, err := newRegistry()
	if err != nil {
		return err
	}

	specialty := f.SpecialtyOrDefault()
	capability, ok := reg.Get(specialty)
	if !ok {
		return fmt.Errorf("unknown specialty: %s", specialty)
	}

	cfg := loopConfig()
	if runMaxIterations > 0 {
		cfg.MaxIterations = runMaxIterations
	}
	if runBaseStrictness > 0 {
		cfg.BaseStrictness = runBaseStrictness
	}
	if cmd.Flags().Changed("require-approval") {
		cfg.RequireApproval = runRequireApproval
	}

	spec := f.TaskSpec()
	ui.Info("Running task %s (specialty: %s, up to %d iterations)", output.Cyan(spec.ID), specialty, cfg.MaxIterations)

	runner := controller.NewRunner(capability, cfg)
	result, err := runner.Run(cmd.Context(), spec, f.Context)
	if err != nil {
		return err
	}

	printIterationReport(result)

	s, err := getStore()
	if err != nil {
		return err
	}
	if err := s.SavePairResult(cmd.Context(), result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	if result.Success {
		ui.Success("Task %s succeeded after %d iteration(s), final quality %.1f", spec.ID, len(result.Iterations), result.FinalQuality)
	} else {
		ui.Error("Task %s failed: %s", spec.ID, result.FailureReason)
	}
	ui.Info("Disaster prevention score: %s  (result %s)", output.ScoreColor(result.DisasterScore), result.ID)

	if runPrintOutput && result.FinalOutput != "" {
		fmt.Fprintln(ui.Out, result.FinalOutput)
	}

	if !result.Success {
		return fmt.Errorf("run did not succeed")
	}
	return nil
}

// printIterationReport renders one table row per round.
func printIterationReport(result *models.PairResult) {
	table := ui.Table([]string{"Iter", "Decision", "Quality", "Strictness", "Issues", "Duration"})
	for _, rec := range result.Iterations {
		table.Append([]string{
			strconv.Itoa(rec.Iteration),
			output.DecisionColor(rec.Outcome.Decision),
			fmt.Sprintf("%.1f", rec.Outcome.OverallQuality()),
			fmt.Sprintf("%.2f", rec.Outcome.AdjustedStrictness),
			strconv.Itoa(len(rec.Outcome.Issues)),
			rec.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()
}
