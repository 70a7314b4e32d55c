package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pairloop/pairloop/internal/output"
	"github.com/pairloop/pairloop/internal/store"
)

var (
	resultListTask    string
	resultListSuccess bool
	resultListLimit   int
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Inspect stored run results",
}

var resultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results, newest first",
	RunE:  resultListRun,
}

var resultShowCmd = &cobra.Command{
	Use:   "show <result-id>",
	Short: "Show a result with its full iteration history",
	Args:  cobra.ExactArgs(1),
	RunE:  resultShowRun,
}

func init() {
	rootCmd.AddCommand(resultCmd)
	resultCmd.AddCommand(resultListCmd)
	resultCmd.AddCommand(resultShowCmd)

	resultListCmd.Flags().StringVar(&resultListTask, "task", "", "Filter by task ID")
	resultListCmd.Flags().BoolVar(&resultListSuccess, "success", false, "Only show successful runs")
	resultListCmd.Flags().IntVar(&resultListLimit, "limit", 20, "Maximum results to show")
}

func resultListRun(cmd *cobra.Command, _ []string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	results, err := s.ListPairResults(cmd.Context(), store.ResultListFilter{
		TaskID:      resultListTask,
		OnlySuccess: resultListSuccess,
		Limit:       resultListLimit,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		ui.Info("No results stored. Use 'pairloop run <task-file>' to get started.")
		return nil
	}

	table := ui.Table([]string{"ID", "Task", "Success", "Quality", "Score", "When"})
	for _, res := range results {
		table.Append([]string{
			res.ID,
			output.Cyan(res.TaskID),
			output.SuccessColor(res.Success),
			fmt.Sprintf("%.1f", res.FinalQuality),
			output.ScoreColor(res.DisasterScore),
			res.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func resultShowRun(cmd *cobra.Command, args []string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	res, err := s.GetPairResult(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	ui.Info("Task %s  success=%s  quality=%.1f  score=%s",
		output.Cyan(res.TaskID), output.SuccessColor(res.Success),
		res.FinalQuality, output.ScoreColor(res.DisasterScore))
	if res.FailureReason != "" {
		ui.Warning("Failure reason: %s", res.FailureReason)
	}

	table := ui.Table([]string{"Iter", "Decision", "Quality", "Strictness", "Issues", "Duration"})
	for _, rec := range res.Iterations {
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

	if final := res.FinalOutcome(); final != nil {
		for _, issue := range final.Issues {
			ui.VerboseLog("[%s/%s] %s", issue.Severity, issue.Category, issue.Description)
		}
	}
	return nil
}
