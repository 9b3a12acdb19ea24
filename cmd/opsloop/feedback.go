package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/opsloop/internal/feedback"
)

var (
	feedbackPlanID      string
	feedbackTaskID      string
	feedbackDescription string
)

// feedbackCmd collects feedback for an executed task, stores it, and folds
// it into long-term memory.
var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Collect and store feedback for an executed task",
	Long: `Prompt the operator for feedback on an executed task, store the record
in the configured backends, and fold positive or negative results into
long-term memory according to the learning toggles.

Examples:
  # Collect thumbs up/down feedback for a task
  opsloop feedback --plan-id plan-42 --task-id task-1 --description "restart deployment web"

  # Use a config file
  opsloop feedback --config ./opsloop.yaml --task-id task-1`,
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackPlanID, "plan-id", "", "plan identifier")
	feedbackCmd.Flags().StringVar(&feedbackTaskID, "task-id", "", "task identifier")
	feedbackCmd.Flags().StringVar(&feedbackDescription, "description", "", "task description")
	_ = feedbackCmd.MarkFlagRequired("task-id")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	prompter := feedback.NewTerminalPrompter(os.Stdin, os.Stdout)
	a, err := newApp(ctx, prompter)
	if err != nil {
		return err
	}
	defer a.close()

	record, err := a.collector.Collect(ctx, feedbackPlanID, feedbackTaskID, feedbackDescription)
	if err != nil {
		return fmt.Errorf("collecting feedback: %w", err)
	}
	if record == nil {
		fmt.Println("Feedback collection is disabled.")
		return nil
	}

	if err := a.store.SaveFeedback(ctx, record); err != nil {
		// Storage is best-effort per backend; a partial failure still
		// leaves a usable record for learning.
		a.logger.Warn("feedback storage incomplete", zap.Error(err))
	}

	if err := a.manager.ProcessFeedback(ctx, record); err != nil {
		return fmt.Errorf("processing feedback: %w", err)
	}

	fmt.Printf("Feedback recorded: %s (%s)\n", record.FeedbackID, record.Result)
	return nil
}
