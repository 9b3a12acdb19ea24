package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/opsloop/internal/planning"
)

var (
	improveGoal      string
	improveTopK      int
	improveMinScore  float32
	improveNamespace string
)

// improveCmd enriches a plan with insights from long-term memory.
var improveCmd = &cobra.Command{
	Use:   "improve [plan-file]",
	Short: "Attach past insights to a plan",
	Long: `Read a plan as JSON from a file or stdin, query long-term memory for
insights relevant to the goal, and print the plan with qualifying insights
attached.

Examples:
  # Improve a plan from a file
  opsloop improve --goal "pods crashlooping in default namespace" plan.json

  # Improve a plan from stdin
  cat plan.json | opsloop improve --goal "high memory usage" -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImprove,
}

func init() {
	improveCmd.Flags().StringVar(&improveGoal, "goal", "", "user goal to match insights against")
	improveCmd.Flags().IntVar(&improveTopK, "top-k", planning.DefaultTopK, "maximum number of insights to retrieve")
	improveCmd.Flags().Float32Var(&improveMinScore, "min-score", planning.DefaultMinScore, "minimum similarity score for insights")
	improveCmd.Flags().StringVar(&improveNamespace, "namespace", planning.DefaultNamespace, "memory namespace to query")
	_ = improveCmd.MarkFlagRequired("goal")
}

func runImprove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var content []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read plan file %s: %w", args[0], err)
		}
	}

	var plan planning.Plan
	if err := json.Unmarshal(content, &plan); err != nil {
		return fmt.Errorf("failed to parse plan: %w", err)
	}

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.close()

	improved, err := a.improver.ImprovePlan(ctx, improveGoal, &plan, planning.ImproveOptions{
		TopK:      improveTopK,
		MinScore:  improveMinScore,
		Namespace: improveNamespace,
	})
	if err != nil {
		return fmt.Errorf("improving plan: %w", err)
	}

	out, err := json.MarshalIndent(improved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	fmt.Println(string(out))

	return nil
}
