// Package main implements the opsloop CLI for the feedback and learning loop.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the YAML config file path; empty means defaults + env only.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "opsloop",
	Short: "Feedback collection and learning loop for Kubernetes operations",
	Long: `opsloop collects operator feedback on executed remediation plans,
stores it in Redis and Qdrant, folds it into long-term memory, and applies
past insights to improve new plans.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(improveCmd)
}
