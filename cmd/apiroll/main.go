package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/apiroll/cmd/apiroll/commands"
	"github.com/teranos/apiroll/logger"
)

var (
	jsonOutput bool
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:   "apiroll",
	Short: "apiroll - API surface extraction and review tooling",
	Long: `apiroll - trimmed declaration rollups and reviewable API reports.

apiroll analyzes a package's declaration entry point and produces:
  - one consolidated declaration rollup per configured release tier
  - a diffable review report of the full exported API surface

Examples:
  apiroll run                 # Generate all configured artifacts
  apiroll report              # Regenerate the review report
  apiroll report --check      # Fail if the approved report is stale`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit structured JSON logs instead of console output")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.ReportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
