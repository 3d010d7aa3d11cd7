package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/apiroll/config"
	"github.com/teranos/apiroll/errors"
	"github.com/teranos/apiroll/rollup"
)

var (
	reportConfigPath string
	reportCheck      bool
)

// ReportCmd regenerates (or verifies) the review report on its own.
var ReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate or verify the API review report",
	Long: `Generate the review report, or verify the approved snapshot.

With --check, nothing is written: the command fails when the approved
report on disk is not equivalent to the freshly generated one. Two
reports are equivalent when they differ only in whitespace.

Examples:
  apiroll report
  apiroll report --check    # CI: fail when the approved report is stale`,
	RunE: runReport,
}

func init() {
	ReportCmd.Flags().StringVarP(&reportConfigPath, "config", "c", config.DefaultPath, "Configuration file path")
	ReportCmd.Flags().BoolVar(&reportCheck, "check", false, "Verify the approved report instead of writing")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(reportConfigPath)
	if err != nil {
		return err
	}
	if cfg.Report.Out == "" {
		return errors.Wrapf(errors.ErrConfig, "%s configures no report output", reportConfigPath)
	}

	gen, col, err := analyze(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	text, err := gen.Report()
	if err != nil {
		return err
	}
	printWarnings(col.Arena, col.Warnings.All())

	if reportCheck {
		existing, err := os.ReadFile(cfg.Report.Out)
		if err != nil {
			pterm.Printf("%s approved report %s is missing\n", pterm.Red("✗"), cfg.Report.Out)
			os.Exit(1)
		}
		if !rollup.Equivalent(string(existing), text) {
			pterm.Printf("%s approved report %s is stale; run 'apiroll report' and review the diff\n",
				pterm.Red("✗"), cfg.Report.Out)
			os.Exit(1)
		}
		pterm.Printf("%s approved report is up to date\n", pterm.Green("✓"))
		return nil
	}

	return writeReport(cfg.Report.Out, text)
}
