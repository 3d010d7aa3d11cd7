package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/apiroll/config"
	"github.com/teranos/apiroll/logger"
	"github.com/teranos/apiroll/rollup"
)

var runConfigPath string

// RunCmd generates every configured artifact: per-tier rollups and the
// review report.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate rollups and the review report",
	Long: `Generate all configured output artifacts.

Each configured rollup tier produces one consolidated declaration file
trimmed to that tier. The review report is regenerated alongside them.
A failure in one artifact does not stop the others.

Examples:
  apiroll run
  apiroll run --config build/apiroll.toml`,
	RunE: runRun,
}

func init() {
	RunCmd.Flags().StringVarP(&runConfigPath, "config", "c", config.DefaultPath, "Configuration file path")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}

	gen, col, err := analyze(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	failures := 0
	for _, rc := range cfg.Rollups {
		tier, err := rc.ReleaseTier()
		if err != nil {
			return err
		}

		text, tierWarnings, err := gen.Rollup(tier)
		if err != nil {
			// Per-artifact isolation: one broken rollup leaves the rest of
			// the run intact.
			pterm.Printf("%s rollup %s: %v\n", pterm.Red("✗"), rc.Out, err)
			logger.Logger.Errorw("Rollup generation failed",
				logger.FieldTier, rc.Tier,
				logger.FieldOut, rc.Out,
				logger.FieldError, err,
			)
			failures++
			continue
		}
		if err := os.WriteFile(rc.Out, []byte(text), 0o644); err != nil {
			pterm.Printf("%s rollup %s: %v\n", pterm.Red("✗"), rc.Out, err)
			failures++
			continue
		}
		pterm.Printf("%s %s (%s tier)\n", pterm.Green("✓"), rc.Out, rc.Tier)
		printWarnings(col.Arena, tierWarnings)
	}

	if cfg.Report.Out != "" {
		text, err := gen.Report()
		if err != nil {
			return err
		}
		if err := writeReport(cfg.Report.Out, text); err != nil {
			return err
		}
	}

	printWarnings(col.Arena, col.Warnings.All())
	if failures > 0 {
		pterm.Printf("%s %d artifact(s) failed\n", pterm.Red("✗"), failures)
		os.Exit(1)
	}
	return nil
}

// writeReport writes the review report, skipping the write when the existing
// snapshot is already equivalent so approved files keep their timestamps.
func writeReport(path, text string) error {
	if existing, err := os.ReadFile(path); err == nil && rollup.Equivalent(string(existing), text) {
		pterm.Printf("%s %s (unchanged)\n", pterm.Green("✓"), path)
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return err
	}
	pterm.Printf("%s %s (updated)\n", pterm.Green("✓"), path)
	return nil
}
