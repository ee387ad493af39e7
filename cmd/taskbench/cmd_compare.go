package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/taskbench/internal/report"
)

var (
	compareHistoryDB string
	compareScenario  string
)

var compareCmd = &cobra.Command{
	Use:   "compare [candidate.json baseline.json]",
	Short: "Compare two benchmark result sets",
	Long: `Compare a candidate result set against a baseline: throughput speedup,
latency and memory reduction, and a Welch t-test over per-run throughput.

With two file arguments the artifacts are read from disk. With --scenario
and two backend names, the latest archived run of each is used.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareHistoryDB, "history-db", "runs.db", "History sqlite database")
	compareCmd.Flags().StringVar(&compareScenario, "scenario", "", "Compare latest archived runs of this scenario (args: candidate-backend baseline-backend)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected exactly two arguments (artifact files, or backends with --scenario)")
	}

	var candidate, baseline report.Artifact
	var err error
	if compareScenario != "" {
		h, err := report.OpenHistory(compareHistoryDB)
		if err != nil {
			return err
		}
		defer h.Close()
		if candidate, err = h.Latest(args[0], compareScenario); err != nil {
			return err
		}
		if baseline, err = h.Latest(args[1], compareScenario); err != nil {
			return err
		}
	} else {
		if candidate, err = report.ReadFile(args[0]); err != nil {
			return err
		}
		if baseline, err = report.ReadFile(args[1]); err != nil {
			return err
		}
	}

	report.RenderComparison(os.Stdout, report.Compare(candidate, baseline))
	return nil
}
