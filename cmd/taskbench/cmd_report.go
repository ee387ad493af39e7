package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/taskbench/internal/report"
)

var (
	reportHistoryDB string
	reportLimit     int
	reportID        int64
	reportFiles     []string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show archived or saved benchmark results",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportHistoryDB, "history-db", "runs.db", "History sqlite database")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 20, "How many archived runs to list")
	reportCmd.Flags().Int64Var(&reportID, "id", 0, "Show the full summary for one archived run")
	reportCmd.Flags().StringSliceVar(&reportFiles, "file", nil, "Render artifact JSON file(s) instead of the archive")
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(reportFiles) > 0 {
		arts := make([]report.Artifact, 0, len(reportFiles))
		for _, path := range reportFiles {
			art, err := report.ReadFile(path)
			if err != nil {
				return err
			}
			arts = append(arts, art)
		}
		report.RenderSummary(os.Stdout, arts...)
		return nil
	}

	h, err := report.OpenHistory(reportHistoryDB)
	if err != nil {
		return err
	}
	defer h.Close()

	if reportID > 0 {
		art, err := h.Get(reportID)
		if err != nil {
			return err
		}
		report.RenderSummary(os.Stdout, art)
		return nil
	}

	entries, err := h.List(reportLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no archived runs")
		return nil
	}
	report.RenderHistory(os.Stdout, entries)
	return nil
}
