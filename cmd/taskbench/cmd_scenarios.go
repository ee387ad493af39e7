package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/user/taskbench/internal/scenario"
)

var scenariosAll bool

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List benchmark scenarios",
	Run:   runScenarios,
}

func init() {
	scenariosCmd.Flags().BoolVar(&scenariosAll, "all", false, "Include scenarios that are not implemented yet")
}

func runScenarios(cmd *cobra.Command, args []string) {
	defs := scenario.Implemented()
	if scenariosAll {
		defs = scenario.List()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Tasks", "Workers", "Requires", "Status", "Description"})
	for _, d := range defs {
		status := "ready"
		if !d.Implemented {
			status = "planned"
		}
		table.Append([]string{
			d.ID,
			d.Name,
			fmt.Sprintf("%d", d.TaskCount),
			fmt.Sprintf("%d", d.WorkerCount),
			strings.Join(d.Requirements, ","),
			status,
			d.Description,
		})
	}
	table.Render()
}
