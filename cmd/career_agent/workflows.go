package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/career-assistant/internal/observability"
	"github.com/jonathan/career-assistant/internal/workflow"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Print the routing map and every workflow's steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		engine := workflow.NewEngine(nil, workflow.DefaultTemplates(workflow.DemoSource{}, nil, nil)...)
		p := observability.NewPrinter(cmd.OutOrStdout())

		p.PrintRoutingMap()
		for _, kind := range engine.Kinds() {
			if tmpl, ok := engine.Template(kind); ok {
				p.PrintWorkflow(tmpl)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workflowsCmd)
}
