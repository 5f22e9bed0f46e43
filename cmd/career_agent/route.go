package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-assistant/internal/observability"
	"github.com/jonathan/career-assistant/internal/router"
	"github.com/jonathan/career-assistant/internal/workflow"
)

var routeActive string

var routeCmd = &cobra.Command{
	Use:   "route <message>",
	Short: "Show where a message would be routed",
	Long:  `Classify a single message without touching any session and print the decision.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeActive, "active", "", "Workflow kind to treat as in progress")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var active *workflow.Kind
	if routeActive != "" {
		kind, err := workflow.ParseKind(routeActive)
		if err != nil {
			return err
		}
		active = &kind
	}

	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	text := strings.Join(args, " ")
	decision := a.router.Decide(cmd.Context(), router.Input{Text: text, Active: active})
	observability.NewPrinter(cmd.OutOrStdout()).PrintDecision(text, decision)
	return nil
}
