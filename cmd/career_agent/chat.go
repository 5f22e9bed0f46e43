package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jonathan/career-assistant/internal/coordinator"
	"github.com/jonathan/career-assistant/internal/observability"
)

var chatUserID int64

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Start an interactive session on stdin. Each line is one turn.

Commands:
  /job <id>    attach a job posting id to the following turns
  /sessions    show stored workflow sessions
  /reset       clear every session
  /quit        exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Int64Var(&chatUserID, "user", 1, "User id to chat as")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	return chatLoop(cmd, a.coord, chatUserID, cmd.InOrStdin(), cmd.OutOrStdout())
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func chatLoop(cmd *cobra.Command, coord *coordinator.Coordinator, userID int64, in io.Reader, out io.Writer) error {
	prompt := color.New(color.FgCyan, color.Bold)
	meta := color.New(color.Faint)
	warn := color.New(color.FgYellow)
	printer := observability.NewPrinter(out)

	turnContext := map[string]any{}
	scanner := bufio.NewScanner(in)

	for {
		prompt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/sessions":
			sessions, err := coord.Sessions(cmd.Context(), userID)
			if err != nil {
				return err
			}
			printer.PrintSessions(userID, sessions)
			continue
		case line == "/reset":
			n, err := coord.Reset(cmd.Context(), userID)
			if err != nil {
				return err
			}
			meta.Fprintf(out, "cleared %d session(s)\n", n)
			continue
		case strings.HasPrefix(line, "/job"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "/job"))
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil || id <= 0 {
				warn.Fprintln(out, "usage: /job <positive id>")
				continue
			}
			turnContext["job_posting_id"] = id
			meta.Fprintf(out, "job posting %d attached\n", id)
			continue
		}

		res, err := coord.ProcessTurn(cmd.Context(), coordinator.Turn{
			Text:    line,
			UserID:  userID,
			Context: turnContext,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\n%s\n\n", res.Response)
		kind, route := "none", "none"
		if res.WorkflowKind != nil {
			kind = string(*res.WorkflowKind)
		}
		if r, ok := res.Metadata["route"].(string); ok {
			route = r
		}
		meta.Fprintf(out, "[route %s | workflow %s | step %s | completed %t]\n", route, kind, res.CurrentStep, res.Completed)
	}
}
