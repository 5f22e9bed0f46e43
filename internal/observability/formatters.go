// Package observability provides human-readable output for the CLI and
// tracing setup for the agent.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/career-assistant/internal/coordinator"
	"github.com/jonathan/career-assistant/internal/router"
	"github.com/jonathan/career-assistant/internal/workflow"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer writes boxed summaries
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRoutingMap lists every route and the workflow it starts
func (p *Printer) PrintRoutingMap() {
	var sb strings.Builder
	for _, r := range router.Routes() {
		target := "answer directly, no session"
		if kind, ok := r.Kind(); ok {
			target = string(kind)
		}
		sb.WriteString(fmt.Sprintf("%-21s → %s\n", r, target))
	}
	sb.WriteString("\nEscape phrases clear every session first.")
	p.printBox("ROUTING MAP", sb.String())
}

// PrintWorkflow shows a workflow's step labels and its transition table
func (p *Printer) PrintWorkflow(t workflow.Template) {
	if t == nil {
		return
	}
	labels := t.Labels()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Route:    %s\n\n", router.ForKind(t.Kind())))
	sb.WriteString("Steps:\n")
	sb.WriteString(fmt.Sprintf("  entry     %s\n", labels.Entry))
	if labels.Advance != "" {
		sb.WriteString(fmt.Sprintf("  advance   %s\n", labels.Advance))
	} else {
		sb.WriteString("  advance   (none, finishes in one turn)\n")
	}
	sb.WriteString(fmt.Sprintf("  finalize  %s\n", labels.Finalize))
	sb.WriteString("\nTransitions:\n")
	sb.WriteString("  no session / completed  → entry\n")
	sb.WriteString("  index < total           → advance\n")
	sb.WriteString("  index == total          → finalize\n")
	sb.WriteString("  corrupt state           → restart at entry")

	p.printBox(fmt.Sprintf("WORKFLOW %s", t.Kind()), sb.String())
}

// PrintDecision shows where a message would be routed
func (p *Printer) PrintDecision(text string, d router.Decision) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Message:  %s\n", text))
	sb.WriteString(fmt.Sprintf("Route:    %s\n", d.Route))
	if kind, ok := d.Route.Kind(); ok {
		sb.WriteString(fmt.Sprintf("Workflow: %s\n", kind))
	}
	sb.WriteString(fmt.Sprintf("Source:   %s", d.Source))
	if d.Cause != "" {
		sb.WriteString(fmt.Sprintf("\nCause:    %s", d.Cause))
	}
	p.printBox("ROUTING DECISION", sb.String())
}

// PrintSessions lists a user's stored sessions
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSessions(userID int64, sessions []coordinator.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %s │\n", pad(fmt.Sprintf("NO ACTIVE SESSIONS FOR USER %d", userID), boxWidth-4))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	count := min(len(sessions), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := sessions[i]
		status := fmt.Sprintf("%d/%d", s.CurrentIndex, s.TotalCount)
		if s.Completed {
			status = "done"
		}
		sb.WriteString(fmt.Sprintf("• %s\n", s.Kind))
		sb.WriteString(fmt.Sprintf("  step %s, progress %s\n", s.CurrentStep, status))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(sessions) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more sessions", len(sessions)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("SESSIONS FOR USER %d", userID), strings.TrimSuffix(sb.String(), "\n"))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func pad(s string, n int) string {
	if w := utf8.RuneCountInString(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
