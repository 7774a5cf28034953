// Package controller renders gate results for the terminal.
package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

// UI defines how gate and extraction results are shown.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayReport(ctx context.Context, report m.GateReport) error
	// DisplayExtraction shows the files recovered from a transcript; written is
	// the directory they were saved to, empty when nothing was written.
	DisplayExtraction(ctx context.Context, bundle m.Bundle, written m.Path) error
}

// NewUI picks the interactive TUI for terminals and plain tables otherwise.
func NewUI(cmd *cobra.Command, isTTY bool) UI {
	if isTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// describeFindings renders findings as "kind xN" groups in first-seen order.
func describeFindings(findings []m.Finding) string {
	if len(findings) == 0 {
		return "-"
	}

	counts := make(map[m.FindingKind]int)
	order := make([]m.FindingKind, 0)

	for _, f := range findings {
		if counts[f.Kind] == 0 {
			order = append(order, f.Kind)
		}

		counts[f.Kind]++
	}

	parts := make([]string, 0, len(order))
	for _, kind := range order {
		if counts[kind] == 1 {
			parts = append(parts, string(kind))
		} else {
			parts = append(parts, fmt.Sprintf("%s x%d", kind, counts[kind]))
		}
	}

	return strings.Join(parts, ", ")
}

func statusSummary(report m.GateReport) string {
	counts := report.Counts()

	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}

	sort.Strings(statuses)

	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		parts = append(parts, fmt.Sprintf("%d %s", counts[status], status))
	}

	return strings.Join(parts, ", ")
}

func diagnosticLine(d m.Diagnostic) string {
	if d.Path == "" {
		return fmt.Sprintf("[%s] %s", d.Tag, d.Message)
	}

	return fmt.Sprintf("[%s] %s: %s", d.Tag, d.Path, d.Message)
}

// unrepaired returns the files that were escalated and still carry findings.
func unrepaired(report m.GateReport) []m.FileReport {
	out := make([]m.FileReport, 0)

	for _, file := range report.Files {
		if file.Escalated && !file.Repaired {
			out = append(out, file)
		}
	}

	return out
}
