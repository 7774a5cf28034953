package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

// SimpleUI implements UI with plain tables on the command output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayReport prints one row per file followed by the run diagnostics.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.GateReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if report.FellBack {
		s.printf("gate fell back: files were returned unchanged\n")
	}

	s.printf("\n%s", renderReportTable(report))

	if files := unrepaired(report); len(files) > 0 {
		s.printf("\nLeft unrepaired (%d):\n", len(files))

		for _, file := range files {
			s.printf("  %s: %s\n", file.Path, file.FixReason)
		}
	}

	if len(report.Diagnostics) > 0 {
		s.printf("\nDiagnostics:\n")

		for _, d := range report.Diagnostics {
			s.printf("  %s\n", diagnosticLine(d))
		}
	}

	return nil
}

// DisplayExtraction prints the recovered files and where they were written.
func (s *SimpleUI) DisplayExtraction(ctx context.Context, bundle m.Bundle, written m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(bundle.Entries) == 0 {
		s.printf("No files found in transcript\n")
		return nil
	}

	if bundle.Gateway != nil {
		s.printf("Chat ID: %s\nAction Key: %s\n", bundle.Gateway.ChatID, bundle.Gateway.ActionKey)
	}

	s.printf("\n%s", renderExtractionTable(bundle))

	if bundle.Gateway != nil {
		s.printf("\nRequest files: %d\nResponse files: %d\n", bundle.Count(m.BundleRequest), bundle.Count(m.BundleResponse))

		if shared := bundle.Shared(); len(shared) > 0 {
			s.printf("\nWARNING: %d file(s) appear in both request and response:\n", len(shared))

			for _, p := range shared {
				s.printf("  - %s\n", p)
			}
		}
	}

	if written != "" {
		s.printf("\nSaved %d file(s) to %s\n", len(bundle.Entries), written)
	}

	if bundle.FileTree != "" {
		s.printf("\nFile tree declared in transcript:\n%s\n", bundle.FileTree)
	}

	return nil
}

func renderReportTable(report m.GateReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Status", "Findings", "Remaining", "Note"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, file := range report.Files {
		remaining := "-"
		if file.Parsed && len(file.Initial) > 0 {
			remaining = describeFindings(file.Remaining)
		}

		table.Append([]string{
			string(file.Path),
			file.Status(),
			describeFindings(file.Initial),
			remaining,
			file.FixReason,
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(report.Files)),
		statusSummary(report),
		"", "", "",
	})

	table.Render()

	return tableBuffer.String()
}

func renderExtractionTable(bundle m.Bundle) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Side", "Format", "Bytes"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_RIGHT,
	})

	total := 0

	for _, entry := range bundle.Entries {
		side := string(entry.Side)
		if side == "" {
			side = "-"
		}

		table.Append([]string{
			string(entry.OutputPath()), side, string(entry.Format), fmt.Sprintf("%d", len(entry.File.Content)),
		})
		total += len(entry.File.Content)
	}

	table.SetFooter([]string{fmt.Sprintf("Total Files %d", len(bundle.Entries)), "", "", fmt.Sprintf("%d", total)})

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
