package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyles = map[string]lipgloss.Style{
		"clean":      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		"rewritten":  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		"repaired":   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		"unrepaired": lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		"unparsed":   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"flagged":    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"skipped":    faintStyle,
	}
)

// reservedLines is the header and footer chrome around the viewport.
const reservedLines = 4

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// DisplayReport shows the gate report, scrollable when it does not fit the terminal.
func (p *TUI) DisplayReport(ctx context.Context, report m.GateReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.show("rendergate - gate report", renderReportView(report))
}

// DisplayExtraction shows the files recovered from a transcript.
func (p *TUI) DisplayExtraction(ctx context.Context, bundle m.Bundle, written m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.show("rendergate - transcript extraction", renderExtractionView(bundle, written))
}

func (p *TUI) show(title, content string) error {
	width, height := p.size()

	// Short output is printed directly instead of taking over the screen.
	if height == 0 || strings.Count(content, "\n")+reservedLines <= height {
		_, err := fmt.Fprintf(p.output, "%s\n\n%s", titleStyle.Render(title), content)
		return err
	}

	program := tea.NewProgram(newPagerModel(title, content, width, height), tea.WithOutput(p.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

func (p *TUI) size() (int, int) {
	f, ok := p.output.(*os.File)
	if !ok {
		return 0, 0
	}

	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, 0
	}

	return width, height
}

func renderReportView(report m.GateReport) string {
	var b strings.Builder

	if report.FellBack {
		b.WriteString(statusStyles["unrepaired"].Render("  gate fell back: files were returned unchanged"))
		b.WriteString("\n\n")
	}

	width := 4
	for _, file := range report.Files {
		if len(file.Path) > width {
			width = len(file.Path)
		}
	}

	for _, file := range report.Files {
		status := file.Status()

		style, ok := statusStyles[status]
		if !ok {
			style = lipgloss.NewStyle()
		}

		fmt.Fprintf(&b, "  %-*s  %s", width, file.Path, style.Render(fmt.Sprintf("%-10s", status)))

		if len(file.Initial) > 0 {
			fmt.Fprintf(&b, "  %s", describeFindings(file.Initial))
		}

		b.WriteString("\n")

		if file.FixReason != "" {
			fmt.Fprintf(&b, "  %s\n", faintStyle.Render("    "+file.FixReason))
		}
	}

	fmt.Fprintf(&b, "\n  Total files %d: %s\n", len(report.Files), statusSummary(report))

	if len(report.Diagnostics) > 0 {
		b.WriteString("\n  Diagnostics:\n")

		for _, d := range report.Diagnostics {
			fmt.Fprintf(&b, "  %s\n", faintStyle.Render(diagnosticLine(d)))
		}
	}

	return b.String()
}

func renderExtractionView(bundle m.Bundle, written m.Path) string {
	var b strings.Builder

	if len(bundle.Entries) == 0 {
		b.WriteString("  No files found in transcript\n")
		return b.String()
	}

	if bundle.Gateway != nil {
		fmt.Fprintf(&b, "  %s\n\n", faintStyle.Render(fmt.Sprintf("chat %s | action %s", bundle.Gateway.ChatID, bundle.Gateway.ActionKey)))
	}

	for _, entry := range bundle.Entries {
		fmt.Fprintf(&b, "  %s  %s  %d bytes\n", entry.OutputPath(), faintStyle.Render(string(entry.Format)), len(entry.File.Content))
	}

	fmt.Fprintf(&b, "\n  Total files %d\n", len(bundle.Entries))

	if bundle.Gateway != nil {
		fmt.Fprintf(&b, "  Request %d, response %d\n", bundle.Count(m.BundleRequest), bundle.Count(m.BundleResponse))

		if shared := bundle.Shared(); len(shared) > 0 {
			b.WriteString("\n" + statusStyles["unrepaired"].Render(fmt.Sprintf("  %d file(s) appear in both request and response:", len(shared))) + "\n")

			for _, p := range shared {
				fmt.Fprintf(&b, "    %s\n", p)
			}
		}
	}

	if written != "" {
		fmt.Fprintf(&b, "  Saved to %s\n", written)
	}

	if bundle.FileTree != "" {
		fmt.Fprintf(&b, "\n  File tree declared in transcript:\n%s\n", bundle.FileTree)
	}

	return b.String()
}

// pagerModel is a scrollable view over pre-rendered content.
type pagerModel struct {
	title    string
	viewport viewport.Model
	quitting bool
}

func newPagerModel(title, content string, width, height int) pagerModel {
	vp := viewport.New(width, max(height-reservedLines, 1))
	vp.SetContent(content)

	return pagerModel{title: title, viewport: vp}
}

func (pm pagerModel) Init() tea.Cmd {
	return nil
}

func (pm pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pm.viewport.Width = msg.Width
		pm.viewport.Height = max(msg.Height-reservedLines, 1)

		return pm, nil

	case tea.KeyMsg:
		//nolint:exhaustive // Only quit keys are handled here; the rest go to the viewport.
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			pm.quitting = true
			return pm, tea.Quit
		default:
		}

		switch msg.String() {
		case "q":
			pm.quitting = true
			return pm, tea.Quit
		case "g", "home":
			pm.viewport.GotoTop()
			return pm, nil
		case "G", "end":
			pm.viewport.GotoBottom()
			return pm, nil
		}
	}

	var cmd tea.Cmd
	pm.viewport, cmd = pm.viewport.Update(msg)

	return pm, cmd
}

func (pm pagerModel) View() string {
	if pm.quitting {
		return ""
	}

	footer := fmt.Sprintf("  %3.f%% | ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit", pm.viewport.ScrollPercent()*100)

	return fmt.Sprintf("%s\n\n%s\n%s\n", titleStyle.Render(pm.title), pm.viewport.View(), footerStyle.Render(footer))
}
