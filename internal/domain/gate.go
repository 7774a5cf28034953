// Package domain contains the pre-deploy gate: detection, deterministic
// rewriting, escalation and the orchestrator that ties them together.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

var scriptExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
}

// IsScript reports whether the gate scans files with this path.
func IsScript(path m.Path) bool {
	return scriptExtensions[path.Ext()]
}

// GateInput is everything one gate invocation needs.
type GateInput struct {
	Files     []m.SourceFile
	Env       m.Environment
	Inference m.InferenceContext
	Query     string
	Template  m.TemplateDetails
	Phase     *m.Phase
}

// GateResult holds the output files, in input order, and what happened to them.
type GateResult struct {
	Files  []m.SourceFile
	Report m.GateReport
}

// Gate is the pre-deploy entry point. Run never panics and never fails:
// the worst case is the input returned unchanged.
type Gate interface {
	Run(ctx context.Context, in GateInput) GateResult
}

// GateDeps wires the gate collaborators.
type GateDeps struct {
	Parser    adapter.TSXFileAdapter
	Detector  Detector
	Rewriter  Rewriter
	Codegen   CodeGenerator
	Escalator Escalator
	Sink      adapter.DiagnosticSink
}

type gate struct {
	GateDeps
	threads int
}

// NewGate builds a Gate scanning up to threads files at a time.
func NewGate(deps GateDeps, threads int) Gate {
	if threads < 1 {
		threads = 1
	}

	return &gate{GateDeps: deps, threads: threads}
}

// runSink records each diagnostic in the run report and forwards it.
type runSink struct {
	next   adapter.DiagnosticSink
	memory adapter.MemoryDiagnosticSink
}

func (s *runSink) Record(ctx context.Context, d m.Diagnostic) {
	s.memory.Record(ctx, d)

	if s.next != nil {
		s.next.Record(ctx, d)
	}
}

type fileScan struct {
	report    m.FileReport
	content   string
	remaining []m.Finding
}

func (g *gate) Run(ctx context.Context, in GateInput) (result GateResult) {
	sink := &runSink{next: g.Sink}

	defer func() {
		if r := recover(); r != nil {
			err := recovered(r)
			sink.Record(ctx, m.Diagnostic{Tag: TagGate, Message: err.Error(), Trace: traceOf(err)})
			result = fallback(in.Files, sink.memory.Diagnostics())
		}
	}()

	files := m.CloneFiles(in.Files)
	if len(files) == 0 {
		return GateResult{Files: []m.SourceFile{}}
	}

	scans, err := g.scanAll(ctx, files, sink)
	if err != nil {
		sink.Record(ctx, m.Diagnostic{Tag: TagGate, Message: err.Error(), Trace: traceOf(err)})
		return fallback(in.Files, sink.memory.Diagnostics())
	}

	out := make([]m.SourceFile, len(files))
	reports := make([]m.FileReport, len(files))

	var (
		requests []m.FixRequest
		indexes  []int
	)

	for i, scan := range scans {
		out[i] = files[i].WithContent(scan.content)
		reports[i] = scan.report

		if len(scan.remaining) > 0 {
			requests = append(requests, m.FixRequest{File: out[i], Findings: scan.remaining})
			indexes = append(indexes, i)
		}
	}

	if len(requests) > 0 {
		outcomes := g.Escalator.Escalate(ctx, sink, requests, EscalationInput{
			Env:        in.Env,
			Inference:  in.Inference,
			FixContext: m.FixContext{Query: in.Query, Template: in.Template},
			Phase:      in.Phase,
		})

		for j, idx := range indexes {
			reports[idx].Escalated = true

			if j >= len(outcomes) || outcomes[j].File.Path != out[idx].Path {
				reports[idx].FixReason = "no outcome"
				continue
			}

			out[idx] = outcomes[j].File
			reports[idx].Repaired = outcomes[j].Repaired
			reports[idx].FixReason = outcomes[j].Reason
		}
	}

	slog.DebugContext(ctx, "Gate finished", "files", len(out), "escalated", len(requests))

	return GateResult{
		Files:  out,
		Report: m.GateReport{Files: reports, Diagnostics: sink.memory.Diagnostics()},
	}
}

func fallback(files []m.SourceFile, diagnostics []m.Diagnostic) GateResult {
	out := m.CloneFiles(files)
	if out == nil {
		out = []m.SourceFile{}
	}

	reports := make([]m.FileReport, len(out))
	for i, file := range out {
		reports[i] = m.FileReport{Path: file.Path}
	}

	return GateResult{
		Files:  out,
		Report: m.GateReport{Files: reports, Diagnostics: diagnostics, FellBack: true},
	}
}

func (g *gate) scanAll(ctx context.Context, files []m.SourceFile, sink adapter.DiagnosticSink) ([]fileScan, error) {
	scans := make([]fileScan, len(files))

	var group errgroup.Group
	group.SetLimit(g.threads)

	for i, file := range files {
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("scan %s: %w", file.Path, recovered(r))
				}
			}()

			scans[i] = g.scanFile(ctx, file, sink)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return scans, nil
}

func (g *gate) scanFile(ctx context.Context, file m.SourceFile, sink adapter.DiagnosticSink) fileScan {
	scan := fileScan{report: m.FileReport{Path: file.Path}, content: file.Content}

	if !IsScript(file.Path) {
		scan.report.Skipped = true
		return scan
	}

	tree, err := g.Parser.Parse(ctx, file.Path, []byte(file.Content))
	if err != nil {
		sink.Record(ctx, m.Diagnostic{Tag: TagParse, Path: file.Path, Message: err.Error()})
		scan.report.Initial = []m.Finding{{Kind: m.FindingParseFailure, Message: m.ParseFailureMessage}}

		return scan
	}
	defer tree.Close()

	scan.report.Parsed = true

	findings := g.detect(ctx, tree, sink)
	scan.report.Initial = findings

	if len(findings) == 0 {
		return scan
	}

	outcome, remaining := g.rewrite(ctx, tree, findings, sink)
	scan.content = outcome.Content
	scan.remaining = remaining
	scan.report.Rewritten = outcome.Changed
	scan.report.Remaining = remaining

	return scan
}

// detect degrades a detection failure to zero findings.
func (g *gate) detect(ctx context.Context, tree *adapter.SyntaxTree, sink adapter.DiagnosticSink) []m.Finding {
	findings, err := g.Detector.Detect(ctx, tree)
	if err != nil {
		sink.Record(ctx, m.Diagnostic{Tag: TagDetect, Path: tree.Path, Message: err.Error(), Trace: traceOf(err)})
		return nil
	}

	return findings
}

// rewrite runs the deterministic pass and the second detection pass. On any
// failure the content stays as parsed and the first-pass findings remain.
func (g *gate) rewrite(ctx context.Context, tree *adapter.SyntaxTree, findings []m.Finding, sink adapter.DiagnosticSink) (m.RewriteOutcome, []m.Finding) {
	unchanged := m.RewriteOutcome{Content: string(tree.Source)}

	edits := g.Rewriter.Rewrite(tree)
	if len(edits) == 0 {
		return unchanged, findings
	}

	rewritten, err := g.Codegen.Generate(ctx, tree.Path, tree.Source, edits)
	if err != nil {
		if !errors.Is(err, ErrCodegenFailure) {
			err = fmt.Errorf("%w: %w", ErrCodegenFailure, err)
		}

		sink.Record(ctx, m.Diagnostic{Tag: TagCodegen, Path: tree.Path, Message: err.Error()})

		return unchanged, findings
	}
	defer rewritten.Close()

	return m.RewriteOutcome{Content: string(rewritten.Source), Changed: true}, g.detect(ctx, rewritten, sink)
}
