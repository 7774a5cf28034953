package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	"rendergate.dev/pkg/rendergate/internal/controller"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

var (
	// ErrNoSource is returned when a scan names no file set.
	ErrNoSource = errors.New("no file set: pass a directory, a manifest or a bundle")
	// ErrConflictingSources is returned when a scan names more than one file set.
	ErrConflictingSources = errors.New("pass only one of directory, manifest or bundle")
	// ErrNoOutput is returned when files must be written but there is no directory to write to.
	ErrNoOutput = errors.New("no output directory")
)

// ScanArgs contains the arguments for a gate scan.
type ScanArgs struct {
	// Exactly one of Root, Manifest and Bundle names the file set.
	Root     m.Path
	Manifest m.Path
	Bundle   m.Path
	Exclude  []string
	// ResolveRoot walks up from Root to the nearest directory holding
	// package.json. A Root naming a file always resolves.
	ResolveRoot bool

	// Write saves the gate output under Output, or changed files under Root
	// when Output is empty.
	Write  bool
	Output m.Path
	// Report is the YAML report destination; empty skips saving.
	Report m.Path

	// Non-empty values override the manifest.
	Query     string
	Template  m.TemplateDetails
	Phase     *m.Phase
	Env       m.Environment
	Inference m.InferenceContext
}

// ExtractArgs contains the arguments for extracting files from a transcript.
type ExtractArgs struct {
	Transcript m.Path
	// Output is where extracted files are written; empty only lists them.
	Output m.Path
}

// Workflow drives the gate from the command line.
type Workflow interface {
	Scan(ctx context.Context, args ScanArgs) (GateResult, error)
	Extract(ctx context.Context, args ExtractArgs) (m.Bundle, error)
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ManifestStore
	adapter.ReportStore
	controller.UI
	Gate
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	manifests adapter.ManifestStore,
	reports adapter.ReportStore,
	ui controller.UI,
	gate Gate,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ManifestStore:   manifests,
		ReportStore:     reports,
		UI:              ui,
		Gate:            gate,
	}
}

func (w *workflow) Scan(ctx context.Context, args ScanArgs) (GateResult, error) {
	if args.Root != "" && args.Manifest == "" && args.Bundle == "" {
		root, err := w.resolveRoot(args)
		if err != nil {
			return GateResult{}, err
		}

		args.Root = root
	}

	in, err := w.gateInput(ctx, args)
	if err != nil {
		return GateResult{}, err
	}

	slog.Info("Running gate", "files", len(in.Files))

	result := w.Run(ctx, in)

	if args.Write {
		if err := w.writeChanged(ctx, args, in.Files, result.Files); err != nil {
			return result, fmt.Errorf("write files: %w", err)
		}
	}

	if args.Report != "" {
		if err := w.SaveReport(args.Report, result.Report); err != nil {
			return result, fmt.Errorf("save report: %w", err)
		}

		slog.Info("Saved gate report", "path", args.Report)
	}

	if err := w.DisplayReport(ctx, result.Report); err != nil {
		return result, fmt.Errorf("display: %w", err)
	}

	return result, nil
}

// resolveRoot finds the app directory for Root. A file without a package.json
// above it scans the directory that holds it.
func (w *workflow) resolveRoot(args ScanArgs) (m.Path, error) {
	dir, err := w.IsDir(args.Root)
	if err != nil {
		return "", fmt.Errorf("load files: %w", err)
	}

	if dir && !args.ResolveRoot {
		return args.Root, nil
	}

	root, err := w.FindProjectRoot(args.Root)
	if err != nil {
		slog.Debug("No package.json above scan path", "path", args.Root, "error", err)

		if dir {
			return args.Root, nil
		}

		return m.Path(filepath.Dir(string(args.Root))), nil
	}

	slog.Info("Resolved app root", "from", args.Root, "root", root)

	return root, nil
}

func (w *workflow) Extract(ctx context.Context, args ExtractArgs) (m.Bundle, error) {
	bundle, err := w.readBundle(args.Transcript)
	if err != nil {
		return m.Bundle{}, err
	}

	if args.Output != "" && len(bundle.Entries) > 0 {
		if err := w.WriteFiles(ctx, args.Output, bundle.Files()); err != nil {
			return bundle, fmt.Errorf("write files: %w", err)
		}

		slog.Info("Extracted transcript files", "count", len(bundle.Entries), "output", args.Output)
	}

	written := args.Output
	if len(bundle.Entries) == 0 {
		written = ""
	}

	if err := w.DisplayExtraction(ctx, bundle, written); err != nil {
		return bundle, fmt.Errorf("display: %w", err)
	}

	return bundle, nil
}

func (w *workflow) gateInput(ctx context.Context, args ScanArgs) (GateInput, error) {
	sources := 0

	for _, p := range []m.Path{args.Root, args.Manifest, args.Bundle} {
		if p != "" {
			sources++
		}
	}

	switch {
	case sources == 0:
		return GateInput{}, ErrNoSource
	case sources > 1:
		return GateInput{}, ErrConflictingSources
	}

	in := GateInput{Env: args.Env}

	switch {
	case args.Manifest != "":
		manifest, err := w.LoadManifest(args.Manifest)
		if err != nil {
			return GateInput{}, err
		}

		in.Files = manifest.Files
		in.Query = manifest.Query
		in.Template = manifest.Template
		in.Phase = manifest.Phase
		in.Inference = manifest.Inference

	case args.Bundle != "":
		bundle, err := w.readBundle(args.Bundle)
		if err != nil {
			return GateInput{}, err
		}

		in.Files = bundle.Files()

	default:
		files, err := w.Load(ctx, args.Root, args.Exclude...)
		if err != nil {
			return GateInput{}, fmt.Errorf("load files: %w", err)
		}

		in.Files = files
	}

	overrideInput(&in, args)

	return in, nil
}

func overrideInput(in *GateInput, args ScanArgs) {
	if args.Query != "" {
		in.Query = args.Query
	}

	if args.Template.Name != "" {
		in.Template = args.Template
	}

	if args.Phase != nil {
		in.Phase = args.Phase
	}

	if args.Inference.Provider != "" {
		in.Inference.Provider = args.Inference.Provider
	}

	if args.Inference.Model != "" {
		in.Inference.Model = args.Inference.Model
	}

	if args.Inference.AgentID != "" {
		in.Inference.AgentID = args.Inference.AgentID
	}

	for k, v := range args.Inference.Metadata {
		if in.Inference.Metadata == nil {
			in.Inference.Metadata = make(map[string]string)
		}

		in.Inference.Metadata[k] = v
	}
}

func (w *workflow) readBundle(path m.Path) (m.Bundle, error) {
	data, err := w.ReadFile(path)
	if err != nil {
		return m.Bundle{}, fmt.Errorf("read transcript: %w", err)
	}

	return adapter.ExtractBundle(string(data)), nil
}

// writeChanged rewrites files under Root only when the gate changed them.
// A separate Output directory receives the whole file set.
func (w *workflow) writeChanged(ctx context.Context, args ScanArgs, before, after []m.SourceFile) error {
	output := args.Output
	if output == "" {
		output = args.Root
	}

	if output == "" {
		return ErrNoOutput
	}

	original := make(map[m.Path]string, len(before))
	for _, file := range before {
		original[file.Path] = file.Content
	}

	changed := make([]m.SourceFile, 0)

	for _, file := range after {
		if content, ok := original[file.Path]; ok && content == file.Content && args.Output == "" {
			continue
		}

		changed = append(changed, file)
	}

	if len(changed) == 0 {
		return nil
	}

	slog.Info("Writing gate output", "files", len(changed), "output", output)

	return w.WriteFiles(ctx, output, changed)
}
