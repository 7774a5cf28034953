// Package adapter contains infrastructure adapters for the rendergate CLI and gate.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

// ErrUnsafePath is returned for a file path that would be written outside its root.
var ErrUnsafePath = errors.New("path escapes output directory")

// projectMarker identifies the root of a generated web application.
const projectMarker = "package.json"

// defaultSkipDirs are never loaded into a file set.
var defaultSkipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"dist":         {},
	"build":        {},
	".next":        {},
	"vendor":       {},
}

// SourceFSAdapter abstracts filesystem-specific operations that the workflow
// relies on when loading and writing generated file sets. It hides direct
// `os` access so the workflow logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// Walk traverses the provided root path. When recursive is false the
	// implementation should limit itself to the root directory (no sub-dirs).
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// Load reads every regular file under root into a file set whose paths
	// are relative to root, skipping paths matching any exclude regex.
	Load(ctx context.Context, root m.Path, exclude ...string) ([]m.SourceFile, error)

	// WriteFiles writes files under root, creating parent directories.
	WriteFiles(ctx context.Context, root m.Path, files []m.SourceFile) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// IsDir reports whether path is a directory; it fails when path does not exist.
	IsDir(path m.Path) (bool, error)

	// FindProjectRoot searches for package.json walking up the directory tree.
	FindProjectRoot(startPath m.Path) (m.Path, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type directly into the
// domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// Load reads the file set rooted at root. Files are returned sorted by path.
func (a *LocalSourceFSAdapter) Load(ctx context.Context, root m.Path, exclude ...string) ([]m.SourceFile, error) {
	patterns, err := compileExcludes(exclude)
	if err != nil {
		return nil, err
	}

	rootStr := string(root)
	if _, err := os.Stat(rootStr); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	var files []m.SourceFile

	err = a.Walk(root, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(rootStr, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if _, skip := defaultSkipDirs[info.Name()]; skip && path != rootStr {
				return filepath.SkipDir
			}

			return nil
		}

		if !info.Mode().IsRegular() || matchesAny(patterns, rel) {
			return nil
		}

		content, err := a.ReadFile(m.Path(path))
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}

		files = append(files, m.SourceFile{Path: m.Path(rel), Content: string(content)})

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	slog.Debug("Loaded file set", "root", rootStr, "files", len(files))

	return files, nil
}

// WriteFiles writes every file under root. Paths are checked before anything
// is written, so a file set with an absolute or escaping path writes nothing.
func (a *LocalSourceFSAdapter) WriteFiles(ctx context.Context, root m.Path, files []m.SourceFile) error {
	targets := make([]string, len(files))

	for i, file := range files {
		target, err := containedPath(root, file.Path)
		if err != nil {
			return err
		}

		targets[i] = target
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		target := targets[i]
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			slog.Error("Failed to create directory", "path", target, "error", err)
			return fmt.Errorf("create directory for %s: %w", file.Path, err)
		}

		if err := os.WriteFile(target, []byte(file.Content), 0o600); err != nil {
			slog.Error("Failed to write file", "path", target, "error", err)
			return fmt.Errorf("write %s: %w", file.Path, err)
		}
	}

	return nil
}

// containedPath joins p onto root and rejects results outside root.
func containedPath(root, p m.Path) (string, error) {
	native := filepath.FromSlash(string(p))
	if native == "" || filepath.IsAbs(native) || filepath.VolumeName(native) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}

	base := filepath.Clean(string(root))
	target := filepath.Join(base, native)

	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}

	return target, nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// IsDir reports whether path is a directory.
func (a *LocalSourceFSAdapter) IsDir(path m.Path) (bool, error) {
	info, err := os.Stat(string(path))
	if err != nil {
		return false, err
	}

	return info.IsDir(), nil
}

// FindProjectRoot searches for package.json walking up the directory tree.
func (a *LocalSourceFSAdapter) FindProjectRoot(startPath m.Path) (m.Path, error) {
	dir, err := filepath.Abs(string(startPath))
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, projectMarker)); err == nil {
			return m.Path(dir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found in any parent directory of %s", projectMarker, startPath)
		}

		dir = parent
	}
}

func compileExcludes(exclude []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(exclude))

	for _, expr := range exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", expr, err)
		}

		patterns = append(patterns, re)
	}

	return patterns, nil
}

func matchesAny(patterns []*regexp.Regexp, path string) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}

	return false
}
