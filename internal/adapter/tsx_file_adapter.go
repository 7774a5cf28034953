package adapter

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

// ErrParseFailure is matched by every *ParseFailure.
var ErrParseFailure = errors.New("parse failure")

// ParseFailure is the typed result of a file that could not be parsed.
type ParseFailure struct {
	Path   m.Path
	Reason string
	Err    error
}

func (e *ParseFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Err)
	}

	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

// Is reports ErrParseFailure equivalence.
func (e *ParseFailure) Is(target error) bool {
	return target == ErrParseFailure
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// SyntaxTree pairs a tree-sitter tree with the bytes it was parsed from.
type SyntaxTree struct {
	Path   m.Path
	Source []byte
	tree   *sitter.Tree
}

// Root returns the root node of the tree.
func (t *SyntaxTree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Close releases the underlying tree.
func (t *SyntaxTree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

// TSXFileAdapter encapsulates TypeScript/JavaScript parsing so the domain
// layer can focus on pattern rules while delegating grammar details to an
// infrastructure component.
type TSXFileAdapter interface {
	// Parse builds a syntax tree for the file. Any failure, including syntax
	// errors inside an otherwise recovered tree, is a *ParseFailure.
	Parse(ctx context.Context, path m.Path, content []byte) (*SyntaxTree, error)
}

// LocalTSXFileAdapter provides a concrete TSXFileAdapter backed by tree-sitter.
// Every Parse call creates its own parser, so it is safe for concurrent use.
type LocalTSXFileAdapter struct{}

// NewLocalTSXFileAdapter constructs a LocalTSXFileAdapter.
func NewLocalTSXFileAdapter() *LocalTSXFileAdapter {
	return &LocalTSXFileAdapter{}
}

// Parse builds a syntax tree for the provided path/content pair.
func (a *LocalTSXFileAdapter) Parse(ctx context.Context, path m.Path, content []byte) (*SyntaxTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ParseFailure{Path: path, Reason: "context done", Err: err}
	}

	if !utf8.Valid(content) {
		return nil, &ParseFailure{Path: path, Reason: "content is not valid UTF-8"}
	}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(languageFor(path))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, &ParseFailure{Path: path, Reason: "tree-sitter parse failed", Err: err}
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, &ParseFailure{Path: path, Reason: "tree-sitter returned nil root node"}
	}

	if root.HasError() {
		tree.Close()
		return nil, &ParseFailure{Path: path, Reason: "source contains syntax errors"}
	}

	return &SyntaxTree{Path: path, Source: content, tree: tree}, nil
}

// languageFor picks the grammar: plain TypeScript for .ts (where <T>x casts
// conflict with JSX), the TSX superset for everything else.
func languageFor(path m.Path) *sitter.Language {
	switch path.Ext() {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return tsx.GetLanguage()
	}
}
