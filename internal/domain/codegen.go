package domain

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

// CodeGenerator turns a set of edits into new source text that still parses.
type CodeGenerator interface {
	// Generate applies edits to content and returns the re-parsed result.
	// The caller owns the returned tree and must Close it.
	Generate(ctx context.Context, path m.Path, content []byte, edits []Edit) (*adapter.SyntaxTree, error)
}

type codeGenerator struct {
	parser adapter.TSXFileAdapter
}

// NewCodeGenerator builds a CodeGenerator that validates output with parser.
func NewCodeGenerator(parser adapter.TSXFileAdapter) CodeGenerator {
	return &codeGenerator{parser: parser}
}

func (g *codeGenerator) Generate(ctx context.Context, path m.Path, content []byte, edits []Edit) (*adapter.SyntaxTree, error) {
	out, err := ApplyEdits(content, edits)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCodegenFailure, path, err)
	}

	tree, err := g.parser.Parse(ctx, path, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: rewritten source does not parse: %w", ErrCodegenFailure, path, err)
	}

	return tree, nil
}

// ApplyEdits applies non-overlapping edits to content. The input is not modified.
func ApplyEdits(content []byte, edits []Edit) ([]byte, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var (
		buf    bytes.Buffer
		cursor uint32
	)

	for _, edit := range sorted {
		if edit.End < edit.Start || int(edit.End) > len(content) {
			return nil, fmt.Errorf("edit [%d,%d) out of range", edit.Start, edit.End)
		}

		if edit.Start < cursor {
			return nil, fmt.Errorf("edit [%d,%d) overlaps a previous edit", edit.Start, edit.End)
		}

		buf.Write(content[cursor:edit.Start])
		buf.WriteString(edit.Text)
		cursor = edit.End
	}

	buf.Write(content[cursor:])

	return buf.Bytes(), nil
}
