package domain

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	"rendergate.dev/pkg/rendergate/internal/domain/patterns"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

// Detector finds the render-safety patterns in a parsed file.
type Detector interface {
	Detect(ctx context.Context, tree *adapter.SyntaxTree) ([]m.Finding, error)
}

type detector struct {
	checkers []patterns.Checker
}

// NewDetector builds a detector for the given pattern kinds, in order.
// With no kinds every pattern is enabled.
func NewDetector(kinds ...m.FindingKind) (Detector, error) {
	if len(kinds) == 0 {
		kinds = patterns.DefaultKinds
	}

	checkers := make([]patterns.Checker, 0, len(kinds))
	seen := make(map[m.FindingKind]bool, len(kinds))

	for _, kind := range kinds {
		checker, ok := patterns.Registry[kind]
		if !ok {
			return nil, fmt.Errorf("unsupported pattern: %s", kind)
		}

		if seen[kind] {
			continue
		}

		seen[kind] = true
		checkers = append(checkers, checker)
	}

	return &detector{checkers: checkers}, nil
}

type walkItem struct {
	node *sitter.Node
	exit bool
}

// Detect walks the tree once and returns findings in tree order.
func (d *detector) Detect(ctx context.Context, tree *adapter.SyntaxTree) (findings []m.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = fmt.Errorf("%w: %s: %w", ErrDetectionFailure, tree.Path, recovered(r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailure, err)
	}

	scope := NewScopeTracker()
	stack := []walkItem{{node: tree.Root()}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.exit {
			scope.Exit()
			continue
		}

		node := item.node

		if patterns.IsFunctionLike(node) {
			scope.Enter(node, tree.Source)
			stack = append(stack, walkItem{node: node, exit: true})
		}

		site := patterns.Site{
			Node:          node,
			Source:        tree.Source,
			Frame:         scope.Current(),
			FunctionDepth: scope.FunctionDepth(),
		}

		for _, check := range d.checkers {
			findings = append(findings, check(site)...)
		}

		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			if child := node.NamedChild(i); child != nil {
				stack = append(stack, walkItem{node: child})
			}
		}
	}

	return findings, nil
}
