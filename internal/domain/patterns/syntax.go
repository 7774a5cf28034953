// Package patterns holds the node-level checks for the render-safety
// patterns and the syntax helpers they share.
package patterns

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

// Site is a node visited by the detector together with the scope it sits in.
type Site struct {
	Node   *sitter.Node
	Source []byte
	Frame  m.ScopeFrame
	// FunctionDepth counts every enclosing function, component or not.
	FunctionDepth int
}

// Checker inspects one node and reports the findings it anchors.
type Checker func(site Site) []m.Finding

var functionTypes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function":                       true,
	"function_expression":            true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
}

var wrapperTypes = map[string]bool{
	"parenthesized_expression": true,
	"as_expression":            true,
	"satisfies_expression":     true,
	"type_assertion":           true,
	"non_null_expression":      true,
}

// IsFunctionLike reports whether n opens a function scope.
func IsFunctionLike(n *sitter.Node) bool {
	return n != nil && n.IsNamed() && functionTypes[n.Type()]
}

// IsFunctionExpression reports whether n is a function value usable as a callback.
func IsFunctionExpression(n *sitter.Node) bool {
	if n == nil {
		return false
	}

	switch n.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}

	return false
}

// InInstanceField reports whether n sits in the initializer of a non-static
// class field. Those initializers run once per instance, not at module load.
func InInstanceField(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "public_field_definition", "field_definition":
			return !hasKeyword(p, "static")
		case "class_body", "program":
			return false
		}
	}

	return false
}

func hasKeyword(n *sitter.Node, keyword string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && !child.IsNamed() && child.Type() == keyword {
			return true
		}
	}

	return false
}

// Unwrap strips parentheses and type-level wrappers (as, satisfies, <T>x, x!).
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil && wrapperTypes[n.Type()] {
		children := NamedChildren(n)
		if len(children) == 0 {
			return n
		}

		if n.Type() == "type_assertion" {
			n = children[len(children)-1]
		} else {
			n = children[0]
		}
	}

	return n
}

// NamedChildren returns the named children of n, skipping comments.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}

	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)

	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}

		out = append(out, child)
	}

	return out
}

// HasComment reports whether n has a direct comment child.
func HasComment(n *sitter.Node) bool {
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		if child := n.NamedChild(i); child != nil && child.Type() == "comment" {
			return true
		}
	}

	return false
}

// CallArguments returns the argument nodes of a call expression, or nil
// for anything that is not a plain call (tagged templates included).
func CallArguments(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.Type() != "arguments" {
		return nil
	}

	return NamedChildren(args)
}

// CalleeIdentifier returns the callee name when the callee is a bare identifier.
func CalleeIdentifier(call *sitter.Node, src []byte) (string, bool) {
	if call == nil || call.Type() != "call_expression" {
		return "", false
	}

	callee := call.ChildByFieldName("function")
	if callee == nil || callee.Type() != "identifier" {
		return "", false
	}

	return callee.Content(src), true
}

// IsHookName reports whether name follows the use* hook naming convention.
func IsHookName(name string) bool {
	return strings.HasPrefix(name, "use")
}

// At builds a finding of kind anchored at n, with a 1-based position.
func At(kind m.FindingKind, n *sitter.Node, message string) m.Finding {
	point := n.StartPoint()

	return m.Finding{
		Kind:    kind,
		Message: message,
		Line:    int(point.Row) + 1,
		Column:  int(point.Column) + 1,
	}
}

// Walk visits n and its descendants in pre-order until fn returns false for a node,
// in which case that node's children are skipped.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}

	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(current) {
			continue
		}

		for i := int(current.NamedChildCount()) - 1; i >= 0; i-- {
			if child := current.NamedChild(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
}
