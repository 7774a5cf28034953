package domain

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	"rendergate.dev/pkg/rendergate/internal/domain/patterns"
)

// Edit replaces the source bytes [Start, End) with Text.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

// Rewriter produces the deterministic repairs for a parsed file.
// An empty result means nothing was safe to rewrite; it is not an error.
type Rewriter interface {
	Rewrite(tree *adapter.SyntaxTree) []Edit
}

// SelectorSplitter splits destructuring selectors into one selector per value:
//
//	const { a, b: c } = useStore(s => ({ a: s.a, b: s.b }));
//
// becomes
//
//	const a = useStore(s => s.a);
//	const c = useStore(s => s.b);
type SelectorSplitter struct{}

// NewSelectorSplitter constructs a SelectorSplitter.
func NewSelectorSplitter() *SelectorSplitter {
	return &SelectorSplitter{}
}

// Rewrite returns one edit per statement that matches the split shape exactly.
func (r *SelectorSplitter) Rewrite(tree *adapter.SyntaxTree) (edits []Edit) {
	defer func() {
		if recover() != nil {
			edits = nil
		}
	}()

	patterns.Walk(tree.Root(), func(n *sitter.Node) bool {
		if !isDeclaration(n) {
			return true
		}

		if edit, ok := splitSelector(n, tree.Source); ok {
			edits = append(edits, edit)
			return false
		}

		return true
	})

	return edits
}

func isDeclaration(n *sitter.Node) bool {
	if n.Type() != "lexical_declaration" && n.Type() != "variable_declaration" {
		return false
	}

	parent := n.Parent()

	return parent != nil && (parent.Type() == "program" || parent.Type() == "statement_block")
}

type binding struct {
	key   string
	local string
}

func splitSelector(decl *sitter.Node, src []byte) (Edit, bool) {
	if patterns.HasComment(decl) || decl.ChildCount() == 0 {
		return Edit{}, false
	}

	declarators := patterns.NamedChildren(decl)
	if len(declarators) != 1 || declarators[0].Type() != "variable_declarator" {
		return Edit{}, false
	}

	declarator := declarators[0]
	if patterns.HasComment(declarator) || declarator.ChildByFieldName("type") != nil {
		return Edit{}, false
	}

	bindings, ok := patternBindings(declarator.ChildByFieldName("name"), src)
	if !ok {
		return Edit{}, false
	}

	call := declarator.ChildByFieldName("value")
	if call == nil || call.Type() != "call_expression" {
		return Edit{}, false
	}

	hook, ok := patterns.CalleeIdentifier(call, src)
	if !ok || !patterns.IsHookName(hook) {
		return Edit{}, false
	}

	argsNode := call.ChildByFieldName("arguments")
	if argsNode == nil || argsNode.Type() != "arguments" || patterns.HasComment(argsNode) {
		return Edit{}, false
	}

	args := patterns.NamedChildren(argsNode)
	if len(args) != 1 {
		return Edit{}, false
	}

	selector := args[0]
	param, paramText, ok := simpleArrow(selector, src)
	if !ok {
		return Edit{}, false
	}

	members, ok := selectedMembers(selector, param, src)
	if !ok || len(members) != len(bindings) {
		return Edit{}, false
	}

	for _, b := range bindings {
		if _, ok := members[b.key]; !ok {
			return Edit{}, false
		}
	}

	callee := call.ChildByFieldName("function")
	hookText := string(src[callee.StartByte():argsNode.StartByte()])
	kind := decl.Child(0).Content(src)

	semi := ""
	if last := decl.Child(int(decl.ChildCount()) - 1); last != nil && last.Type() == ";" && last.EndByte() > last.StartByte() {
		semi = ";"
	}

	statements := make([]string, 0, len(bindings))
	for _, b := range bindings {
		statements = append(statements, fmt.Sprintf("%s %s = %s(%s => %s.%s)%s",
			kind, b.local, hookText, paramText, param, members[b.key], semi))
	}

	return Edit{
		Start: decl.StartByte(),
		End:   decl.EndByte(),
		Text:  strings.Join(statements, "\n"+lineIndent(src, decl.StartByte())),
	}, true
}

// patternBindings reads { a, b: c } into ordered key/local pairs. Defaults,
// rest elements, nested patterns and duplicate keys are rejected.
func patternBindings(pattern *sitter.Node, src []byte) ([]binding, bool) {
	if pattern == nil || pattern.Type() != "object_pattern" || patterns.HasComment(pattern) {
		return nil, false
	}

	children := patterns.NamedChildren(pattern)
	if len(children) == 0 {
		return nil, false
	}

	seen := make(map[string]bool, len(children))
	bindings := make([]binding, 0, len(children))

	for _, child := range children {
		var b binding

		switch child.Type() {
		case "shorthand_property_identifier_pattern":
			name := child.Content(src)
			b = binding{key: name, local: name}
		case "pair_pattern":
			key := child.ChildByFieldName("key")
			value := child.ChildByFieldName("value")

			if key == nil || value == nil || key.Type() != "property_identifier" || value.Type() != "identifier" {
				return nil, false
			}

			b = binding{key: key.Content(src), local: value.Content(src)}
		default:
			return nil, false
		}

		if seen[b.key] {
			return nil, false
		}

		seen[b.key] = true
		bindings = append(bindings, b)
	}

	return bindings, true
}

// simpleArrow accepts a non-async arrow function with exactly one plain
// identifier parameter and no return type. It returns the parameter name
// and its original text, parentheses and annotation included.
func simpleArrow(fn *sitter.Node, src []byte) (string, string, bool) {
	if fn.Type() != "arrow_function" || fn.ChildByFieldName("return_type") != nil || fn.ChildByFieldName("type_parameters") != nil {
		return "", "", false
	}

	for i := 0; i < int(fn.ChildCount()); i++ {
		if child := fn.Child(i); child != nil && !child.IsNamed() && child.Type() == "async" {
			return "", "", false
		}
	}

	param := patterns.SelectorParam(fn, src)
	if param == "" {
		return "", "", false
	}

	if single := fn.ChildByFieldName("parameter"); single != nil {
		return param, single.Content(src), true
	}

	params := fn.ChildByFieldName("parameters")
	if params == nil || len(patterns.NamedChildren(params)) != 1 || patterns.HasComment(params) {
		return "", "", false
	}

	if first := patterns.NamedChildren(params)[0]; first.ChildByFieldName("value") != nil || first.Type() == "optional_parameter" {
		return "", "", false
	}

	return param, params.Content(src), true
}

// selectedMembers reads ({ a: s.a, b: s.other }) into key → member name.
func selectedMembers(fn *sitter.Node, param string, src []byte) (map[string]string, bool) {
	body := fn.ChildByFieldName("body")
	for body != nil && body.Type() == "parenthesized_expression" {
		children := patterns.NamedChildren(body)
		if len(children) != 1 || patterns.HasComment(body) {
			return nil, false
		}

		body = children[0]
	}

	if body == nil || body.Type() != "object" || patterns.HasComment(body) {
		return nil, false
	}

	entries := patterns.NamedChildren(body)
	if len(entries) == 0 {
		return nil, false
	}

	members := make(map[string]string, len(entries))

	for _, entry := range entries {
		if entry.Type() != "pair" {
			return nil, false
		}

		key := entry.ChildByFieldName("key")
		value := entry.ChildByFieldName("value")

		if key == nil || value == nil || key.Type() != "property_identifier" || value.Type() != "member_expression" {
			return nil, false
		}

		object := value.ChildByFieldName("object")
		property := value.ChildByFieldName("property")

		if object == nil || property == nil || object.Type() != "identifier" || property.Type() != "property_identifier" {
			return nil, false
		}

		if object.Content(src) != param || value.Content(src) != param+"."+property.Content(src) {
			return nil, false
		}

		name := key.Content(src)
		if _, dup := members[name]; dup {
			return nil, false
		}

		members[name] = property.Content(src)
	}

	return members, true
}

// lineIndent returns the leading whitespace of the line containing offset.
func lineIndent(src []byte, offset uint32) string {
	start := int(offset)
	for start > 0 && src[start-1] != '\n' {
		start--
	}

	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}

	return string(src[start:end])
}
