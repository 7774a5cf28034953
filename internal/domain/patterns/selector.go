package patterns

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

var derivingMethods = map[string]bool{
	"map":    true,
	"filter": true,
	"reduce": true,
	"sort":   true,
	"slice":  true,
	"concat": true,
}

var objectStatics = map[string]bool{
	"values":  true,
	"keys":    true,
	"entries": true,
}

// CheckUnstableSelector flags use*(selector) calls whose selector returns a
// freshly allocated value, which makes external-store subscriptions loop.
func CheckUnstableSelector(site Site) []m.Finding {
	hook, ok := CalleeIdentifier(site.Node, site.Source)
	if !ok || !IsHookName(hook) {
		return nil
	}

	args := CallArguments(site.Node)
	if len(args) == 0 || !IsFunctionExpression(args[0]) {
		return nil
	}

	selector := args[0]
	param := SelectorParam(selector, site.Source)

	for _, expr := range EffectiveReturns(selector) {
		if reason := unstableReason(expr, param, site.Source); reason != "" {
			return []m.Finding{At(m.FindingUnstableSelector, site.Node,
				fmt.Sprintf("selector passed to %s() returns %s on every call; select each value separately", hook, reason))}
		}
	}

	return nil
}

// EffectiveReturns returns the expressions fn can return, with wrappers
// stripped. Returns inside nested functions are not fn's own.
func EffectiveReturns(fn *sitter.Node) []*sitter.Node {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	if body.Type() != "statement_block" {
		return []*sitter.Node{Unwrap(body)}
	}

	var returns []*sitter.Node

	Walk(body, func(n *sitter.Node) bool {
		if IsFunctionLike(n) || n.Type() == "class_declaration" || n.Type() == "class" {
			return false
		}

		if n.Type() == "return_statement" {
			if children := NamedChildren(n); len(children) > 0 {
				returns = append(returns, Unwrap(children[0]))
			}

			return false
		}

		return true
	})

	return returns
}

// SelectorParam returns the name of fn's first parameter when it is a plain identifier.
func SelectorParam(fn *sitter.Node, src []byte) string {
	if param := fn.ChildByFieldName("parameter"); param != nil {
		if param.Type() == "identifier" {
			return param.Content(src)
		}

		return ""
	}

	params := NamedChildren(fn.ChildByFieldName("parameters"))
	if len(params) == 0 {
		return ""
	}

	first := params[0]
	if first.Type() == "required_parameter" || first.Type() == "optional_parameter" {
		first = first.ChildByFieldName("pattern")
	}

	if first == nil || first.Type() != "identifier" {
		return ""
	}

	return first.Content(src)
}

func unstableReason(expr *sitter.Node, param string, src []byte) string {
	if expr == nil {
		return ""
	}

	switch expr.Type() {
	case "object":
		return "a new object"
	case "array":
		return "a new array"
	case "call_expression":
	default:
		return ""
	}

	callee := Unwrap(expr.ChildByFieldName("function"))
	if callee == nil || callee.Type() != "member_expression" {
		return ""
	}

	object := Unwrap(callee.ChildByFieldName("object"))
	property := callee.ChildByFieldName("property")

	if object == nil || property == nil {
		return ""
	}

	name := property.Content(src)

	if object.Type() == "identifier" && object.Content(src) == "Object" && objectStatics[name] {
		return "a new array from Object." + name + "()"
	}

	if derivingMethods[name] && param != "" && isMemberOf(object, param, src) {
		return "a new array from ." + name + "()"
	}

	return ""
}

// isMemberOf reports whether n is a property access chain rooted at the identifier root.
func isMemberOf(n *sitter.Node, root string, src []byte) bool {
	n = Unwrap(n)
	if n == nil {
		return false
	}

	switch n.Type() {
	case "member_expression", "subscript_expression":
	default:
		return false
	}

	for n != nil {
		switch n.Type() {
		case "member_expression", "subscript_expression":
			n = Unwrap(n.ChildByFieldName("object"))
		case "identifier":
			return n.Content(src) == root
		default:
			return false
		}
	}

	return false
}
