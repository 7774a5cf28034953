package patterns

import (
	sitter "github.com/smacker/go-tree-sitter"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

const effectMessage = "useEffect without a dependency array sets state; it re-runs after every render"

// CheckEffectMissingDeps flags useEffect(fn) calls, with no dependency list,
// whose callback sets state anywhere in its body.
func CheckEffectMissingDeps(site Site) []m.Finding {
	if !isEffectCall(site.Node, site.Source) {
		return nil
	}

	args := CallArguments(site.Node)
	if len(args) != 1 || !IsFunctionExpression(args[0]) {
		return nil
	}

	if !containsSetterCall(args[0].ChildByFieldName("body"), site.Source) {
		return nil
	}

	return []m.Finding{At(m.FindingEffectMissingDeps, site.Node, effectMessage)}
}

func isEffectCall(n *sitter.Node, src []byte) bool {
	if n == nil || n.Type() != "call_expression" {
		return false
	}

	callee := n.ChildByFieldName("function")
	if callee == nil {
		return false
	}

	switch callee.Type() {
	case "identifier":
		return callee.Content(src) == "useEffect"
	case "member_expression":
		property := callee.ChildByFieldName("property")
		return property != nil && property.Content(src) == "useEffect"
	}

	return false
}

func containsSetterCall(body *sitter.Node, src []byte) bool {
	found := false

	Walk(body, func(n *sitter.Node) bool {
		if found {
			return false
		}

		if IsSetterCall(n, src) {
			found = true
			return false
		}

		return true
	})

	return found
}
