package patterns

import (
	m "rendergate.dev/pkg/rendergate/internal/model"
)

const moduleJSXMessage = "JSX element created at module scope; move it into a component or a function"

// CheckModuleJSX flags view-template elements evaluated outside any function.
// Instance field initializers are deferred to construction and are not flagged.
func CheckModuleJSX(site Site) []m.Finding {
	switch site.Node.Type() {
	case "jsx_element", "jsx_self_closing_element":
	default:
		return nil
	}

	if site.FunctionDepth != 0 || InInstanceField(site.Node) {
		return nil
	}

	return []m.Finding{At(m.FindingModuleJSX, site.Node, moduleJSXMessage)}
}
