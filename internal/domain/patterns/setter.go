package patterns

import (
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

var setterName = regexp.MustCompile(`^set[A-Z]`)

// IsSetterCall reports whether n calls an identifier named like a state setter.
func IsSetterCall(n *sitter.Node, src []byte) bool {
	name, ok := CalleeIdentifier(n, src)
	return ok && setterName.MatchString(name)
}

// CheckRenderSetter flags state setters called directly in a component body.
func CheckRenderSetter(site Site) []m.Finding {
	if !site.Frame.ComponentTopLevel() || !IsSetterCall(site.Node, site.Source) {
		return nil
	}

	name, _ := CalleeIdentifier(site.Node, site.Source)

	return []m.Finding{At(m.FindingRenderSetter, site.Node,
		"state setter "+name+"() called during render; move it into an event handler or useEffect")}
}
