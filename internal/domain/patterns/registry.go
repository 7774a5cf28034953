package patterns

import (
	m "rendergate.dev/pkg/rendergate/internal/model"
)

// DefaultKinds lists every pattern class in detection order.
var DefaultKinds = []m.FindingKind{
	m.FindingModuleJSX,
	m.FindingUnstableSelector,
	m.FindingRenderSetter,
	m.FindingEffectMissingDeps,
}

// Registry maps each pattern class to its checker.
var Registry = map[m.FindingKind]Checker{
	m.FindingModuleJSX:         CheckModuleJSX,
	m.FindingUnstableSelector:  CheckUnstableSelector,
	m.FindingRenderSetter:      CheckRenderSetter,
	m.FindingEffectMissingDeps: CheckEffectMissingDeps,
}
