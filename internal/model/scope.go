package model

// ScopeFrame describes the traversal state at one function boundary.
// Frames are values; the tracker pushes a new one instead of mutating.
type ScopeFrame struct {
	// InComponent is true once traversal entered a component-like function.
	InComponent bool
	// NestedDepth counts closures nested inside the component body.
	NestedDepth int
}

// ComponentTopLevel reports whether the frame is the component's own body.
func (f ScopeFrame) ComponentTopLevel() bool {
	return f.InComponent && f.NestedDepth == 0
}
