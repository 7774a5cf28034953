package domain

import (
	sitter "github.com/smacker/go-tree-sitter"

	"rendergate.dev/pkg/rendergate/internal/domain/patterns"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

// ScopeTracker keeps the component-scope frames of the branch being walked
// plus a depth counter for every enclosing function.
type ScopeTracker struct {
	frames        []m.ScopeFrame
	functionDepth int
}

// NewScopeTracker returns a tracker positioned at module scope.
func NewScopeTracker() *ScopeTracker {
	return &ScopeTracker{}
}

// Current returns the innermost frame, or the module-scope frame.
func (s *ScopeTracker) Current() m.ScopeFrame {
	if len(s.frames) == 0 {
		return m.ScopeFrame{}
	}

	return s.frames[len(s.frames)-1]
}

// FunctionDepth returns the number of enclosing functions of any kind.
func (s *ScopeTracker) FunctionDepth() int {
	return s.functionDepth
}

// Depth returns the number of pushed frames.
func (s *ScopeTracker) Depth() int {
	return len(s.frames)
}

// Enter pushes the frame for a function-like node and returns it.
func (s *ScopeTracker) Enter(node *sitter.Node, src []byte) m.ScopeFrame {
	parent := s.Current()

	var frame m.ScopeFrame

	switch {
	case parent.InComponent:
		frame = m.ScopeFrame{InComponent: true, NestedDepth: parent.NestedDepth + 1}
	case patterns.IsComponentLike(node, src):
		frame = m.ScopeFrame{InComponent: true}
	}

	s.frames = append(s.frames, frame)
	s.functionDepth++

	return frame
}

// Exit pops the innermost frame, restoring the enclosing one.
func (s *ScopeTracker) Exit() {
	if len(s.frames) == 0 {
		return
	}

	s.frames = s.frames[:len(s.frames)-1]
	s.functionDepth--
}
