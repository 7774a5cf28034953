package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

const (
	// FixerProviderNone disables escalation.
	FixerProviderNone = "none"
	// FixerProviderGemini escalates to a Gemini model through google.golang.org/genai.
	FixerProviderGemini = "gemini"
)

// ErrFixerDisabled is returned by the factory of the "none" provider.
var ErrFixerDisabled = errors.New("fixer disabled")

// Fixer is the external, model-driven repair capability.
type Fixer interface {
	// Fix returns a replacement for file that addresses issues. retries is the
	// budget the fixer may spend internally before giving up.
	Fix(ctx context.Context, file m.SourceFile, fixCtx m.FixContext, phase *m.Phase, issues []string, retries int) (m.SourceFile, error)
}

// FixerFactory constructs a Fixer bound to the environment and inference context.
type FixerFactory func(ctx context.Context, env m.Environment, inference m.InferenceContext) (Fixer, error)

// FixerFunc adapts a function to the Fixer interface.
type FixerFunc func(ctx context.Context, file m.SourceFile, fixCtx m.FixContext, phase *m.Phase, issues []string, retries int) (m.SourceFile, error)

// Fix calls f.
func (f FixerFunc) Fix(ctx context.Context, file m.SourceFile, fixCtx m.FixContext, phase *m.Phase, issues []string, retries int) (m.SourceFile, error) {
	return f(ctx, file, fixCtx, phase, issues, retries)
}

// DisabledFixerFactory always fails construction, which makes the gate skip escalation.
func DisabledFixerFactory(context.Context, m.Environment, m.InferenceContext) (Fixer, error) {
	return nil, ErrFixerDisabled
}

// NewFixerFactory resolves a provider name to its factory.
func NewFixerFactory(provider string) (FixerFactory, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", FixerProviderNone:
		return DisabledFixerFactory, nil
	case FixerProviderGemini:
		return NewGeminiFixerFactory(), nil
	default:
		return nil, fmt.Errorf("unsupported fixer provider: %s", provider)
	}
}
