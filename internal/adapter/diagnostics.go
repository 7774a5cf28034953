package adapter

import (
	"context"
	"log/slog"
	"sync"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

// DiagnosticSink receives every non-fatal error the gate recovers from.
type DiagnosticSink interface {
	Record(ctx context.Context, diagnostic m.Diagnostic)
}

// SlogDiagnosticSink writes diagnostics to the default slog logger.
type SlogDiagnosticSink struct{}

// NewSlogDiagnosticSink constructs a SlogDiagnosticSink.
func NewSlogDiagnosticSink() *SlogDiagnosticSink {
	return &SlogDiagnosticSink{}
}

// Record logs the diagnostic at warn level.
func (s *SlogDiagnosticSink) Record(ctx context.Context, d m.Diagnostic) {
	attrs := []any{"tag", d.Tag, "error", d.Message}
	if d.Path != "" {
		attrs = append(attrs, "path", d.Path)
	}

	if d.Trace != "" {
		attrs = append(attrs, "trace", d.Trace)
	}

	slog.WarnContext(ctx, "Gate diagnostic", attrs...)
}

// MemoryDiagnosticSink collects diagnostics in memory. It is safe for concurrent use.
type MemoryDiagnosticSink struct {
	mu          sync.Mutex
	diagnostics []m.Diagnostic
}

// Record appends the diagnostic.
func (s *MemoryDiagnosticSink) Record(_ context.Context, d m.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.diagnostics = append(s.diagnostics, d)
}

// Diagnostics returns a copy of everything recorded so far.
func (s *MemoryDiagnosticSink) Diagnostics() []m.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]m.Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)

	return out
}

// Tags returns the tags of everything recorded so far, in order.
func (s *MemoryDiagnosticSink) Tags() []string {
	diagnostics := s.Diagnostics()

	tags := make([]string, 0, len(diagnostics))
	for _, d := range diagnostics {
		tags = append(tags, d.Tag)
	}

	return tags
}
