package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

// RetryBudget is the number of attempts each repair call may spend.
const RetryBudget = 3

// Diagnostic tags.
const (
	TagParse             = "parse"
	TagDetect            = "detect"
	TagCodegen           = "codegen"
	TagEscalateConstruct = "escalate.construct"
	TagEscalateFix       = "escalate.fix"
	TagGate              = "gate"
)

// EscalationInput is the shared, read-only context of one escalation round.
type EscalationInput struct {
	Env        m.Environment
	Inference  m.InferenceContext
	FixContext m.FixContext
	Phase      *m.Phase
}

// Escalator hands files the deterministic pass could not clear to the fixer.
type Escalator interface {
	// Escalate returns one outcome per request, index-aligned. It never fails:
	// an unrepaired outcome carries the request's file unchanged.
	Escalate(ctx context.Context, sink adapter.DiagnosticSink, requests []m.FixRequest, in EscalationInput) []m.FixOutcome
}

type escalator struct {
	factory adapter.FixerFactory
}

// NewEscalator builds an Escalator that constructs fixers with factory.
func NewEscalator(factory adapter.FixerFactory) Escalator {
	return &escalator{factory: factory}
}

// ReasonNoFixer is the fix reason of files left as they were because no fixer is configured.
const ReasonNoFixer = "not escalated: no fixer configured"

func (e *escalator) Escalate(ctx context.Context, sink adapter.DiagnosticSink, requests []m.FixRequest, in EscalationInput) []m.FixOutcome {
	outcomes := make([]m.FixOutcome, len(requests))
	if len(requests) == 0 {
		return outcomes
	}

	fixer, err := e.construct(ctx, in)
	if err != nil {
		reason := err.Error()

		if errors.Is(err, adapter.ErrFixerDisabled) {
			reason = ReasonNoFixer
			slog.InfoContext(ctx, "Escalation skipped", "files", len(requests), "reason", reason)
		} else {
			sink.Record(ctx, m.Diagnostic{Tag: TagEscalateConstruct, Message: reason, Trace: traceOf(err)})
		}

		for i, req := range requests {
			outcomes[i] = m.Unrepaired(req.File, reason)
		}

		return outcomes
	}

	var group errgroup.Group

	for i, req := range requests {
		group.Go(func() error {
			outcomes[i] = e.fix(ctx, sink, fixer, req, in)
			return nil
		})
	}

	_ = group.Wait()

	return outcomes
}

func (e *escalator) construct(ctx context.Context, in EscalationInput) (fixer adapter.Fixer, err error) {
	defer func() {
		if r := recover(); r != nil {
			fixer = nil
			err = fmt.Errorf("%w: %w", ErrFixerConstruction, recovered(r))
		}
	}()

	if e.factory == nil {
		return nil, fmt.Errorf("%w: no fixer factory", ErrFixerConstruction)
	}

	fixer, err = e.factory(ctx, in.Env, in.Inference)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFixerConstruction, err)
	}

	if fixer == nil {
		return nil, fmt.Errorf("%w: factory returned no fixer", ErrFixerConstruction)
	}

	return fixer, nil
}

func (e *escalator) fix(ctx context.Context, sink adapter.DiagnosticSink, fixer adapter.Fixer, req m.FixRequest, in EscalationInput) (outcome m.FixOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %s: %w", ErrFixerCall, req.File.Path, recovered(r))
			sink.Record(ctx, m.Diagnostic{Tag: TagEscalateFix, Path: req.File.Path, Message: err.Error(), Trace: traceOf(err)})
			outcome = m.Unrepaired(req.File, err.Error())
		}
	}()

	issues := m.Issues(req.File.Path, req.Findings)

	fixed, err := fixer.Fix(ctx, req.File, in.FixContext, in.Phase, issues, RetryBudget)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrFixerCall, req.File.Path, err)
		sink.Record(ctx, m.Diagnostic{Tag: TagEscalateFix, Path: req.File.Path, Message: err.Error()})

		return m.Unrepaired(req.File, err.Error())
	}

	if fixed.Path != req.File.Path {
		reason := fmt.Sprintf("%v: fixer returned %q for %q", ErrFixerCall, fixed.Path, req.File.Path)
		sink.Record(ctx, m.Diagnostic{Tag: TagEscalateFix, Path: req.File.Path, Message: reason})

		return m.Unrepaired(req.File, reason)
	}

	slog.DebugContext(ctx, "File repaired", "path", req.File.Path, "issues", len(issues))

	return m.Repaired(req.File.WithContent(fixed.Content))
}
