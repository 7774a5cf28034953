package cmd

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rendergate.dev/pkg/rendergate/internal/domain"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

type mockWorkflow struct {
	mock.Mock
}

func (w *mockWorkflow) Scan(ctx context.Context, args domain.ScanArgs) (domain.GateResult, error) {
	ret := w.Called(ctx, args)
	return ret.Get(0).(domain.GateResult), ret.Error(1)
}

func (w *mockWorkflow) Extract(ctx context.Context, args domain.ExtractArgs) (m.Bundle, error) {
	ret := w.Called(ctx, args)
	return ret.Get(0).(m.Bundle), ret.Error(1)
}

// useWorkflow swaps the package workflow for the duration of the test.
func useWorkflow(t interface{ Cleanup(func()) }, wf domain.Workflow) {
	original := workflow
	workflow = wf

	t.Cleanup(func() { workflow = original })
}
