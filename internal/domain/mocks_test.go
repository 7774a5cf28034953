package domain

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

type mockFixer struct {
	mock.Mock
}

func (f *mockFixer) Fix(ctx context.Context, file m.SourceFile, fixCtx m.FixContext, phase *m.Phase, issues []string, retries int) (m.SourceFile, error) {
	args := f.Called(ctx, file, fixCtx, phase, issues, retries)

	return args.Get(0).(m.SourceFile), args.Error(1)
}

// fixerFactory counts constructions and hands out fixer.
type fixerFactory struct {
	mu    sync.Mutex
	calls int
	fixer adapter.Fixer
	err   error
	panic any
}

func (f *fixerFactory) build(context.Context, m.Environment, m.InferenceContext) (adapter.Fixer, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.panic != nil {
		panic(f.panic)
	}

	if f.err != nil {
		return nil, f.err
	}

	return f.fixer, nil
}

func (f *fixerFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}


func fixedFile(path m.Path, content string) m.SourceFile {
	return m.SourceFile{Path: path, Content: content}
}
