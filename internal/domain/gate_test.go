package domain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

const (
	directSelector = `export function Cart() {
  const totals = useStore(s => ({ sum: s.sum, count: s.count }));
  return <p>{totals.sum}</p>;
}
`
	destructuringSelector = `export function Cart() {
  const { sum, count } = useStore(s => ({ sum: s.sum, count: s.count }));
  return <p>{sum} / {count}</p>;
}
`
	destructuringSelectorSplit = `export function Cart() {
  const sum = useStore(s => s.sum);
  const count = useStore(s => s.count);
  return <p>{sum} / {count}</p>;
}
`
	renderSetter = `export default function Counter() {
  const [n, setN] = useState(0);
  setN(n + 1);
  return <span>{n}</span>;
}
`
	effectWithoutDeps = `export const Clock = () => {
  const [now, setNow] = useState(Date.now());
  useEffect(() => {
    setNow(Date.now());
  });
  return <time>{now}</time>;
};
`
	effectWithDeps = `export const Clock = () => {
  const [now, setNow] = useState(Date.now());
  useEffect(() => {
    setNow(Date.now());
  }, []);
  return <time>{now}</time>;
};
`
	splitAndSetter = `export function Cart() {
  const { sum } = useStore(s => ({ sum: s.sum }));
  setTotal(sum);
  return null;
}
`
	invalidSource = "export function Broken( {\n  return <div>\n"
)

type testGate struct {
	Gate
	factory *fixerFactory
	fixer   *mockFixer
	sink    *adapter.MemoryDiagnosticSink
}

func newTestGate(t *testing.T) *testGate {
	t.Helper()

	detector, err := NewDetector()
	require.NoError(t, err)

	parser := adapter.NewLocalTSXFileAdapter()
	fixer := &mockFixer{}
	factory := &fixerFactory{fixer: fixer}
	sink := &adapter.MemoryDiagnosticSink{}

	gate := NewGate(GateDeps{
		Parser:    parser,
		Detector:  detector,
		Rewriter:  NewSelectorSplitter(),
		Codegen:   NewCodeGenerator(parser),
		Escalator: NewEscalator(factory.build),
		Sink:      sink,
	}, 4)

	return &testGate{Gate: gate, factory: factory, fixer: fixer, sink: sink}
}

func (g *testGate) expectFix(path m.Path, content string) {
	g.fixer.On("Fix", mock.Anything, mock.MatchedBy(func(f m.SourceFile) bool { return f.Path == path }),
		mock.Anything, mock.Anything, mock.Anything, RetryBudget).
		Return(m.SourceFile{Path: path, Content: content}, nil).Once()
}

func run(g *testGate, files ...m.SourceFile) GateResult {
	return g.Run(context.Background(), GateInput{Files: files, Query: "build", Template: m.TemplateDetails{Name: "vite-react"}})
}

func paths(files []m.SourceFile) []m.Path {
	out := make([]m.Path, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}

	return out
}

func TestGate_EmptyInput(t *testing.T) {
	g := newTestGate(t)

	result := run(g)

	assert.NotNil(t, result.Files)
	assert.Empty(t, result.Files)
	assert.Equal(t, 0, g.factory.Calls())
	g.fixer.AssertNotCalled(t, "Fix", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGate_NonScriptFilesPassThrough(t *testing.T) {
	g := newTestGate(t)
	files := []m.SourceFile{
		{Path: "src/index.css", Content: "const x = <div />;"},
		{Path: "README.md", Content: "# app"},
		{Path: "package.json", Content: "{}"},
	}

	result := run(g, files...)

	assert.Equal(t, files, result.Files)
	for _, report := range result.Report.Files {
		assert.True(t, report.Skipped)
	}

	assert.Equal(t, 0, g.factory.Calls())
}

func TestGate_DirectSelectorIsEscalated(t *testing.T) {
	g := newTestGate(t)
	g.expectFix("src/Cart.tsx", "fixed")

	result := run(g, m.SourceFile{Path: "src/Cart.tsx", Content: directSelector})

	require.Len(t, result.Files, 1)
	assert.Equal(t, "fixed", result.Files[0].Content)
	assert.Equal(t, 1, g.factory.Calls())
	g.fixer.AssertNumberOfCalls(t, "Fix", 1)

	report := result.Report.Files[0]
	assert.Equal(t, []m.FindingKind{m.FindingUnstableSelector}, kindsOf(report.Initial))
	assert.False(t, report.Rewritten)
	assert.True(t, report.Escalated)
	assert.True(t, report.Repaired)
	assert.Equal(t, "repaired", report.Status())
}

func TestGate_DestructuringSelectorIsRewritten(t *testing.T) {
	g := newTestGate(t)

	result := run(g, m.SourceFile{Path: "src/Cart.tsx", Content: destructuringSelector})

	require.Len(t, result.Files, 1)
	assert.Equal(t, destructuringSelectorSplit, result.Files[0].Content)
	assert.Equal(t, 0, g.factory.Calls())
	g.fixer.AssertNotCalled(t, "Fix", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	report := result.Report.Files[0]
	assert.True(t, report.Rewritten)
	assert.Empty(t, report.Remaining)
	assert.Equal(t, "rewritten", report.Status())
}

func TestGate_RenderSetterIsEscalated(t *testing.T) {
	g := newTestGate(t)
	g.expectFix("src/Counter.jsx", "fixed counter")

	result := run(g, m.SourceFile{Path: "src/Counter.jsx", Content: renderSetter})

	assert.Equal(t, "fixed counter", result.Files[0].Content)
	g.fixer.AssertNumberOfCalls(t, "Fix", 1)
	assert.Equal(t, []m.FindingKind{m.FindingRenderSetter}, kindsOf(result.Report.Files[0].Initial))
}

func TestGate_EffectDependencies(t *testing.T) {
	t.Run("without deps", func(t *testing.T) {
		g := newTestGate(t)
		g.expectFix("src/Clock.tsx", "fixed clock")

		result := run(g, m.SourceFile{Path: "src/Clock.tsx", Content: effectWithoutDeps})

		assert.Equal(t, "fixed clock", result.Files[0].Content)
		g.fixer.AssertNumberOfCalls(t, "Fix", 1)
	})

	t.Run("with deps", func(t *testing.T) {
		g := newTestGate(t)

		result := run(g, m.SourceFile{Path: "src/Clock.tsx", Content: effectWithDeps})

		assert.Equal(t, effectWithDeps, result.Files[0].Content)
		assert.Equal(t, 0, g.factory.Calls())
		assert.Equal(t, "clean", result.Report.Files[0].Status())
	})
}

func TestGate_InvalidSourceIsUnchanged(t *testing.T) {
	g := newTestGate(t)

	result := run(g, m.SourceFile{Path: "src/Broken.tsx", Content: invalidSource})

	require.Len(t, result.Files, 1)
	assert.Equal(t, invalidSource, result.Files[0].Content)
	assert.Equal(t, 0, g.factory.Calls())
	assert.Equal(t, []string{TagParse}, g.sink.Tags())

	report := result.Report.Files[0]
	assert.False(t, report.Parsed)
	require.Len(t, report.Initial, 1)
	assert.Equal(t, m.FindingParseFailure, report.Initial[0].Kind)
	assert.Equal(t, m.ParseFailureMessage, report.Initial[0].Message)
	assert.Equal(t, result.Report.Diagnostics, g.sink.Diagnostics())
}

func TestGate_ConstructionFailureKeepsDeterministicContent(t *testing.T) {
	g := newTestGate(t)
	g.factory.err = errors.New("no api key")

	result := run(g,
		m.SourceFile{Path: "src/Cart.tsx", Content: splitAndSetter},
		m.SourceFile{Path: "src/Counter.tsx", Content: renderSetter},
	)

	require.Len(t, result.Files, 2)
	assert.Equal(t, 1, g.factory.Calls())
	g.fixer.AssertNotCalled(t, "Fix", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	assert.Contains(t, result.Files[0].Content, "const sum = useStore(s => s.sum);")
	assert.Contains(t, result.Files[0].Content, "setTotal(sum);")
	assert.Equal(t, renderSetter, result.Files[1].Content)
	assert.Equal(t, []string{TagEscalateConstruct}, g.sink.Tags())

	for _, report := range result.Report.Files {
		assert.True(t, report.Escalated)
		assert.False(t, report.Repaired)
		assert.Equal(t, "unrepaired", report.Status())
	}
}

func TestGate_PerFileFailuresAreIsolated(t *testing.T) {
	g := newTestGate(t)

	g.fixer.On("Fix", mock.Anything, mock.MatchedBy(func(f m.SourceFile) bool { return f.Path == "src/Cart.tsx" }),
		mock.Anything, mock.Anything, mock.Anything, RetryBudget).
		Return(m.SourceFile{}, errors.New("rejected")).Once()
	g.fixer.On("Fix", mock.Anything, mock.MatchedBy(func(f m.SourceFile) bool { return f.Path == "src/Clock.tsx" }),
		mock.Anything, mock.Anything, mock.Anything, RetryBudget).
		Run(func(mock.Arguments) { panic("synchronous failure") }).
		Return(m.SourceFile{}, nil).Once()
	g.expectFix("src/Counter.tsx", "fixed counter")

	result := run(g,
		m.SourceFile{Path: "src/Cart.tsx", Content: splitAndSetter},
		m.SourceFile{Path: "src/Clock.tsx", Content: effectWithoutDeps},
		m.SourceFile{Path: "src/Counter.tsx", Content: renderSetter},
		m.SourceFile{Path: "src/index.css", Content: "body {}"},
	)

	require.Len(t, result.Files, 4)
	assert.Equal(t, []m.Path{"src/Cart.tsx", "src/Clock.tsx", "src/Counter.tsx", "src/index.css"}, paths(result.Files))

	assert.Contains(t, result.Files[0].Content, "const sum = useStore(s => s.sum);", "rejected file keeps its deterministic-pass content")
	assert.Equal(t, effectWithoutDeps, result.Files[1].Content)
	assert.Equal(t, "fixed counter", result.Files[2].Content)
	assert.Equal(t, "body {}", result.Files[3].Content)

	assert.ElementsMatch(t, []string{TagEscalateFix, TagEscalateFix}, g.sink.Tags())
	g.fixer.AssertExpectations(t)
}

type panicDetector struct{}

func (panicDetector) Detect(context.Context, *adapter.SyntaxTree) ([]m.Finding, error) {
	panic("detector bug")
}

type panicEscalator struct{}

func (panicEscalator) Escalate(context.Context, adapter.DiagnosticSink, []m.FixRequest, EscalationInput) []m.FixOutcome {
	panic("escalator bug")
}

func TestGate_UnexpectedFailuresReturnInput(t *testing.T) {
	parser := adapter.NewLocalTSXFileAdapter()
	detector, err := NewDetector()
	require.NoError(t, err)

	files := []m.SourceFile{
		{Path: "src/Cart.tsx", Content: destructuringSelector},
		{Path: "src/Counter.tsx", Content: renderSetter},
	}

	tests := map[string]GateDeps{
		"scan worker": {Parser: parser, Detector: panicDetector{}, Rewriter: NewSelectorSplitter(), Codegen: NewCodeGenerator(parser), Escalator: panicEscalator{}},
		"orchestrator": {Parser: parser, Detector: detector, Rewriter: NewSelectorSplitter(), Codegen: NewCodeGenerator(parser), Escalator: panicEscalator{}},
	}

	for name, deps := range tests {
		t.Run(name, func(t *testing.T) {
			sink := &adapter.MemoryDiagnosticSink{}
			deps.Sink = sink

			result := NewGate(deps, 2).Run(context.Background(), GateInput{Files: files})

			assert.Equal(t, files, result.Files)
			assert.True(t, result.Report.FellBack)
			assert.Len(t, result.Report.Files, len(files))
			assert.Contains(t, sink.Tags(), TagGate)
		})
	}
}

type failingCodegen struct{}

func (failingCodegen) Generate(context.Context, m.Path, []byte, []Edit) (*adapter.SyntaxTree, error) {
	return nil, errors.New("cannot render")
}

func TestGate_CodegenFailureReverts(t *testing.T) {
	parser := adapter.NewLocalTSXFileAdapter()
	detector, err := NewDetector()
	require.NoError(t, err)

	sink := &adapter.MemoryDiagnosticSink{}
	factory := &fixerFactory{err: adapter.ErrFixerDisabled}

	gate := NewGate(GateDeps{
		Parser:    parser,
		Detector:  detector,
		Rewriter:  NewSelectorSplitter(),
		Codegen:   failingCodegen{},
		Escalator: NewEscalator(factory.build),
		Sink:      sink,
	}, 1)

	result := gate.Run(context.Background(), GateInput{Files: []m.SourceFile{{Path: "src/Cart.tsx", Content: destructuringSelector}}})

	assert.Equal(t, destructuringSelector, result.Files[0].Content)
	assert.False(t, result.Report.Files[0].Rewritten)
	assert.True(t, result.Report.Files[0].Escalated)
	assert.Equal(t, []string{TagCodegen}, sink.Tags())
	assert.Contains(t, sink.Diagnostics()[0].Message, ErrCodegenFailure.Error())
}

func TestGate_ForwardsFixContext(t *testing.T) {
	g := newTestGate(t)
	phase := &m.Phase{Name: "polish"}
	template := m.TemplateDetails{Name: "vite-react", Frameworks: []string{"react"}}

	g.fixer.On("Fix", mock.Anything, m.SourceFile{Path: "src/Counter.tsx", Content: renderSetter},
		m.FixContext{Query: "counter", Template: template}, phase,
		[]string{"src/Counter.tsx:3:3 - state setter setN() called during render; move it into an event handler or useEffect"},
		RetryBudget).
		Return(m.SourceFile{Path: "src/Counter.tsx", Content: "ok"}, nil).Once()

	result := g.Run(context.Background(), GateInput{
		Files:    []m.SourceFile{{Path: "src/Counter.tsx", Content: renderSetter}},
		Query:    "counter",
		Template: template,
		Phase:    phase,
	})

	assert.Equal(t, "ok", result.Files[0].Content)
	g.fixer.AssertExpectations(t)
}

func FuzzGate_PreservesFiles(f *testing.F) {
	for _, seed := range []string{
		"", directSelector, destructuringSelector, renderSetter, effectWithoutDeps,
		invalidSource, "\xff\xfe", "const a = <", "({ ...",
		strings.Repeat("(", 64),
	} {
		f.Add("src/App.tsx", seed)
		f.Add("src/util.ts", seed)
	}

	f.Fuzz(func(t *testing.T, path, content string) {
		g := newTestGate(t)
		g.fixer.On("Fix", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, RetryBudget).
			Return(m.SourceFile{}, errors.New("fuzz fixer"))

		files := []m.SourceFile{
			{Path: m.Path(path), Content: content},
			{Path: "static/info.txt", Content: content},
		}

		result := g.Run(context.Background(), GateInput{Files: files})

		if len(result.Files) != len(files) {
			t.Fatalf("expected %d files, got %d", len(files), len(result.Files))
		}

		for i := range files {
			if result.Files[i].Path != files[i].Path {
				t.Fatalf("file %d: path %q became %q", i, files[i].Path, result.Files[i].Path)
			}
		}

		if result.Files[1].Content != content {
			t.Fatalf("non-script content changed")
		}
	})
}
