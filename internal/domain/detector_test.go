package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

func TestDetector_ExampleApp(t *testing.T) {
	tree := parseTree(t, "src/App.tsx", exampleSource(t, "unsafe-app", "src", "App.tsx"))

	detector, err := NewDetector()
	require.NoError(t, err)

	findings, err := detector.Detect(context.Background(), tree)
	require.NoError(t, err)

	assert.Equal(t, []m.FindingKind{
		m.FindingModuleJSX,
		m.FindingUnstableSelector,
		m.FindingRenderSetter,
		m.FindingEffectMissingDeps,
	}, kindsOf(findings))

	positions := make([][2]int, 0, len(findings))
	for _, f := range findings {
		positions = append(positions, [2]int{f.Line, f.Column})
	}

	assert.Equal(t, [][2]int{{4, 16}, {8, 17}, {9, 3}, {10, 3}}, positions)
}

func TestDetector_CleanFiles(t *testing.T) {
	detector, err := NewDetector()
	require.NoError(t, err)

	for _, parts := range [][]string{
		{"clean-app", "src", "App.tsx"},
		{"clean-app", "src", "main.jsx"},
		{"unsafe-app", "src", "store.ts"},
	} {
		path := parts[len(parts)-1]
		tree := parseTree(t, path, exampleSource(t, parts...))

		findings, err := detector.Detect(context.Background(), tree)
		require.NoError(t, err)
		assert.Empty(t, findings, path)
	}
}

func TestDetector_ComponentScopes(t *testing.T) {
	src := `const Card = () => {
  setOpen(true);
  return <div onClick={() => setOpen(false)} />;
};

function helper() {
  setOpen(true);
}

const Panel = function () {
  const Inner = () => { setShown(1); };
  setShown(2);
  return null;
};
`
	tree := parseTree(t, "card.tsx", src)

	detector, err := NewDetector(m.FindingRenderSetter)
	require.NoError(t, err)

	findings, err := detector.Detect(context.Background(), tree)
	require.NoError(t, err)

	lines := make([]int, 0, len(findings))
	for _, f := range findings {
		lines = append(lines, f.Line)
	}

	assert.Equal(t, []int{2, 12}, lines)
}

func TestNewDetector_Kinds(t *testing.T) {
	_, err := NewDetector("not-a-pattern")
	assert.Error(t, err)

	detector, err := NewDetector(m.FindingModuleJSX, m.FindingModuleJSX)
	require.NoError(t, err)

	tree := parseTree(t, "a.tsx", "const a = <br />;\nfunction App() { setX(1); }")

	findings, err := detector.Detect(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, []m.FindingKind{m.FindingModuleJSX}, kindsOf(findings))
}

func TestDetector_ClassFieldJSXIsNotModuleScope(t *testing.T) {
	detector, err := NewDetector(m.FindingModuleJSX)
	require.NoError(t, err)

	tree := parseTree(t, "a.tsx", "class A {\n  x = <div />;\n  static y = <br />;\n}")

	findings, err := detector.Detect(context.Background(), tree)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, 3, findings[0].Line)
}

func TestDetector_RecoversFromPanics(t *testing.T) {
	detector, err := NewDetector()
	require.NoError(t, err)

	findings, err := detector.Detect(context.Background(), &adapter.SyntaxTree{Path: "x.tsx"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDetectionFailure)
	assert.Nil(t, findings)

	var pe *PanicError
	assert.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.Stack)
}

func TestDetector_CancelledContext(t *testing.T) {
	detector, err := NewDetector()
	require.NoError(t, err)

	tree := parseTree(t, "a.tsx", "const a = 1;")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = detector.Detect(ctx, tree)
	assert.ErrorIs(t, err, ErrDetectionFailure)
	assert.ErrorIs(t, err, context.Canceled)
}
