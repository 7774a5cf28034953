package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

func parseTree(t *testing.T, path, src string) *adapter.SyntaxTree {
	t.Helper()

	tree, err := adapter.NewLocalTSXFileAdapter().Parse(context.Background(), m.Path(path), []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	return tree
}

func exampleSource(t *testing.T, parts ...string) string {
	t.Helper()

	path := filepath.Join(append([]string{"..", "..", "examples"}, parts...)...)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func kindsOf(findings []m.Finding) []m.FindingKind {
	kinds := make([]m.FindingKind, 0, len(findings))
	for _, f := range findings {
		kinds = append(kinds, f.Kind)
	}

	return kinds
}
