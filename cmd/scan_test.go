package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rendergate.dev/pkg/rendergate/internal/domain"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

func newTestScanCmd() *cobra.Command {
	cmd := newRootCmd()
	cmd.AddCommand(newScanCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	return cmd
}

func TestScanCmd_DefaultsToCurrentDirectory(t *testing.T) {
	wf := &mockWorkflow{}
	useWorkflow(t, wf)

	wf.On("Scan", mock.Anything, mock.MatchedBy(func(args domain.ScanArgs) bool {
		return args.Root == "." &&
			args.ResolveRoot &&
			args.Manifest == "" &&
			!args.Write &&
			args.Template.Name == "" &&
			args.Phase == nil &&
			args.Inference.Provider == defaultFixerProvider
	})).Return(domain.GateResult{}, nil).Once()

	cmd := newTestScanCmd()
	cmd.SetArgs([]string{"scan"})
	require.NoError(t, cmd.Execute())

	wf.AssertExpectations(t)
}

func TestScanCmd_ForwardsFlags(t *testing.T) {
	wf := &mockWorkflow{}
	useWorkflow(t, wf)

	wf.On("Scan", mock.Anything, mock.MatchedBy(func(args domain.ScanArgs) bool {
		return args.Root == "./app" &&
			!args.ResolveRoot &&
			args.Write &&
			args.Output == "out" &&
			args.Report == "gate.yaml" &&
			args.Query == "build a timer" &&
			args.Template.Name == "vite-react" &&
			args.Phase != nil && args.Phase.Name == "implementation" &&
			args.Inference.Provider == "gemini" &&
			args.Inference.Model == "gemini-2.5-pro" &&
			args.Inference.AgentID == "agent-7"
	})).Return(domain.GateResult{}, nil).Once()

	cmd := newTestScanCmd()
	cmd.SetArgs([]string{
		"scan", "./app",
		"--write", "-o", "out", "--report", "gate.yaml",
		"--query", "build a timer", "--template", "vite-react", "--phase", "implementation",
		"--fixer", "gemini", "--model", "gemini-2.5-pro", "--agent-id", "agent-7",
	})
	require.NoError(t, cmd.Execute())

	wf.AssertExpectations(t)
}

func TestScanCmd_Manifest(t *testing.T) {
	wf := &mockWorkflow{}
	useWorkflow(t, wf)

	wf.On("Scan", mock.Anything, mock.MatchedBy(func(args domain.ScanArgs) bool {
		return args.Root == "" && args.Manifest == m.Path("app.yaml")
	})).Return(domain.GateResult{}, nil).Once()

	cmd := newTestScanCmd()
	cmd.SetArgs([]string{"scan", "--manifest", "app.yaml"})
	require.NoError(t, cmd.Execute())

	wf.AssertExpectations(t)
}

func TestScanCmd_ReturnsWorkflowError(t *testing.T) {
	wf := &mockWorkflow{}
	useWorkflow(t, wf)

	wf.On("Scan", mock.Anything, mock.Anything).Return(domain.GateResult{}, errors.New("boom")).Once()

	cmd := newTestScanCmd()
	cmd.SetArgs([]string{"scan", "."})
	assert.EqualError(t, cmd.Execute(), "boom")
}

func TestScanCmd_RejectsExtraArgs(t *testing.T) {
	useWorkflow(t, &mockWorkflow{})

	cmd := newTestScanCmd()
	cmd.SetArgs([]string{"scan", "a", "b"})
	assert.Error(t, cmd.Execute())
}

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []m.FindingKind
	}{
		{"empty", nil, []m.FindingKind{}},
		{"repeated", []string{"module-jsx", "render-setter"}, []m.FindingKind{m.FindingModuleJSX, m.FindingRenderSetter}},
		{"comma separated", []string{"module-jsx, effect-missing-deps,"}, []m.FindingKind{m.FindingModuleJSX, m.FindingEffectMissingDeps}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePatterns(tt.in))
		})
	}
}

func TestNewWorkflow_RejectsUnknownConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"known patterns", []string{"--patterns", "module-jsx,render-setter"}, false},
		{"unknown pattern", []string{"--patterns", "no-such-pattern"}, true},
		{"unknown fixer", []string{"--fixer", "nope"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newScanCmd()
			cmd.SetOut(&bytes.Buffer{})
			require.NoError(t, cmd.ParseFlags(tt.flags))

			wf, err := newWorkflow(cmd)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, wf)
		})
	}
}
