// Package cmd provides the root command and CLI setup for rendergate.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	"rendergate.dev/pkg/rendergate/internal/controller"
	"rendergate.dev/pkg/rendergate/internal/domain"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

var tsxAdapter adapter.TSXFileAdapter
var fsAdapter adapter.SourceFSAdapter
var yamlStore *adapter.LocalYAMLStore
var diagnosticSink adapter.DiagnosticSink

// workflow is built from configuration on first use; tests replace it.
var workflow domain.Workflow

var verboseFlag bool
var logFileFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	tsxAdapter = adapter.NewLocalTSXFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	yamlStore = adapter.NewLocalYAMLStore()
	diagnosticSink = adapter.NewSlogDiagnosticSink()
}

const rootLongDescription = `Rendergate is a pre-deploy gate for generated React applications.

It parses every .ts, .tsx, .js and .jsx file, detects patterns that crash or
loop at render time, rewrites the ones it can fix deterministically and asks
a fixer to repair the rest. Files that cannot be repaired are returned as they
were, so the gate never blocks a deploy.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rendergate",
		Short: "Pre-deploy gate for generated React apps",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log-file"), logFilenameKey)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// getWorkflow returns the configured workflow, building it on first use.
func getWorkflow(cmd *cobra.Command) (domain.Workflow, error) {
	if workflow != nil {
		return workflow, nil
	}

	wf, err := newWorkflow(cmd)
	if err != nil {
		return nil, err
	}

	workflow = wf

	return workflow, nil
}

func newWorkflow(cmd *cobra.Command) (domain.Workflow, error) {
	detector, err := domain.NewDetector(parsePatterns(viper.GetStringSlice(patternsConfigKey))...)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}

	factory, err := adapter.NewFixerFactory(viper.GetString(fixerProviderKey))
	if err != nil {
		return nil, fmt.Errorf("fixer: %w", err)
	}

	gate := domain.NewGate(domain.GateDeps{
		Parser:    tsxAdapter,
		Detector:  detector,
		Rewriter:  domain.NewSelectorSplitter(),
		Codegen:   domain.NewCodeGenerator(tsxAdapter),
		Escalator: domain.NewEscalator(factory),
		Sink:      diagnosticSink,
	}, viper.GetInt(scanParallelConfigKey))

	ui := controller.NewUI(cmd, controller.IsTTY(cmd.OutOrStdout()))

	return domain.NewWorkflow(fsAdapter, yamlStore, yamlStore, ui, gate), nil
}

// parsePatterns accepts repeated and comma separated pattern names.
func parsePatterns(values []string) []m.FindingKind {
	kinds := make([]m.FindingKind, 0, len(values))

	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				kinds = append(kinds, m.FindingKind(name))
			}
		}
	}

	return kinds
}
