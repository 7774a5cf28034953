package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rendergate.dev/pkg/rendergate/internal/domain"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

const scanLongDescription = `Run the gate over a generated file set.

The file set is a directory, a YAML manifest (--manifest) or a generator
transcript (--bundle). With no directory the app root is the nearest parent
holding package.json; a file path scans the app that contains it. Files are
only changed on disk with --write; without it the scan is a dry run that
prints the report.`

type scanFlags struct {
	manifest string
	bundle   string
	output   string
	query    string
	template string
	phase    string
	agentID  string
	parallel int
	write    bool
	report   string
	patterns []string
	fixer    string
	model    string
}

var scanOptions scanFlags

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [dir|file]",
		Short: "Detect and repair render-time hazards",
		Long:  scanLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := getWorkflow(cmd)
			if err != nil {
				return err
			}

			_, err = wf.Scan(cmd.Context(), scanArgs(args))

			return err
		},
	}

	configureScanFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func configureScanFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&scanOptions.manifest, "manifest", "", "YAML manifest describing the file set")
	flags.StringVar(&scanOptions.bundle, "bundle", "", "generator transcript to extract the file set from")
	flags.StringVarP(&scanOptions.output, "output", "o", "", "directory for the gate output (default: the scanned directory)")
	flags.StringVar(&scanOptions.query, "query", "", "the user request the files were generated for")
	flags.StringVar(&scanOptions.template, "template", "", "name of the application template")
	flags.StringVar(&scanOptions.phase, "phase", "", "name of the generation phase")
	flags.StringVar(&scanOptions.agentID, "agent-id", "", "agent identifier forwarded to the fixer")

	flags.IntVarP(&scanOptions.parallel, scanParallelFlagName, "p", viper.GetInt(scanParallelConfigKey), "number of files scanned in parallel")
	bindFlagToConfig(flags.Lookup(scanParallelFlagName), scanParallelConfigKey)

	flags.BoolVar(&scanOptions.write, writeFlagName, viper.GetBool(scanWriteConfigKey), "write changed files to disk")
	bindFlagToConfig(flags.Lookup(writeFlagName), scanWriteConfigKey)

	flags.StringVar(&scanOptions.report, reportFlagName, viper.GetString(reportOutputKey), "save the gate report as YAML")
	bindFlagToConfig(flags.Lookup(reportFlagName), reportOutputKey)

	flags.StringSliceVar(&scanOptions.patterns, patternsFlagName, viper.GetStringSlice(patternsConfigKey), "patterns to detect (default: all)")
	bindFlagToConfig(flags.Lookup(patternsFlagName), patternsConfigKey)

	flags.StringVar(&scanOptions.fixer, fixerFlagName, viper.GetString(fixerProviderKey), "fixer provider: none or gemini")
	bindFlagToConfig(flags.Lookup(fixerFlagName), fixerProviderKey)

	flags.StringVar(&scanOptions.model, modelFlagName, viper.GetString(fixerModelKey), "model used by the fixer")
	bindFlagToConfig(flags.Lookup(modelFlagName), fixerModelKey)
}

func scanArgs(args []string) domain.ScanArgs {
	out := domain.ScanArgs{
		Manifest: m.Path(scanOptions.manifest),
		Bundle:   m.Path(scanOptions.bundle),
		Exclude:  viper.GetStringSlice(excludeConfigKey),
		Write:    viper.GetBool(scanWriteConfigKey),
		Output:   m.Path(scanOptions.output),
		Report:   m.Path(viper.GetString(reportOutputKey)),
		Query:    scanOptions.query,
		Env:      fixerEnvironment(),
		Inference: m.InferenceContext{
			Provider: viper.GetString(fixerProviderKey),
			Model:    viper.GetString(fixerModelKey),
			AgentID:  scanOptions.agentID,
		},
	}

	switch {
	case len(args) > 0:
		out.Root = m.Path(args[0])
	case out.Manifest == "" && out.Bundle == "":
		out.Root = "."
		out.ResolveRoot = true
	}

	if scanOptions.template != "" {
		out.Template = m.TemplateDetails{Name: scanOptions.template}
	}

	if scanOptions.phase != "" {
		out.Phase = &m.Phase{Name: scanOptions.phase}
	}

	return out
}
