package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rendergate.dev/pkg/rendergate/internal/domain/patterns"
)

const forceFlagName = "force"

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default rendergate.yaml configuration file",
		Long: `Create a rendergate.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually. The detect.patterns list is
written out in full so single patterns can be switched off by removing them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, err := cmd.Flags().GetBool(forceFlagName)
			if err != nil {
				return err
			}

			targetPath := filepath.Join(configFolderPath, configFileName)

			if err := writeInitialConfig(targetPath, force); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("Wrote %s\n", targetPath)

			return nil
		},
	}

	cmd.Flags().Bool(forceFlagName, false, "overwrite an existing configuration file")

	return cmd
}

// writeInitialConfig snapshots the effective settings into a fresh viper
// instance so the written file does not depend on which config was loaded.
func writeInitialConfig(path string, force bool) error {
	out := viper.New()

	for _, key := range viper.AllKeys() {
		out.Set(key, viper.Get(key))
	}

	if len(viper.GetStringSlice(patternsConfigKey)) == 0 {
		kinds := make([]string, len(patterns.DefaultKinds))
		for i, kind := range patterns.DefaultKinds {
			kinds[i] = string(kind)
		}

		out.Set(patternsConfigKey, kinds)
	}

	if force {
		return out.WriteConfigAs(path)
	}

	return out.SafeWriteConfigAs(path)
}

func init() {
	rootCmd.AddCommand(initCmd)
}
