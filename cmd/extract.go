package cmd

import (
	"github.com/spf13/cobra"

	"rendergate.dev/pkg/rendergate/internal/domain"
	m "rendergate.dev/pkg/rendergate/internal/model"
)

var extractOutputFlag string

// extractCmd represents the extract command.
var extractCmd = newExtractCmd()

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <transcript>",
		Short: "Extract generated files from a model transcript",
		Long: `Recover the files a generator embedded in its transcript, either as shell
heredocs or as "#### filePath" / "#### fileContents" blocks. Paths that appear
more than once are kept with _v1, _v2 suffixes. Without --output the files are
only listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := getWorkflow(cmd)
			if err != nil {
				return err
			}

			_, err = wf.Extract(cmd.Context(), domain.ExtractArgs{
				Transcript: m.Path(args[0]),
				Output:     m.Path(extractOutputFlag),
			})

			return err
		},
	}

	cmd.Flags().StringVarP(&extractOutputFlag, "output", "o", "", "directory to write the extracted files to")

	return cmd
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
