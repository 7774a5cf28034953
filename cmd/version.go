package cmd

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"rendergate.dev/pkg/rendergate/internal/adapter"
	"rendergate.dev/pkg/rendergate/internal/domain/patterns"
)

const grammarModule = "github.com/smacker/go-tree-sitter"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long: `Displays the build version, the Go version, the TSX grammar module, the
pattern catalog and the fixer providers this binary supports.`,
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()

			for _, line := range versionLines(info, ok) {
				cmd.Println(line)
			}
		},
	}
}

// versionLines renders the version report. Unknown build information still
// lists what is compiled into the gate.
func versionLines(info *debug.BuildInfo, ok bool) []string {
	tool, goVersion, grammar := "unknown", "unknown", "unknown"

	if ok && info != nil {
		if info.Main.Version != "" {
			tool = info.Main.Version
		}

		if info.GoVersion != "" {
			goVersion = info.GoVersion
		}

		for _, dep := range info.Deps {
			if dep.Path == grammarModule {
				grammar = dep.Version
				if dep.Replace != nil {
					grammar = dep.Replace.Version
				}
			}
		}
	}

	kinds := make([]string, len(patterns.DefaultKinds))
	for i, kind := range patterns.DefaultKinds {
		kinds[i] = string(kind)
	}

	return []string{
		fmt.Sprintf("tool version\t %s", tool),
		fmt.Sprintf("go version\t %s", goVersion),
		fmt.Sprintf("tsx grammar\t %s %s", grammarModule, grammar),
		fmt.Sprintf("patterns\t %s", strings.Join(kinds, ", ")),
		fmt.Sprintf("fixers\t\t %s, %s", adapter.FixerProviderNone, adapter.FixerProviderGemini),
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
