package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/cmd/sodg/internal/build"
	"github.com/haivivi/sodg/pkg/cli"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch formatOutput {
		case "json", "yaml":
			return cli.Output(build.Get(), cli.OutputOptions{Format: cli.OutputFormat(formatOutput), Writer: w})
		}
		fmt.Fprintln(w, build.String())
		if verbose {
			fmt.Fprintf(w, "  go:     %s\n", build.Get().Go)
			fmt.Fprintf(w, "  config: %s\n", getConfig().Path())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
