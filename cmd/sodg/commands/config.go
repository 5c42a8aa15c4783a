package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration contexts",
	Long: `Manage configuration contexts. A context holds defaults for the global
flags; flags given on the command line always win.

Keys: ` + strings.Join(cli.ContextKeys, ", ") + `

Examples:
  sodg config set store sqlite
  sodg config use ci
  sodg config show`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		cfg.Current()
		format, err := outputFormat()
		if err != nil {
			return err
		}
		if format == cli.FormatPretty || format == cli.FormatRaw {
			format = cli.FormatYAML
		}
		return cli.Output(cfg, cli.OutputOptions{Format: format, Writer: cmd.OutOrStdout()})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key of the current context",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		ctx := cfg.Current()
		if args[0] == "format" {
			if _, err := cli.ParseFormat(args[1]); err != nil {
				return err
			}
		}
		if err := ctx.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "%s.%s = %s", ctx.Name, args[0], args[1])
		return nil
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use <context>",
	Short: "Switch the current context, creating it if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		cfg.UseContext(args[0])
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "using context %s", args[0])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), getConfig().Path())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configUseCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
