package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/pkg/cli"
)

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"ls"},
	Short:   "List snapshots",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		metas, err := e.snaps.List(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if format != cli.FormatPretty {
			return cli.Output(metas, cli.OutputOptions{Format: format, Writer: w})
		}
		if len(metas) == 0 {
			cli.PrintInfo(w, "no snapshots")
			return nil
		}
		card := cli.Card{Styles: cli.NewStyles(cli.DefaultTheme), Title: "snapshots"}
		for _, m := range metas {
			card.Fields = append(card.Fields, cli.Field{
				Label: m.Name,
				Value: strconv.Itoa(m.Vertices) + " vertices, updated " + m.Updated.Local().Format(time.DateTime),
			})
		}
		fmt.Fprintln(w, card.Render())
		return nil
	},
}

var snapshotsRmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Remove snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		for _, name := range args {
			if err := e.snaps.Delete(cmd.Context(), name); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "removed %s", name)
		}
		return nil
	},
}

func init() {
	snapshotsCmd.AddCommand(snapshotsRmCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
