package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/pkg/cli"
	"github.com/haivivi/sodg/pkg/snapshot"
)

var cloneForce bool

var cloneCmd = &cobra.Command{
	Use:   "clone <src> <dst>",
	Short: "Copy a snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		if !cloneForce {
			_, err := e.snaps.Stat(ctx, args[1])
			if err == nil {
				return fmt.Errorf("snapshot %s already exists (use --force)", args[1])
			}
			if !errors.Is(err, snapshot.ErrNotFound) {
				return err
			}
		}
		g, err := e.snaps.Load(ctx, args[0])
		if err != nil {
			return err
		}
		meta, err := e.snaps.Save(ctx, args[1], g.Clone())
		if err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "cloned %s to %s (%d vertices)", args[0], meta.Name, meta.Vertices)
		return nil
	},
}

func init() {
	cloneCmd.Flags().BoolVar(&cloneForce, "force", false, "overwrite dst")
	rootCmd.AddCommand(cloneCmd)
}
