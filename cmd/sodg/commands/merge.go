package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/pkg/cli"
)

var (
	mergeLeft  uint32
	mergeRight uint32
)

var mergeCmd = &cobra.Command{
	Use:   "merge <dst> <src>",
	Short: "Merge one snapshot into another",
	Long: `Merge snapshot src into snapshot dst, starting from the pair (left, right):
vertex right of src is identified with vertex left of dst, and everything
reachable from it is copied across, reusing vertices reached by the same
edge labels. Only dst is written.

Examples:
  sodg merge main lib
  sodg merge main lib --left 7 --right 0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		dst, err := e.snaps.Load(ctx, args[0])
		if err != nil {
			return err
		}
		src, err := e.snaps.Load(ctx, args[1])
		if err != nil {
			return err
		}
		before := dst.Len()
		if err := dst.Merge(src, mergeLeft, mergeRight); err != nil {
			return fmt.Errorf("merge %s into %s: %w", args[1], args[0], err)
		}
		meta, err := e.snaps.Save(ctx, args[0], dst)
		if err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "merged %s into %s (%d → %d vertices)", args[1], meta.Name, before, meta.Vertices)
		return nil
	},
}

func init() {
	mergeCmd.Flags().Uint32Var(&mergeLeft, "left", 0, "vertex of dst to merge at")
	mergeCmd.Flags().Uint32Var(&mergeRight, "right", 0, "vertex of src to merge from")
	rootCmd.AddCommand(mergeCmd)
}
