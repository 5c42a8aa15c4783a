package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/pkg/cli"
	"github.com/haivivi/sodg/pkg/script"
	"github.com/haivivi/sodg/pkg/snapshot"
	"github.com/haivivi/sodg/pkg/sodg"
	"github.com/haivivi/sodg/pkg/storage"
)

var (
	deploySnapshot string
	deployRoot     uint32
)

var deployCmd = &cobra.Command{
	Use:   "deploy <script>...",
	Short: "Run deployment scripts into a snapshot",
	Long: `Run deployment scripts, in order, into a snapshot. The snapshot is created
when it does not exist. Arguments may be doublestar patterns
("scripts/**/*.sodg"), expanded and sorted per pattern.

Scripts stop at the first failing command; the snapshot is only saved when
every script succeeded.

Examples:
  sodg deploy base.sodg --snapshot main
  sodg deploy 'lib/**/*.sodg' --snapshot main --root 42`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		name := deploySnapshot
		if name == "" {
			name = snapshot.NewName()
		}
		g, err := loadOrEmpty(ctx, e, name)
		if err != nil {
			return err
		}
		before := g.Len()

		res, err := deployScripts(ctx, e, g, deployRoot, "", args)
		if err != nil {
			return err
		}
		meta, err := e.snaps.Save(ctx, name, g)
		if err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "deployed %d commands from %d scripts into %s (%d → %d vertices)",
			res.commands, len(res.files), meta.Name, before, meta.Vertices)
		return nil
	},
}

func init() {
	deployCmd.Flags().StringVarP(&deploySnapshot, "snapshot", "s", "", "snapshot to deploy into (default: new random name)")
	deployCmd.Flags().Uint32Var(&deployRoot, "root", 0, "vertex that replaces the literal 0")
	rootCmd.AddCommand(deployCmd)
}

// loadOrEmpty loads the named snapshot, or returns an empty graph when it
// does not exist.
func loadOrEmpty(ctx context.Context, e *env, name string) (*sodg.Graph, error) {
	g, err := e.snaps.Load(ctx, name)
	if errors.Is(err, snapshot.ErrNotFound) {
		slog.Debug("deploy: new snapshot", "name", name)
		return sodg.Empty(), nil
	}
	return g, err
}

type deployResult struct {
	files    []string
	commands int
}

// deployScripts expands patterns against the file store and deploys each
// script into g. base is the directory relative paths are resolved from.
func deployScripts(ctx context.Context, e *env, g *sodg.Graph, root uint32, base string, patterns []string) (deployResult, error) {
	var res deployResult
	resolved := make([]string, 0, len(patterns))
	for _, p := range patterns {
		r, err := e.resolve(base, p)
		if err != nil {
			return res, err
		}
		resolved = append(resolved, r)
	}
	files, err := storage.Glob(ctx, e.files, resolved...)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		return res, fmt.Errorf("no scripts match %v", patterns)
	}
	for _, f := range files {
		text, err := storage.ReadFile(ctx, e.files, f)
		if err != nil {
			return res, err
		}
		s := script.New(string(text))
		s.SetRoot(root)
		n, err := s.Deploy(g)
		if err != nil {
			return res, fmt.Errorf("%s: %w", f, err)
		}
		slog.Debug("deploy: script done", "file", f, "commands", n)
		res.files = append(res.files, f)
		res.commands += n
	}
	return res, nil
}
