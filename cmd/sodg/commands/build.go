package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/pkg/cli"
	"github.com/haivivi/sodg/pkg/sodg"
)

// Manifest describes a build: scripts deployed into one snapshot, then
// other graphs merged into it.
type Manifest struct {
	// Snapshot is the name the result is saved under.
	Snapshot string `yaml:"snapshot" json:"snapshot"`

	// Base, when set, is an existing snapshot to start from instead of an
	// empty graph.
	Base string `yaml:"base,omitempty" json:"base,omitempty"`

	// Root replaces the literal 0 in Scripts.
	Root uint32 `yaml:"root,omitempty" json:"root,omitempty"`

	// Scripts are paths or doublestar patterns, relative to the manifest.
	Scripts []string `yaml:"scripts,omitempty" json:"scripts,omitempty"`

	// Merges run in order after Scripts.
	Merges []MergeStep `yaml:"merges,omitempty" json:"merges,omitempty"`
}

// MergeStep builds a source graph and merges it into the result.
type MergeStep struct {
	// Snapshot, when set, is loaded as the source graph.
	Snapshot string `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`

	// Scripts are deployed into the source graph (after loading Snapshot).
	Scripts []string `yaml:"scripts,omitempty" json:"scripts,omitempty"`

	// Left is the vertex of the result to merge at.
	Left uint32 `yaml:"left" json:"left"`

	// Right is the vertex of the source to merge from.
	Right uint32 `yaml:"right" json:"right"`
}

var buildFile string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Deploy and merge from a manifest",
	Long: `Build a snapshot from a manifest file (YAML or JSON):

  snapshot: app
  scripts:
    - base.sodg
    - 'modules/**/*.sodg'
  merges:
    - snapshot: stdlib
      left: 0
      right: 0
    - scripts: [plugin.sodg]
      left: 7
      right: 0

Script paths are relative to the manifest (to the bucket with --bucket).
The snapshot is saved once, after every step succeeded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if buildFile == "" {
			return errors.New("manifest file is required (-f)")
		}
		var m Manifest
		if err := cli.LoadRequest(buildFile, &m); err != nil {
			return err
		}
		if m.Snapshot == "" {
			return fmt.Errorf("%s: snapshot is required", buildFile)
		}

		ctx := cmd.Context()
		start := time.Now()
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		// Script paths are relative to the manifest locally, to the bucket
		// root on S3.
		base := ""
		if e.local {
			if base, err = filepath.Abs(filepath.Dir(buildFile)); err != nil {
				return err
			}
		}

		g := sodg.Empty()
		if m.Base != "" {
			if g, err = e.snaps.Load(ctx, m.Base); err != nil {
				return err
			}
		}
		commands := 0
		if len(m.Scripts) > 0 {
			res, err := deployScripts(ctx, e, g, m.Root, base, m.Scripts)
			if err != nil {
				return err
			}
			commands += res.commands
		}

		for i, step := range m.Merges {
			src := sodg.Empty()
			if step.Snapshot != "" {
				if src, err = e.snaps.Load(ctx, step.Snapshot); err != nil {
					return fmt.Errorf("merges[%d]: %w", i, err)
				}
			}
			if len(step.Scripts) > 0 {
				res, err := deployScripts(ctx, e, src, 0, base, step.Scripts)
				if err != nil {
					return fmt.Errorf("merges[%d]: %w", i, err)
				}
				commands += res.commands
			}
			if err := g.Merge(src, step.Left, step.Right); err != nil {
				return fmt.Errorf("merges[%d]: %w", i, err)
			}
		}

		meta, err := e.snaps.Save(ctx, m.Snapshot, g)
		if err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "built %s: %d commands, %d merges, %d vertices in %s",
			meta.Name, commands, len(m.Merges), meta.Vertices, cli.FormatDuration(time.Since(start)))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildFile, "file", "f", "", "manifest file (YAML or JSON)")
	rootCmd.AddCommand(buildCmd)
}
