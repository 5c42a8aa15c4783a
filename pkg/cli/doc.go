// Package cli provides the plumbing shared by the sodg command-line tool.
//
// This package includes:
//   - Configuration contexts stored in ~/.sodg/<app>/config.yaml
//   - Output formatting (YAML, JSON, raw)
//   - Manifest loading (YAML/JSON)
//   - lipgloss styles for human-readable summaries
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("sodg")
//	ctx := cfg.Current()
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    Writer: cmd.OutOrStdout(),
//	})
package cli
