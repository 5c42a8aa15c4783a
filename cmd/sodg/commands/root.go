package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/pkg/cli"
)

const appName = "sodg"

var (
	// Global flags
	verbose      bool
	cfgFile      string
	storeKind    string
	dataDir      string
	formatOutput string
	bucket       string
	endpoint     string
	region       string

	globalConfig *cli.Config
	configErr    error
)

var rootCmd = &cobra.Command{
	Use:   "sodg",
	Short: "Build, merge and inspect object graphs",
	Long: `sodg - build object graphs from deployment scripts and keep them as
named snapshots.

Snapshots live in a local store (badger by default, or sqlite). Scripts are
read from the local filesystem, or from S3 when --bucket is set.

Examples:
  # Deploy two scripts into a snapshot
  sodg deploy base.sodg extra.sodg --snapshot main

  # Merge snapshot "lib" into "main" at their roots
  sodg merge main lib --left 0 --right 0

  # Print the graph as YAML or as a deployment script
  sodg inspect main
  sodg inspect main --format raw`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogging()
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&cfgFile, "config", "", "config file (default: $SODG_CONFIG or ~/.sodg/sodg/config.yaml)")
	pf.StringVar(&storeKind, "store", "", "snapshot store: badger, sqlite or memory")
	pf.StringVar(&dataDir, "data-dir", "", "snapshot store directory (default: ~/.sodg/sodg/data)")
	pf.StringVarP(&formatOutput, "format", "o", "", "output format: yaml, json, raw or pretty")
	pf.StringVar(&bucket, "bucket", "", "read scripts and write dumps through this S3 bucket")
	pf.StringVar(&endpoint, "endpoint", "", "S3 endpoint (MinIO, R2)")
	pf.StringVar(&region, "region", "", "S3 region")
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func initConfig() error {
	path := cfgFile
	if path == "" {
		path = os.Getenv("SODG_CONFIG")
	}
	globalConfig, configErr = cli.LoadConfigWithPath(appName, path)
	if configErr != nil {
		return fmt.Errorf("config: %w", configErr)
	}
	return nil
}

// getConfig returns the loaded configuration.
func getConfig() *cli.Config {
	return globalConfig
}

// flagOr returns the flag value when set, else the current context value.
func flagOr(flag string, key string) string {
	if flag != "" {
		return flag
	}
	if cfg := getConfig(); cfg != nil {
		if v, err := cfg.Current().Get(key); err == nil {
			return v
		}
	}
	return ""
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseFormat(flagOr(formatOutput, "format"))
}
