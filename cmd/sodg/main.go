// Package main is the entry point for the sodg CLI.
//
// Usage:
//
//	sodg [flags] <command> [subcommand] [args]
//
// Commands:
//
//	deploy     - Run deployment scripts into a snapshot
//	merge      - Merge one snapshot into another
//	clone      - Copy a snapshot
//	inspect    - Dump a snapshot (yaml, json, raw script, pretty)
//	build      - Deploy and merge from a manifest
//	snapshots  - List and remove snapshots
//	config     - Configuration contexts
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/sodg/cmd/sodg/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
