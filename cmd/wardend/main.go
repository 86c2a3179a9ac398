// Package main implements the wardend daemon.
//
// wardend is an orchestration core for autonomous code-generation agents.
// It serves an MCP tool surface over stdio and a small HTTP API for health
// and metrics.
//
// Configuration is loaded from a YAML file and environment variables. See
// internal/config for details.
//
// Usage:
//
//	# Start the daemon with defaults
//	wardend serve
//
//	# Configure via environment
//	SERVER_HTTP_PORT=9999 STORE_PATH=/var/lib/wardend/wardend.db wardend serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "wardend",
	Short: "Orchestration core for autonomous code-generation agents",
	Long: `wardend enforces a two-gate protocol around agent code changes, runs the
multi-phase build orchestrator, keeps the decision journal, and guards the
scope lock. It speaks MCP over stdio and exposes health and metrics over HTTP.`,
	Version: version,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wardend\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ~/.config/wardend/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
