// Package cmd contains the summarease CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "summarease",
	Short: "Asynchronous text summarization service",
	Long: `summarease accepts summarization jobs, dispatches them to a work queue
and drives each job to a terminal status.

Example usage:
  summarease serve             # API, queue workers and stale job reaper
  summarease worker            # queue workers only, with health and metrics
  summarease process 42        # process job 42 in this process
  summarease token 7           # issue an access token for user 7`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
