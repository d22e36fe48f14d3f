package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"summarease/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the summary API together with the job workers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, bootstrap.ModeServe)
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the job workers and the stale job reaper",
	Long: `Run the queue consumers and the stale job reaper without the summary API.
Health and metrics endpoints stay available on SERVER_PORT.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, bootstrap.ModeWorker)
	},
}

func runMode(cmd *cobra.Command, mode bootstrap.Mode) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return bootstrap.Run(ctx, mode)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
}
