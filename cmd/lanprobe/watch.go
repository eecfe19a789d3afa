package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/lanprobe/internal/logging"
	"github.com/muurk/lanprobe/internal/tui"
	"github.com/muurk/lanprobe/internal/ui"
)

var watchFlags discoveryFlags

func init() {
	watchFlags.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

// watchCmd launches the interactive discovery screen
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive discovery screen",
	Long: `Open a full-screen view that probes the network, lists hosts as they
answer and keeps a running log.

Keys: r rescan, c clear, q quit. With --timeout 0 the screen keeps listening
until you rescan or quit.

When stdout is not a terminal this behaves like 'lanprobe scan'.`,
	Example: `  lanprobe watch
  lanprobe watch --port 5000 --timeout 0`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	settings, err := watchFlags.resolve(cmd, cfg.Discovery)
	if err != nil {
		return err
	}

	if !ui.IsTerminal(os.Stdout) {
		logging.Info("stdout is not a terminal, running a plain scan")
		return scan(cmd, settings)
	}

	return tui.Run(cmd.Context(), settings.newClient(), settings.Timeout)
}
