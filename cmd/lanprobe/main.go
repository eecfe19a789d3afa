// Lanprobe finds hosts on the local network that answer a UDP discovery probe.
//
// It broadcasts "DISCOVERY" on a UDP port and lists every host that replies
// with "ACK". The same binary can play the other side of the exchange.
//
// Usage:
//
//	lanprobe [command] [flags]
//
// See 'lanprobe --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/lanprobe/internal/config"
	"github.com/muurk/lanprobe/internal/logging"
	"github.com/muurk/lanprobe/internal/version"
)

// annotationTolerateConfig marks commands that still run when the config file is broken
const annotationTolerateConfig = "tolerate-config"

// Global flags
var (
	logLevel   string
	configPath string
)

// cfg is the loaded preferences file, set before any command runs
var cfg = config.NewConfig()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lanprobe",
	Short: "UDP broadcast discovery for the local network",
	Long: `Lanprobe broadcasts a "DISCOVERY" datagram on a UDP port and reports
every host that answers "ACK".

Use 'scan' for a one-shot listing, 'watch' for an interactive screen and
'respond' to answer probes from this host.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides "+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: "+config.PathEnvVar+" or the user config dir)")

	rootCmd.AddCommand(versionCmd)
}

// loadSettings reads the config file and starts logging. Precedence for the
// log level is --log-level, then LANPROBE_LOG_LEVEL, then the file.
func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, loadErr := config.Load(configPath)
	switch {
	case loadErr == nil:
		cfg = loaded
	case cmd.Annotations[annotationTolerateConfig] != "":
		cfg = config.NewConfig()
	default:
		return loadErr
	}

	level := logLevel
	if level == "" {
		level = os.Getenv(logging.LogLevelEnvVar)
	}
	if level == "" {
		level = cfg.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if loadErr != nil {
		logging.Warn("Ignoring unreadable config file", zap.Error(loadErr))
	}
	return nil
}
