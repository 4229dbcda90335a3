package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/towerctl/pkg/config"
	"github.com/cuemby/towerctl/pkg/log"
	"github.com/cuemby/towerctl/pkg/metrics"
	"github.com/cuemby/towerctl/pkg/setup"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// cfg is loaded once per invocation by the root command
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "towerctl",
	Short: "towerctl - Lifecycle controller for the bundled automation platform",
	Long: `towerctl brings the bundled automation platform to a running state on
an appliance host. On every start it works out whether the platform needs a
fresh setup, an upgrade setup or only a service start, then confirms the
platform answers its liveness endpoint.

It is meant to be run by the host's init system.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		logLevel, _ := cmd.Flags().GetString("log-level")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		metricsFile, _ := cmd.Flags().GetString("metrics-file")

		log.Init(log.Config{
			Level:      log.Level(logLevel),
			JSONOutput: jsonLogs,
		})

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if metricsFile != "" {
			loaded.Metrics.TextfilePath = metricsFile
		}
		cfg = loaded
		return nil
	},
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"towerctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the towerctl configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this textfile after each run")

	// Add subcommands
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(availableCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("towerctl version %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Built: %s\n", BuildTime)
	},
}

// reportError logs the final error, including the installer's captured
// output when setup failed
func reportError(err error) {
	var setupErr *setup.Error
	if errors.As(err, &setupErr) && len(setupErr.Output) > 0 {
		log.Logger.Error().
			Int("exit_code", setupErr.ExitCode).
			Str("output", string(setupErr.Output)).
			Msg("Installer output")
	}
	log.Errorf("towerctl failed", err)
}

// flushMetrics writes the metrics textfile if one is configured
func flushMetrics() {
	if cfg == nil || cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		log.Errorf("Failed to write metrics textfile", err)
	}
}
