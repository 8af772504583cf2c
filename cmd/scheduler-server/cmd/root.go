package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Coolhgg/relife-scheduler/internal/config"
	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/service/server"
	"github.com/Coolhgg/relife-scheduler/internal/service/snapshot"
	"github.com/Coolhgg/relife-scheduler/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the scheduler server.
	rootCmd = &cobra.Command{
		Use:   "scheduler-server [listen-address]",
		Short: "Run the alarm scheduling server.",
		Long: `Starts the alarm scheduling server: the optimization loop that keeps
alarm notifications scheduled, plus the HTTP API for alarm management,
bulk operations and schedule export/import.

The server listens on the configured address unless a listen address is
provided as an argument (e.g., :9090, 0.0.0.0:8080). Alarms are persisted
to a JSON file or a SQLite database depending on configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the scheduler-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	attachSnapshotCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// attachSnapshotCommands adds the export and import subcommands.
func attachSnapshotCommands(root *cobra.Command) {
	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export all alarms and settings to a snapshot file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return snapshot.RunExport(cmd.Context(), &snapshot.ExportOptions{
				ConfigPath: configPath,
				OutputPath: args[0],
			})
		},
	}

	var policy domain.ImportPolicy

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore alarms and settings from a snapshot file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return snapshot.RunImport(cmd.Context(), &snapshot.ImportOptions{
				ConfigPath: configPath,
				InputPath:  args[0],
				Policy:     policy,
			})
		},
	}

	importCmd.Flags().BoolVar(&policy.OverwriteExisting, "overwrite", false,
		"replace alarms that collide with existing ones")
	importCmd.Flags().BoolVar(&policy.PreserveIDs, "preserve-ids", false,
		"keep snapshot alarm ids instead of minting new ones")
	importCmd.Flags().BoolVar(&policy.AdjustTimeZones, "adjust-timezones", false,
		"convert alarm times from the snapshot timezone to the configured one")

	root.AddCommand(exportCmd, importCmd)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
