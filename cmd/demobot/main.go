// Command demobot runs the demo Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/demobot/core/buildinfo"
	corecmd "github.com/m3rciful/demobot/core/cmd"
	"github.com/m3rciful/demobot/core/database"
	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/internal/app"
	"github.com/m3rciful/demobot/internal/setup"
	"github.com/m3rciful/demobot/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "demobot",
		Short:         "Demonstration Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "optional YAML config file")
	root.AddCommand(runCmd(&configPath), migrateCmd(&configPath), setupCmd(), versionCmd())
	return root
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and poll for updates (default)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot(*configPath)
		},
	}
}

func runBot(configPath string) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath: configPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: app.Bootstrap,
	})
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadStorageConfig(*configPath)
			if err != nil {
				return err
			}
			if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()

			if cfg.Storage.Driver == database.DriverMemory {
				logger.Info(cmd.Context(), logger.CompMigrate, "migrate",
					slog.String("status", "skip"),
					slog.String("reason", "memory driver"),
				)
				return nil
			}
			return database.RunMigrations(cmd.Context(), cfg.Storage, migrations.FS)
		},
	}
}

func setupCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-run setup: writes .env and creates runtime directories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			err := setup.Run(ctx, setup.Options{Dir: dir, Out: cmd.OutOrStdout()})
			if errors.Is(err, setup.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "⚠️  Setup cancelled")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "demobot %s\n", buildinfo.String())
		},
	}
}
