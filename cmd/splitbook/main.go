package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mmynk/splitbook/internal/config"
	"github.com/mmynk/splitbook/pkg/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "splitbook",
		Short: "Shared expense ledger with balances and settle-up plans",
		Long: `splitbook records shared expenses between a group of people, computes who
owes whom, and suggests a short list of payments that settles everyone up.

Run 'splitbook serve' for the web API, or use the other commands directly
against the configured store.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or $HOME/.config/splitbook/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("backend", config.BackendSQLite, "storage backend (sqlite, redis, memory)")
	rootCmd.PersistentFlags().String("db", "./data/splitbook.db", "SQLite database path")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address")

	// Bind flags to viper
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("storage.sqlite_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("storage.redis_addr", rootCmd.PersistentFlags().Lookup("redis-addr"))

	// Add commands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(balancesCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(participantsCmd())
	rootCmd.AddCommand(expensesCmd())
}

func main() {
	// Until the config is loaded, log at the LOG_LEVEL env level.
	logging.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if err := logging.Configure(cfg.Log.Format, level); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	slog.Debug("Configuration loaded", "backend", cfg.Storage.Backend, "config_file", viper.ConfigFileUsed())
	return nil
}
