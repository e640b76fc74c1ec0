package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coorte",
		Short: "Health cohort analysis client",
		Long: `coorte creates analysis projects on the cohort analytics backend.

It uploads the beneficiary and claims spreadsheets, maps their columns to the
concepts the backend understands, simulates the "Tempo de Programa"
calculation and runs the full analysis.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/coorte/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("backend", "", "analysis backend URL")
	rootCmd.PersistentFlags().String("round", "", "data round (default R1)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("backend.round", rootCmd.PersistentFlags().Lookup("round"))

	// Add commands
	rootCmd.AddCommand(wizardCmd())
	rootCmd.AddCommand(newCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(mappingCmd())
	rootCmd.AddCommand(analysisCmd())
	rootCmd.AddCommand(resultsCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, common.UserMessage(err))
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	config.SetDefaults(viper.GetViper())

	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.DefaultConfigDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables: COORTE_BACKEND_URL, COORTE_DATABASE_PATH, ...
	viper.SetEnvPrefix("COORTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	slog.Debug("Configuration loaded", "file", viper.ConfigFileUsed(), "backend", viper.GetString("backend.url"))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coorte %s\n", version)
		},
	}
}
