package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"baro-mod-manager/config"
	"baro-mod-manager/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// cfgFile holds the path to the config file given with --config
var cfgFile string

// globalConfig holds the loaded configuration
var globalConfig config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "baro-mod-manager",
	Short: "Inspect and organise Barotrauma mods",
	Long: `baro-mod-manager lists the content packages installed under LocalMods,
enriches them with Steam Workshop metadata, hashes their contents and
manages load-order profiles.

Run without a subcommand it behaves like "list".`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: loadGlobalConfig,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listMods(cmd, false, false)
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is ./BaroBaro.toml or <user config dir>/BaroBaro/BaroBaro.toml)")
	rootCmd.PersistentFlags().String("game-home", "", "Barotrauma installation directory (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Bool("log-api", false, "Dump Steam API requests and responses to api_log_file")

	_ = viper.BindPFlag(config.KeyGameHome, rootCmd.PersistentFlags().Lookup("game-home"))
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogAPIRequests, rootCmd.PersistentFlags().Lookup("log-api"))
}

// loadGlobalConfig loads the configuration and starts the file logger
// before any command runs.
func loadGlobalConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	globalConfig = cfg
	logger.Log.Debugw("Configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("config_file", viper.ConfigFileUsed()),
		zap.String("game_home", cfg.GameHome))
	return nil
}
