package cmd

import (
	"fmt"
	"path/filepath"

	"baro-mod-manager/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default settings",
	Long: `Writes a TOML config file holding every default. The game home from
--game-home is filled in when given. An existing file is never replaced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			dir, err := config.DefaultDir()
			if err != nil {
				return err
			}
			path = filepath.Join(dir, config.ConfigFileName)
		}

		cfg := config.Defaults()
		cfg.GameHome = globalConfig.GameHome
		if err := config.WriteDefault(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}
