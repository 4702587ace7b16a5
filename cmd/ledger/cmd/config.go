package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/ledger/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to the given path. The format
follows the extension: .yaml/.yml for YAML, anything else for JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Default().SaveToFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if cfgFile != "" {
			var err error
			cfg, err = config.LoadFromFile(cfgFile)
			if err != nil {
				return err
			}
		}
		fmt.Printf("store:    %s %s\n", cfg.Store.Backend, cfg.Store.Path)
		fmt.Printf("logging:  %s %s\n", cfg.Logging.Level, cfg.Logging.Encoding)
		fmt.Printf("trading:  %s %s\n", cfg.Trading.Method, cfg.Trading.Currency)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
