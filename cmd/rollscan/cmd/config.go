package cmd

import (
	"fmt"

	"github.com/electora/rollscan/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd groups configuration management subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage rollscan configuration",
	Long: `Inspect and manage the rollscan configuration.

Configuration is loaded from defaults, then an optional rollscan.yaml
config file, then ROLLSCAN_* environment variables, then CLI flags.

Examples:
  rollscan config init
  rollscan config init --output /etc/rollscan/rollscan.yaml
  rollscan config paths
  rollscan config show`,
}

var configInitCmd = &cobra.Command{
	Use:          "init",
	Short:        "Write a config file populated with default values",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		if err := config.GenerateDefaultConfigFile(output); err != nil {
			return fmt.Errorf("failed to generate config file: %w", err)
		}

		if output == "" {
			output = config.ConfigFileName + ".yaml"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config file written to %s\n", output)
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List the paths searched for config files",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config file name: %s.yaml\n", config.ConfigFileName)
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Search paths (in order):")
		for _, path := range config.GetConfigSearchPaths() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", path)
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the effective configuration",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		if used := GetConfigLoader().GetConfigFileUsed(); used != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# Loaded from %s\n", used)
		} else {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "# No config file found, showing defaults and environment")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// GetConfigCommand returns the config command for testing purposes.
func GetConfigCommand() *cobra.Command {
	return configCmd
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathsCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().StringP("output", "o", "", "path of the generated config file (default: ./rollscan.yaml)")
}
