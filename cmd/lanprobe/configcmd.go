package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/lanprobe/internal/config"
)

var configForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the lanprobe config file",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file with default values",
	Annotations: map[string]string{annotationTolerateConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
		if err := config.NewConfig().Save(path); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file location",
	Annotations: map[string]string{annotationTolerateConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}
