package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theanh9911/agno-console/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage console configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file with defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			path = config.DefaultUserConfigPath()
		}
		if _, err := config.InitConfig(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file currently in use",
	RunE: func(_ *cobra.Command, _ []string) error {
		loader := config.NewLoader()
		if cfgFile != "" {
			loader.WithConfigFile(cfgFile)
		}
		if _, err := loader.Load(); err != nil {
			return err
		}
		used := loader.ConfigFile()
		if used == "" {
			fmt.Println("no config file found; running on defaults")
			return nil
		}
		fmt.Println(used)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}
