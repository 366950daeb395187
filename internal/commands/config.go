package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/balkashynov/tomate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying the config file and TOMATE_*
environment overrides.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadConfig(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		path, _ := configPath()

		shown := *cfg
		if shown.Remote.DSN != "" {
			shown.Remote.DSN = "<redacted>"
		}
		data, err := yaml.Marshal(&shown)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("# %s\n%s", path, data)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := configPath()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		created, err := config.WriteDefault(path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if !created {
			fmt.Printf("Config already exists at %s\n", path)
			return
		}
		fmt.Printf("✅ Wrote default config to %s\n", path)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
