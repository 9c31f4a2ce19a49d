package cmd

import (
	"fmt"
	"os"

	"github.com/barysiuk/cpm/internal/core"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change cpm's own settings",
	Long: `Tool-level settings, separate from server definitions.

Keys:
  registry        registry URL (default ` + core.DefaultRegistryURL + `)
  defaultClients  comma-separated clients sync targets when --to is absent
  color           output color policy: auto, always or never`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			value, err := settings.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		}
		for _, key := range core.SettingsKeys() {
			value, _ := settings.Get(key)
			if value == "" {
				value = "(unset)"
			}
			fmt.Printf("%s = %s\n", key, value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := core.SaveSettings(os.Getenv("CPM_CONFIG_DIR"), settings); err != nil {
			return err
		}
		green.Printf("✓ %s = %s\n", args[0], args[1])
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.Unset(args[0]); err != nil {
			return err
		}
		if err := core.SaveSettings(os.Getenv("CPM_CONFIG_DIR"), settings); err != nil {
			return err
		}
		green.Printf("✓ unset %s\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}
