package main

import (
	"fmt"

	"github.com/diogo/pplx-search-go/internal/config"
	"github.com/diogo/pplx-search-go/pkg/models"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify pplx configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		render.RenderTitle("Configuration")

		fmt.Printf("Config file: %s\n\n", cfgMgr.GetConfigFile())
		fmt.Printf("default_recency:  %s\n", cfg.DefaultRecency)
		fmt.Printf("default_language: %s\n", cfg.DefaultLanguage)
		fmt.Printf("timezone:         %s\n", cfg.Timezone)
		fmt.Printf("token_file:       %s\n", cfg.TokenFile)
		fmt.Printf("history_file:     %s\n", cfg.HistoryFile)
		fmt.Printf("save_history:     %v\n", cfg.SaveHistory)

		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := args[1]

		switch key {
		case "default_recency":
			recency := models.RecencyFilter(value)
			if !models.IsValidRecency(recency) {
				return fmt.Errorf("invalid recency filter: %s", value)
			}
			cfg.DefaultRecency = recency

		case "default_language":
			cfg.DefaultLanguage = value

		case "timezone":
			cfg.Timezone = value

		case "token_file":
			cfg.TokenFile = value

		case "history_file":
			cfg.HistoryFile = value

		case "save_history":
			cfg.SaveHistory = config.ParseBoolean(value, cfg.SaveHistory)

		default:
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := cfgMgr.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %v", err)
		}

		render.RenderSuccess(fmt.Sprintf("Set %s = %s", key, value))
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.DefaultRecency = models.RecencyNone
		cfg.DefaultLanguage = "en-US"
		cfg.Timezone = "America/New_York"
		cfg.SaveHistory = true

		if err := cfgMgr.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %v", err)
		}

		render.RenderSuccess("Configuration reset to defaults")
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(cfgMgr.GetConfigFile())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
	configCmd.AddCommand(configPathCmd)
}
