package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/socialconnect/cli/pkg/config"
	"github.com/socialconnect/cli/pkg/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change CLI configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long:  "Print every configuration key after defaults, config files, .env and SOCIALCONNECT_* variables are applied.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := output.Stdout()
		settings := flatten("", config.AllSettings())

		fields := []output.Field{
			{Key: "config_dir", Value: config.GetConfigDir()},
			{Key: "config_file", Value: config.GetConfigFilePath()},
			{Key: "storage_dir", Value: config.GetStorageDir()},
		}
		for _, key := range slices.Sorted(maps.Keys(settings)) {
			value := settings[key]
			if key == "supabase.anon_key" {
				value = mask(fmt.Sprint(value))
			}
			fields = append(fields, output.Field{Key: key, Value: value})
		}
		return out.Record("Configuration", fields)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the user config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetString(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to write %s: %w", config.GetConfigFilePath(), err)
		}
		output.Stdout().Success("%s = %s", args[0], args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		output.Stdout().Println(config.GetConfigFilePath())
		return nil
	},
}

// flatten turns viper's nested settings into dotted keys
func flatten(prefix string, m map[string]interface{}) map[string]interface{} {
	flat := make(map[string]interface{})
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			maps.Copy(flat, flatten(key, nested))
			continue
		}
		flat[key] = v
	}
	return flat
}

func mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}
