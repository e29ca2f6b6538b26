package cmd

import (
	"runtime"

	"github.com/socialconnect/cli/pkg/output"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Stdout().Record("", []output.Field{
			{Key: "version", Value: Version},
			{Key: "go", Value: runtime.Version()},
			{Key: "platform", Value: runtime.GOOS + "/" + runtime.GOARCH},
		})
	},
}
