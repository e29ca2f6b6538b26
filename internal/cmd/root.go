package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/socialconnect/cli/pkg/app"
	"github.com/socialconnect/cli/pkg/config"
	clierrors "github.com/socialconnect/cli/pkg/errors"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/output"
	"github.com/socialconnect/cli/pkg/prompter"
	"github.com/socialconnect/cli/pkg/service"
	"github.com/socialconnect/cli/pkg/telemetry"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../internal/cmd.Version=..."
var Version = "0.1.0"

var (
	verbose    bool
	configPath string
	outputFmt  string
)

// application is built once per invocation in PersistentPreRunE
var (
	application    *app.App
	stopTelemetry  telemetry.Shutdown
	stopBackground context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "socialconnect",
	Short: "SocialConnect CLI - your social network from the terminal",
	Long: `SocialConnect CLI is a command-line client for the SocialConnect
social network. Read your feed, post, comment, follow people and watch
notifications arrive live, directly from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("error initializing config: %w", err)
		}

		logger.Init(verbose)

		if outputFmt != "" {
			if !output.ValidateOutputFormat(outputFmt) {
				return clierrors.ValidationError("output", "must be one of text, json, table")
			}
			config.Set("output.format", outputFmt)
		}

		ctx, cancel := context.WithCancel(context.Background())
		stopBackground = cancel

		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:    "socialconnect-cli",
			ServiceVersion: Version,
			OTLPEndpoint:   config.GetString("telemetry.otlp_endpoint"),
			SamplingRate:   config.GetFloat("telemetry.sampling_rate"),
		})
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		}
		stopTelemetry = shutdown

		application = app.New(app.OptionsFromConfig())
		state := application.Auth.RestoreAuth()
		logger.Debug("Session restored", "authenticated", state.IsAuthenticated, "user_id", state.UserID())

		if addr := config.GetString("metrics.addr"); addr != "" {
			go func() {
				if err := application.Metrics.Serve(ctx, addr); err != nil {
					logger.Warn("Metrics server failed", "addr", addr, "error", err)
				}
			}()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func teardown() {
	if application != nil {
		application.Close()
	}
	if stopBackground != nil {
		stopBackground()
	}
	if stopTelemetry != nil {
		if err := stopTelemetry(context.Background()); err != nil {
			logger.Debug("Tracer shutdown failed", "error", err)
		}
	}
	_ = logger.Close()
}

// deps returns what every service needs for this invocation
func deps() service.Deps {
	return service.Deps{
		App:    application,
		Out:    output.Stdout(),
		Prompt: prompter.Stdio(),
	}
}

// Execute runs the command tree and exits non-zero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// PersistentPostRun does not run when a command fails
		teardown()
		fmt.Fprint(os.Stderr, clierrors.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/socialconnect/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "Output format: text, json, table (default from config)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
