// Package main provides the aireviewer CLI entry point.
// aireviewer asks a language model to review one source file and applies the fixes the
// user approves.
package main

import (
	"errors"
	"fmt"
	"os"

	"aireviewer/internal/logger"
	"aireviewer/internal/services"
	"aireviewer/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel       string
	logFile        string
	testMode       bool
	transcriptPath string
	outputFile     string

	// config holds the settings bound to flags; the configuration service layers the
	// environment and the config file beneath it.
	config = viper.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aireviewer",
	Short: "AI code reviewer with approve-before-write fixes",
	Long: `aireviewer sends a source file to a language model for review. Every fix the model
proposes is shown as a diff and written only after you accept it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetFormattedVersion())
	},
}

// reportedError marks an error the review session has already shown to the user.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	flags.BoolVar(&testMode, "test-mode", false, "Run in deterministic test mode")
	flags.String("provider", services.DefaultProvider, "Model provider (gemini|openai|anthropic)")
	flags.String("model", "", "Model name [default: provider default]")
	flags.Int("max-tool-turns", services.DefaultMaxToolTurns, "Maximum fix proposals per review")
	flags.Duration("request-timeout", services.DefaultRequestTimeout, "Timeout for each model request (0 disables)")
	flags.String("diff-tool", "", "External diff command, or 'auto' to detect one [default: inline diff]")

	reviewCmd.Flags().StringVar(&transcriptPath, "transcript", "", "Write the conversation to this YAML file")
	reviewCmd.Flags().StringVar(&outputFile, "output-file", "", "Also append the review output to this file")

	bindings := map[string]string{
		services.KeyProvider:       "provider",
		services.KeyModel:          "model",
		services.KeyMaxToolTurns:   "max-tool-turns",
		services.KeyRequestTimeout: "request-timeout",
		services.KeyDiffTool:       "diff-tool",
	}
	for key, flag := range bindings {
		if err := config.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	keyCmd.AddCommand(keySetCmd, keyDeleteCmd, keyStatusCmd)
	rootCmd.AddCommand(reviewCmd, keyCmd, versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// initServices registers the services against the bound configuration.
func initServices() error {
	configDir, err := services.DefaultConfigDir()
	if err != nil {
		return err
	}
	if err := services.InitializeServices(config, configDir); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	return nil
}
