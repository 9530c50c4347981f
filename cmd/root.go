package cmd

import (
	"fmt"
	"os"

	"github.com/killallgit/parable-studio/pkg/config"
	"github.com/killallgit/parable-studio/pkg/logger"
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parable-studio",
	Short: "Parable Studio API server",
	Long: `Parable Studio API - turns short parables into narrated vertical videos

Each parable carries an original-language track and optionally an English
track. A track moves through a guided pipeline: narration rewrite, metadata
and title synthesis, per-scene image prompts and images, human-supplied
narration audio and scene clips, and a final ffmpeg render with an optional
mood-matched music bed.

Features:
  • Parable and track management over a JSON API
  • Background pipeline workers with restart recovery
  • Local or MinIO asset storage
  • Gemini or offline stub generation backends`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(func() { config.SetConfigFile(configPath) })

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default ./config/settings.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// loadConfig initializes configuration for commands that need it. Version
// and help never call it.
func loadConfig() (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, fmt.Errorf("error initializing config: %w", err)
	}
	return config.GetConfig()
}

// newLogger builds the process logger. Flags win over the settings file
// when they are set explicitly.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*logger.Logger, error) {
	level := cfg.Logging.Level
	jsonLogs := cfg.Logging.JSON

	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		level = f.Value.String()
	}
	if f := cmd.Flags().Lookup("json-logs"); f != nil && f.Changed {
		jsonLogs, _ = cmd.Flags().GetBool("json-logs")
	}
	if level == "" {
		level = "info"
	}
	return logger.New(level, jsonLogs)
}
