package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aellingwood/fwstamp/internal/config"
	"github.com/aellingwood/fwstamp/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "fwstamp",
	Short: "Stamp git provenance into firmware version headers",
	Long: "Fwstamp queries the state of a git working tree and rewrites the\n" +
		"#define values in a generated version header, so a firmware build can\n" +
		"report the exact commit, branch, and build time it came from.\n\n" +
		"Run without arguments it performs one stamping pass, which makes it\n" +
		"suitable as a pre-build hook.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStamp(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file (default fwstamp.yaml next to the executable)")
	rootCmd.PersistentFlags().String("root", "", "project root the artifact path resolves against")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "also log to a rotating file")

	// A bare invocation stamps, so the root accepts the stamp flags too.
	addStampFlags(rootCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the effective configuration for cmd: the --config
// file (or the default probe next to the executable), with persistent
// flag overrides applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	overrides := map[string]any{}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		overrides["root"] = root
	}
	if file, _ := cmd.Flags().GetString("log-file"); file != "" {
		overrides["logFile"] = file
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		overrides["logLevel"] = "debug"
	}
	return cfg.WithOverrides(overrides), nil
}

// newLogger builds the diagnostic logger for cfg. A relative log file
// path resolves against the project root, keeping behaviour independent
// of the invocation directory.
func newLogger(cfg *config.Config) *zap.Logger {
	file := cfg.Log.File
	if file != "" && !filepath.IsAbs(file) {
		if root, err := cfg.ResolveRoot(); err == nil {
			file = filepath.Join(root, file)
		}
	}
	return logger.New(cfg.Log.Level, file)
}
