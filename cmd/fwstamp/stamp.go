package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aellingwood/fwstamp/internal/stamp"
)

var stampCmd = &cobra.Command{
	Use:   "stamp",
	Short: "Rewrite the version header with the current git state",
	Long: "Stamp runs one pass of the pipeline: query git for the commit hash,\n" +
		"branch, and working-tree state, then rewrite the configured #define\n" +
		"values in the version header. Unavailable git state degrades to\n" +
		"\"unknown\" and a missing header is skipped; neither blocks a build.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStamp(cmd)
	},
}

func init() {
	addStampFlags(stampCmd)
	rootCmd.AddCommand(stampCmd)
}

// addStampFlags declares the stamping flags. They are registered on both
// the root command and the stamp subcommand so a bare invocation and an
// explicit one accept the same set.
func addStampFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "report what would change without writing")
	cmd.Flags().String("git-bin", "", "git executable to query (default from config)")
	cmd.Flags().String("git-dir", "", "directory to run git queries in")
	cmd.Flags().String("artifact", "", "header path relative to the project root")
	cmd.Flags().StringArrayP("define", "D", nil, "extra NAME=VALUE define to pin (repeatable)")
	cmd.Flags().StringArray("values", nil, "extra values file to overlay (repeatable)")
}

// stampOverrides maps the stamp flags present on cmd into config override
// keys.
func stampOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	if bin, _ := cmd.Flags().GetString("git-bin"); bin != "" {
		overrides["gitBinary"] = bin
	}
	if dir, _ := cmd.Flags().GetString("git-dir"); dir != "" {
		overrides["gitDir"] = dir
	}
	if artifact, _ := cmd.Flags().GetString("artifact"); artifact != "" {
		overrides["artifact"] = artifact
	}
	return overrides
}

// runStamp executes one stamping pass for cmd and prints the summary.
func runStamp(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.WithOverrides(stampOverrides(cmd))
	if err := cfg.Validate(); err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	files, _ := cmd.Flags().GetStringArray("values")
	pairs, _ := cmd.Flags().GetStringArray("define")

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	runner := stamp.New(cfg, nil, log)
	res, err := runner.Run(cmd.Context(), stamp.Options{
		DryRun: dryRun,
		Files:  files,
		Pairs:  pairs,
	})
	if err != nil {
		return err
	}

	printResult(cmd, res, dryRun)
	return nil
}

// printResult emits the human-readable summary for one pass.
func printResult(cmd *cobra.Command, res *stamp.Result, dryRun bool) {
	out := cmd.OutOrStdout()
	if res.Skipped {
		fmt.Fprintf(out, "No version header at %s; nothing to do.\n", res.Path)
		return
	}
	verb := "Updated"
	if dryRun {
		verb = "Would update"
	}
	fmt.Fprintf(out, "%s %s:\n", verb, res.Path)
	fmt.Fprintf(out, "  Git Hash: %s\n", res.Values.Hash)
	fmt.Fprintf(out, "  Git Branch: %s\n", res.Values.Branch)
	fmt.Fprintf(out, "  Build Time: %s\n", res.Values.Build)
}
