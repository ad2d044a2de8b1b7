package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aellingwood/fwstamp/internal/header"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long: "Print the fully resolved configuration after merging defaults, the\n" +
		"config file, and command-line overrides, along with the project root\n" +
		"and artifact path the tool would act on.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfig(cmd)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(raw))

	root, err := cfg.ResolveRoot()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# resolved root: %s\n", root)

	path, err := header.Locate(root, cfg.Artifact.Path)
	state := "present"
	if err != nil {
		if !errors.Is(err, header.ErrNotFound) {
			return err
		}
		state = "missing"
	}
	fmt.Fprintf(out, "# resolved artifact: %s (%s)\n", path, state)
	return nil
}
