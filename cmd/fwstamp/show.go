package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aellingwood/fwstamp/internal/config"
	"github.com/aellingwood/fwstamp/internal/header"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the provenance values currently in the header",
	Long: "Show reads the version header and reports the value each stamped\n" +
		"macro currently holds, without modifying the file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd)
	},
}

func init() {
	showCmd.Flags().String("format", "text", "output format: text, yaml, or json")
	showCmd.Flags().Bool("full", false, "print the whole header, syntax highlighted")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	root, err := cfg.ResolveRoot()
	if err != nil {
		return err
	}
	// Unlike stamping, inspection of a missing header is an error: there
	// is nothing to report.
	path, err := header.Locate(root, cfg.Artifact.Path)
	if err != nil {
		return err
	}
	text, _, err := header.ReadFile(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if full, _ := cmd.Flags().GetBool("full"); full {
		return highlightHeader(out, text)
	}

	defines, err := config.ResolveDefines(cfg, root, nil, nil)
	if err != nil {
		return err
	}
	patcher, err := header.NewPatcher(cfg.Macros.Macros(), defines)
	if err != nil {
		return err
	}
	values := patcher.Extract(text)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text":
		names := make([]string, 0, len(values))
		width := 0
		for name := range values {
			names = append(names, name)
			if len(name) > width {
				width = len(name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "%-*s  %s\n", width, name, values[name])
		}
	case "yaml":
		raw, err := yaml.Marshal(values)
		if err != nil {
			return fmt.Errorf("encoding values: %w", err)
		}
		fmt.Fprint(out, string(raw))
	case "json":
		raw, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding values: %w", err)
		}
		fmt.Fprintln(out, string(raw))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

// highlightHeader writes the header text with C syntax highlighting for
// terminal display.
func highlightHeader(out io.Writer, text string) error {
	lexer := lexers.Get("c")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	style := styles.Get("github")

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return fmt.Errorf("tokenising header: %w", err)
	}
	return formatter.Format(out, style, iterator)
}
