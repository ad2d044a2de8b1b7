package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "fwstamp" {
		t.Errorf("expected root command Use to be 'fwstamp', got %q", rootCmd.Use)
	}

	expectedSubcommands := []string{"stamp", "show", "watch", "config", "version"}
	commands := rootCmd.Commands()

	nameSet := make(map[string]bool)
	for _, cmd := range commands {
		nameSet[cmd.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		if !nameSet[expected] {
			t.Errorf("expected root command to have subcommand %q", expected)
		}
	}
}

func TestStampFlags(t *testing.T) {
	// A bare invocation stamps, so the stamp flags live on the root
	// command as well as on the subcommand.
	expectedFlags := []string{"dry-run", "git-bin", "git-dir", "artifact", "define", "values"}
	for _, cmd := range []*cobra.Command{rootCmd, stampCmd} {
		for _, name := range expectedFlags {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s command to have flag %q", cmd.Name(), name)
			}
		}

		flag := cmd.Flags().ShorthandLookup("D")
		if flag == nil {
			t.Errorf("expected %s command to have short flag -D for define", cmd.Name())
		} else if flag.Name != "define" {
			t.Errorf("expected short flag -D to map to 'define', got %q", flag.Name)
		}
	}

	expectedPersistent := []string{"config", "root", "verbose", "log-file"}
	for _, name := range expectedPersistent {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected root command to have persistent flag %q", name)
		}
	}
}

func TestShowFlags(t *testing.T) {
	formatFlag := showCmd.Flags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected show command to have flag 'format'")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected format default to be 'text', got %q", formatFlag.DefValue)
	}

	if showCmd.Flags().Lookup("full") == nil {
		t.Error("expected show command to have flag 'full'")
	}
}

func TestWatchFlags(t *testing.T) {
	expectedFlags := []string{"debounce", "dry-run", "git-bin", "git-dir", "artifact", "define", "values"}
	for _, name := range expectedFlags {
		if watchCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected watch command to have flag %q", name)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"version"})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "fwstamp") {
		t.Errorf("expected version output to mention fwstamp, got %q", output)
	}

	// Reset for other tests
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)
}

// ---------------------------------------------------------------------------
// End-to-end stamping through the CLI
// ---------------------------------------------------------------------------

const cliHeader = `#ifndef VERSION_H
#define VERSION_H

#define FW_VERSION_MAJOR 1
#define FW_GIT_HASH "old"
#define FW_GIT_BRANCH "old"
#define FW_VERSION_BUILD 0

#endif
`

// execute runs the CLI with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

// seedHeader lays out a project root with a stampable header and returns
// the root and the artifact path.
func seedHeader(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "include")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "version.h")
	if err := os.WriteFile(path, []byte(cliHeader), 0o644); err != nil {
		t.Fatalf("seeding header: %v", err)
	}
	return root, path
}

// missingGit returns a path no git executable lives at, so provenance
// collection degrades to the sentinel values.
func missingGit(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "no-such-git")
}

func TestStampCommandEndToEnd(t *testing.T) {
	root, path := seedHeader(t)

	out, err := execute(t, "stamp", "--root", root, "--git-bin", missingGit(t))
	if err != nil {
		t.Fatalf("stamp command failed: %v", err)
	}
	if !strings.Contains(out, "Updated") {
		t.Errorf("expected stamp output to report an update, got %q", out)
	}

	stamped, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stamped header: %v", err)
	}
	text := string(stamped)
	if !strings.Contains(text, `#define FW_GIT_HASH "unknown"`) {
		t.Errorf("expected sentinel hash in stamped header, got:\n%s", text)
	}
	if !strings.Contains(text, `#define FW_GIT_BRANCH "unknown"`) {
		t.Errorf("expected sentinel branch in stamped header, got:\n%s", text)
	}
	if !regexp.MustCompile(`#define FW_VERSION_BUILD \d{8}-\d{6}\n`).MatchString(text) {
		t.Errorf("expected timestamp build value in stamped header, got:\n%s", text)
	}
}

func TestStampCommandMissingArtifact(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "stamp", "--root", root, "--git-bin", missingGit(t))
	if err != nil {
		t.Fatalf("expected missing artifact to be tolerated, got %v", err)
	}
	if !strings.Contains(out, "nothing to do") {
		t.Errorf("expected a nothing-to-do diagnostic, got %q", out)
	}

	if _, err := os.Stat(filepath.Join(root, "include", "version.h")); !os.IsNotExist(err) {
		t.Errorf("expected no header to be created, stat err = %v", err)
	}
}

// Keep this last: the dry-run flag sticks across Execute calls.
func TestStampCommandDryRun(t *testing.T) {
	root, path := seedHeader(t)

	out, err := execute(t, "stamp", "--root", root, "--git-bin", missingGit(t), "--dry-run")
	if err != nil {
		t.Fatalf("stamp command failed: %v", err)
	}
	if !strings.Contains(out, "Would update") {
		t.Errorf("expected dry-run output to say 'Would update', got %q", out)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading header: %v", err)
	}
	if string(after) != cliHeader {
		t.Error("expected dry run to leave the header untouched")
	}
}
