package provenance

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitSource queries provenance by invoking the git command-line tool
// against a working tree. The zero value uses "git" from PATH and the
// process working directory.
type GitSource struct {
	Binary string // git executable; empty means "git"
	Dir    string // directory to run queries in; empty means process cwd
}

// Query runs the three read-only git queries in order: short revision id,
// branch name, working-tree status. The first failing command aborts the
// whole query so callers never see a partial Info. Each command runs
// exactly once per call.
func (g *GitSource) Query(ctx context.Context) (Info, error) {
	hash, err := g.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return Info{}, err
	}
	branch, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Info{}, err
	}
	status, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return Info{}, err
	}
	return Info{Hash: hash, Branch: branch, Dirty: status != ""}, nil
}

// run executes a single git command and returns its trimmed stdout.
// Stderr is discarded; failures surface through the error only.
func (g *GitSource) run(ctx context.Context, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = g.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(out.String()), nil
}
