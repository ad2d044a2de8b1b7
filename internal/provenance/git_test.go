package provenance

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeGit writes a shell script standing in for the git binary. Its
// behavior is steered through FWSTAMP_FAKE_* environment variables set
// with t.Setenv, so each test owns its own repository state.
func fakeGit(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake git requires a POSIX shell")
	}

	script := `#!/bin/sh
cmd="$1 $2"
if [ "$cmd" = "$FWSTAMP_FAKE_FAIL" ]; then
	exit 1
fi
case "$cmd" in
"rev-parse --short") echo "${FWSTAMP_FAKE_HASH:-a1b2c3d}" ;;
"rev-parse --abbrev-ref") echo "${FWSTAMP_FAKE_BRANCH:-main}" ;;
"status --porcelain") printf '%s\n' "$FWSTAMP_FAKE_STATUS" ;;
*) exit 2 ;;
esac
`
	path := filepath.Join(t.TempDir(), "git")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake git: %v", err)
	}
	return path
}

func TestGitSourceQuery(t *testing.T) {
	t.Run("clean tree", func(t *testing.T) {
		src := &GitSource{Binary: fakeGit(t)}
		t.Setenv("FWSTAMP_FAKE_STATUS", "")

		info, err := src.Query(context.Background())
		if err != nil {
			t.Fatalf("Query: %v", err)
		}

		if info.Hash != "a1b2c3d" {
			t.Errorf("Hash: got %q, want %q", info.Hash, "a1b2c3d")
		}
		if info.Branch != "main" {
			t.Errorf("Branch: got %q, want %q", info.Branch, "main")
		}
		if info.Dirty {
			t.Error("Dirty: got true, want false for empty status")
		}
	})

	t.Run("dirty tree", func(t *testing.T) {
		src := &GitSource{Binary: fakeGit(t)}
		t.Setenv("FWSTAMP_FAKE_STATUS", " M src/main.cpp")

		info, err := src.Query(context.Background())
		if err != nil {
			t.Fatalf("Query: %v", err)
		}

		if !info.Dirty {
			t.Error("Dirty: got false, want true for non-empty status")
		}
		if got := info.Revision(); got != "a1b2c3d-dirty" {
			t.Errorf("Revision: got %q, want %q", got, "a1b2c3d-dirty")
		}
	})

	t.Run("detached head", func(t *testing.T) {
		src := &GitSource{Binary: fakeGit(t)}
		t.Setenv("FWSTAMP_FAKE_BRANCH", "HEAD")
		t.Setenv("FWSTAMP_FAKE_STATUS", "")

		info, err := src.Query(context.Background())
		if err != nil {
			t.Fatalf("Query: %v", err)
		}

		// rev-parse reports the literal "HEAD" when detached; the value is
		// passed through untouched.
		if info.Branch != "HEAD" {
			t.Errorf("Branch: got %q, want %q", info.Branch, "HEAD")
		}
	})
}

func TestGitSourceQueryFailure(t *testing.T) {
	t.Run("missing binary", func(t *testing.T) {
		src := &GitSource{Binary: filepath.Join(t.TempDir(), "no-such-git")}

		if _, err := src.Query(context.Background()); err == nil {
			t.Fatal("Query: expected error for missing binary")
		}
	})

	failures := []struct {
		name string
		fail string
	}{
		{"hash query fails", "rev-parse --short"},
		{"branch query fails", "rev-parse --abbrev-ref"},
		{"status query fails", "status --porcelain"},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			src := &GitSource{Binary: fakeGit(t)}
			t.Setenv("FWSTAMP_FAKE_FAIL", tt.fail)

			if _, err := src.Query(context.Background()); err == nil {
				t.Fatal("Query: expected error when a git command fails")
			}
		})
	}
}
