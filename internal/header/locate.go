package header

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound reports that no version header exists at the resolved path.
// Callers treat it as a soft condition: warn, skip the write, exit clean.
var ErrNotFound = errors.New("version header not found")

// Locate resolves the artifact path under root and verifies that a
// regular file exists there. The result depends only on root, never on
// the process working directory, so the tool behaves identically from any
// invocation directory. The computed path is returned even on failure so
// diagnostics can name it.
func Locate(root, rel string) (string, error) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		return path, nil
	case err == nil:
		return path, fmt.Errorf("%s is not a regular file: %w", path, ErrNotFound)
	case os.IsNotExist(err):
		return path, fmt.Errorf("%s: %w", path, ErrNotFound)
	default:
		return path, fmt.Errorf("stat %s: %w", path, err)
	}
}
