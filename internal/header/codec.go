package header

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile loads the artifact as UTF-8 text. A leading byte-order mark is
// stripped and reported so WriteFile can restore it. Any other encoding
// makes the artifact unpatchable and is rejected before a substitution
// can corrupt it.
func ReadFile(path string) (text string, bom bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		return "", false, fmt.Errorf("%s is not valid UTF-8", path)
	}
	if bom = bytes.HasPrefix(raw, utf8BOM); bom {
		raw, err = unicode.UTF8BOM.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false, fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	return string(raw), bom, nil
}

// WriteFile stores the patched text, restoring the byte-order mark when
// the original carried one. The write is a plain whole-file overwrite;
// build steps are not expected to run concurrently against one artifact.
func WriteFile(path, text string, bom bool) error {
	data := []byte(text)
	if bom {
		out, err := unicode.UTF8BOM.NewEncoder().Bytes(data)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		data = out
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
