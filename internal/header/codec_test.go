package header

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// TestReadFile / TestWriteFile
// ---------------------------------------------------------------------------

func TestReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.h")
	original := []byte("#define FW_GIT_HASH \"unknown\"\n// trailing comment\n")
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	text, bom, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if bom {
		t.Error("bom: got true, want false")
	}
	if err := WriteFile(path, text, bom); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-reading file: %v", err)
	}
	if !bytes.Equal(after, original) {
		t.Errorf("round trip altered bytes:\ngot  %q\nwant %q", after, original)
	}
}

func TestReadWriteKeepsByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.h")
	original := append([]byte{0xEF, 0xBB, 0xBF}, []byte("#define FW_GIT_HASH \"unknown\"\n")...)
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	text, bom, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bom {
		t.Fatal("bom: got false, want true")
	}
	if text != "#define FW_GIT_HASH \"unknown\"\n" {
		t.Errorf("text kept the mark: %q", text)
	}
	if err := WriteFile(path, text, bom); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-reading file: %v", err)
	}
	if !bytes.Equal(after, original) {
		t.Errorf("round trip dropped or moved the mark:\ngot  %q\nwant %q", after, original)
	}
}

func TestReadFileRejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.h")
	if err := os.WriteFile(path, []byte{0xFF, 0xFE, 0x00, 0x41}, 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	if _, _, err := ReadFile(path); err == nil {
		t.Error("ReadFile: expected error for invalid UTF-8")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "absent.h")); err == nil {
		t.Error("ReadFile: expected error for missing file")
	}
}
