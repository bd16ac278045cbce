package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testSchema = map[string]any{
	"type": "object",
	"additionalProperties": map[string]any{
		"type": "string",
	},
}

func testFile(tb testing.TB, schema map[string]any) *File {
	tb.Helper()
	f, err := NewFile(filepath.Join(tb.TempDir(), "state.json"), schema)
	if err != nil {
		tb.Fatalf("NewFile: %v", err)
	}
	return f
}

func TestFile_LoadMissing(t *testing.T) {
	f := testFile(t, nil)

	var out map[string]string
	if err := f.Load(&out); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestFile_ReplaceThenLoad(t *testing.T) {
	f := testFile(t, testSchema)

	if err := f.Replace(map[string]string{"daily-summary-email": "post-1"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	var out map[string]string
	if err := f.Load(&out); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out["daily-summary-email"] != "post-1" {
		t.Fatalf("unexpected state: %#v", out)
	}
}

func TestFile_LoadRereadsLatestState(t *testing.T) {
	f := testFile(t, nil)

	if err := f.Replace(map[string]string{"a": "1"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := f.Replace(map[string]string{"a": "2"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	var out map[string]string
	if err := f.Load(&out); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out["a"] != "2" {
		t.Fatalf("expected latest write to win, got %#v", out)
	}
}

func TestFile_CorruptJSON(t *testing.T) {
	f := testFile(t, nil)
	if err := os.WriteFile(f.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	var out map[string]string
	err := f.Load(&out)
	var corrupt *CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptError, got %v", err)
	}
	if corrupt.Path != f.Path() {
		t.Fatalf("expected error to carry the file path, got %q", corrupt.Path)
	}
}

func TestFile_SchemaViolationIsCorrupt(t *testing.T) {
	f := testFile(t, testSchema)
	if err := os.WriteFile(f.Path(), []byte(`{"name": 42}`), 0o644); err != nil {
		t.Fatalf("seed invalid file: %v", err)
	}

	var out map[string]string
	err := f.Load(&out)
	var corrupt *CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptError for schema violation, got %v", err)
	}
}

func TestFile_ReplaceLeavesNoTempFiles(t *testing.T) {
	f := testFile(t, nil)
	if err := f.Replace(map[string]string{"a": "1"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(f.Path()))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestFile_ReplaceCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(filepath.Join(dir, "data", "state.json"), nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := f.Replace(map[string]string{}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, err := os.Stat(f.Path()); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
}
