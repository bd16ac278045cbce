// Package store provides the durable state port shared by the version ledger
// and the post index: JSON files with atomic replace semantics. Every
// mutation goes through load, modify, then temp-file-plus-rename, so a crash
// mid-write leaves the previous state intact on reload.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNotExist reports that the backing file has not been created yet. Callers
// treat this as empty state, never as corruption.
var ErrNotExist = fs.ErrNotExist

// CorruptError indicates the backing file exists but does not decode or does
// not match its schema. Corrupt state is surfaced loudly and never silently
// reset: losing history implicitly is worse than failing a publish.
type CorruptError struct {
	Path  string
	Cause error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("store: corrupt state file %s: %v", e.Path, e.Cause)
}

func (e *CorruptError) Unwrap() error { return e.Cause }

// File is an atomically replaceable JSON document on disk, optionally
// validated against a JSON schema on every load.
type File struct {
	path   string
	schema *jsonschema.Schema
}

// NewFile builds a File for the given path. When schema is non-nil it is
// compiled once and applied to every load; a document that fails validation
// is reported as corrupt.
func NewFile(path string, schema map[string]any) (*File, error) {
	f := &File{path: path}
	if schema != nil {
		compiled, err := compileSchema(schema)
		if err != nil {
			return nil, fmt.Errorf("store: compile schema for %s: %w", path, err)
		}
		f.schema = compiled
	}
	return f, nil
}

// Path returns the location of the backing file.
func (f *File) Path() string { return f.path }

// Load reads the current document into v. Returns ErrNotExist when the file
// has never been written, and CorruptError when it cannot be decoded or
// fails schema validation.
func (f *File) Load(v any) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return fmt.Errorf("store: read %s: %w", f.path, err)
	}

	if f.schema != nil {
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return &CorruptError{Path: f.path, Cause: err}
		}
		if err := f.schema.Validate(decoded); err != nil {
			return &CorruptError{Path: f.path, Cause: err}
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return &CorruptError{Path: f.path, Cause: err}
	}
	return nil
}

// Replace atomically writes v as the new document: marshal, write to a
// temporary file in the same directory, fsync, then rename over the target.
// A crash at any point leaves either the old or the new document, never a
// torn mix.
func (f *File) Replace(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", f.path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: temp file for %s: %w", f.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", f.path, err)
	}
	return nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}
