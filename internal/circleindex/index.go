// Package circleindex maps template names to their Circle post identifiers.
// The index is the idempotency anchor for publishing: at most one live post
// per template, so a new version updates the existing post instead of
// creating a duplicate.
package circleindex

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-circle-publisher/internal/store"
)

// Lookup is the tagged result of an index query. Callers branch on Found
// explicitly; there is no sentinel post id value.
type Lookup struct {
	PostID string
	Found  bool
}

// fileSchema rejects index files whose values are not post id strings.
var fileSchema = map[string]any{
	"type": "object",
	"additionalProperties": map[string]any{
		"type": "string",
	},
}

// Index is the durable template -> post id mapping, backed by a flat JSON
// object. Every call re-reads the file so sequential publishes in a batch
// observe each other's writes.
type Index struct {
	file *store.File
}

// New constructs an Index backed by the JSON file at path.
func New(path string) (*Index, error) {
	file, err := store.NewFile(path, fileSchema)
	if err != nil {
		return nil, err
	}
	return &Index{file: file}, nil
}

// Lookup returns the current post identifier for the template, if any.
func (i *Index) Lookup(name string) (Lookup, error) {
	entries, err := i.load()
	if err != nil {
		return Lookup{}, err
	}
	postID, ok := entries[name]
	if !ok || postID == "" {
		return Lookup{}, nil
	}
	return Lookup{PostID: postID, Found: true}, nil
}

// Upsert sets or overwrites the post identifier for the template. The write
// is atomic; a crash mid-call leaves the previous mapping intact.
func (i *Index) Upsert(name, postID string) error {
	if name == "" {
		return fmt.Errorf("circleindex: template name is required")
	}
	if postID == "" {
		return fmt.Errorf("circleindex: post id is required")
	}

	entries, err := i.load()
	if err != nil {
		return err
	}
	entries[name] = postID
	return i.file.Replace(entries)
}

func (i *Index) load() (map[string]string, error) {
	entries := map[string]string{}
	if err := i.file.Load(&entries); err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return entries, nil
}
