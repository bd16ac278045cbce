// Package ledger tracks published template versions in a durable JSON file.
// History is append-only: a recorded version is never mutated or deleted,
// only new entries are added. Every operation re-reads the file so
// sequential calls observe each other's writes.
package ledger

import (
	"errors"
	"fmt"
	"iter"
	"time"

	semver "github.com/Masterminds/semver/v3"

	"github.com/goliatone/go-circle-publisher/internal/store"
)

// ErrNotTracked reports that a template has no recorded versions yet.
var ErrNotTracked = errors.New("ledger: template not tracked")

// DuplicateVersionError reports an attempt to record a version that already
// exists for the template. Publishing the same version twice is a caller
// bug; merging silently would corrupt the append-only history.
type DuplicateVersionError struct {
	Template string
	Version  string
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("ledger: version %s already recorded for %s", e.Version, e.Template)
}

// Record is one immutable entry in a template's version history.
type Record struct {
	Version          string    `json:"version"`
	ReleasedAt       time.Time `json:"released_at"`
	GitHubReleaseTag string    `json:"github_release_tag"`
	DownloadURL      string    `json:"download_url"`
	CirclePostID     string    `json:"circle_post_id"`
}

type entry struct {
	CurrentVersion string   `json:"current_version"`
	Versions       []Record `json:"versions"`
}

type document struct {
	Templates map[string]entry `json:"templates"`
}

// fileSchema guards loads: a versions file that decodes but does not match
// this shape is reported as corrupt instead of being silently reset.
var fileSchema = map[string]any{
	"type":     "object",
	"required": []string{"templates"},
	"properties": map[string]any{
		"templates": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":     "object",
				"required": []string{"current_version", "versions"},
				"properties": map[string]any{
					"current_version": map[string]any{"type": "string"},
					"versions": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []string{"version"},
							"properties": map[string]any{
								"version":            map[string]any{"type": "string"},
								"released_at":        map[string]any{"type": "string"},
								"github_release_tag": map[string]any{"type": "string"},
								"download_url":       map[string]any{"type": "string"},
								"circle_post_id":     map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
	},
}

// Ledger is the durable version history keyed by template name.
type Ledger struct {
	file *store.File
	now  func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New constructs a Ledger backed by the JSON file at path.
func New(path string, opts ...Option) (*Ledger, error) {
	file, err := store.NewFile(path, fileSchema)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		file: file,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CurrentVersion returns the latest recorded version for the template by
// semantic-version ordering, or ErrNotTracked when the template has no
// history.
func (l *Ledger) CurrentVersion(name string) (string, error) {
	doc, err := l.load()
	if err != nil {
		return "", err
	}
	ent, ok := doc.Templates[name]
	if !ok || len(ent.Versions) == 0 {
		return "", ErrNotTracked
	}
	return ent.CurrentVersion, nil
}

// AllVersions returns the template's recorded entries in storage order
// (chronological append order, not version-sorted). The sequence is a
// snapshot taken at call time and can be ranged over repeatedly.
func (l *Ledger) AllVersions(name string) (iter.Seq[Record], error) {
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	records := doc.Templates[name].Versions
	return func(yield func(Record) bool) {
		for _, rec := range records {
			if !yield(rec) {
				return
			}
		}
	}, nil
}

// IsRecorded reports whether the exact version string is already in the
// template's history.
func (l *Ledger) IsRecorded(name, version string) (bool, error) {
	doc, err := l.load()
	if err != nil {
		return false, err
	}
	for _, rec := range doc.Templates[name].Versions {
		if rec.Version == version {
			return true, nil
		}
	}
	return false, nil
}

// RecordVersion appends a new version entry for the template. Returns
// DuplicateVersionError when the exact version string is already recorded.
// The write is all-or-nothing: a crash between load and replace leaves the
// prior ledger intact.
func (l *Ledger) RecordVersion(name string, rec Record) error {
	if rec.Version == "" {
		return fmt.Errorf("ledger: version is required")
	}

	doc, err := l.load()
	if err != nil {
		return err
	}

	ent := doc.Templates[name]
	for _, existing := range ent.Versions {
		if existing.Version == rec.Version {
			return &DuplicateVersionError{Template: name, Version: rec.Version}
		}
	}

	if rec.ReleasedAt.IsZero() {
		rec.ReleasedAt = l.now()
	}

	ent.Versions = append(ent.Versions, rec)
	ent.CurrentVersion = currentVersion(ent.Versions)
	doc.Templates[name] = ent

	return l.file.Replace(doc)
}

// load re-reads the persisted state; a missing file is empty state.
func (l *Ledger) load() (document, error) {
	doc := document{Templates: map[string]entry{}}
	if err := l.file.Load(&doc); err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return document{Templates: map[string]entry{}}, nil
		}
		return document{}, err
	}
	if doc.Templates == nil {
		doc.Templates = map[string]entry{}
	}
	return doc, nil
}

// currentVersion picks the semver-greatest recorded version. Entries that do
// not parse as semantic versions are ignored for the comparison; when none
// parse, the most recently appended entry wins.
func currentVersion(records []Record) string {
	var best *semver.Version
	bestRaw := ""
	for _, rec := range records {
		parsed, err := semver.NewVersion(rec.Version)
		if err != nil {
			continue
		}
		if best == nil || parsed.GreaterThan(best) {
			best = parsed
			bestRaw = rec.Version
		}
	}
	if bestRaw == "" && len(records) > 0 {
		return records[len(records)-1].Version
	}
	return bestRaw
}
