// Package changelog extracts version numbers and release notes from
// keep-a-changelog style documents. A version heading is a level-2 markdown
// heading containing a semantic version, optionally bracketed:
//
//	## [1.2.0] - 2026-01-15
//	## 1.2.0
//
// Headings are matched explicitly by version string, never by position, so
// out-of-order changelogs are handled correctly.
package changelog

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultVersion is the fallback callers apply when a changelog carries no
// version heading at all. It exists for templates without changelog
// discipline; it must not be used to mask other errors.
const DefaultVersion = "1.0.0"

var versionHeading = regexp.MustCompile(`(?m)^##\s+\[?(\d+\.\d+\.\d+)\]?`)

// VersionNotFoundError indicates the document contains no recognizable
// version heading (or not the requested one).
type VersionNotFoundError struct {
	Version string
}

func (e *VersionNotFoundError) Error() string {
	if e.Version == "" {
		return "changelog: no version heading found"
	}
	return fmt.Sprintf("changelog: no heading for version %s", e.Version)
}

// Latest returns the version introduced by the first version heading in the
// document. The first heading is the most recent release by convention, but
// no ordering is assumed beyond that: the caller gets whatever the document
// leads with.
func Latest(text string) (string, error) {
	match := versionHeading.FindStringSubmatch(text)
	if match == nil {
		return "", &VersionNotFoundError{}
	}
	return match[1], nil
}

// LatestOrDefault returns the leading version heading, falling back to
// DefaultVersion when the document has none.
func LatestOrDefault(text string) string {
	version, err := Latest(text)
	if err != nil {
		return DefaultVersion
	}
	return version
}

// ReleaseNotes returns the body between the heading for the requested version
// and the next level-2 heading (or end of document). The section is selected
// by explicit version match, so it is safe on changelogs whose headings are
// not sorted. Returns VersionNotFoundError when no heading matches.
func ReleaseNotes(text, version string) (string, error) {
	heading := regexp.MustCompile(`(?m)^##\s+\[?` + regexp.QuoteMeta(version) + `\]?.*$`)
	loc := heading.FindStringIndex(text)
	if loc == nil {
		return "", &VersionNotFoundError{Version: version}
	}

	rest := text[loc[1]:]
	if next := regexp.MustCompile(`(?m)^##\s+`).FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}

	return strings.TrimSpace(rest), nil
}
