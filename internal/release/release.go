// Package release models the GitHub release collaborator: tag naming,
// permanent download URLs, and the upload port. The upload itself is an
// external concern; this package fixes the naming scheme the rest of the
// system depends on.
package release

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ArchiveName is the artifact filename attached to every template release.
const ArchiveName = "workflow.json.zip"

// ErrTagExists reports that a release already exists for the tag. Callers
// switch to an update path or treat the release as already published.
var ErrTagExists = errors.New("release: tag already exists")

// Storage uploads an archive under a release tag and returns the permanent
// public download URL. Implementations must be atomic per call; re-invoking
// with an existing tag returns ErrTagExists.
type Storage interface {
	Upload(ctx context.Context, tag, archivePath string) (string, error)
}

// Tag derives the release tag for a template version: the template's base
// name (category prefix dropped) plus a v-prefixed version, e.g.
// daily-summary-email-v1.0.0.
func Tag(templateName, version string) string {
	name := templateName
	if trimmed := strings.TrimSpace(strings.ReplaceAll(templateName, "\\", "/")); trimmed != "" {
		name = path.Base(trimmed)
	}
	return fmt.Sprintf("%s-v%s", name, version)
}

// DownloadURL computes the permanent download URL for a released archive:
// {base}/releases/download/{tag}/{filename}.
func DownloadURL(baseURL, tag, filename string) string {
	return fmt.Sprintf("%s/releases/download/%s/%s", strings.TrimRight(baseURL, "/"), tag, filename)
}
