package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-circle-publisher/internal/tiptap"
)

const testReadme = `# Daily Summary Email

Sends a daily digest of workspace activity.

- Configurable schedule
- Markdown formatting
`

const testChangelog = `# Changelog

## [1.1.0] - 2026-02-01

- Added digest grouping

## [1.0.0] - 2026-01-01

Initial release.
`

func writeTemplate(tb testing.TB, files map[string]string) string {
	tb.Helper()
	dir := tb.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestBuilder_Build(t *testing.T) {
	dir := writeTemplate(t, map[string]string{
		"README.md":    testReadme,
		"CHANGELOG.md": testChangelog,
	})

	post, err := NewBuilder().Build(dir, "daily-summary-email", "1.0.0", "https://example/dl.zip")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if post.Title != "Daily Summary Email v1.0.0" {
		t.Fatalf("unexpected title: %q", post.Title)
	}
	if post.Slug != "daily-summary-email-v1-0-0" {
		t.Fatalf("unexpected slug: %q", post.Slug)
	}
	if len(post.Body.Content) == 0 {
		t.Fatalf("expected non-empty body")
	}

	last := post.Body.Content[len(post.Body.Content)-1]
	if !last.IsDownloadAction("https://example/dl.zip") {
		t.Fatalf("expected body to end with download action, got %#v", last)
	}
}

func TestBuilder_Build_IncludesReleaseNotes(t *testing.T) {
	dir := writeTemplate(t, map[string]string{
		"README.md":    testReadme,
		"CHANGELOG.md": testChangelog,
	})

	post, err := NewBuilder().Build(dir, "daily-summary-email", "1.1.0", "https://example/dl.zip")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !containsHeading(post.Body.Content, "What's New in This Version") {
		t.Fatalf("expected What's New heading")
	}
	if !containsText(post.Body.Content, "Added digest grouping") {
		t.Fatalf("expected 1.1.0 release notes in body")
	}
	if containsText(post.Body.Content, "Initial release.") {
		t.Fatalf("release notes leaked the 1.0.0 section")
	}
}

func TestBuilder_Build_MissingReadme(t *testing.T) {
	dir := writeTemplate(t, map[string]string{
		"CHANGELOG.md": testChangelog,
	})

	post, err := NewBuilder().Build(dir, "daily-summary-email", "1.0.0", "https://example/dl.zip")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(post.Body.Content) == 0 {
		t.Fatalf("document must never be empty")
	}
	if !containsHeading(post.Body.Content, "What's New in This Version") {
		t.Fatalf("expected What's New section without a readme")
	}
	last := post.Body.Content[len(post.Body.Content)-1]
	if !last.IsDownloadAction("https://example/dl.zip") {
		t.Fatalf("expected download action without a readme")
	}
}

func TestBuilder_Build_MissingChangelog(t *testing.T) {
	dir := writeTemplate(t, map[string]string{
		"README.md": testReadme,
	})

	post, err := NewBuilder().Build(dir, "daily-summary-email", "1.0.0", "https://example/dl.zip")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !containsHeading(post.Body.Content, "What's New in This Version") {
		t.Fatalf("expected What's New heading even without changelog")
	}
}

func TestBuilder_Build_FrontMatterTitleOverride(t *testing.T) {
	dir := writeTemplate(t, map[string]string{
		"README.md": "---\ntitle: Digest Mailer\n---\n\n# Ignored\n\nbody\n",
	})

	post, err := NewBuilder().Build(dir, "daily-summary-email", "2.0.0", "https://example/dl.zip")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if post.Title != "Digest Mailer v2.0.0" {
		t.Fatalf("expected frontmatter title override, got %q", post.Title)
	}
	if containsText(post.Body.Content, "title: Digest Mailer") {
		t.Fatalf("frontmatter leaked into the body")
	}
}

func TestBuilder_Build_CategoryPrefix(t *testing.T) {
	dir := writeTemplate(t, map[string]string{"README.md": testReadme})

	post, err := NewBuilder().Build(dir, "email/daily-summary-email", "1.0.0", "https://example/dl.zip")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if post.Slug != "daily-summary-email-v1-0-0" {
		t.Fatalf("category prefix must not appear in slug, got %q", post.Slug)
	}
	if post.Title != "Daily Summary Email v1.0.0" {
		t.Fatalf("category prefix must not appear in title, got %q", post.Title)
	}
}

func TestSlug(t *testing.T) {
	cases := []struct {
		name    string
		version string
		want    string
	}{
		{"daily-summary-email", "1.0.0", "daily-summary-email-v1-0-0"},
		{"My_Template", "2.10.3", "my-template-v2-10-3"},
		{"email/daily-summary-email", "1.0.0", "daily-summary-email-v1-0-0"},
	}

	for _, tc := range cases {
		got, err := Slug(tc.name, tc.version)
		if err != nil {
			t.Fatalf("Slug(%q, %q): %v", tc.name, tc.version, err)
		}
		if got != tc.want {
			t.Fatalf("Slug(%q, %q) = %q, want %q", tc.name, tc.version, got, tc.want)
		}
	}
}

func TestHumanize(t *testing.T) {
	if got := humanize("daily-summary-email"); got != "Daily Summary Email" {
		t.Fatalf("humanize: got %q", got)
	}
	if got := humanize("lead_scoring"); got != "Lead Scoring" {
		t.Fatalf("humanize underscore: got %q", got)
	}
}

func containsHeading(nodes []tiptap.Node, text string) bool {
	for _, node := range nodes {
		if node.Type != tiptap.TypeHeading {
			continue
		}
		for _, run := range node.Content {
			if run.Text == text {
				return true
			}
		}
	}
	return false
}

func containsText(nodes []tiptap.Node, text string) bool {
	for _, node := range nodes {
		if node.Text == text {
			return true
		}
		if containsText(node.Content, text) {
			return true
		}
	}
	return false
}
