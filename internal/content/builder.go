// Package content assembles Circle post documents from template directories.
// A template directory holds a README.md (the long-form description, with
// optional YAML frontmatter) and a CHANGELOG.md (keep-a-changelog style).
package content

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	slug "github.com/goliatone/go-slug"

	"github.com/goliatone/go-circle-publisher/internal/changelog"
	"github.com/goliatone/go-circle-publisher/internal/logging"
	"github.com/goliatone/go-circle-publisher/internal/tiptap"
	"github.com/goliatone/go-circle-publisher/pkg/interfaces"
)

const (
	readmeFile    = "README.md"
	changelogFile = "CHANGELOG.md"

	whatsNewHeading = "What's New in This Version"
	downloadHeading = "Download Workflow"
)

// Post is the fully composed payload for a create or update call: title,
// URL-safe slug, and the TipTap body document.
type Post struct {
	Title string
	Slug  string
	Body  tiptap.Document
}

// Builder composes README, changelog excerpt, and the download action into a
// single post document. Building is pure composition over the template
// directory contents; it performs no network access.
type Builder struct {
	converter *tiptap.Converter
	logger    interfaces.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger attaches a logger to the builder.
func WithLogger(logger interfaces.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder constructs a Builder with a shared markdown converter.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		converter: tiptap.NewConverter(),
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the post document for the given template, version, and
// public download URL. A missing README degrades to a document containing
// only the What's New section and the download action; the document is never
// empty. The final body node is always the download action carrying the
// supplied URL.
func (b *Builder) Build(templateDir, templateName, version, downloadURL string) (Post, error) {
	name := baseName(templateName)
	if name == "" {
		return Post{}, fmt.Errorf("content: template name is empty")
	}

	title := humanize(name)
	body := []tiptap.Node{}

	if source, err := os.ReadFile(filepath.Join(templateDir, readmeFile)); err == nil {
		markdown, fmTitle := stripFrontMatter(source)
		if fmTitle != "" {
			title = fmTitle
		}
		body = append(body, b.converter.ConvertBody(markdown)...)
	} else if !os.IsNotExist(err) {
		return Post{}, fmt.Errorf("content: read readme: %w", err)
	} else {
		b.logger.Warn("readme missing, building post without description",
			"template", name, "dir", templateDir)
	}

	if len(body) > 0 {
		body = append(body, tiptap.HorizontalRule())
	}
	body = append(body, tiptap.Heading(2, whatsNewHeading))
	body = append(body, b.releaseNotes(templateDir, name, version)...)

	body = append(body,
		tiptap.HorizontalRule(),
		tiptap.Heading(2, downloadHeading),
		tiptap.Paragraph(
			tiptap.TextRun("Click the link below to download the workflow.json.zip file. "),
			tiptap.TextRun("Unzip the file and import workflow.json into your n8n instance."),
		),
		tiptap.DownloadAction(downloadURL, fmt.Sprintf("Download %s v%s", name, version)),
	)

	postSlug, err := Slug(name, version)
	if err != nil {
		return Post{}, err
	}

	return Post{
		Title: fmt.Sprintf("%s v%s", title, version),
		Slug:  postSlug,
		Body:  tiptap.NewDocument(body...),
	}, nil
}

// releaseNotes converts the changelog section for the requested version. A
// missing changelog or missing section yields no nodes; the What's New
// heading stands alone in that case.
func (b *Builder) releaseNotes(templateDir, name, version string) []tiptap.Node {
	source, err := os.ReadFile(filepath.Join(templateDir, changelogFile))
	if err != nil {
		if !os.IsNotExist(err) {
			b.logger.Warn("changelog unreadable, skipping release notes",
				"template", name, "error", err)
		}
		return nil
	}

	notes, err := changelog.ReleaseNotes(string(source), version)
	if err != nil || notes == "" {
		if err != nil {
			b.logger.Debug("no release notes for version",
				"template", name, "version", version)
		}
		return nil
	}

	return b.converter.ConvertBody([]byte(notes))
}

// Slug derives the URL-safe post slug from a template name and version:
// lowercase, punctuation collapsed to single hyphens, e.g.
// daily-summary-email + 1.0.0 -> daily-summary-email-v1-0-0.
func Slug(name, version string) (string, error) {
	source := fmt.Sprintf("%s-v%s", baseName(name), strings.ReplaceAll(version, ".", "-"))
	normalized, err := slug.Normalize(source)
	if err != nil {
		return "", fmt.Errorf("content: normalize slug %q: %w", source, err)
	}
	return normalized, nil
}

type frontMatterEnvelope struct {
	Title string `yaml:"title"`
}

// stripFrontMatter removes a YAML frontmatter block and returns the remaining
// markdown plus the frontmatter title, when present. Parse failures degrade
// to the raw source: a rendering problem must not block a publish.
func stripFrontMatter(source []byte) ([]byte, string) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return source, ""
	}
	return body, strings.TrimSpace(meta.Title)
}

// baseName drops an optional category prefix: "category/template" -> "template".
func baseName(templateName string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(templateName, "\\", "/"))
	if trimmed == "" {
		return ""
	}
	base := path.Base(trimmed)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// humanize renders a template identifier as a title: "daily-summary-email" ->
// "Daily Summary Email".
func humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
