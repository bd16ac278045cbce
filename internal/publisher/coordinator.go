package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/goliatone/go-circle-publisher/internal/changelog"
	"github.com/goliatone/go-circle-publisher/internal/ledger"
	"github.com/goliatone/go-circle-publisher/internal/logging"
	"github.com/goliatone/go-circle-publisher/internal/release"
	"github.com/goliatone/go-circle-publisher/pkg/interfaces"
)

// Publisher is the remote-publish contract the coordinator drives.
type Publisher interface {
	Publish(ctx context.Context, req Request) (string, error)
}

// VersionLedger is the history-recording contract the coordinator drives.
type VersionLedger interface {
	IsRecorded(name, version string) (bool, error)
	RecordVersion(name string, rec ledger.Record) error
}

// TriggerPayload is the batch input delivered by the orchestration layer:
// which repository changed, at which commit, and the ordered list of changed
// template paths relative to the templates root.
type TriggerPayload struct {
	Repository string   `json:"repository"`
	CommitRef  string   `json:"commit_ref"`
	Changed    []string `json:"changed"`
}

// Result is the per-template outcome of a batch run.
type Result struct {
	Path     string
	Template string
	Version  string
	PostID   string
	Err      error
}

// BatchReport aggregates per-template outcomes. A failed template never
// aborts the rest of the batch.
type BatchReport struct {
	RunID   string
	Results []Result
}

// Err joins the failures in the report, or returns nil when every template
// published.
func (r BatchReport) Err() error {
	errs := []error{}
	for _, result := range r.Results {
		if result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	return errors.Join(errs...)
}

// CoordinatorConfig fixes the release naming inputs for batch runs.
type CoordinatorConfig struct {
	// TemplatesRoot is the directory the trigger payload's changed paths are
	// relative to.
	TemplatesRoot string
	// DownloadBaseURL is the repository base for permanent release URLs.
	DownloadBaseURL string
	// ArchiveName is the released artifact filename.
	ArchiveName string
}

// Coordinator sequences a full publish: duplicate check, remote publish,
// then history record. Templates in a batch are processed one at a time so
// the ledger and index files see no interleaved writes.
type Coordinator struct {
	publisher Publisher
	ledger    VersionLedger
	cfg       CoordinatorConfig
	logger    interfaces.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger attaches a logger to the coordinator.
func WithCoordinatorLogger(logger interfaces.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator wires the publish sequencing on top of a Publisher and a
// VersionLedger.
func NewCoordinator(pub Publisher, versions VersionLedger, cfg CoordinatorConfig, opts ...CoordinatorOption) *Coordinator {
	if cfg.ArchiveName == "" {
		cfg.ArchiveName = release.ArchiveName
	}
	c := &Coordinator{
		publisher: pub,
		ledger:    versions,
		cfg:       cfg,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PublishTemplate publishes one template version end to end and returns the
// post id. Publishing an already-recorded version fails up front with
// DuplicateVersionError, before any remote call, so a rejected publish
// leaves both remote and local state untouched.
func (c *Coordinator) PublishTemplate(ctx context.Context, req Request) (string, error) {
	name := req.TemplateName
	logger := logging.WithPublishContext(c.logger, name, req.Version, "")

	recorded, err := c.ledger.IsRecorded(name, req.Version)
	if err != nil {
		return "", fmt.Errorf("publisher: %s: read history: %w", name, err)
	}
	if recorded {
		return "", &ledger.DuplicateVersionError{Template: name, Version: req.Version}
	}

	postID, err := c.publisher.Publish(ctx, req)
	if err != nil {
		return "", err
	}

	rec := ledger.Record{
		Version:          req.Version,
		GitHubReleaseTag: release.Tag(name, req.Version),
		DownloadURL:      req.DownloadURL,
		CirclePostID:     postID,
	}
	if err := c.ledger.RecordVersion(name, rec); err != nil {
		// Remote publish succeeded; only the history write failed. The post id
		// remains derivable from the index, so a manual re-record fixes this
		// without re-publishing.
		logging.WithPublishContext(logger, name, req.Version, postID).
			Error("published but version record failed; reconcile manually",
				"download_url", req.DownloadURL, "error", err)
		return postID, fmt.Errorf("publisher: %s v%s published as %s but not recorded: %w",
			name, req.Version, postID, err)
	}

	logging.WithPublishContext(logger, name, req.Version, postID).Info("published template version")
	return postID, nil
}

// PublishBatch publishes every changed template in the trigger payload,
// sequentially and in payload order. The version of each template is read
// from its changelog, defaulting to 1.0.0 for templates without one. A
// failed template is reported and the batch moves on.
func (c *Coordinator) PublishBatch(ctx context.Context, payload TriggerPayload) BatchReport {
	report := BatchReport{RunID: uuid.NewString()}
	logger := logging.WithFields(c.logger, map[string]any{
		"run_id":     report.RunID,
		"repository": payload.Repository,
		"commit_ref": payload.CommitRef,
	})
	logger.Info("starting batch publish", "templates", len(payload.Changed))

	for _, changed := range payload.Changed {
		result := c.publishChanged(ctx, changed)
		if result.Err != nil {
			logger.Error("template publish failed",
				"path", changed, "template", result.Template, "error", result.Err)
		}
		report.Results = append(report.Results, result)
	}

	logger.Info("batch publish finished",
		"templates", len(report.Results), "failed", len(failures(report.Results)))
	return report
}

func (c *Coordinator) publishChanged(ctx context.Context, changed string) Result {
	result := Result{Path: changed, Template: changed}

	dir := filepath.Join(c.cfg.TemplatesRoot, changed)
	result.Version = c.detectVersion(dir)

	tag := release.Tag(changed, result.Version)
	downloadURL := release.DownloadURL(c.cfg.DownloadBaseURL, tag, c.cfg.ArchiveName)

	postID, err := c.PublishTemplate(ctx, Request{
		TemplateDir:  dir,
		TemplateName: changed,
		Version:      result.Version,
		DownloadURL:  downloadURL,
	})
	result.PostID = postID
	result.Err = err
	return result
}

// detectVersion reads the template changelog's leading version heading,
// falling back to the default for templates without changelog discipline.
func (c *Coordinator) detectVersion(templateDir string) string {
	source, err := os.ReadFile(filepath.Join(templateDir, "CHANGELOG.md"))
	if err != nil {
		return changelog.DefaultVersion
	}
	return changelog.LatestOrDefault(string(source))
}

func failures(results []Result) []Result {
	failed := []Result{}
	for _, result := range results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}
