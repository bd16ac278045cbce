// Package circlepublisher publishes versioned workflow templates as Circle
// community posts. It converts template documentation to the editor's JSON
// document format, tracks released versions in a flat-file ledger, and keeps
// exactly one remote post per template across releases.
package circlepublisher

import (
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-circle-publisher/internal/changelog"
	"github.com/goliatone/go-circle-publisher/internal/circle"
	"github.com/goliatone/go-circle-publisher/internal/circleindex"
	"github.com/goliatone/go-circle-publisher/internal/commands"
	publishcmd "github.com/goliatone/go-circle-publisher/internal/commands/publish"
	"github.com/goliatone/go-circle-publisher/internal/content"
	"github.com/goliatone/go-circle-publisher/internal/ledger"
	"github.com/goliatone/go-circle-publisher/internal/logging"
	"github.com/goliatone/go-circle-publisher/internal/publisher"
	"github.com/goliatone/go-circle-publisher/pkg/interfaces"
)

// Request exports the single-template publish input.
type Request = publisher.Request

// TriggerPayload exports the batch publish input.
type TriggerPayload = publisher.TriggerPayload

// BatchReport exports the batch publish outcome.
type BatchReport = publisher.BatchReport

// Result exports the per-template batch outcome.
type Result = publisher.Result

// Record exports a version ledger entry.
type Record = ledger.Record

// PublishTemplateCommand exports the validated single-publish message.
type PublishTemplateCommand = publishcmd.PublishTemplateCommand

// PublishBatchCommand exports the validated batch-publish message.
type PublishBatchCommand = publishcmd.PublishBatchCommand

// DefaultVersion is recorded for templates without a changelog.
const DefaultVersion = changelog.DefaultVersion

// Module is the top level publishing runtime façade.
type Module struct {
	cfg         Config
	provider    interfaces.LoggerProvider
	client      publisher.CircleAPI
	versions    *ledger.Ledger
	index       *circleindex.Index
	service     *publisher.Service
	coordinator *publisher.Coordinator
}

// ModuleOption overrides module collaborators, mainly for tests and embedders.
type ModuleOption func(*Module)

// WithLoggerProvider injects the logger provider used for all module loggers.
func WithLoggerProvider(provider interfaces.LoggerProvider) ModuleOption {
	return func(m *Module) {
		if provider != nil {
			m.provider = provider
		}
	}
}

// WithCircleAPI replaces the HTTP-backed Circle client.
func WithCircleAPI(api publisher.CircleAPI) ModuleOption {
	return func(m *Module) {
		if api != nil {
			m.client = api
		}
	}
}

// New constructs a publishing module from the provided configuration.
func New(cfg Config, opts ...ModuleOption) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid publisher configuration").
			WithTextCode("PUBLISHER_CONFIG_INVALID")
	}

	m := &Module{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}

	versions, err := ledger.New(cfg.Storage.VersionsFile)
	if err != nil {
		return nil, err
	}
	m.versions = versions

	index, err := circleindex.New(cfg.Storage.CircleIndexFile)
	if err != nil {
		return nil, err
	}
	m.index = index

	if m.client == nil {
		m.client = circle.NewClient(circle.Config{
			BaseURL:    cfg.Circle.BaseURL,
			APIToken:   cfg.Circle.APIToken,
			SpaceID:    cfg.Circle.SpaceID,
			Timeout:    cfg.Circle.Timeout,
			MaxRetries: cfg.Circle.MaxRetries,
		}, circle.WithLogger(logging.CircleLogger(m.provider)))
	}

	builder := content.NewBuilder(content.WithLogger(logging.ContentLogger(m.provider)))

	m.service = publisher.NewService(m.client, m.index, builder,
		publisher.WithLogger(logging.ModuleLogger(m.provider, "")))

	m.coordinator = publisher.NewCoordinator(m.service, m.versions,
		publisher.CoordinatorConfig{
			TemplatesRoot:   cfg.Release.TemplatesRoot,
			DownloadBaseURL: cfg.Release.DownloadBaseURL,
			ArchiveName:     cfg.Release.ArchiveName,
		},
		publisher.WithCoordinatorLogger(logging.BatchLogger(m.provider)))

	return m, nil
}

// Config returns the configuration the module was built with.
func (m *Module) Config() Config {
	return m.cfg
}

// Coordinator returns the end-to-end publish sequencer.
func (m *Module) Coordinator() *publisher.Coordinator {
	return m.coordinator
}

// Publisher returns the remote create-or-update service.
func (m *Module) Publisher() *publisher.Service {
	return m.service
}

// Versions returns the version ledger.
func (m *Module) Versions() *ledger.Ledger {
	return m.versions
}

// Index returns the template to post id mapping.
func (m *Module) Index() *circleindex.Index {
	return m.index
}

// PublishTemplateHandler returns a command handler for single-template publishes.
func (m *Module) PublishTemplateHandler() *publishcmd.PublishTemplateHandler {
	return publishcmd.NewPublishTemplateHandler(m.coordinator,
		commands.CommandLogger(m.provider, "template"))
}

// PublishBatchHandler returns a command handler for batch publishes.
func (m *Module) PublishBatchHandler() *publishcmd.PublishBatchHandler {
	return publishcmd.NewPublishBatchHandler(m.coordinator,
		commands.CommandLogger(m.provider, "batch"))
}
