// Package publishcmd exposes the publishing pipeline as validated command
// messages for dispatchers and CLIs.
package publishcmd

import (
	"context"

	"github.com/Masterminds/semver/v3"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-circle-publisher/internal/commands"
	"github.com/goliatone/go-circle-publisher/internal/publisher"
	"github.com/goliatone/go-circle-publisher/pkg/interfaces"
)

const publishTemplateMessageType = "publisher.template.publish"

// TemplatePublisher executes a single template publish end to end.
type TemplatePublisher interface {
	PublishTemplate(ctx context.Context, req publisher.Request) (string, error)
}

// PublishTemplateCommand requests publication of one template version.
type PublishTemplateCommand struct {
	TemplateDir  string `json:"template_dir"`
	TemplateName string `json:"template_name"`
	Version      string `json:"version"`
	DownloadURL  string `json:"download_url"`
}

// Type implements command.Message.
func (PublishTemplateCommand) Type() string { return publishTemplateMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m PublishTemplateCommand) Validate() error {
	errs := validation.Errors{}
	if m.TemplateDir == "" {
		errs["template_dir"] = validation.NewError("publisher.template.publish.template_dir_required", "template_dir is required")
	}
	if m.TemplateName == "" {
		errs["template_name"] = validation.NewError("publisher.template.publish.template_name_required", "template_name is required")
	}
	if m.Version == "" {
		errs["version"] = validation.NewError("publisher.template.publish.version_required", "version is required")
	} else if _, err := semver.NewVersion(m.Version); err != nil {
		errs["version"] = validation.NewError("publisher.template.publish.version_invalid", "version must be a semantic version")
	}
	if m.DownloadURL == "" {
		errs["download_url"] = validation.NewError("publisher.template.publish.download_url_required", "download_url is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishTemplateHandler publishes a template version through the coordinator
// using the shared command handler foundation.
type PublishTemplateHandler struct {
	inner *commands.Handler[PublishTemplateCommand]
}

// NewPublishTemplateHandler constructs a handler wired to the provided publisher.
func NewPublishTemplateHandler(pub TemplatePublisher, logger interfaces.Logger, opts ...commands.HandlerOption[PublishTemplateCommand]) *PublishTemplateHandler {
	exec := func(ctx context.Context, msg PublishTemplateCommand) error {
		_, err := pub.PublishTemplate(ctx, publisher.Request{
			TemplateDir:  msg.TemplateDir,
			TemplateName: msg.TemplateName,
			Version:      msg.Version,
			DownloadURL:  msg.DownloadURL,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishTemplateCommand]{
		commands.WithLogger[PublishTemplateCommand](logger),
		commands.WithOperation[PublishTemplateCommand]("template.publish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishTemplateHandler{
		inner: commands.NewHandler[PublishTemplateCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishTemplateCommand].Execute.
func (h *PublishTemplateHandler) Execute(ctx context.Context, msg PublishTemplateCommand) error {
	return h.inner.Execute(ctx, msg)
}
