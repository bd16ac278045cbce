package publishcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-circle-publisher/internal/commands"
	"github.com/goliatone/go-circle-publisher/internal/publisher"
	"github.com/goliatone/go-circle-publisher/pkg/interfaces"
)

const publishBatchMessageType = "publisher.batch.publish"

// BatchPublisher runs a trigger payload's worth of template publishes.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, payload publisher.TriggerPayload) publisher.BatchReport
}

// PublishBatchCommand requests publication of every changed template in a
// trigger payload.
type PublishBatchCommand struct {
	Repository string   `json:"repository"`
	CommitRef  string   `json:"commit_ref"`
	Changed    []string `json:"changed"`
}

// Type implements command.Message.
func (PublishBatchCommand) Type() string { return publishBatchMessageType }

// Validate ensures the message names at least one changed template.
func (m PublishBatchCommand) Validate() error {
	errs := validation.Errors{}
	if len(m.Changed) == 0 {
		errs["changed"] = validation.NewError("publisher.batch.publish.changed_required", "changed must name at least one template")
	}
	for _, path := range m.Changed {
		if path == "" {
			errs["changed"] = validation.NewError("publisher.batch.publish.changed_empty", "changed entries must be non-empty paths")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishBatchHandler runs batch publishes through the coordinator. Individual
// template failures surface through the aggregated report error.
type PublishBatchHandler struct {
	inner *commands.Handler[PublishBatchCommand]
}

// NewPublishBatchHandler constructs a handler wired to the provided batch publisher.
func NewPublishBatchHandler(pub BatchPublisher, logger interfaces.Logger, opts ...commands.HandlerOption[PublishBatchCommand]) *PublishBatchHandler {
	exec := func(ctx context.Context, msg PublishBatchCommand) error {
		report := pub.PublishBatch(ctx, publisher.TriggerPayload{
			Repository: msg.Repository,
			CommitRef:  msg.CommitRef,
			Changed:    msg.Changed,
		})
		return report.Err()
	}

	handlerOpts := []commands.HandlerOption[PublishBatchCommand]{
		commands.WithLogger[PublishBatchCommand](logger),
		commands.WithOperation[PublishBatchCommand]("batch.publish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishBatchHandler{
		inner: commands.NewHandler[PublishBatchCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishBatchCommand].Execute.
func (h *PublishBatchHandler) Execute(ctx context.Context, msg PublishBatchCommand) error {
	return h.inner.Execute(ctx, msg)
}
