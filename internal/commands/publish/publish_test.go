package publishcmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-circle-publisher/internal/publisher"
)

type fakeTemplatePublisher struct {
	calls []publisher.Request
	err   error
}

func (f *fakeTemplatePublisher) PublishTemplate(_ context.Context, req publisher.Request) (string, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return "post-1", nil
}

type fakeBatchPublisher struct {
	payload publisher.TriggerPayload
	report  publisher.BatchReport
}

func (f *fakeBatchPublisher) PublishBatch(_ context.Context, payload publisher.TriggerPayload) publisher.BatchReport {
	f.payload = payload
	return f.report
}

func validTemplateCommand() PublishTemplateCommand {
	return PublishTemplateCommand{
		TemplateDir:  "/templates/daily-summary-email",
		TemplateName: "daily-summary-email",
		Version:      "1.2.0",
		DownloadURL:  "https://example/dl.zip",
	}
}

func TestPublishTemplateCommandValidate(t *testing.T) {
	if err := validTemplateCommand().Validate(); err != nil {
		t.Fatalf("valid command rejected: %v", err)
	}

	missing := validTemplateCommand()
	missing.TemplateName = ""
	if err := missing.Validate(); err == nil {
		t.Fatal("expected missing template_name to fail validation")
	}

	badVersion := validTemplateCommand()
	badVersion.Version = "not-a-version"
	if err := badVersion.Validate(); err == nil {
		t.Fatal("expected malformed version to fail validation")
	}
}

func TestPublishTemplateHandlerDelegates(t *testing.T) {
	pub := &fakeTemplatePublisher{}
	h := NewPublishTemplateHandler(pub, nil)

	if err := h.Execute(context.Background(), validTemplateCommand()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(pub.calls) != 1 {
		t.Fatalf("expected one publish call, got %d", len(pub.calls))
	}
	if got := pub.calls[0].TemplateName; got != "daily-summary-email" {
		t.Fatalf("unexpected template name %q", got)
	}
}

func TestPublishTemplateHandlerRejectsInvalidMessage(t *testing.T) {
	pub := &fakeTemplatePublisher{}
	h := NewPublishTemplateHandler(pub, nil)

	err := h.Execute(context.Background(), PublishTemplateCommand{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatal("invalid message must not reach the publisher")
	}
}

func TestPublishTemplateHandlerWrapsFailure(t *testing.T) {
	pub := &fakeTemplatePublisher{err: errors.New("remote down")}
	h := NewPublishTemplateHandler(pub, nil)

	err := h.Execute(context.Background(), validTemplateCommand())
	if err == nil {
		t.Fatal("expected publish failure to surface")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestPublishBatchCommandValidate(t *testing.T) {
	cmd := PublishBatchCommand{Changed: []string{"daily-summary-email"}}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("valid command rejected: %v", err)
	}

	if err := (PublishBatchCommand{}).Validate(); err == nil {
		t.Fatal("expected empty changed list to fail validation")
	}
	if err := (PublishBatchCommand{Changed: []string{""}}).Validate(); err == nil {
		t.Fatal("expected empty path entry to fail validation")
	}
}

func TestPublishBatchHandlerDelegates(t *testing.T) {
	pub := &fakeBatchPublisher{}
	h := NewPublishBatchHandler(pub, nil)

	cmd := PublishBatchCommand{
		Repository: "acme/templates",
		CommitRef:  "abc1234",
		Changed:    []string{"daily-summary-email", "weekly-report"},
	}
	if err := h.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if pub.payload.Repository != "acme/templates" || len(pub.payload.Changed) != 2 {
		t.Fatalf("payload not forwarded: %#v", pub.payload)
	}
}

func TestPublishBatchHandlerSurfacesReportFailures(t *testing.T) {
	pub := &fakeBatchPublisher{
		report: publisher.BatchReport{
			Results: []publisher.Result{
				{Template: "daily-summary-email"},
				{Template: "weekly-report", Err: errors.New("rejected")},
			},
		},
	}
	h := NewPublishBatchHandler(pub, nil)

	err := h.Execute(context.Background(), PublishBatchCommand{Changed: []string{"a", "b"}})
	if err == nil {
		t.Fatal("expected failing report to surface as an error")
	}
}
