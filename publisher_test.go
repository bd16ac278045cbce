package circlepublisher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-circle-publisher/internal/circle"
)

type stubAPI struct {
	creates int
	updates int
}

func (s *stubAPI) CreatePost(context.Context, circle.PostDraft) (string, error) {
	s.creates++
	return "post-100", nil
}

func (s *stubAPI) UpdatePost(_ context.Context, postID string, _ circle.PostDraft) (string, error) {
	s.updates++
	return postID, nil
}

func testConfig(tb testing.TB) Config {
	tb.Helper()
	dataDir := tb.TempDir()
	cfg := DefaultConfig()
	cfg.Circle.APIToken = "token-123"
	cfg.Circle.SpaceID = "space-9"
	cfg.Storage.VersionsFile = filepath.Join(dataDir, "versions.json")
	cfg.Storage.CircleIndexFile = filepath.Join(dataDir, "circle_index.json")
	cfg.Release.DownloadBaseURL = "https://github.com/acme/templates"
	return cfg
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	cfg := DefaultConfig()
	_, err := New(cfg)
	if err == nil {
		t.Fatal("expected config validation to fail without credentials")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestModulePublishEndToEnd(t *testing.T) {
	api := &stubAPI{}
	module, err := New(testConfig(t), WithCircleAPI(api))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	templateDir := t.TempDir()
	readme := "# Daily Summary Email\n\nSends a digest.\n"
	if err := os.WriteFile(filepath.Join(templateDir, "README.md"), []byte(readme), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}

	handler := module.PublishTemplateHandler()
	cmd := PublishTemplateCommand{
		TemplateDir:  templateDir,
		TemplateName: "daily-summary-email",
		Version:      "1.0.0",
		DownloadURL:  "https://github.com/acme/templates/releases/download/daily-summary-email-v1.0.0/workflow.json.zip",
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if api.creates != 1 {
		t.Fatalf("expected one remote create, got %d", api.creates)
	}

	current, err := module.Versions().CurrentVersion("daily-summary-email")
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if current != "1.0.0" {
		t.Fatalf("expected ledger to record 1.0.0, got %q", current)
	}

	mapped, err := module.Index().Lookup("daily-summary-email")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !mapped.Found || mapped.PostID != "post-100" {
		t.Fatalf("expected index entry post-100, got %#v", mapped)
	}

	// Same version again must be rejected up front.
	if err := handler.Execute(context.Background(), cmd); err == nil {
		t.Fatal("expected duplicate version to be rejected")
	}
	if api.creates != 1 || api.updates != 0 {
		t.Fatalf("duplicate must not reach the API, got creates=%d updates=%d", api.creates, api.updates)
	}
}
