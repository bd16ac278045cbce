package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	circlepublisher "github.com/goliatone/go-circle-publisher"
	"github.com/goliatone/go-circle-publisher/internal/changelog"
	"github.com/goliatone/go-circle-publisher/internal/logging/gologger"
	"github.com/goliatone/go-circle-publisher/internal/release"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("publish: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	templateDir := fs.String("template-dir", "", "Path to the template directory (required)")
	templateName := fs.String("template-name", "", "Template name (defaults to the directory name)")
	version := fs.String("version", "", "Version to publish (defaults to the changelog's latest entry)")
	downloadURL := fs.String("download-url", "", "Release download URL (derived from -download-base when empty)")
	downloadBase := fs.String("download-base", "", "Repository base URL for derived release download URLs")
	versionsFile := fs.String("versions-file", "data/versions.json", "Path to the version ledger")
	indexFile := fs.String("index-file", "data/circle_index.json", "Path to the post index")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *templateDir == "" {
		return fmt.Errorf("-template-dir is required")
	}
	name := *templateName
	if name == "" {
		name = filepath.Base(filepath.Clean(*templateDir))
	}

	publishVersion := *version
	if publishVersion == "" {
		publishVersion = detectVersion(*templateDir)
	}

	url := *downloadURL
	if url == "" {
		if *downloadBase == "" {
			return fmt.Errorf("either -download-url or -download-base is required")
		}
		url = release.DownloadURL(*downloadBase, release.Tag(name, publishVersion), release.ArchiveName)
	}

	cfg := circlepublisher.DefaultConfig()
	cfg.Circle.APIToken = os.Getenv("CIRCLE_API_TOKEN")
	cfg.Circle.SpaceID = os.Getenv("CIRCLE_SPACE_ID")
	if base := os.Getenv("CIRCLE_BASE_URL"); base != "" {
		cfg.Circle.BaseURL = base
	}
	cfg.Storage.VersionsFile = *versionsFile
	cfg.Storage.CircleIndexFile = *indexFile
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	provider, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	module, err := circlepublisher.New(cfg, circlepublisher.WithLoggerProvider(provider))
	if err != nil {
		return err
	}

	cmd := circlepublisher.PublishTemplateCommand{
		TemplateDir:  *templateDir,
		TemplateName: name,
		Version:      publishVersion,
		DownloadURL:  url,
	}
	if err := module.PublishTemplateHandler().Execute(context.Background(), cmd); err != nil {
		return err
	}

	fmt.Printf("published %s v%s\n", name, publishVersion)
	return nil
}

func detectVersion(templateDir string) string {
	source, err := os.ReadFile(filepath.Join(templateDir, "CHANGELOG.md"))
	if err != nil {
		return changelog.DefaultVersion
	}
	return changelog.LatestOrDefault(string(source))
}
