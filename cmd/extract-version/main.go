// Command extract-version prints the latest version heading of a template
// changelog, falling back to the default version when no changelog exists.
// It is meant for release automation that tags artifacts before publishing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/goliatone/go-circle-publisher/internal/changelog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("extract-version: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("extract-version", flag.ExitOnError)
	changelogPath := fs.String("changelog", "", "Path to the changelog file")
	templateDir := fs.String("template-dir", "", "Template directory containing CHANGELOG.md")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *changelogPath
	if path == "" && *templateDir != "" {
		path = filepath.Join(*templateDir, "CHANGELOG.md")
	}
	if path == "" {
		return fmt.Errorf("either -changelog or -template-dir is required")
	}

	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println(changelog.DefaultVersion)
			return nil
		}
		return err
	}

	fmt.Println(changelog.LatestOrDefault(string(source)))
	return nil
}
