package circlepublisher

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-circle-publisher/internal/release"
)

// CircleConfig holds the Circle Admin API connection and retry settings.
type CircleConfig struct {
	// BaseURL defaults to the hosted Circle Admin API when empty.
	BaseURL  string `json:"base_url"`
	APIToken string `json:"api_token"`
	SpaceID  string `json:"space_id"`
	// Timeout bounds each API attempt, not the whole retry cycle.
	Timeout time.Duration `json:"timeout"`
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries uint64 `json:"max_retries"`
}

// StorageConfig locates the flat-file version ledger and post index.
type StorageConfig struct {
	VersionsFile    string `json:"versions_file"`
	CircleIndexFile string `json:"circle_index_file"`
}

// ReleaseConfig names the template source tree and release download layout.
type ReleaseConfig struct {
	// TemplatesRoot is the directory batch trigger paths are relative to.
	TemplatesRoot string `json:"templates_root"`
	// DownloadBaseURL is the repository base for permanent release URLs.
	DownloadBaseURL string `json:"download_base_url"`
	// ArchiveName is the released artifact filename.
	ArchiveName string `json:"archive_name"`
}

// LoggingConfig controls the structured logging output.
type LoggingConfig struct {
	Level     string `json:"level"`
	Format    string `json:"format"`
	AddSource bool   `json:"add_source"`
}

// Config is the top-level module configuration.
type Config struct {
	Circle  CircleConfig  `json:"circle"`
	Storage StorageConfig `json:"storage"`
	Release ReleaseConfig `json:"release"`
	Logging LoggingConfig `json:"logging"`
}

// DefaultConfig returns a configuration with the deployment defaults filled
// in. API credentials always come from the caller.
func DefaultConfig() Config {
	return Config{
		Circle: CircleConfig{
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			VersionsFile:    "data/versions.json",
			CircleIndexFile: "data/circle_index.json",
		},
		Release: ReleaseConfig{
			ArchiveName: release.ArchiveName,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate reports the configuration gaps that would make publishing fail at
// the first API call.
func (c Config) Validate() error {
	errs := validation.Errors{}
	if c.Circle.APIToken == "" {
		errs["circle.api_token"] = validation.NewError("publisher.config.api_token_required", "circle api token is required")
	}
	if c.Circle.SpaceID == "" {
		errs["circle.space_id"] = validation.NewError("publisher.config.space_id_required", "circle space id is required")
	}
	if c.Storage.VersionsFile == "" {
		errs["storage.versions_file"] = validation.NewError("publisher.config.versions_file_required", "versions file path is required")
	}
	if c.Storage.CircleIndexFile == "" {
		errs["storage.circle_index_file"] = validation.NewError("publisher.config.circle_index_file_required", "circle index file path is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
