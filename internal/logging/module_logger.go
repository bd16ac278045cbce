package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-circle-publisher/pkg/interfaces"
)

const (
	rootModule    = "publisher"
	circleModule  = "publisher.circle"
	contentModule = "publisher.content"
	ledgerModule  = "publisher.ledger"
	batchModule   = "publisher.batch"
)

const (
	fieldTemplate = "template"
	fieldVersion  = "version"
	fieldPostID   = "circle_post_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// CircleLogger returns the logger namespace reserved for the Circle API client.
func CircleLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, circleModule)
}

// ContentLogger returns the logger namespace reserved for content building.
func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentModule)
}

// LedgerLogger returns the logger namespace reserved for version tracking.
func LedgerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ledgerModule)
}

// BatchLogger returns the logger namespace reserved for batch publish runs.
func BatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, batchModule)
}

// WithPublishContext enriches the provided logger with the common publish
// fields (template name, version, post id). Empty values are ignored so the
// helper can be used before a post id is known.
func WithPublishContext(logger interfaces.Logger, template, version, postID string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(template); trimmed != "" {
		fields[fieldTemplate] = trimmed
	}
	if trimmed := strings.TrimSpace(version); trimmed != "" {
		fields[fieldVersion] = trimmed
	}
	if trimmed := strings.TrimSpace(postID); trimmed != "" {
		fields[fieldPostID] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
