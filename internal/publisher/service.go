// Package publisher holds the create-or-update state machine against the
// Circle API. The central invariant: publishing any number of versions of
// one template results in exactly one remote post, updated in place.
package publisher

import (
	"context"
	"fmt"

	"github.com/goliatone/go-circle-publisher/internal/circle"
	"github.com/goliatone/go-circle-publisher/internal/circleindex"
	"github.com/goliatone/go-circle-publisher/internal/content"
	"github.com/goliatone/go-circle-publisher/internal/logging"
	"github.com/goliatone/go-circle-publisher/pkg/interfaces"
)

// CircleAPI is the content-platform collaborator contract.
type CircleAPI interface {
	CreatePost(ctx context.Context, draft circle.PostDraft) (string, error)
	UpdatePost(ctx context.Context, postID string, draft circle.PostDraft) (string, error)
}

// PostIndex is the durable template -> post id mapping contract.
type PostIndex interface {
	Lookup(name string) (circleindex.Lookup, error)
	Upsert(name, postID string) error
}

// ContentBuilder composes the post document for a template version.
type ContentBuilder interface {
	Build(templateDir, templateName, version, downloadURL string) (content.Post, error)
}

// Request identifies one template version to publish.
type Request struct {
	TemplateDir  string
	TemplateName string
	Version      string
	DownloadURL  string
}

// Service performs the remote half of a publish: index lookup, content
// build, and the create-vs-update dispatch. It deliberately does not touch
// the version ledger, so "did we talk to the remote API" stays separate from
// "did we record history" and a ledger failure never forces a re-publish.
type Service struct {
	api     CircleAPI
	index   PostIndex
	builder ContentBuilder
	logger  interfaces.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger to the service.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the publish state machine.
func NewService(api CircleAPI, index PostIndex, builder ContentBuilder, opts ...Option) *Service {
	s := &Service{
		api:     api,
		index:   index,
		builder: builder,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish creates or updates the Circle post for the template and returns
// the resulting post id. Calling Publish twice with the same arguments after
// a prior success updates the same remote post rather than creating a second
// one. The caller is responsible for recording the returned id into the
// version ledger.
func (s *Service) Publish(ctx context.Context, req Request) (string, error) {
	name := req.TemplateName
	logger := logging.WithPublishContext(s.logger, name, req.Version, "")

	existing, err := s.index.Lookup(name)
	if err != nil {
		// Corrupt index state aborts this template's publish; repairing it is
		// a manual operation, never an implicit reset.
		return "", fmt.Errorf("publisher: %s: index lookup: %w", name, err)
	}

	post, err := s.builder.Build(req.TemplateDir, name, req.Version, req.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("publisher: %s: build content: %w", name, err)
	}

	draft := circle.PostDraft{Title: post.Title, Slug: post.Slug, Body: post.Body}

	if existing.Found {
		logger.Info("updating existing post", "circle_post_id", existing.PostID)
		postID, err := s.api.UpdatePost(ctx, existing.PostID, draft)
		if err != nil {
			return "", wrapAPIError(name, err)
		}
		return postID, nil
	}

	logger.Info("creating new post", "slug", post.Slug)
	postID, err := s.api.CreatePost(ctx, draft)
	if err != nil {
		return "", wrapAPIError(name, err)
	}

	if err := s.index.Upsert(name, postID); err != nil {
		// The remote post exists but the mapping write failed. Surface enough
		// detail for manual reconciliation; re-publishing would duplicate the
		// post.
		logger.Error("post created but index write failed; record mapping manually",
			"circle_post_id", postID, "error", err)
		return "", fmt.Errorf("publisher: %s: record post id %s: %w", name, postID, err)
	}

	return postID, nil
}
