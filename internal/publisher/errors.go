package publisher

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-circle-publisher/internal/circle"
)

// PublishRejectedError is a client-side (4xx) API rejection. Retrying a
// malformed request cannot succeed, so the failure is surfaced immediately
// with the rejecting response detail.
type PublishRejectedError struct {
	Template   string
	StatusCode int
	Detail     string
}

func (e *PublishRejectedError) Error() string {
	return fmt.Sprintf("publisher: %s rejected with status %d: %s", e.Template, e.StatusCode, e.Detail)
}

// PublishFailedError is a server-side failure that survived the bounded
// retry budget.
type PublishFailedError struct {
	Template string
	Attempts int
	Err      error
}

func (e *PublishFailedError) Error() string {
	return fmt.Sprintf("publisher: %s failed after %d attempts: %v", e.Template, e.Attempts, e.Err)
}

func (e *PublishFailedError) Unwrap() error { return e.Err }

// wrapAPIError maps client errors onto the publish taxonomy, attaching the
// template name for batch-level reporting.
func wrapAPIError(template string, err error) error {
	if err == nil {
		return nil
	}

	var rejected *circle.RejectedError
	if errors.As(err, &rejected) {
		return &PublishRejectedError{
			Template:   template,
			StatusCode: rejected.StatusCode,
			Detail:     rejected.Detail,
		}
	}

	var unavailable *circle.UnavailableError
	if errors.As(err, &unavailable) {
		return &PublishFailedError{
			Template: template,
			Attempts: unavailable.Attempts,
			Err:      unavailable.Last,
		}
	}

	return fmt.Errorf("publisher: %s: %w", template, err)
}
