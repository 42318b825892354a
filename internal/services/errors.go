package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidReference marks malformed user input. Never retryable.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrAccessDenied marks a source the automation account cannot read.
	// Never retryable; the message is surfaced to the curator verbatim.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound marks an absent message, media, or catalog entry.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks an external call that exceeded its budget.
	ErrTimeout = errors.New("timeout")
	// ErrRateLimited marks an upstream 429; no further attempts against
	// that service may be made for the current request.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoIdentification is the valid terminal state of the
	// identification pipeline, not a failure.
	ErrNoIdentification = errors.New("no identification")
	// ErrTransient marks everything else that might succeed on retry.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether a single retry of the failed call is permitted.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrNoIdentification):
		return false
	default:
		return true
	}
}

// ClassifyContextError maps context cancellation and deadline errors onto the
// taxonomy so callers never see bare context errors across boundaries.
func ClassifyContextError(ctx context.Context, component, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Wrap(ErrTimeout, component, operation, "deadline exceeded", err)
	}
	return err
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
