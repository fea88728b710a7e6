// Package recovery decides how a feed reacts to ledger failures and how long
// it waits before trying again.
package recovery

import (
	"context"
	"errors"

	"github.com/vietddude/swapwatch/internal/infra/chain"
)

// FailureCategory groups ledger errors by how the poller responds.
type FailureCategory int

const (
	// CategoryTransient pauses the feed and retries with backoff.
	CategoryTransient FailureCategory = iota
	// CategoryRangeTooLarge shrinks the scan span and retries at once.
	CategoryRangeTooLarge
	// CategoryShutdown stops the feed.
	CategoryShutdown
)

func (c FailureCategory) String() string {
	switch c {
	case CategoryRangeTooLarge:
		return "range_too_large"
	case CategoryShutdown:
		return "shutdown"
	default:
		return "transient"
	}
}

// Classifier maps an error to a category.
type Classifier func(err error) FailureCategory

// ClassifyLedgerError is the Classifier used by the poller.
func ClassifyLedgerError(err error) FailureCategory {
	switch {
	case errors.Is(err, context.Canceled):
		return CategoryShutdown
	case errors.Is(err, chain.ErrRangeTooLarge):
		return CategoryRangeTooLarge
	default:
		return CategoryTransient
	}
}
