package storage

import (
	"context"
	"errors"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

var (
	// ErrCursorNotFound is returned when a cursor doesn't exist
	ErrCursorNotFound = errors.New("cursor not found")
)

// CursorRepository handles cursor storage operations
type CursorRepository interface {
	// Get retrieves the cursor for a feed
	Get(ctx context.Context, feedID string) (*domain.Cursor, error)

	// Save saves/updates the cursor
	Save(ctx context.Context, cursor *domain.Cursor) error

	// UpdateBlock moves the cursor to a new block (atomic operation)
	UpdateBlock(ctx context.Context, feedID string, blockNumber uint64) error

	// UpdateState updates cursor state
	UpdateState(ctx context.Context, feedID string, state domain.CursorState) error

	// List returns every cursor, ordered by feed id
	List(ctx context.Context) ([]*domain.Cursor, error)
}
