package cursor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/storage"
)

var (
	// ErrCursorNotFound is returned when a cursor doesn't exist.
	ErrCursorNotFound = storage.ErrCursorNotFound

	// ErrCursorRegression is returned when Advance would move the cursor back.
	ErrCursorRegression = errors.New("cursor cannot move backwards")
)

// Manager handles cursor operations with state machine enforcement.
type Manager interface {
	// Get retrieves the current cursor for a feed.
	Get(ctx context.Context, feedID string) (*domain.Cursor, error)

	// Initialize creates a new cursor at a starting block.
	Initialize(ctx context.Context, feedID string, startBlock uint64) (*domain.Cursor, error)

	// Advance moves the cursor forward to blockNumber.
	Advance(ctx context.Context, feedID string, blockNumber uint64) error

	// SetState transitions the cursor to a new state (validates transition).
	SetState(ctx context.Context, feedID string, newState State, reason string) error

	// GetLag returns blocks behind the chain head.
	GetLag(ctx context.Context, feedID string, latestBlock uint64) (int64, error)

	// List returns all cursors.
	List(ctx context.Context) ([]*domain.Cursor, error)

	// GetMetrics returns throughput metrics for a feed.
	GetMetrics(feedID string) Metrics

	// SetStateChangeCallback registers callback for state changes.
	SetStateChangeCallback(fn func(feedID string, t Transition))
}

// DefaultManager implements Manager with state machine enforcement.
type DefaultManager struct {
	repo             storage.CursorRepository
	mu               sync.RWMutex
	stateCallback    func(string, Transition)
	blockTimeHistory map[string]*MetricsCollector
}

// Get retrieves the current cursor for a feed.
func (m *DefaultManager) Get(ctx context.Context, feedID string) (*domain.Cursor, error) {
	return m.repo.Get(ctx, feedID)
}

// List returns all cursors.
func (m *DefaultManager) List(ctx context.Context) ([]*domain.Cursor, error) {
	return m.repo.List(ctx)
}

// Initialize creates a new cursor at startBlock.
func (m *DefaultManager) Initialize(
	ctx context.Context,
	feedID string,
	startBlock uint64,
) (*domain.Cursor, error) {
	cursor := &domain.Cursor{
		FeedID:       feedID,
		CurrentBlock: startBlock,
		UpdatedAt:    time.Now(),
		State:        domain.CursorStateInit,
	}

	if err := m.repo.Save(ctx, cursor); err != nil {
		return nil, fmt.Errorf("failed to save cursor: %w", err)
	}

	m.mu.Lock()
	m.blockTimeHistory[feedID] = NewMetricsCollector(100)
	m.mu.Unlock()

	return cursor, nil
}

// Advance moves the cursor forward after a range has been processed.
func (m *DefaultManager) Advance(ctx context.Context, feedID string, blockNumber uint64) error {
	cursor, err := m.repo.Get(ctx, feedID)
	if err != nil {
		return fmt.Errorf("failed to get cursor: %w", err)
	}

	// Duplicate delivery of the same range
	if blockNumber == cursor.CurrentBlock {
		return nil
	}
	if blockNumber < cursor.CurrentBlock {
		return fmt.Errorf(
			"%w: cursor at %d, got %d",
			ErrCursorRegression,
			cursor.CurrentBlock,
			blockNumber,
		)
	}

	if err := m.repo.UpdateBlock(ctx, feedID, blockNumber); err != nil {
		return fmt.Errorf("failed to update cursor: %w", err)
	}

	m.mu.Lock()
	if collector, ok := m.blockTimeHistory[feedID]; ok {
		collector.RecordAdvance(cursor.CurrentBlock, blockNumber, time.Now())
	}
	m.mu.Unlock()

	return nil
}

// SetState transitions the cursor to a new state. Setting the current state
// again is a no-op.
func (m *DefaultManager) SetState(
	ctx context.Context,
	feedID string,
	newState State,
	reason string,
) error {
	cursor, err := m.repo.Get(ctx, feedID)
	if err != nil {
		return fmt.Errorf("failed to get cursor: %w", err)
	}
	if cursor.State == newState {
		return nil
	}

	if !CanTransition(cursor.State, newState) {
		return fmt.Errorf(
			"%w: cannot transition from %s to %s",
			ErrInvalidTransition,
			cursor.State,
			newState,
		)
	}

	transition := NewTransition(cursor.State, newState, reason)

	if err := m.repo.UpdateState(ctx, feedID, newState); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}

	m.mu.Lock()
	if collector, ok := m.blockTimeHistory[feedID]; ok {
		collector.RecordTransition(transition)
	}
	callback := m.stateCallback
	m.mu.Unlock()

	if callback != nil {
		callback(feedID, transition)
	}

	return nil
}

// GetLag returns how many blocks behind the chain head.
func (m *DefaultManager) GetLag(
	ctx context.Context,
	feedID string,
	latestBlock uint64,
) (int64, error) {
	cursor, err := m.repo.Get(ctx, feedID)
	if err != nil {
		return 0, fmt.Errorf("failed to get cursor: %w", err)
	}

	return int64(latestBlock) - int64(cursor.CurrentBlock), nil
}

// GetMetrics returns throughput metrics for a feed.
func (m *DefaultManager) GetMetrics(feedID string) Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if collector, ok := m.blockTimeHistory[feedID]; ok {
		return collector.GetMetrics()
	}

	return Metrics{}
}

// SetStateChangeCallback registers a callback for state changes.
func (m *DefaultManager) SetStateChangeCallback(fn func(feedID string, t Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateCallback = fn
}
