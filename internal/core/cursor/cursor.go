// Package cursor tracks the scan position of each feed.
//
// # Purpose
//
// The cursor is the "bookmark" a feed resumes from on its next poll:
//   - Current block: the last block whose logs were fully handed downstream
//   - State: init, polling or backoff
//
// # Key Features
//
// State Machine - Only allows valid transitions:
//
//	INIT → POLLING ⇄ BACKOFF (valid)
//	POLLING → INIT (invalid)
//
// Forward Only - Advance never moves the cursor backwards. Re-advancing to the
// current block is a no-op, so a retried cycle is harmless.
//
// Atomic Updates - The cursor only advances AFTER a whole scanned range has been
// processed.
//
// # Quick Start
//
//	manager := cursor.NewManager(memory.NewCursorRepo())
//
//	c, _ := manager.Initialize(ctx, "transfer", head)
//	manager.SetState(ctx, "transfer", cursor.StatePolling, "first poll")
//
//	manager.Advance(ctx, "transfer", head+25)  // ✓ OK
//	manager.Advance(ctx, "transfer", head)     // ✗ ErrCursorRegression
//
// # Package Structure
//
//   - state.go   - State machine definitions and valid transitions
//   - manager.go - Core Manager implementation
//   - metrics.go - Throughput metrics (blocks/sec, state history)
package cursor

import (
	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/storage"
)

// Cursor represents the scan position for a feed.
type Cursor = domain.Cursor

// CursorState represents the current state of the cursor.
type CursorState = domain.CursorState

// State constants re-exported for convenience.
const (
	StateInit    = domain.CursorStateInit
	StatePolling = domain.CursorStatePolling
	StateBackoff = domain.CursorStateBackoff
)

// NewManager creates a new cursor manager with the given repository.
func NewManager(repo storage.CursorRepository) *DefaultManager {
	return &DefaultManager{
		repo:             repo,
		blockTimeHistory: make(map[string]*MetricsCollector),
	}
}

// NewMetricsCollector creates a new metrics collector with the given window size.
func NewMetricsCollector(windowSize int) *MetricsCollector {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &MetricsCollector{
		windowSize:  windowSize,
		blockTimes:  make([]blockRecord, 0, windowSize),
		transitions: make([]Transition, 0, 10),
	}
}
