package cursor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/storage/memory"
)

// =============================================================================
// State Transition Tests
// =============================================================================

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{"init to polling", domain.CursorStateInit, domain.CursorStatePolling, true},
		{"init to backoff", domain.CursorStateInit, domain.CursorStateBackoff, true},
		{"polling to backoff", domain.CursorStatePolling, domain.CursorStateBackoff, true},
		{"backoff to polling", domain.CursorStateBackoff, domain.CursorStatePolling, true},
		{"polling to init", domain.CursorStatePolling, domain.CursorStateInit, false},
		{"backoff to init", domain.CursorStateBackoff, domain.CursorStateInit, false},
		{"unknown state", State("paused"), domain.CursorStatePolling, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

// =============================================================================
// Manager Tests
// =============================================================================

func TestManagerInitialize(t *testing.T) {
	manager := NewManager(memory.NewCursorRepo())

	ctx := context.Background()
	cursor, err := manager.Initialize(ctx, "transfer", 1000)

	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if cursor.FeedID != "transfer" {
		t.Errorf("expected feed 'transfer', got %s", cursor.FeedID)
	}
	if cursor.CurrentBlock != 1000 {
		t.Errorf("expected block 1000, got %d", cursor.CurrentBlock)
	}
	if cursor.State != domain.CursorStateInit {
		t.Errorf("expected state init, got %s", cursor.State)
	}
}

func TestManagerAdvance(t *testing.T) {
	manager := NewManager(memory.NewCursorRepo())
	ctx := context.Background()

	if _, err := manager.Initialize(ctx, "transfer", 1000); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// Whole ranges, not single blocks
	if err := manager.Advance(ctx, "transfer", 1040); err != nil {
		t.Errorf("Advance to 1040 failed: %v", err)
	}

	cursor, _ := manager.Get(ctx, "transfer")
	if cursor.CurrentBlock != 1040 {
		t.Errorf("expected block 1040, got %d", cursor.CurrentBlock)
	}

	// Idempotent
	if err := manager.Advance(ctx, "transfer", 1040); err != nil {
		t.Errorf("re-advance to same block should be a no-op, got %v", err)
	}
}

func TestManagerAdvance_Regression(t *testing.T) {
	manager := NewManager(memory.NewCursorRepo())
	ctx := context.Background()

	_, _ = manager.Initialize(ctx, "transfer", 1000)

	err := manager.Advance(ctx, "transfer", 999)
	if !errors.Is(err, ErrCursorRegression) {
		t.Errorf("expected ErrCursorRegression, got: %v", err)
	}

	cursor, _ := manager.Get(ctx, "transfer")
	if cursor.CurrentBlock != 1000 {
		t.Errorf("cursor moved on failed advance: %d", cursor.CurrentBlock)
	}
}

func TestManagerAdvance_NotFound(t *testing.T) {
	manager := NewManager(memory.NewCursorRepo())

	err := manager.Advance(context.Background(), "missing", 10)
	if !errors.Is(err, ErrCursorNotFound) {
		t.Errorf("expected ErrCursorNotFound, got: %v", err)
	}
}

func TestManagerSetState(t *testing.T) {
	manager := NewManager(memory.NewCursorRepo())
	ctx := context.Background()

	var transitions []Transition
	manager.SetStateChangeCallback(func(feedID string, t Transition) {
		transitions = append(transitions, t)
	})

	_, _ = manager.Initialize(ctx, "transfer", 1000)

	if err := manager.SetState(ctx, "transfer", StatePolling, "first poll"); err != nil {
		t.Fatalf("SetState polling failed: %v", err)
	}
	if err := manager.SetState(ctx, "transfer", StateBackoff, "rpc down"); err != nil {
		t.Fatalf("SetState backoff failed: %v", err)
	}
	if err := manager.SetState(ctx, "transfer", StateBackoff, "still down"); err != nil {
		t.Fatalf("repeated SetState should be a no-op: %v", err)
	}
	if err := manager.SetState(ctx, "transfer", StateInit, "reset"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(transitions))
	}
	if transitions[1].To != StateBackoff || transitions[1].Reason != "rpc down" {
		t.Errorf("unexpected transition %+v", transitions[1])
	}

	metrics := manager.GetMetrics("transfer")
	if metrics.BackoffCount != 1 || metrics.LastBackoffAt == nil {
		t.Errorf("expected one recorded backoff, got %+v", metrics)
	}
}

func TestManagerGetLag(t *testing.T) {
	manager := NewManager(memory.NewCursorRepo())
	ctx := context.Background()

	_, _ = manager.Initialize(ctx, "transfer", 1000)

	lag, err := manager.GetLag(ctx, "transfer", 1100)
	if err != nil {
		t.Fatalf("GetLag failed: %v", err)
	}
	if lag != 100 {
		t.Errorf("expected lag 100, got %d", lag)
	}
}

// =============================================================================
// Metrics Tests
// =============================================================================

func TestMetricsCollector(t *testing.T) {
	mc := NewMetricsCollector(10)

	now := time.Now()
	for i := 0; i < 5; i++ {
		mc.RecordAdvance(uint64(100+i*10), uint64(110+i*10), now.Add(time.Duration(i)*time.Second))
	}

	metrics := mc.GetMetrics()

	if metrics.BlocksPerSecond < 9 || metrics.BlocksPerSecond > 11 {
		t.Errorf("expected ~10 blocks/sec, got %f", metrics.BlocksPerSecond)
	}
	if metrics.AverageCycle != time.Second {
		t.Errorf("expected 1s cycle, got %v", metrics.AverageCycle)
	}
}

func TestMetricsCollector_TransitionWindow(t *testing.T) {
	mc := NewMetricsCollector(10)

	for i := 0; i < 12; i++ {
		mc.RecordTransition(NewTransition(StatePolling, StateBackoff, "err"))
	}

	metrics := mc.GetMetrics()
	if len(metrics.StateHistory) != 10 {
		t.Errorf("expected 10 transitions kept, got %d", len(metrics.StateHistory))
	}
	if metrics.BackoffCount != 12 {
		t.Errorf("expected 12 backoffs, got %d", metrics.BackoffCount)
	}
}
