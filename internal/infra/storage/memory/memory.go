package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/storage"
)

// CursorRepo keeps feed cursors in process memory. Nothing survives a restart.
type CursorRepo struct {
	mu      sync.RWMutex
	cursors map[string]*domain.Cursor
}

func NewCursorRepo() *CursorRepo {
	return &CursorRepo{cursors: make(map[string]*domain.Cursor)}
}

func (r *CursorRepo) Get(ctx context.Context, feedID string) (*domain.Cursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.cursors[feedID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, storage.ErrCursorNotFound
}

func (r *CursorRepo) Save(ctx context.Context, cursor *domain.Cursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cursor
	r.cursors[cursor.FeedID] = &cp
	return nil
}

func (r *CursorRepo) UpdateBlock(ctx context.Context, feedID string, num uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cursors[feedID]
	if !ok {
		return storage.ErrCursorNotFound
	}
	c.CurrentBlock = num
	c.UpdatedAt = time.Now()
	return nil
}

func (r *CursorRepo) UpdateState(ctx context.Context, feedID string, state domain.CursorState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cursors[feedID]
	if !ok {
		return storage.ErrCursorNotFound
	}
	c.State = state
	c.UpdatedAt = time.Now()
	return nil
}

func (r *CursorRepo) List(ctx context.Context) ([]*domain.Cursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Cursor, 0, len(r.cursors))
	for _, c := range r.cursors {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeedID < out[j].FeedID })
	return out, nil
}
