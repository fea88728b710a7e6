package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/swapwatch/internal/core/cursor"
	"github.com/vietddude/swapwatch/internal/core/domain"
)

// HeadFetcher returns the chain head.
type HeadFetcher interface {
	CurrentBlockNumber(ctx context.Context) (uint64, error)
}

// Thresholds are block lags that degrade a feed.
type Thresholds struct {
	DegradedLag uint64
	CriticalLag uint64
}

// Monitor aggregates health status of every feed.
type Monitor struct {
	feeds      []string
	cursorMgr  cursor.Manager
	heads      HeadFetcher
	thresholds Thresholds
	cacheFor   time.Duration
	lastCheck  time.Time
	lastReport map[string]FeedHealth
	mu         sync.Mutex
}

func NewMonitor(feeds []string, cursorMgr cursor.Manager, heads HeadFetcher, thresholds Thresholds) *Monitor {
	if thresholds.DegradedLag == 0 {
		thresholds.DegradedLag = 10
	}
	if thresholds.CriticalLag == 0 {
		thresholds.CriticalLag = 100
	}
	return &Monitor{
		feeds:      feeds,
		cursorMgr:  cursorMgr,
		heads:      heads,
		thresholds: thresholds,
		cacheFor:   10 * time.Second,
		lastReport: make(map[string]FeedHealth),
	}
}

// CheckHealth reports every feed. Results are reused for a few seconds so
// probes do not hit the RPC on every request.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]FeedHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < m.cacheFor && len(m.lastReport) > 0 {
		return m.lastReport
	}

	head, headErr := m.heads.CurrentBlockNumber(ctx)
	report := make(map[string]FeedHealth, len(m.feeds))

	cursors := make(map[string]*domain.Cursor, len(m.feeds))
	if all, err := m.cursorMgr.List(ctx); err == nil {
		for _, c := range all {
			cursors[c.FeedID] = c
		}
	}

	for _, feedID := range m.feeds {
		health := FeedHealth{
			FeedID:   feedID,
			Status:   StatusHealthy,
			Progress: m.cursorMgr.GetMetrics(feedID),
		}

		c, ok := cursors[feedID]
		if !ok {
			// Not initialized yet
			health.Status = StatusDegraded
			report[feedID] = health
			continue
		}
		health.State = string(c.State)
		health.Cursor = c.CurrentBlock

		if headErr != nil {
			health.Status = StatusDegraded
		} else {
			health.Head = head
			if lag, _ := m.cursorMgr.GetLag(ctx, feedID, head); lag > 0 {
				health.BlockLag = uint64(lag)
			}
		}

		switch {
		case health.BlockLag > m.thresholds.CriticalLag:
			health.Status = StatusCritical
		case health.BlockLag > m.thresholds.DegradedLag, c.State == domain.CursorStateBackoff:
			health.Status = StatusDegraded
		}

		report[feedID] = health
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
