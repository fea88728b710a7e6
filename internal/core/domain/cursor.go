package domain

import "time"

// Cursor is the scan position of one feed. It lives only in memory.
type Cursor struct {
	FeedID       string
	CurrentBlock uint64
	UpdatedAt    time.Time
	State        CursorState
}

type CursorState string

const (
	CursorStateInit    CursorState = "init"
	CursorStatePolling CursorState = "polling"
	CursorStateBackoff CursorState = "backoff"
)
