// Package health reports feed progress over HTTP.
package health

import "github.com/vietddude/swapwatch/internal/core/cursor"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// FeedHealth is the state of one log feed.
type FeedHealth struct {
	FeedID   string         `json:"feed_id"`
	Status   SystemStatus   `json:"status"`
	State    string         `json:"state"`
	Cursor   uint64         `json:"cursor"`
	Head     uint64         `json:"head"`
	BlockLag uint64         `json:"block_lag"`
	Progress cursor.Metrics `json:"progress"`
}

// Overall returns the worst status in report.
func Overall(report map[string]FeedHealth) SystemStatus {
	status := StatusHealthy
	for _, feed := range report {
		if feed.Status == StatusCritical {
			return StatusCritical
		}
		if feed.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}
