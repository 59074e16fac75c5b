// Package analytics records account activity and reports daily usage.
package analytics

import (
	"context"
	"time"

	"github.com/txn2/chat-platform/pkg/user"
)

// Activity is a recorded account event.
type Activity struct {
	ID        int64         `json:"id,string"`
	UserID    int64         `json:"user_id,string"`
	Type      user.Activity `json:"type"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store persists activity.
type Store interface {
	// Log records an activity.
	Log(ctx context.Context, a Activity) error

	// CountByType counts activity in [from, to) grouped by type.
	CountByType(ctx context.Context, from, to time.Time) (map[user.Activity]int, error)

	// DeleteBefore removes activity older than cutoff and returns the
	// number of rows removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources.
	Close() error
}

// DailyStats summarizes one UTC day.
type DailyStats struct {
	Date      string `json:"date"`
	Signups   int    `json:"signups"`
	Logins    int    `json:"logins"`
	Exchanges int    `json:"exchanges"`
}

// ReportHeader is the first row of the exchange report.
var ReportHeader = []string{
	"exchange_id", "question", "answer", "created_at",
	"user_id", "user_email", "user_name",
}

// dayBounds returns the UTC day [start, end) containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
