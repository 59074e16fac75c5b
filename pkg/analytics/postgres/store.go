// Package postgres provides PostgreSQL storage for account activity.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/chat-platform/pkg/analytics"
	"github.com/txn2/chat-platform/pkg/user"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements analytics.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL activity store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Log records an activity.
func (s *Store) Log(ctx context.Context, a analytics.Activity) error {
	query := `
		INSERT INTO activity_logs (id, user_id, activity_type, created_at, created_date)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		string(a.Type),
		a.CreatedAt,
		a.CreatedAt.UTC().Format(time.DateOnly),
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

// CountByType counts activity in [from, to) grouped by type.
func (s *Store) CountByType(ctx context.Context, from, to time.Time) (map[user.Activity]int, error) {
	query, args, err := psq.Select("activity_type", "COUNT(*) AS count").
		From("activity_logs").
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.Lt{"created_at": to}).
		GroupBy("activity_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building activity count query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[user.Activity]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning activity count: %w", err)
		}
		counts[user.Activity(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity counts: %w", err)
	}
	return counts, nil
}

// DeleteBefore removes activity older than cutoff.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting activity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// Close is a no-op; the caller owns the database handle.
func (*Store) Close() error {
	return nil
}

// Verify interface compliance.
var _ analytics.Store = (*Store)(nil)
