// Package postgres provides PostgreSQL storage for feedback.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/txn2/chat-platform/pkg/feedback"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// feedbackColumns lists columns returned by feedback SELECT queries.
var feedbackColumns = []string{"id", "user_id", "exchange_id", "positive", "status", "created_at"}

// Store implements feedback.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL feedback store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create persists feedback.
func (s *Store) Create(ctx context.Context, f *feedback.Feedback) error {
	query := `
		INSERT INTO feedback (id, user_id, exchange_id, positive, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, f.ID, f.UserID, f.ExchangeID, f.Positive, string(f.Status), f.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return feedback.ErrDuplicate
		}
		return fmt.Errorf("inserting feedback: %w", err)
	}
	return nil
}

// Get retrieves feedback. Returns nil, nil if not found.
func (s *Store) Get(ctx context.Context, id int64) (*feedback.Feedback, error) {
	query, args, err := psq.Select(feedbackColumns...).From("feedback").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building feedback query: %w", err)
	}

	var (
		f      feedback.Feedback
		status string
	)
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&f.ID, &f.UserID, &f.ExchangeID, &f.Positive, &status, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning feedback: %w", err)
	}
	f.Status = feedback.Status(status)
	return &f, nil
}

// Exists reports whether the user already rated the exchange.
func (s *Store) Exists(ctx context.Context, userID, exchangeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM feedback WHERE user_id = $1 AND exchange_id = $2)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, userID, exchangeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking feedback existence: %w", err)
	}
	return exists, nil
}

// applyFilter adds filter conditions to a SELECT builder.
func applyFilter(qb sq.SelectBuilder, filter feedback.Filter) sq.SelectBuilder {
	if filter.UserID != nil {
		qb = qb.Where(sq.Eq{"user_id": *filter.UserID})
	}
	if filter.Positive != nil {
		qb = qb.Where(sq.Eq{"positive": *filter.Positive})
	}
	return qb
}

// List returns feedback matching the filter.
func (s *Store) List(ctx context.Context, filter feedback.Filter) ([]*feedback.Feedback, error) {
	qb := applyFilter(psq.Select(feedbackColumns...).From("feedback"), filter)
	if filter.Ascending {
		qb = qb.OrderBy("created_at ASC", "id ASC")
	} else {
		qb = qb.OrderBy("created_at DESC", "id DESC")
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building feedback list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*feedback.Feedback, 0)
	for rows.Next() {
		var (
			f      feedback.Feedback
			status string
		)
		if err := rows.Scan(&f.ID, &f.UserID, &f.ExchangeID, &f.Positive, &status, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		f.Status = feedback.Status(status)
		items = append(items, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback rows: %w", err)
	}
	return items, nil
}

// Count counts feedback matching the filter.
func (s *Store) Count(ctx context.Context, filter feedback.Filter) (int, error) {
	query, args, err := applyFilter(psq.Select("COUNT(*)").From("feedback"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building feedback count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting feedback: %w", err)
	}
	return count, nil
}

// UpdateStatus sets the status.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status feedback.Status) error {
	result, err := s.db.ExecContext(ctx, `UPDATE feedback SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("updating feedback status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

// Close is a no-op; the caller owns the database handle.
func (*Store) Close() error {
	return nil
}

// Verify interface compliance.
var _ feedback.Store = (*Store)(nil)
