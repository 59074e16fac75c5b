// Package postgres provides PostgreSQL storage for threads and exchanges.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/chat-platform/pkg/chat"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// threadColumns lists columns returned by thread SELECT queries.
var threadColumns = []string{
	"t.id", "t.owner_id", "t.created_at",
	"(SELECT MAX(e.created_at) FROM exchanges e WHERE e.thread_id = t.id) AS last_exchange_at",
}

const exchangeColumns = "id, thread_id, question, answer, created_at, finalized_at"

// Store implements chat.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL chat store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateThread persists a new thread.
func (s *Store) CreateThread(ctx context.Context, t *chat.Thread) error {
	query := `INSERT INTO threads (id, owner_id, created_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, t.ID, t.OwnerID, t.CreatedAt); err != nil {
		return fmt.Errorf("inserting thread: %w", err)
	}
	return nil
}

// GetThread retrieves a thread. Returns nil, nil if not found.
func (s *Store) GetThread(ctx context.Context, id int64) (*chat.Thread, error) {
	query, args, err := psq.Select(threadColumns...).From("threads t").Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building thread query: %w", err)
	}
	return scanThread(s.db.QueryRowContext(ctx, query, args...))
}

// LatestThread returns the owner's newest thread. Returns nil, nil if none.
func (s *Store) LatestThread(ctx context.Context, ownerID int64) (*chat.Thread, error) {
	query, args, err := psq.Select(threadColumns...).
		From("threads t").
		Where(sq.Eq{"t.owner_id": ownerID}).
		OrderBy("t.created_at DESC", "t.id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building latest thread query: %w", err)
	}
	return scanThread(s.db.QueryRowContext(ctx, query, args...))
}

// applyThreadFilter adds filter conditions to a SELECT builder.
func applyThreadFilter(qb sq.SelectBuilder, filter chat.ThreadFilter) sq.SelectBuilder {
	if filter.OwnerID != nil {
		qb = qb.Where(sq.Eq{"t.owner_id": *filter.OwnerID})
	}
	return qb
}

// ListThreads returns threads matching the filter.
func (s *Store) ListThreads(ctx context.Context, filter chat.ThreadFilter) ([]*chat.Thread, error) {
	qb := applyThreadFilter(psq.Select(threadColumns...).From("threads t"), filter)
	if filter.Ascending {
		qb = qb.OrderBy("t.created_at ASC", "t.id ASC")
	} else {
		qb = qb.OrderBy("t.created_at DESC", "t.id DESC")
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building thread list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	threads := make([]*chat.Thread, 0)
	for rows.Next() {
		t, err := scanThreadRow(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thread rows: %w", err)
	}
	return threads, nil
}

// CountThreads counts threads matching the filter.
func (s *Store) CountThreads(ctx context.Context, filter chat.ThreadFilter) (int, error) {
	query, args, err := applyThreadFilter(psq.Select("COUNT(*)").From("threads t"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting threads: %w", err)
	}
	return count, nil
}

// DeleteThread removes a thread. Exchanges go with it through ON DELETE CASCADE.
func (s *Store) DeleteThread(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return chat.ErrThreadNotFound
	}
	return nil
}

// CreateExchange persists a new exchange.
func (s *Store) CreateExchange(ctx context.Context, e *chat.Exchange) error {
	query := `
		INSERT INTO exchanges (id, thread_id, question, answer, created_at, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, e.ID, e.ThreadID, e.Question, e.Answer, e.CreatedAt, e.FinalizedAt)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}
	return nil
}

// GetExchange retrieves one exchange. Returns nil, nil if not found.
func (s *Store) GetExchange(ctx context.Context, id int64) (*chat.Exchange, error) {
	query := `SELECT ` + exchangeColumns + ` FROM exchanges WHERE id = $1`

	var e chat.Exchange
	var finalized sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.ThreadID, &e.Question, &e.Answer, &e.CreatedAt, &finalized,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning exchange: %w", err)
	}
	e.FinalizedAt = timePtr(finalized)
	return &e, nil
}

// FinalizeExchange stores the final answer. The finalized_at guard makes the
// update a no-op for an already finalized row.
func (s *Store) FinalizeExchange(ctx context.Context, id int64, answer string, at time.Time) error {
	query := `
		UPDATE exchanges
		SET answer = $2, finalized_at = $3
		WHERE id = $1 AND finalized_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, answer, at)
	if err != nil {
		return fmt.Errorf("finalizing exchange: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM exchanges WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking exchange: %w", err)
	}
	if exists {
		return chat.ErrAlreadyFinalized
	}
	return chat.ErrExchangeNotFound
}

// ListExchanges returns the exchanges of the given threads in creation order.
func (s *Store) ListExchanges(ctx context.Context, threadIDs ...int64) ([]chat.Exchange, error) {
	if len(threadIDs) == 0 {
		return []chat.Exchange{}, nil
	}

	query, args, err := psq.Select("id", "thread_id", "question", "answer", "created_at", "finalized_at").
		From("exchanges").
		Where(sq.Eq{"thread_id": threadIDs}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building exchange query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	exchanges := make([]chat.Exchange, 0)
	for rows.Next() {
		var e chat.Exchange
		var finalized sql.NullTime
		if err := rows.Scan(&e.ID, &e.ThreadID, &e.Question, &e.Answer, &e.CreatedAt, &finalized); err != nil {
			return nil, fmt.Errorf("scanning exchange row: %w", err)
		}
		e.FinalizedAt = timePtr(finalized)
		exchanges = append(exchanges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exchange rows: %w", err)
	}
	return exchanges, nil
}

// ExchangeOwner returns the owner of the exchange's thread.
func (s *Store) ExchangeOwner(ctx context.Context, exchangeID int64) (int64, error) {
	query := `
		SELECT t.owner_id
		FROM exchanges e
		JOIN threads t ON t.id = e.thread_id
		WHERE e.id = $1
	`
	var owner int64
	err := s.db.QueryRowContext(ctx, query, exchangeID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, chat.ErrExchangeNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("looking up exchange owner: %w", err)
	}
	return owner, nil
}

// ExchangesBetween returns exchanges created in [from, to).
func (s *Store) ExchangesBetween(ctx context.Context, from, to time.Time) ([]chat.OwnedExchange, error) {
	query := `
		SELECT e.id, e.thread_id, e.question, e.answer, e.created_at, e.finalized_at, t.owner_id
		FROM exchanges e
		JOIN threads t ON t.id = e.thread_id
		WHERE e.created_at >= $1 AND e.created_at < $2
		ORDER BY e.created_at ASC, e.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []chat.OwnedExchange
	for rows.Next() {
		var oe chat.OwnedExchange
		var finalized sql.NullTime
		if err := rows.Scan(&oe.ID, &oe.ThreadID, &oe.Question, &oe.Answer, &oe.CreatedAt, &finalized, &oe.OwnerID); err != nil {
			return nil, fmt.Errorf("scanning exchange row: %w", err)
		}
		oe.FinalizedAt = timePtr(finalized)
		result = append(result, oe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exchange rows: %w", err)
	}
	return result, nil
}

// CountExchangesBetween counts exchanges created in [from, to).
func (s *Store) CountExchangesBetween(ctx context.Context, from, to time.Time) (int, error) {
	query, args, err := psq.Select("COUNT(*)").
		From("exchanges").
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.Lt{"created_at": to}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting exchanges: %w", err)
	}
	return count, nil
}

// Close is a no-op; the platform owns the *sql.DB.
func (*Store) Close() error {
	return nil
}

func scanThread(row *sql.Row) (*chat.Thread, error) {
	var t chat.Thread
	var last sql.NullTime
	err := row.Scan(&t.ID, &t.OwnerID, &t.CreatedAt, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning thread: %w", err)
	}
	t.LastExchangeAt = timePtr(last)
	return &t, nil
}

func scanThreadRow(rows *sql.Rows) (*chat.Thread, error) {
	var t chat.Thread
	var last sql.NullTime
	if err := rows.Scan(&t.ID, &t.OwnerID, &t.CreatedAt, &last); err != nil {
		return nil, fmt.Errorf("scanning thread row: %w", err)
	}
	t.LastExchangeAt = timePtr(last)
	return &t, nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// Verify interface compliance.
var _ chat.Store = (*Store)(nil)
