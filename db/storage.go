package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace/internal/lifecycle"
)

const uniqueQuotePerSupplier = "quotes_rfq_id_supplier_id_key"

var _ lifecycle.Store = (*Storage)(nil)

// Storage is the PostgreSQL store of the marketplace. A Storage created by
// Atomic runs every call inside the surrounding transaction.
type Storage struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db, q: db}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Atomic runs fn in one transaction and rolls back when fn fails. Calling it
// on a transactional Storage reuses the open transaction.
func (s *Storage) Atomic(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	if _, inTx := s.q.(*sqlx.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Storage{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", mapError(err))
	}
	return nil
}

// mapError translates driver errors into lifecycle sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return lifecycle.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == uniqueQuotePerSupplier {
				return lifecycle.ErrDuplicateQuote
			}
			return fmt.Errorf("%w: %s already exists", lifecycle.ErrConflict, pqErr.Constraint)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", lifecycle.ErrConflict, pqErr.Constraint)
		case "23514": // check_violation
			return fmt.Errorf("%w: %s", lifecycle.ErrConflict, pqErr.Constraint)
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return lifecycle.ErrNotFound
		}
	}
	return err
}

func (s *Storage) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return mapError(sqlx.GetContext(ctx, s.q, dest, query, args...))
}

func (s *Storage) sel(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return mapError(sqlx.SelectContext(ctx, s.q, dest, query, args...))
}

func (s *Storage) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

func forUpdate(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}

// whereClause joins conditions with AND, numbering placeholders from 1.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	out := " WHERE " + w.conds[0]
	for _, c := range w.conds[1:] {
		out += " AND " + c
	}
	return out
}

// page appends LIMIT/OFFSET placeholders after the filter arguments.
func (w *whereClause) page(limit, offset int) string {
	w.args = append(w.args, limit, offset)
	n := len(w.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}
