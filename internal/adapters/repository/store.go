package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/tracker/internal/infrastructure/database"
	"github.com/taskmaster/tracker/internal/ports"
)

// StoreImpl implements ports.Store. Queries are written with ? placeholders
// and rebound for the connection's driver.
type StoreImpl struct {
	db *database.DB
	q  sqlx.ExtContext
}

// NewStore creates a store bound to the connection pool
func NewStore(db *database.DB) ports.Store {
	return &StoreImpl{db: db, q: db.DB}
}

func (s *StoreImpl) Users() ports.UserRepository {
	return NewUserRepository(s.q)
}

func (s *StoreImpl) Categories() ports.CategoryRepository {
	return NewCategoryRepository(s.q)
}

func (s *StoreImpl) Tags() ports.TagRepository {
	return NewTagRepository(s.q)
}

func (s *StoreImpl) Tasks() ports.TaskRepository {
	return NewTaskRepository(s.q)
}

// WithinTx runs fn inside a transaction. A store that is already bound to a
// transaction runs fn in that same transaction.
func (s *StoreImpl) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		return fn(s)
	}

	return s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return fn(&StoreImpl{db: s.db, q: tx})
	})
}

func getOne(ctx context.Context, q sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func selectAll(ctx context.Context, q sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func execQuery(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// insertReturningID runs an INSERT ... RETURNING id statement
func insertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, q.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// execAffectingOne runs a statement and returns notFound when no row matched
func execAffectingOne(ctx context.Context, q sqlx.ExtContext, notFound error, query string, args ...interface{}) error {
	result, err := execQuery(ctx, q, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// inQuery expands an IN (?) clause and rebinds the result
func inQuery(q sqlx.ExtContext, query string, args ...interface{}) (string, []interface{}, error) {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return q.Rebind(expanded), expandedArgs, nil
}
