package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repositories groups the repositories bound to one connection or transaction
type Repositories struct {
	Products   ProductRepository
	Orders     OrderRepository
	Categories CategoryRepository
}

// NewRepositories binds every repository to db
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Products:   NewProductRepository(db),
		Orders:     NewOrderRepository(db),
		Categories: NewCategoryRepository(db),
	}
}

// TxFunc is the unit of work run by a Transactor
type TxFunc func(ctx context.Context, repos Repositories) error

// Transactor runs a unit of work atomically
type Transactor interface {
	WithinTransaction(ctx context.Context, fn TxFunc) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by database/sql transactions
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise,
// including when fn panics
func (t *sqlTransactor) WithinTransaction(ctx context.Context, fn TxFunc) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
