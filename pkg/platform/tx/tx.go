// Package tx threads a *sql.Tx through context so stores can join a
// caller-opened transaction without widening their method signatures.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

// Executor is the query surface shared by *sql.DB and *sql.Tx that the
// postgres stores run against.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// WithTx returns a context carrying t. A nil transaction leaves ctx unchanged.
func WithTx(ctx context.Context, t *sql.Tx) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// From reports the transaction carried by ctx, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	t, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return t, ok
}

// ExecutorFor resolves the context transaction, falling back to db.
func ExecutorFor(ctx context.Context, db *sql.DB) Executor {
	if t, ok := From(ctx); ok {
		return t
	}
	return db
}
