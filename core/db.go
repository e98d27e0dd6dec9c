package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is an open database session: a pooled connection or a transaction.
	DBExecutor interface {
		sqlx.ExecerContext
		sqlx.QueryerContext
	}

	// Gateway hands out database sessions scoped to a single call of fn.
	// The session is released on every exit path and must not be retained by fn.
	Gateway interface {
		WithSession(ctx context.Context, fn func(exec DBExecutor) error) error
		// WithTx runs fn inside a transaction. It commits when fn returns nil and rolls back otherwise.
		WithTx(ctx context.Context, fn func(tx DBExecutor) error) error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
