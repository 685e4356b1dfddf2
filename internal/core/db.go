package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB defines the database operations used by core services.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrNotFound is returned when no active record matches a lookup.
var ErrNotFound = errors.New("not found")

// ErrCannotMutateRevoked is returned when a lifecycle mutation targets a
// revoked credential. Revoked is terminal; mutations must fail loudly
// rather than silently no-op.
var ErrCannotMutateRevoked = errors.New("cannot mutate revoked credential")
