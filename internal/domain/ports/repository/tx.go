package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Repositories accept a Tx so a use case can group writes atomically without
// transaction types leaking into its interface; the concrete handle type is
// infra-defined (pgx.Tx for Postgres). Repositories must gracefully accept a
// nil Tx and fall back to the pool.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
