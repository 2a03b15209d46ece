package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Beginner abre transações; *pgxpool.Pool satisfaz a interface.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx executa fn dentro de uma transação. Qualquer erro de fn aborta a
// transação inteira; commit só acontece quando fn retorna nil.
func WithTx(ctx context.Context, conn Beginner, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
