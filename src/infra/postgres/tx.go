package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner executa uma função dentro de uma transação. As escritas do
// serviço de relacionamentos só são commitadas depois que a projeção no
// grafo também deu certo, então o runner fica fora dos repositórios.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q Querier) error) error
}

type PoolTxRunner struct {
	pool *pgxpool.Pool
}

func NewPoolTxRunner(pool *pgxpool.Pool) *PoolTxRunner {
	return &PoolTxRunner{pool: pool}
}

// InTx abre a transação, executa fn e commita. Qualquer erro de fn
// dispara o rollback via defer.
func (r *PoolTxRunner) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("PoolTxRunner.InTx - failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("PoolTxRunner.InTx - failed to commit transaction: %w", err)
	}

	return nil
}
