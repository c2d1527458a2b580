package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/tallyhq/tally/internal/tally/store"
)

// txStore binds the repos to an open pgx transaction. pgx needs a context
// for Commit and Rollback, so the one that opened the transaction is kept.
type txStore struct {
	ctx context.Context
	tx  pgx.Tx
}

func newTx(ctx context.Context, tx pgx.Tx) *txStore {
	return &txStore{ctx: ctx, tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit(t.ctx) }
func (t *txStore) Rollback() error { return t.tx.Rollback(t.ctx) }

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, pgx.ErrTxClosed
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return pgx.ErrTxClosed
}

func (t *txStore) Users() store.Users                 { return &usersRepo{q: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{q: t.tx} }
func (t *txStore) Categories() store.Categories       { return &categoriesRepo{q: t.tx} }
func (t *txStore) Expenses() store.Expenses           { return &expensesRepo{q: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil }
