// Package infra_db_tx carries an open transaction through the context so
// every driver touched by one room operation shares it.
package infra_db_tx

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func FromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

// Ext returns the transaction in ctx, falling back to db.
func Ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := FromContext(ctx); ok {
		return tx
	}
	return db
}
