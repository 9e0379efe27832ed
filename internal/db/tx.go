package db

import (
	"context"
	"fmt"

	internalctx "github.com/ze-tech/passbold/internal/context"
	"go.uber.org/multierr"
)

// RunTx runs fn inside a transaction. The transaction replaces the db handle
// in the context passed to fn, so all db functions called from fn take part
// in it.
func RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	db := internalctx.GetDb(ctx)
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(internalctx.WithDb(ctx, tx)); err != nil {
		return multierr.Append(err, tx.Rollback(ctx))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
