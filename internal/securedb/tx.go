package securedb

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

type txContextKey struct{}

func txFromContext(ctx context.Context) dialect.Tx {
	tx, _ := ctx.Value(txContextKey{}).(dialect.Tx)
	return tx
}

func newTxContext(ctx context.Context, tx dialect.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// RunInTransaction executes fn inside a database transaction. All scoped
// operations performed through ctx inside fn share the transaction. A nested
// call joins the ambient transaction instead of opening a new one.
func (c *Client) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("securedb: begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(newTxContext(ctx, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("securedb: rollback after %w: %v", err, rerr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("securedb: commit transaction: %w", err)
	}

	return nil
}
