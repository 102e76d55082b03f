package sqlgate

import "context"

// Transaction runs fn inside a gateway transaction.
//
// The transaction gets its own client with a fresh session; the parent
// client's session is never touched. BEGIN is issued before fn, COMMIT after
// it returns nil. If fn or COMMIT fails, ROLLBACK is issued and the original
// error is returned unchanged. Nested calls each get their own scope; the
// gateway decides what nested BEGIN means.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Client) error) error {
	tx := c.clone()
	if _, err := tx.Exec(ctx, "BEGIN"); err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		tx.rollback(ctx)
		return err
	}
	if _, err := tx.Exec(ctx, "COMMIT"); err != nil {
		tx.rollback(ctx)
		return err
	}
	return nil
}

// Transact is Transaction for bodies that produce a value.
func Transact[T any](ctx context.Context, c *Client, fn func(ctx context.Context, tx *Client) (T, error)) (T, error) {
	var result T
	err := c.Transaction(ctx, func(ctx context.Context, tx *Client) error {
		var err error
		result, err = fn(ctx, tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// rollback makes a best effort to abort the scoped transaction. Its error is
// deliberately dropped: the caller's original failure is the one that
// matters, and the abandoned session dies with this client anyway.
func (c *Client) rollback(ctx context.Context) {
	_, _ = c.Exec(ctx, "ROLLBACK")
}
