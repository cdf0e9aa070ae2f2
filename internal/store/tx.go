package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Transaction runs fn inside an explicit write transaction. fn receives a
// Store bound to the transaction and must use it for every operation. The
// transaction commits when fn returns nil; on error it is rolled back and the
// error from fn is returned unchanged. A panic also rolls back and is
// re-raised. Calling Transaction on a transaction-bound Store joins the
// outer transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	s.trace("BEGIN", nil)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	scoped := *s
	scoped.q = tx
	scoped.tx = tx

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&scoped); err != nil {
		s.trace("ROLLBACK", nil)
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	s.trace("COMMIT", nil)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
