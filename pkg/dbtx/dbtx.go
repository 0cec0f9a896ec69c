// Package dbtx runs a function inside a database/sql transaction.
package dbtx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Run commits when fn returns nil and rolls back otherwise. A rollback
// failure is joined to fn's error.
func Run(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rb := tx.Rollback(); rb != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rb))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
