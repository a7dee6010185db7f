// Package pgerr maps postgres driver errors onto the storage error values.
package pgerr

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/carson-networks/project-ledger/internal/storage"
)

const uniqueViolation = pq.ErrorCode("23505")

// Translate returns storage.ErrNotFound for missing rows and wraps
// storage.ErrConflict around unique violations. Other errors pass through.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", storage.ErrConflict, pqErr.Constraint)
	}
	return err
}
