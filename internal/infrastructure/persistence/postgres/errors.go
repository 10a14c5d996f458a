package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeCheckViolation       = "23514"
)

// sqlState extracts the SQLSTATE from either driver's error type.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapError translates driver failures into domain errors. Unknown errors pass through.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch sqlState(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%s: %w: %v", op, domainErrors.ErrConcurrencyConflict, err)
	case codeCheckViolation:
		return fmt.Errorf("%s: %w: %v", op, domainErrors.ErrInsufficientStock, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// requireOneRow turns a zero-row version-checked write into a conflict.
func requireOneRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d was changed or removed: %w", what, id, domainErrors.ErrConcurrencyConflict)
	}
	return nil
}
