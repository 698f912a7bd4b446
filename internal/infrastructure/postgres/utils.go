package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Estoque-api/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isConflict serialización, deadlock o lock no disponible: la operación puede reintentarse.
func isConflict(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// mapError envuelve err con el error de dominio correspondiente, conservando el original.
// onForeignKey es el error de dominio para una violación de clave foránea.
func mapError(op string, err error, onForeignKey error) error {
	if err == nil {
		return nil
	}
	switch {
	case isConflict(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrDuplicate, err)
	case pgCode(err) == codeCheckViolation, pgCode(err) == codeNumericOutOfRange:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidQuantity, err)
	case pgCode(err) == codeForeignKeyViolation && onForeignKey != nil:
		return fmt.Errorf("%s: %w: %w", op, onForeignKey, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
