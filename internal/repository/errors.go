package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	activeSeatIndex = "tickets_active_seat_uq"
)

// classify maps driver errors onto the domain taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activeSeatIndex:
			return fmt.Errorf("%s: %w", op, domain.ErrSeatConflict)
		case pgErr.Code == pgCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInsufficientInventory, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrPersistence, err)
}
