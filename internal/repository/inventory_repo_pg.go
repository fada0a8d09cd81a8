package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGInventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) InventoryRepository {
	return &PGInventoryRepository{db: db}
}

// Reserve decrements remaining in one conditional statement. The row lock taken
// by the UPDATE serialises concurrent reservations on the same fare class.
func (r *PGInventoryRepository) Reserve(ctx context.Context, flightID, fareClassID int64, count int) (int64, error) {
	q := conn(ctx, r.db)

	var fare int64
	err := q.QueryRow(ctx, `
		UPDATE fare_class_inventory
		SET remaining = remaining - $3, updated_at = now()
		WHERE flight_id = $1 AND fare_class_id = $2 AND deleted_at IS NULL AND remaining >= $3
		RETURNING fare_cents`, flightID, fareClassID, count).Scan(&fare)
	if err == nil {
		return fare, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, classify("reserve seats", err)
	}

	// This lookup only explains the failure; it never decides a reservation.
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fare_class_inventory WHERE flight_id = $1 AND fare_class_id = $2 AND deleted_at IS NULL)`,
		flightID, fareClassID).Scan(&exists); err != nil {
		return 0, classify("reserve seats", err)
	}
	if !exists {
		return 0, fmt.Errorf("fare class %d on flight %d: %w", fareClassID, flightID, domain.ErrNotFound)
	}
	return 0, fmt.Errorf("fare class %d on flight %d, requested %d: %w", fareClassID, flightID, count, domain.ErrInsufficientInventory)
}

func (r *PGInventoryRepository) Release(ctx context.Context, flightID, fareClassID int64, count int) error {
	res, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE fare_class_inventory
		SET remaining = LEAST(capacity, remaining + $3), updated_at = now()
		WHERE flight_id = $1 AND fare_class_id = $2 AND deleted_at IS NULL`, flightID, fareClassID, count)
	if err != nil {
		return classify("release seats", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("fare class %d on flight %d: %w", fareClassID, flightID, domain.ErrNotFound)
	}
	return nil
}

func (r *PGInventoryRepository) GetRemaining(ctx context.Context, flightID, fareClassID int64) (int, error) {
	var remaining int
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT remaining FROM fare_class_inventory WHERE flight_id = $1 AND fare_class_id = $2 AND deleted_at IS NULL`,
		flightID, fareClassID).Scan(&remaining)
	if err != nil {
		return 0, classify("get remaining", err)
	}
	return remaining, nil
}

func (r *PGInventoryRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.FareClassInventory, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT i.flight_id, i.fare_class_id, c.name, i.capacity, i.remaining, i.fare_cents
		FROM fare_class_inventory i
		JOIN fare_classes c ON c.id = i.fare_class_id
		WHERE i.flight_id = $1 AND i.deleted_at IS NULL
		ORDER BY i.fare_cents DESC, i.fare_class_id`, flightID)
	if err != nil {
		return nil, classify("list fare classes", err)
	}
	defer rows.Close()

	result := make([]domain.FareClassInventory, 0)
	for rows.Next() {
		var inv domain.FareClassInventory
		if err := rows.Scan(&inv.FlightID, &inv.FareClassID, &inv.Name, &inv.Capacity, &inv.Remaining, &inv.FareCents); err != nil {
			return nil, classify("scan fare class", err)
		}
		result = append(result, inv)
	}
	return result, classify("list fare classes", rows.Err())
}

// Upsert registers a fare class on a flight. It is used by the fixture loader;
// an existing row keeps its sold count and only capacity and fare change.
func (r *PGInventoryRepository) Upsert(ctx context.Context, inv *domain.FareClassInventory) error {
	q := conn(ctx, r.db)
	if err := q.QueryRow(ctx, `
		INSERT INTO fare_classes (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, inv.Name).Scan(&inv.FareClassID); err != nil {
		return classify("upsert fare class", err)
	}
	err := q.QueryRow(ctx, `
		INSERT INTO fare_class_inventory (flight_id, fare_class_id, capacity, remaining, fare_cents)
		VALUES ($1, $2, $3, $3, $4)
		ON CONFLICT (flight_id, fare_class_id) DO UPDATE
		SET remaining = EXCLUDED.capacity - (fare_class_inventory.capacity - fare_class_inventory.remaining),
		    capacity = EXCLUDED.capacity,
		    fare_cents = EXCLUDED.fare_cents,
		    updated_at = now()
		RETURNING remaining`, inv.FlightID, inv.FareClassID, inv.Capacity, inv.FareCents).Scan(&inv.Remaining)
	return classify("upsert inventory", err)
}

var _ InventoryRepository = (*PGInventoryRepository)(nil)
