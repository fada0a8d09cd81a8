package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGPassengerDirectory struct {
	db *pgxpool.Pool
}

func NewPassengerDirectory(db *pgxpool.Pool) PassengerDirectory {
	return &PGPassengerDirectory{db: db}
}

func (r *PGPassengerDirectory) FindByCitizenID(ctx context.Context, citizenID string) (*domain.Passenger, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT id, full_name, citizen_id, email, created_at FROM passengers WHERE citizen_id = $1 AND deleted_at IS NULL`, citizenID)
	var p domain.Passenger
	if err := row.Scan(&p.ID, &p.FullName, &p.CitizenID, &p.Email, &p.CreatedAt); err != nil {
		return nil, classify("find passenger", err)
	}
	return &p, nil
}

// Create inserts a passenger. When a concurrent request created the same
// citizen first, the existing record is returned untouched.
func (r *PGPassengerDirectory) Create(ctx context.Context, d domain.PassengerDescriptor) (*domain.Passenger, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO passengers (full_name, citizen_id, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (citizen_id) WHERE deleted_at IS NULL DO NOTHING
		RETURNING id, full_name, citizen_id, email, created_at`, d.FullName, d.CitizenID, d.Email)
	var p domain.Passenger
	err := row.Scan(&p.ID, &p.FullName, &p.CitizenID, &p.Email, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.FindByCitizenID(ctx, d.CitizenID)
	}
	if err != nil {
		return nil, classify("create passenger", err)
	}
	return &p, nil
}

var _ PassengerDirectory = (*PGPassengerDirectory)(nil)
