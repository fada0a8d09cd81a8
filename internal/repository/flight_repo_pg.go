package repository

import (
	"context"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, from_airport, to_airport, departure_time, arrival_time, seat_seq, created_at, updated_at FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, classify("list flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.SeatSeq, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, classify("scan flight", err)
		}
		flights = append(flights, f)
	}
	return flights, classify("list flights", rows.Err())
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT id, from_airport, to_airport, departure_time, arrival_time, seat_seq, created_at, updated_at FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.SeatSeq, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, classify("get flight", err)
	}
	return &f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	row := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO flights (from_airport, to_airport, departure_time, arrival_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, seat_seq, created_at, updated_at`, flight.FromAirport, flight.ToAirport, flight.DepartureTime, flight.ArrivalTime)
	return classify("create flight", row.Scan(&flight.ID, &flight.SeatSeq, &flight.CreatedAt, &flight.UpdatedAt))
}

var _ FlightRepository = (*PGFlightRepository)(nil)
