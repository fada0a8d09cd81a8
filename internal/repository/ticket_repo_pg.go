package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketColumns = `id, flight_id, fare_class_id, passenger_id, customer_id, seat_number, fare_cents, status, confirmation_code, created_at, deleted_at`

const activeTicket = `deleted_at IS NULL AND status <> 'CANCELLED'`

type PGTicketRepository struct {
	db *pgxpool.Pool
	tx Transactor
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db, tx: NewTxManager(db)}
}

// SaveBatch writes one booking group. All tickets must share flight and
// confirmation code; either every row is written or none is.
func (r *PGTicketRepository) SaveBatch(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return fmt.Errorf("save tickets: empty batch: %w", domain.ErrInvalidRequest)
	}
	head := tickets[0]
	for _, t := range tickets[1:] {
		if t.ConfirmationCode != head.ConfirmationCode || t.FlightID != head.FlightID {
			return fmt.Errorf("save tickets: mixed booking group: %w", domain.ErrInvalidRequest)
		}
	}

	return r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		batch.Queue(`INSERT INTO booking_groups (confirmation_code, flight_id, customer_id, created_at) VALUES ($1, $2, $3, $4)`,
			head.ConfirmationCode, head.FlightID, head.CustomerID, head.CreatedAt)
		for _, t := range tickets {
			batch.Queue(`INSERT INTO tickets (`+ticketColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				t.ID, t.FlightID, t.FareClassID, t.PassengerID, t.CustomerID, t.SeatNumber, t.FareCents, t.Status, t.ConfirmationCode, t.CreatedAt, t.DeletedAt)
		}

		br := conn(ctx, r.db).SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return classify("save tickets", err)
			}
		}
		return classify("save tickets", br.Close())
	})
}

func (r *PGTicketRepository) FindActiveByFlightAndSeat(ctx context.Context, flightID int64, seatNumber string) (*domain.Ticket, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE flight_id = $1 AND seat_number = $2 AND `+activeTicket,
		flightID, seatNumber)
	t, err := scanTicket(row)
	if err != nil {
		return nil, classify("find ticket by seat", err)
	}
	return t, nil
}

func (r *PGTicketRepository) FindActiveByFlight(ctx context.Context, flightID int64) ([]domain.Ticket, error) {
	return r.query(ctx, "find tickets by flight",
		`SELECT `+ticketColumns+` FROM tickets WHERE flight_id = $1 AND `+activeTicket+` ORDER BY created_at, seat_number`, flightID)
}

func (r *PGTicketRepository) FindByConfirmationCode(ctx context.Context, code string) ([]domain.Ticket, error) {
	return r.query(ctx, "find tickets by confirmation code",
		`SELECT `+ticketColumns+` FROM tickets WHERE confirmation_code = $1 ORDER BY seat_number`, code)
}

func (r *PGTicketRepository) AdvanceSeatSequence(ctx context.Context, flightID int64, count int) (int64, error) {
	var seq int64
	err := conn(ctx, r.db).QueryRow(ctx, `UPDATE flights SET seat_seq = seat_seq + $2, updated_at = now() WHERE id = $1 RETURNING seat_seq`,
		flightID, count).Scan(&seq)
	if err != nil {
		return 0, classify(fmt.Sprintf("advance seat sequence of flight %d", flightID), err)
	}
	return seq, nil
}

func (r *PGTicketRepository) query(ctx context.Context, op, sql string, args ...any) ([]domain.Ticket, error) {
	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, classify(op, rows.Err())
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(&t.ID, &t.FlightID, &t.FareClassID, &t.PassengerID, &t.CustomerID, &t.SeatNumber, &t.FareCents, &t.Status, &t.ConfirmationCode, &t.CreatedAt, &t.DeletedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

var _ TicketRepository = (*PGTicketRepository)(nil)
