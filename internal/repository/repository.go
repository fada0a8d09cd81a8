package repository

import (
	"context"

	"github.com/Domenick1991/airticketing/internal/domain"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
}

// InventoryRepository owns the per-(flight, fare class) remaining counter.
// Reserve must be a single conditional decrement, never a read followed by a write.
type InventoryRepository interface {
	Reserve(ctx context.Context, flightID, fareClassID int64, count int) (int64, error)
	Release(ctx context.Context, flightID, fareClassID int64, count int) error
	GetRemaining(ctx context.Context, flightID, fareClassID int64) (int, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.FareClassInventory, error)
	Upsert(ctx context.Context, inv *domain.FareClassInventory) error
}

type TicketRepository interface {
	SaveBatch(ctx context.Context, tickets []domain.Ticket) error
	FindActiveByFlightAndSeat(ctx context.Context, flightID int64, seatNumber string) (*domain.Ticket, error)
	FindActiveByFlight(ctx context.Context, flightID int64) ([]domain.Ticket, error)
	FindByConfirmationCode(ctx context.Context, code string) ([]domain.Ticket, error)
	// AdvanceSeatSequence moves the flight's seat counter forward by count and
	// returns the new value; the caller owns (value-count, value].
	AdvanceSeatSequence(ctx context.Context, flightID int64, count int) (int64, error)
}

type PassengerDirectory interface {
	FindByCitizenID(ctx context.Context, citizenID string) (*domain.Passenger, error)
	Create(ctx context.Context, d domain.PassengerDescriptor) (*domain.Passenger, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
