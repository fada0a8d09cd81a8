package domain

import "time"

type TicketStatus string

const (
	TicketStatusUnpaid    TicketStatus = "UNPAID"
	TicketStatusPaid      TicketStatus = "PAID"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

type Ticket struct {
	ID               string       `json:"id"`
	FlightID         int64        `json:"flight_id"`
	FareClassID      int64        `json:"fare_class_id"`
	PassengerID      int64        `json:"passenger_id"`
	CustomerID       *int64       `json:"customer_id,omitempty"`
	SeatNumber       string       `json:"seat_number"`
	FareCents        int64        `json:"fare_cents"`
	Status           TicketStatus `json:"status"`
	ConfirmationCode string       `json:"confirmation_code"`
	CreatedAt        time.Time    `json:"created_at"`
	DeletedAt        *time.Time   `json:"deleted_at,omitempty"`
}

// Active tickets hold a seat and count against capacity.
func (t Ticket) Active() bool {
	return t.DeletedAt == nil && t.Status != TicketStatusCancelled
}
