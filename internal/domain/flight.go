package domain

import "time"

type Flight struct {
	ID            int64     `json:"id"`
	FromAirport   string    `json:"from_airport"`
	ToAirport     string    `json:"to_airport"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	SeatSeq       int64     `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FareClassInventory is the sellable bucket of one fare class on one flight.
// Remaining never leaves [0, Capacity].
type FareClassInventory struct {
	FlightID    int64      `json:"flight_id"`
	FareClassID int64      `json:"fare_class_id"`
	Name        string     `json:"name"`
	Capacity    int        `json:"capacity"`
	Remaining   int        `json:"remaining"`
	FareCents   int64      `json:"fare_cents"`
	DeletedAt   *time.Time `json:"-"`
}

func (f FareClassInventory) Sold() int {
	return f.Capacity - f.Remaining
}
