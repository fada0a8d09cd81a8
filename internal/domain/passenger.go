package domain

import "time"

type Passenger struct {
	ID        int64      `json:"id"`
	FullName  string     `json:"full_name"`
	CitizenID string     `json:"citizen_id"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

// PassengerDescriptor is what a booking request carries for each traveller.
type PassengerDescriptor struct {
	FullName  string `json:"name"`
	CitizenID string `json:"citizen_id"`
	Email     string `json:"email"`
}

type BookingRequest struct {
	FlightID    int64                 `json:"flight_id"`
	FareClassID int64                 `json:"fare_class_id"`
	Passengers  []PassengerDescriptor `json:"passengers"`
	SeatNumbers []string              `json:"seat_numbers,omitempty"`
	CustomerID  *int64                `json:"customer_id,omitempty"`
}
