package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK                    = "ok"
	ResultInvalid               = "invalid_request"
	ResultInsufficientInventory = "insufficient_inventory"
	ResultSeatConflict          = "seat_conflict"
	ResultNotFound              = "not_found"
	ResultError                 = "error"
)

// Ways seats go back to a fare class.
const (
	ReleaseExplicit = "explicit"
	ReleaseRollback = "rollback"
)

var (
	Bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airbooking_bookings_total",
		Help: "Booking attempts by outcome",
	}, []string{"result"})

	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airbooking_tickets_issued_total",
		Help: "Tickets persisted by successful bookings",
	})

	BookingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "airbooking_booking_duration_seconds",
		Help:    "Wall time of BookTickets",
		Buckets: prometheus.DefBuckets,
	})

	Reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airbooking_reservations_total",
		Help: "Inventory reservation attempts by outcome",
	}, []string{"result"})

	Releases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airbooking_released_seats_total",
		Help: "Seats returned to inventory, by how they were returned",
	}, []string{"via"})
)
