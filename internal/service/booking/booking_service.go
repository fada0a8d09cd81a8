package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/Domenick1991/airticketing/internal/kafka"
	"github.com/Domenick1991/airticketing/internal/metrics"
	"github.com/Domenick1991/airticketing/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	BookTickets(ctx context.Context, req domain.BookingRequest) ([]domain.Ticket, error)
	GetBooking(ctx context.Context, confirmationCode string) ([]domain.Ticket, error)
}

// Ledger is the part of inventory.Ledger the orchestrator needs.
type Ledger interface {
	Reserve(ctx context.Context, flightID, fareClassID int64, count int) (int64, error)
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

const publishAttempts = 3

type BookingService struct {
	tx                 repository.Transactor
	ledger             Ledger
	tickets            repository.TicketRepository
	passengers         repository.PassengerDirectory
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	log                logrus.FieldLogger
	timeout            time.Duration
	layout             SeatLayout
	codeLength         int
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithProducer enables tickets_booked events. Without it bookings are not announced.
func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithTimeout(timeout time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.timeout = timeout
	}
}

func WithSeatLayout(layout SeatLayout) BookingServiceOption {
	return func(s *BookingService) {
		s.layout = layout
	}
}

func WithConfirmationCodeLength(length int) BookingServiceOption {
	return func(s *BookingService) {
		s.codeLength = length
	}
}

func NewBookingService(
	tx repository.Transactor,
	ledger Ledger,
	tickets repository.TicketRepository,
	passengers repository.PassengerDirectory,
	log logrus.FieldLogger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tx:         tx,
		ledger:     ledger,
		tickets:    tickets,
		passengers: passengers,
		log:        log,
		layout:     DefaultSeatLayout,
		codeLength: 8,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// BookTickets issues one ticket per passenger under a shared confirmation
// code. Either every ticket is stored and the seats are taken from the fare
// class, or nothing changes.
func (s *BookingService) BookTickets(ctx context.Context, req domain.BookingRequest) ([]domain.Ticket, error) {
	started := s.now()
	tickets, passengers, err := s.book(ctx, req)
	metrics.BookingDuration.Observe(time.Since(started).Seconds())
	metrics.Bookings.WithLabelValues(bookingResult(err)).Inc()

	entry := s.log.WithFields(logrus.Fields{
		"flight_id":     req.FlightID,
		"fare_class_id": req.FareClassID,
		"passengers":    len(req.Passengers),
	})
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			entry.WithError(err).Error("booking failed")
		} else {
			entry.WithError(err).Info("booking rejected")
		}
		return nil, err
	}

	metrics.TicketsIssued.Add(float64(len(tickets)))
	entry.WithField("confirmation_code", tickets[0].ConfirmationCode).Info("tickets booked")

	if err := s.publish(ctx, tickets, passengers); err != nil {
		entry.WithError(err).Warn("failed to publish tickets_booked event")
	}
	return tickets, nil
}

// withTimeout bounds ctx by the configured booking timeout, if any.
func (s *BookingService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

func (s *BookingService) book(ctx context.Context, req domain.BookingRequest) ([]domain.Ticket, map[int64]*domain.Passenger, error) {
	seats, err := validate(req)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	passengers, err := s.resolvePassengers(ctx, req.Passengers)
	if err != nil {
		return nil, nil, err
	}

	if len(seats) > 0 {
		if err := s.checkSeats(ctx, req.FlightID, seats); err != nil {
			return nil, nil, err
		}
	}

	code := newConfirmationCode(s.codeLength)
	var (
		tickets  []domain.Ticket
		reserved int
	)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if len(seats) == 0 {
			generated, err := s.allocateSeats(ctx, req.FlightID, len(passengers))
			if err != nil {
				return err
			}
			seats = generated
		}

		fare, err := s.ledger.Reserve(ctx, req.FlightID, req.FareClassID, len(passengers))
		if err != nil {
			return err
		}
		reserved = len(passengers)

		tickets = s.buildTickets(req, passengers, seats, fare, code)
		if err := s.tickets.SaveBatch(ctx, tickets); err != nil {
			s.log.WithField("confirmation_code", code).WithError(err).Warn("saving tickets failed, reservation rolled back")
			return err
		}
		return nil
	})
	if err != nil {
		if reserved > 0 {
			metrics.Releases.WithLabelValues(metrics.ReleaseRollback).Add(float64(reserved))
		}
		return nil, nil, persistence(err)
	}

	byID := make(map[int64]*domain.Passenger, len(passengers))
	for _, p := range passengers {
		byID[p.ID] = p
	}
	return tickets, byID, nil
}

func (s *BookingService) GetBooking(ctx context.Context, confirmationCode string) ([]domain.Ticket, error) {
	code := strings.ToUpper(strings.TrimSpace(confirmationCode))
	if code == "" {
		return nil, fmt.Errorf("confirmation code is required: %w", domain.ErrInvalidRequest)
	}
	tickets, err := s.tickets.FindByConfirmationCode(ctx, code)
	if err != nil {
		return nil, persistence(err)
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("booking %s: %w", code, domain.ErrNotFound)
	}
	return tickets, nil
}

// validate checks the request shape and returns the normalised explicit seats.
func validate(req domain.BookingRequest) ([]string, error) {
	if req.FlightID <= 0 || req.FareClassID <= 0 {
		return nil, fmt.Errorf("flight and fare class are required: %w", domain.ErrInvalidRequest)
	}
	if len(req.Passengers) == 0 {
		return nil, fmt.Errorf("at least one passenger is required: %w", domain.ErrInvalidRequest)
	}
	if len(req.SeatNumbers) > 0 && len(req.SeatNumbers) != len(req.Passengers) {
		return nil, fmt.Errorf("got %d seats for %d passengers: %w",
			len(req.SeatNumbers), len(req.Passengers), domain.ErrInvalidRequest)
	}

	citizens := make(map[string]struct{}, len(req.Passengers))
	for i, p := range req.Passengers {
		citizenID := strings.TrimSpace(p.CitizenID)
		if citizenID == "" || strings.TrimSpace(p.FullName) == "" {
			return nil, fmt.Errorf("passenger %d needs a name and citizen id: %w", i+1, domain.ErrInvalidRequest)
		}
		if _, dup := citizens[citizenID]; dup {
			return nil, fmt.Errorf("citizen id %s appears twice: %w", citizenID, domain.ErrInvalidRequest)
		}
		citizens[citizenID] = struct{}{}
	}

	if len(req.SeatNumbers) == 0 {
		return nil, nil
	}
	seats := make([]string, len(req.SeatNumbers))
	seen := make(map[string]struct{}, len(req.SeatNumbers))
	for i, raw := range req.SeatNumbers {
		seat := normalizeSeat(raw)
		if seat == "" {
			return nil, fmt.Errorf("seat %d is empty: %w", i+1, domain.ErrInvalidRequest)
		}
		if _, dup := seen[seat]; dup {
			return nil, fmt.Errorf("seat %s requested twice: %w", seat, domain.ErrSeatConflict)
		}
		seen[seat] = struct{}{}
		seats[i] = seat
	}
	return seats, nil
}

func (s *BookingService) resolvePassengers(ctx context.Context, descriptors []domain.PassengerDescriptor) ([]*domain.Passenger, error) {
	passengers := make([]*domain.Passenger, 0, len(descriptors))
	for _, d := range descriptors {
		d.CitizenID = strings.TrimSpace(d.CitizenID)
		d.FullName = strings.TrimSpace(d.FullName)
		d.Email = strings.TrimSpace(d.Email)

		p, err := s.passengers.FindByCitizenID(ctx, d.CitizenID)
		if errors.Is(err, domain.ErrNotFound) {
			p, err = s.passengers.Create(ctx, d)
		}
		if err != nil {
			return nil, persistence(err)
		}
		passengers = append(passengers, p)
	}
	return passengers, nil
}

func (s *BookingService) checkSeats(ctx context.Context, flightID int64, seats []string) error {
	for _, seat := range seats {
		_, err := s.tickets.FindActiveByFlightAndSeat(ctx, flightID, seat)
		switch {
		case err == nil:
			return fmt.Errorf("seat %s on flight %d: %w", seat, flightID, domain.ErrSeatConflict)
		case errors.Is(err, domain.ErrNotFound):
		default:
			return persistence(err)
		}
	}
	return nil
}

// allocateSeats must run inside the booking transaction: advancing the
// sequence locks the flight row until commit, so the active seats read after
// the first advance cannot change under generated numbering. Labels already
// sold as explicit seats are skipped and the sequence moves on past them.
func (s *BookingService) allocateSeats(ctx context.Context, flightID int64, count int) ([]string, error) {
	last, err := s.tickets.AdvanceSeatSequence(ctx, flightID, count)
	if err != nil {
		return nil, err
	}

	active, err := s.tickets.FindActiveByFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(active))
	for _, t := range active {
		taken[t.SeatNumber] = struct{}{}
	}

	seats := make([]string, 0, count)
	generated := make(map[string]struct{}, count)
	candidates := s.layout.Range(last, count)
	for {
		for _, seat := range candidates {
			if _, dup := generated[seat]; dup {
				return nil, fmt.Errorf("seat %s generated twice on flight %d: %w", seat, flightID, domain.ErrSeatConflict)
			}
			generated[seat] = struct{}{}
			if _, sold := taken[seat]; sold {
				continue
			}
			seats = append(seats, seat)
		}

		missing := count - len(seats)
		if missing == 0 {
			return seats, nil
		}
		if last, err = s.tickets.AdvanceSeatSequence(ctx, flightID, missing); err != nil {
			return nil, err
		}
		candidates = s.layout.Range(last, missing)
	}
}

func (s *BookingService) buildTickets(req domain.BookingRequest, passengers []*domain.Passenger, seats []string, fare int64, code string) []domain.Ticket {
	createdAt := s.now().UTC()
	tickets := make([]domain.Ticket, len(passengers))
	for i, p := range passengers {
		tickets[i] = domain.Ticket{
			ID:               uuid.NewString(),
			FlightID:         req.FlightID,
			FareClassID:      req.FareClassID,
			PassengerID:      p.ID,
			CustomerID:       req.CustomerID,
			SeatNumber:       seats[i],
			FareCents:        fare,
			Status:           domain.TicketStatusUnpaid,
			ConfirmationCode: code,
			CreatedAt:        createdAt,
		}
	}
	return tickets
}

func (s *BookingService) publish(ctx context.Context, tickets []domain.Ticket, passengers map[int64]*domain.Passenger) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	first := tickets[0]
	event := kafka.BookingEvent{
		Type:             kafka.EventTicketsBooked,
		ConfirmationCode: first.ConfirmationCode,
		FlightID:         first.FlightID,
		FareClassID:      first.FareClassID,
		FareCents:        first.FareCents,
		Status:           string(first.Status),
		OccurredAt:       first.CreatedAt,
	}
	for _, t := range tickets {
		line := kafka.TicketLine{TicketID: t.ID, SeatNumber: t.SeatNumber, PassengerID: t.PassengerID}
		if p, ok := passengers[t.PassengerID]; ok {
			line.PassengerName = p.FullName
			line.Email = p.Email
		}
		event.Tickets = append(event.Tickets, line)
	}

	// publishing gets its own timeout window so the whole request stays bounded
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.producer.PublishWithRetry(ctx, s.bookingTopic, event.ConfirmationCode, event, publishAttempts); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.PublishWithRetry(ctx, s.notificationsTopic, event.ConfirmationCode, event, publishAttempts)
	}
	return nil
}

// persistence keeps business errors as they are and files everything else
// under ErrPersistence.
func persistence(err error) error {
	for _, known := range []error{
		domain.ErrInvalidRequest,
		domain.ErrInsufficientInventory,
		domain.ErrSeatConflict,
		domain.ErrNotFound,
		domain.ErrPersistence,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
}

func bookingResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, domain.ErrInvalidRequest):
		return metrics.ResultInvalid
	case errors.Is(err, domain.ErrInsufficientInventory):
		return metrics.ResultInsufficientInventory
	case errors.Is(err, domain.ErrSeatConflict):
		return metrics.ResultSeatConflict
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}

var _ BookingUseCase = (*BookingService)(nil)
