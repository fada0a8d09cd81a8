package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/Domenick1991/airticketing/internal/domain"
)

type ticketRepo struct{ s *Store }

func (r ticketRepo) SaveBatch(ctx context.Context, tickets []domain.Ticket) error {
	if err := checkCtx(ctx, "save tickets"); err != nil {
		return err
	}
	if len(tickets) == 0 {
		return fmt.Errorf("save tickets: empty batch: %w", domain.ErrInvalidRequest)
	}
	code := tickets[0].ConfirmationCode

	r.s.mu.Lock()
	if _, taken := r.s.groups[code]; taken {
		r.s.mu.Unlock()
		return fmt.Errorf("save tickets: confirmation code %s already used: %w", code, domain.ErrPersistence)
	}
	taken := r.s.activeSeats(tickets[0].FlightID)
	for _, t := range tickets {
		if t.ConfirmationCode != code || t.FlightID != tickets[0].FlightID {
			r.s.mu.Unlock()
			return fmt.Errorf("save tickets: mixed booking group: %w", domain.ErrInvalidRequest)
		}
		if _, ok := taken[t.SeatNumber]; ok {
			r.s.mu.Unlock()
			return fmt.Errorf("save tickets: seat %s on flight %d: %w", t.SeatNumber, t.FlightID, domain.ErrSeatConflict)
		}
		taken[t.SeatNumber] = struct{}{}
	}
	r.s.groups[code] = struct{}{}
	r.s.tickets = append(r.s.tickets, tickets...)
	r.s.mu.Unlock()

	onRollback(ctx, func() { r.s.dropGroup(code) })
	return nil
}

func (r ticketRepo) FindActiveByFlightAndSeat(ctx context.Context, flightID int64, seatNumber string) (*domain.Ticket, error) {
	if err := checkCtx(ctx, "find ticket by seat"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.tickets {
		if t.FlightID == flightID && t.SeatNumber == seatNumber && t.Active() {
			cp := t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("seat %s on flight %d: %w", seatNumber, flightID, domain.ErrNotFound)
}

func (r ticketRepo) FindActiveByFlight(ctx context.Context, flightID int64) ([]domain.Ticket, error) {
	return r.filter(ctx, "find tickets by flight", func(t domain.Ticket) bool {
		return t.FlightID == flightID && t.Active()
	})
}

func (r ticketRepo) FindByConfirmationCode(ctx context.Context, code string) ([]domain.Ticket, error) {
	return r.filter(ctx, "find tickets by confirmation code", func(t domain.Ticket) bool {
		return t.ConfirmationCode == code
	})
}

func (r ticketRepo) AdvanceSeatSequence(ctx context.Context, flightID int64, count int) (int64, error) {
	if err := checkCtx(ctx, "advance seat sequence"); err != nil {
		return 0, err
	}
	unlock, err := r.s.lockFlight(ctx, flightID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.flights[flightID]
	if !ok {
		return 0, fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
	}
	before := f.SeatSeq
	f.SeatSeq += int64(count)
	f.UpdatedAt = r.s.now()
	after := f.SeatSeq

	onRollback(ctx, func() {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		if f.SeatSeq == after {
			f.SeatSeq = before
		}
	})
	return after, nil
}

func (r ticketRepo) filter(ctx context.Context, op string, keep func(domain.Ticket) bool) ([]domain.Ticket, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]domain.Ticket, 0)
	for _, t := range r.s.tickets {
		if keep(t) {
			result = append(result, t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].SeatNumber < result[j].SeatNumber })
	return result, nil
}

func (s *Store) activeSeats(flightID int64) map[string]struct{} {
	seats := make(map[string]struct{})
	for _, t := range s.tickets {
		if t.FlightID == flightID && t.Active() {
			seats[t.SeatNumber] = struct{}{}
		}
	}
	return seats
}

func (s *Store) dropGroup(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tickets[:0]
	for _, t := range s.tickets {
		if t.ConfirmationCode != code {
			kept = append(kept, t)
		}
	}
	s.tickets = kept
	delete(s.groups, code)
}
