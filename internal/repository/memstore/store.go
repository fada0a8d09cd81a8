// Package memstore keeps flights, inventory, passengers and tickets in process
// memory. It implements the same contracts as the Postgres stores and is used
// for local runs (database.driver: memory) and tests.
//
// Every mutation happens under one mutex, which plays the role of the unique
// indexes and conditional updates of the SQL schema. Transactions are an undo
// journal: when the transaction function fails, the recorded compensations
// run in reverse order. Advancing a flight's seat sequence inside a
// transaction holds that flight until the transaction ends and is undone on
// rollback, like the row lock and rollback of the Postgres store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/Domenick1991/airticketing/internal/repository"
)

type invKey struct {
	flightID    int64
	fareClassID int64
}

type Store struct {
	mu sync.Mutex

	flights      map[int64]*domain.Flight
	nextFlightID int64

	fareClasses     map[string]int64
	nextFareClassID int64
	inventory       map[invKey]*domain.FareClassInventory

	passengers      map[int64]*domain.Passenger
	byCitizen       map[string]int64
	nextPassengerID int64

	tickets []domain.Ticket
	groups  map[string]struct{}

	seqLocks map[int64]chan struct{}

	now func() time.Time
}

func New() *Store {
	return &Store{
		flights:     make(map[int64]*domain.Flight),
		fareClasses: make(map[string]int64),
		inventory:   make(map[invKey]*domain.FareClassInventory),
		passengers:  make(map[int64]*domain.Passenger),
		byCitizen:   make(map[string]int64),
		groups:      make(map[string]struct{}),
		seqLocks:    make(map[int64]chan struct{}),
		now:         time.Now,
	}
}

func (s *Store) Flights() repository.FlightRepository { return flightRepo{s} }
func (s *Store) Inventory() repository.InventoryRepository { return inventoryRepo{s} }
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }
func (s *Store) Passengers() repository.PassengerDirectory { return passengerDirectory{s} }
func (s *Store) Transactor() repository.Transactor { return transactor{s} }

type journalKey struct{}

type journal struct {
	mu      sync.Mutex
	undo    []func()
	flights map[int64]func()
}

// release frees the flights held by the transaction.
func (j *journal) release() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, unlock := range j.flights {
		unlock()
	}
	j.flights = nil
}

func (j *journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// onRollback registers a compensation for the transaction in ctx, if any.
func onRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.mu.Lock()
		j.undo = append(j.undo, undo)
		j.mu.Unlock()
	}
}

type transactor struct{ s *Store }

func (t transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{flights: make(map[int64]func())}
	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			j.release()
			panic(p)
		}
		if err != nil {
			j.rollback()
		}
		j.release()
	}()
	return fn(context.WithValue(ctx, journalKey{}, j))
}

// lockFlight takes the flight's sequence lock. Inside a transaction the lock
// stays held until the transaction ends and the returned func does nothing.
func (s *Store) lockFlight(ctx context.Context, flightID int64) (func(), error) {
	j, inTx := ctx.Value(journalKey{}).(*journal)
	if inTx {
		j.mu.Lock()
		_, held := j.flights[flightID]
		j.mu.Unlock()
		if held {
			return func() {}, nil
		}
	}

	s.mu.Lock()
	sem, ok := s.seqLocks[flightID]
	if !ok {
		sem = make(chan struct{}, 1)
		s.seqLocks[flightID] = sem
	}
	s.mu.Unlock()

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("lock flight %d: %w: %v", flightID, domain.ErrPersistence, ctx.Err())
	}
	unlock := func() { <-sem }
	if !inTx {
		return unlock, nil
	}
	j.mu.Lock()
	j.flights[flightID] = unlock
	j.mu.Unlock()
	return func() {}, nil
}

func checkCtx(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrPersistence, err)
	}
	return nil
}

type flightRepo struct{ s *Store }

func (r flightRepo) List(ctx context.Context) ([]domain.Flight, error) {
	if err := checkCtx(ctx, "list flights"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	flights := make([]domain.Flight, 0, len(r.s.flights))
	for _, f := range r.s.flights {
		flights = append(flights, *f)
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].DepartureTime.Before(flights[j].DepartureTime) })
	return flights, nil
}

func (r flightRepo) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	if err := checkCtx(ctx, "get flight"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.flights[id]
	if !ok {
		return nil, fmt.Errorf("flight %d: %w", id, domain.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (r flightRepo) Create(ctx context.Context, flight *domain.Flight) error {
	if err := checkCtx(ctx, "create flight"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextFlightID++
	now := r.s.now()
	flight.ID = r.s.nextFlightID
	flight.CreatedAt, flight.UpdatedAt = now, now
	cp := *flight
	r.s.flights[flight.ID] = &cp

	id := flight.ID
	onRollback(ctx, func() {
		r.s.mu.Lock()
		delete(r.s.flights, id)
		r.s.mu.Unlock()
	})
	return nil
}
